// Package response 提供统一的 HTTP 响应格式
// 成功时直接返回数据本身，失败时返回 {code, message}
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody 统一错误响应结构
// code: 业务状态码
// message: 错误信息
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// 业务状态码定义
const (
	CodeBadRequest       = 1000 // 请求参数错误
	CodeNotFound         = 1003 // 资源不存在
	CodeInternalError    = 1004 // 服务器内部错误
	CodeMethodNotAllowed = 1005 // 请求方法不支持
	CodeProviderError    = 1501 // 模型服务调用失败
	CodePersistenceError = 1601 // 数据库读写失败
	CodeUnavailable      = 1602 // 依赖服务不可用
)

// OK 返回 200 和数据
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// ErrorWithCode 返回错误响应（带业务状态码）
// 参数:
//   - c: Gin 上下文
//   - httpCode: HTTP 状态码
//   - bizCode: 业务状态码
//   - message: 错误信息
func ErrorWithCode(c *gin.Context, httpCode, bizCode int, message string) {
	c.AbortWithStatusJSON(httpCode, ErrorBody{
		Code:    bizCode,
		Message: message,
	})
}

// BadRequest 返回 400 错误（请求参数错误）
func BadRequest(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusBadRequest, CodeBadRequest, message)
}

// NotFound 返回 404 错误
func NotFound(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusNotFound, CodeNotFound, message)
}

// MethodNotAllowed 返回 405 错误
func MethodNotAllowed(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusMethodNotAllowed, CodeMethodNotAllowed, message)
}

// InternalError 返回 500 错误（服务器内部错误）
func InternalError(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusInternalServerError, CodeInternalError, message)
}

// ProviderError 返回 502 错误，上游模型服务失败
func ProviderError(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusBadGateway, CodeProviderError, message)
}

// PersistenceError 返回 500 错误，数据库读写失败
func PersistenceError(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusInternalServerError, CodePersistenceError, message)
}

// Unavailable 返回 503 错误
func Unavailable(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusServiceUnavailable, CodeUnavailable, message)
}
