package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"edu-chatbot/internal/middleware"
	"edu-chatbot/pkg/response"
)

// RouteRegistrar 能注册自身路由的处理器
type RouteRegistrar interface {
	RegisterRoutes(r gin.IRoutes)
}

// NewRouter 创建 Gin 引擎并注册全局中间件和路由
func NewRouter(log *zap.Logger, cors middleware.CORSConfig, handlers ...RouteRegistrar) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// 全局中间件
	router.Use(middleware.RequestIDMiddleware())   // 请求 ID
	router.Use(middleware.LoggerMiddleware(log))   // 请求日志
	router.Use(middleware.RecoveryMiddleware(log)) // 恢复 panic
	router.Use(middleware.CORSMiddleware(cors))    // CORS

	for _, h := range handlers {
		h.RegisterRoutes(router)
	}

	router.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "not found")
	})
	router.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c, "method not allowed")
	})

	return router
}
