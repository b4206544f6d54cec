package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"edu-chatbot/pkg/response"
)

// PingFunc 检查依赖是否可用
type PingFunc func(ctx context.Context) error

// HealthHandler 健康检查
type HealthHandler struct {
	ping PingFunc
	log  *zap.Logger
}

// NewHealthHandler 创建 HealthHandler 实例，ping 为 nil 时只报告进程存活
func NewHealthHandler(ping PingFunc, log *zap.Logger) *HealthHandler {
	return &HealthHandler{ping: ping, log: log.Named("handler.health")}
}

// Health 返回服务和数据库状态
func (h *HealthHandler) Health(c *gin.Context) {
	if h.ping == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		h.log.Warn("database ping failed", zap.Error(err))
		response.Unavailable(c, "database unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
}

// RegisterRoutes 注册健康检查路由
func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.Health)
}
