// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"edu-chatbot/internal/middleware"
	"edu-chatbot/internal/service"
	"edu-chatbot/pkg/response"
)

// ChatHandler 对话请求处理器
type ChatHandler struct {
	chatService    *service.ChatService
	historyService *service.HistoryService
	contextTurns   int
	log            *zap.Logger
}

// NewChatHandler 创建 ChatHandler 实例
// contextTurns 为每次请求附带给模型的历史轮数，0 表示不附带
func NewChatHandler(chatService *service.ChatService, historyService *service.HistoryService, contextTurns int, log *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService:    chatService,
		historyService: historyService,
		contextTurns:   contextTurns,
		log:            log.Named("handler.chat"),
	}
}

// ChatRequest 对话请求
type ChatRequest struct {
	UserMessage string `json:"user_message" binding:"required"`
}

// ChatResponse 对话响应
type ChatResponse struct {
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Timestamp   time.Time `json:"timestamp"`
}

// Chat 发送消息并获取回复
// @Summary 发送消息
// @Tags 对话
// @Accept json
// @Produce json
// @Param body body ChatRequest true "用户消息"
// @Success 200 {object} ChatResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 502 {object} response.ErrorBody
// @Router /chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "user_message is required")
		return
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		response.BadRequest(c, "user_message must not be empty")
		return
	}

	ctx := c.Request.Context()

	history, err := h.historyService.Context(ctx, h.contextTurns)
	if err != nil {
		// 上下文只是增强，读取失败时照常回复
		h.log.Warn("load context failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		history = nil
	}

	reply, err := h.chatService.Reply(ctx, req.UserMessage, history)
	if err != nil {
		h.fail(c, err)
		return
	}

	turn, err := h.historyService.Record(ctx, req.UserMessage, reply)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.OK(c, ChatResponse{
		UserMessage: turn.UserMessage,
		BotResponse: turn.BotResponse,
		Timestamp:   turn.Timestamp,
	})
}

// fail 把业务错误映射为 HTTP 响应
func (h *ChatHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		validationErr  *service.ValidationError
		providerErr    *service.ProviderError
		persistenceErr *service.PersistenceError
	)
	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(c, validationErr.Error())
	case errors.As(err, &providerErr):
		response.ProviderError(c, "provider error: "+providerErr.Err.Error())
	case errors.As(err, &persistenceErr):
		response.PersistenceError(c, "failed to save chat turn")
	default:
		response.InternalError(c, "internal server error")
	}
}

// RegisterRoutes 注册对话路由
func (h *ChatHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/chat", h.Chat)
}
