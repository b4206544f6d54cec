package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"edu-chatbot/internal/model"
	"edu-chatbot/internal/service"
	"edu-chatbot/pkg/response"
)

// HistoryHandler 历史记录请求处理器
type HistoryHandler struct {
	historyService *service.HistoryService
	defaultLimit   int
}

// NewHistoryHandler 创建 HistoryHandler 实例
func NewHistoryHandler(historyService *service.HistoryService, defaultLimit int) *HistoryHandler {
	if defaultLimit <= 0 {
		defaultLimit = service.DefaultLimit
	}
	return &HistoryHandler{
		historyService: historyService,
		defaultLimit:   defaultLimit,
	}
}

// TurnResponse 单轮对话
type TurnResponse struct {
	ID          uuid.UUID `json:"id"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Timestamp   time.Time `json:"timestamp"`
}

func toTurnResponse(t model.ChatTurn) TurnResponse {
	return TurnResponse{
		ID:          t.ID,
		UserMessage: t.UserMessage,
		BotResponse: t.BotResponse,
		Timestamp:   t.Timestamp,
	}
}

// History 获取最近的对话记录
// @Summary 对话历史
// @Tags 对话
// @Produce json
// @Param limit query int false "条数" default(10)
// @Success 200 {array} TurnResponse
// @Failure 400 {object} response.ErrorBody
// @Router /history [get]
func (h *HistoryHandler) History(c *gin.Context) {
	limit := h.defaultLimit
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}

	turns, err := h.historyService.Recent(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			response.BadRequest(c, validationErr.Error())
			return
		}
		response.PersistenceError(c, "failed to load history")
		return
	}

	items := make([]TurnResponse, 0, len(turns))
	for _, t := range turns {
		items = append(items, toTurnResponse(t))
	}
	response.OK(c, items)
}

// RegisterRoutes 注册历史记录路由
func (h *HistoryHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/history", h.History)
}
