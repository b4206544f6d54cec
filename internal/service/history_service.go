package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"edu-chatbot/internal/model"
)

// DefaultLimit 历史查询默认条数
const DefaultLimit = 10

// TurnStore 对话记录存储
// 由 repository.ChatTurnRepository 实现
type TurnStore interface {
	Create(ctx context.Context, turn *model.ChatTurn) error
	ListRecent(ctx context.Context, limit int) ([]model.ChatTurn, error)
}

// HistoryService 对话记录的写入和查询
type HistoryService struct {
	store    TurnStore
	maxLimit int
	now      func() time.Time
	log      *zap.Logger
}

// NewHistoryService 创建 HistoryService 实例
// maxLimit 为单次查询的上限，超过时截断
func NewHistoryService(store TurnStore, maxLimit int, log *zap.Logger) *HistoryService {
	return &HistoryService{
		store:    store,
		maxLimit: maxLimit,
		now:      time.Now,
		log:      log.Named("history"),
	}
}

// Recent 获取最新的 limit 轮对话，最新的在前
// limit 必须为正数，没有记录时返回空切片
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]model.ChatTurn, error) {
	if limit <= 0 {
		return nil, &ValidationError{Field: "limit", Reason: "must be a positive integer"}
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		limit = s.maxLimit
	}

	turns, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		s.log.Error("list history failed", zap.Int("limit", limit), zap.Error(err))
		return nil, &PersistenceError{Op: "list history", Err: err}
	}
	if turns == nil {
		turns = []model.ChatTurn{}
	}
	return turns, nil
}

// Context 获取最近 n 轮对话作为模型上下文，按时间正序排列
func (s *HistoryService) Context(ctx context.Context, n int) ([]model.ChatTurn, error) {
	if n <= 0 {
		return nil, nil
	}
	turns, err := s.Recent(ctx, n)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Record 写入一轮对话，时间戳取写入时刻
// 精度向上取到微秒，和 timestamptz 保存的值一致，且不早于调用时刻
func (s *HistoryService) Record(ctx context.Context, userMessage, botResponse string) (*model.ChatTurn, error) {
	if strings.TrimSpace(userMessage) == "" {
		return nil, &ValidationError{Field: "user_message", Reason: "must not be empty"}
	}

	turn := &model.ChatTurn{
		UserMessage: userMessage,
		BotResponse: botResponse,
		Timestamp:   toMicros(s.now()),
	}
	if err := s.store.Create(ctx, turn); err != nil {
		s.log.Error("save chat turn failed", zap.Error(err))
		return nil, &PersistenceError{Op: "save chat turn", Err: err}
	}
	return turn, nil
}

// toMicros 转为 UTC 并向上取整到微秒
func toMicros(t time.Time) time.Time {
	t = t.UTC()
	if r := t.Truncate(time.Microsecond); !r.Equal(t) {
		return r.Add(time.Microsecond)
	}
	return t
}
