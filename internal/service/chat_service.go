package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"edu-chatbot/internal/llm"
	"edu-chatbot/internal/model"
)

// ChatService 组装请求并调用外部模型
// 不负责持久化，记录对话由调用方完成
type ChatService struct {
	provider     llm.Provider
	systemPrompt string
	timeout      time.Duration
	log          *zap.Logger
}

// NewChatService 创建 ChatService 实例
// 参数:
//   - provider: 模型服务
//   - systemPrompt: 系统提示词，为空时不发送 system 消息
//   - timeout: 单次调用超时
//   - log: 日志
func NewChatService(provider llm.Provider, systemPrompt string, timeout time.Duration, log *zap.Logger) *ChatService {
	return &ChatService{
		provider:     provider,
		systemPrompt: systemPrompt,
		timeout:      timeout,
		log:          log.Named("chat"),
	}
}

// Reply 把用户消息发给模型并返回回复
// history 为按时间正序排列的历史对话，会放在本次消息之前作为上下文
func (s *ChatService) Reply(ctx context.Context, userMessage string, history []model.ChatTurn) (string, error) {
	if strings.TrimSpace(userMessage) == "" {
		return "", &ValidationError{Field: "user_message", Reason: "must not be empty"}
	}

	messages := s.buildMessages(userMessage, history)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := s.provider.Complete(ctx, messages)
	if err != nil {
		fields := []zap.Field{
			zap.String("provider", s.provider.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		}
		var statusErr *llm.StatusError
		if errors.As(err, &statusErr) {
			fields = append(fields, zap.String("upstream_body", statusErr.Body))
		}
		s.log.Warn("provider call failed", fields...)
		return "", &ProviderError{Provider: s.provider.Name(), Err: err}
	}

	s.log.Debug("provider replied",
		zap.String("provider", s.provider.Name()),
		zap.Int("context_turns", len(history)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return reply, nil
}

// buildMessages 顺序: system -> 历史对话 -> 本次消息
func (s *ChatService) buildMessages(userMessage string, history []model.ChatTurn) []llm.Message {
	messages := make([]llm.Message, 0, len(history)*2+2)
	if s.systemPrompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: s.systemPrompt})
	}
	for _, turn := range history {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: turn.UserMessage},
			llm.Message{Role: llm.RoleAssistant, Content: turn.BotResponse},
		)
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})
}
