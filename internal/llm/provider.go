// Package llm 封装外部大模型服务
// 不同厂商实现同一个 Provider 接口，由配置选择
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"edu-chatbot/internal/config"
)

// 支持的厂商
const (
	ProviderOpenAI    = "openai" // OpenAI 及兼容接口（Groq 等）
	ProviderGemini    = "gemini"
	ProviderDashScope = "dashscope"
)

// 各厂商的默认地址和模型
const (
	GroqBaseURL = "https://api.groq.com/openai/v1"
	GroqModel   = "llama-3.3-70b-versatile"
	GeminiModel = "gemini-1.5-flash"
)

var (
	// ErrEmptyCompletion 模型返回了空内容
	ErrEmptyCompletion = errors.New("provider returned no content")
	// ErrMissingAPIKey 未配置 API Key
	ErrMissingAPIKey = errors.New("provider not configured (missing API key)")
)

// StatusError 厂商接口返回了非 200 状态
// Body 只用于日志，不出现在 Error() 中
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
}

// 消息角色
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 一条发给模型的消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider 大模型服务
type Provider interface {
	// Name 返回厂商名称，用于日志和错误信息
	Name() string
	// Complete 同步调用模型，返回回复文本
	Complete(ctx context.Context, messages []Message) (string, error)
}

// New 按配置创建 Provider
func New(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI, "groq":
		return NewOpenAIProvider(cfg.APIKey, orDefault(cfg.BaseURL, GroqBaseURL), orDefault(cfg.Model, GroqModel)), nil
	case ProviderGemini:
		return NewGeminiProvider(ctx, cfg.APIKey, orDefault(cfg.Model, GeminiModel))
	case ProviderDashScope:
		return NewDashScopeProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, nil), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func orDefault(val, def string) string {
	if val == "" {
		return def
	}
	return val
}

// cleanCompletion 去掉首尾空白，空内容返回 ErrEmptyCompletion
func cleanCompletion(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}
