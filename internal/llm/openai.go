package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider 调用 OpenAI 兼容的 chat completions 接口
// 通过 baseURL 可以指向 Groq、OpenAI 或其他兼容服务
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider 创建 OpenAIProvider
// baseURL 为空时使用 OpenAI 官方地址
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// Name 实现 Provider
func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

// Complete 实现 Provider
func (p *OpenAIProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, msg := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return cleanCompletion(resp.Choices[0].Message.Content)
}
