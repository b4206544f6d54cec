package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider 调用 Google Gemini
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider 创建 GeminiProvider，调用方负责 Close
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// Name 实现 Provider
func (p *GeminiProvider) Name() string {
	return ProviderGemini
}

// Close 关闭底层客户端
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// Complete 实现 Provider
// system 消息作为 SystemInstruction，最后一条消息作为本次输入，其余作为会话历史
func (p *GeminiProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	system, history, last := splitForGemini(messages)
	if last == nil {
		return "", fmt.Errorf("no user message to send")
	}

	gm := p.client.GenerativeModel(p.model)
	if system != "" {
		gm.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	cs := gm.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, last)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	return cleanCompletion(geminiText(resp))
}

// splitForGemini 把通用消息拆成 Gemini 需要的三部分
// assistant 角色在 Gemini 中叫 model
func splitForGemini(messages []Message) (system string, history []*genai.Content, last genai.Part) {
	var systemParts []string
	var turns []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			systemParts = append(systemParts, msg.Content)
		case RoleAssistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}

	system = strings.Join(systemParts, "\n")
	if len(turns) == 0 || turns[len(turns)-1].Role != "user" {
		return system, turns, nil
	}
	return system, turns[:len(turns)-1], turns[len(turns)-1].Parts[0]
}

// geminiText 取第一个候选的全部文本片段
func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
