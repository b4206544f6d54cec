package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DashScopeEndpoint 阿里云 DashScope 文本生成接口
	DashScopeEndpoint = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"
	// DashScopeModel 默认模型
	DashScopeModel = "qwen-turbo"
)

// DashScopeProvider 调用阿里云通义千问
type DashScopeProvider struct {
	apiKey   string
	endpoint string
	model    string
	client   *http.Client
}

// NewDashScopeProvider 创建 DashScopeProvider
// endpoint、model 为空时使用默认值；client 为空时使用 30 秒超时的默认客户端
func NewDashScopeProvider(apiKey, endpoint, model string, client *http.Client) *DashScopeProvider {
	if endpoint == "" {
		endpoint = DashScopeEndpoint
	}
	if model == "" {
		model = DashScopeModel
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &DashScopeProvider{
		apiKey:   apiKey,
		endpoint: endpoint,
		model:    model,
		client:   client,
	}
}

// dashScopeRequest 阿里云 API 请求结构
type dashScopeRequest struct {
	Model string `json:"model"`
	Input struct {
		Messages []Message `json:"messages"`
	} `json:"input"`
	Parameters struct {
		ResultFormat string `json:"result_format"` // "message"
	} `json:"parameters"`
}

// dashScopeResponse 阿里云 API 响应结构
type dashScopeResponse struct {
	Output struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
	} `json:"output"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Name 实现 Provider
func (p *DashScopeProvider) Name() string {
	return ProviderDashScope
}

// Complete 实现 Provider
func (p *DashScopeProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	body := dashScopeRequest{Model: p.model}
	body.Input.Messages = messages
	body.Parameters.ResultFormat = "message"

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call DashScope: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read DashScope response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Provider: ProviderDashScope, StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var dashResp dashScopeResponse
	if err := json.Unmarshal(bodyBytes, &dashResp); err != nil {
		return "", fmt.Errorf("failed to parse DashScope response: %w", err)
	}

	if dashResp.Code != "" {
		return "", fmt.Errorf("DashScope error: %s - %s", dashResp.Code, dashResp.Message)
	}

	if len(dashResp.Output.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return cleanCompletion(dashResp.Output.Choices[0].Message.Content)
}
