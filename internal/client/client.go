// Package client 封装与对话服务的 HTTP API 交互
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client API 客户端
// baseURL: 例如 http://localhost:8000
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建 API 客户端
// 超时需要覆盖服务端的模型调用时间
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// BaseURL 返回服务器地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError 服务端返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"message"`
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// --- 对话 ---

// ChatReply POST /chat 的响应
type ChatReply struct {
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Timestamp   time.Time `json:"timestamp"`
}

// SendMessage 发送一条消息并等待回复
func (c *Client) SendMessage(ctx context.Context, message string) (*ChatReply, error) {
	var result ChatReply
	body := map[string]string{"user_message": message}
	if err := c.post(ctx, "/chat", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- 历史 ---

// Turn 一轮历史对话
type Turn struct {
	ID          string    `json:"id"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Timestamp   time.Time `json:"timestamp"`
}

// History 获取最近的对话，最新的在前
// limit 为 0 时使用服务端默认值
func (c *Client) History(ctx context.Context, limit int) ([]Turn, error) {
	path := "/history"
	if limit != 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var turns []Turn
	if err := c.get(ctx, path, &turns); err != nil {
		return nil, err
	}
	return turns, nil
}

// --- 健康检查 ---

// HealthStatus GET /health 的响应
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// Health 查询服务状态
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var result HealthStatus
	if err := c.get(ctx, "/health", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- 通用请求封装 ---

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: resp.Header.Get("X-Request-ID")}
		// 错误体不是 JSON 时只保留状态码
		_ = json.Unmarshal(respBody, apiErr)
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
