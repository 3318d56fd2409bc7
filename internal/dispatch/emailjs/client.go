package emailjs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"photosite/backend/internal/config"
)

// maxErrorBody 错误响应最多读取的字节数
const maxErrorBody = 4 << 10

// sendRequest EmailJS 发送接口的请求体
type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
	AccessToken    string            `json:"accessToken,omitempty"`
}

// Client EmailJS REST 客户端
type Client struct {
	endpoint    string
	serviceID   string
	publicKey   string
	accessToken string
	httpClient  *http.Client
}

// NewClient 创建 EmailJS 客户端
//
// httpClient 为 nil 时使用 10 秒超时的默认客户端。
func NewClient(cfg *config.RelayConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}
	return &Client{
		endpoint:    cfg.Endpoint,
		serviceID:   cfg.ServiceID,
		publicKey:   cfg.PublicKey,
		accessToken: cfg.AccessToken,
		httpClient:  httpClient,
	}
}

// Send 使用指定模板发送一封邮件
func (c *Client) Send(ctx context.Context, templateID string, params map[string]string) error {
	payload, err := json.Marshal(sendRequest{
		ServiceID:      c.serviceID,
		TemplateID:     templateID,
		UserID:         c.publicKey,
		TemplateParams: params,
		AccessToken:    c.accessToken,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("emailjs: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
