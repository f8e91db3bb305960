package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"cart-assistant/internal/infrastructure/config"

	"github.com/go-resty/resty/v2"
)

// Client Ollama API 客戶端
type Client struct {
	config *config.Config
	client *resty.Client
}

// NewClient 創建 Ollama 客戶端
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(cfg.Ollama.BaseURL).
		SetTimeout(cfg.Ollama.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		config: cfg,
		client: client,
	}
}

// Generate 生成回應
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	// 構建請求
	req := map[string]interface{}{
		"model":  c.config.Ollama.Model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"num_predict": c.config.Ollama.MaxTokens,
		},
	}

	// 發送請求
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/api/generate")

	if err != nil {
		return "", fmt.Errorf("failed to send request to Ollama: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("Ollama API returned error: %s", resp.String())
	}

	// 解析回應
	var result struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse Ollama response: %w", err)
	}

	if result.Response == "" {
		return "", fmt.Errorf("empty response from Ollama")
	}

	return result.Response, nil
}
