package service

import (
	"context"
	"strings"
	"time"

	"cart-assistant/internal/core/ai/cache"
	"cart-assistant/internal/core/ai/ollama"
	"cart-assistant/internal/infrastructure/config"
	"cart-assistant/internal/pkg/common"
)

// Response 語言模型回應
type Response struct {
	Content string
}

// Service 語言模型服務，統一處理快取與調用記錄
type Service struct {
	config       *config.Config
	client       *ollama.Client
	cacheManager *cache.CacheManager
}

// NewService 創建語言模型服務
func NewService(cfg *config.Config, cacheManager *cache.CacheManager) (*Service, error) {
	client := ollama.NewClient(cfg)

	return &Service{
		config:       cfg,
		client:       client,
		cacheManager: cacheManager,
	}, nil
}

// ProcessRequest 統一對外方法
func (s *Service) ProcessRequest(ctx context.Context, prompt string) (*Response, error) {
	// 統一 prompt 前後空白，確保快取 key 一致
	prompt = strings.TrimSpace(prompt)

	// 檢查緩存（用 cacheManager）
	if s.config.Cache.Enabled && s.cacheManager != nil {
		if val, err := s.cacheManager.Get(ctx, prompt); err == nil && val != "" {
			return &Response{Content: val}, nil
		}
	}

	start := time.Now()
	content, err := s.client.Generate(ctx, prompt)
	common.LogOracleCall(time.Since(start), err, "")
	if err != nil {
		return nil, err
	}

	response := &Response{Content: content}

	if s.config.Cache.Enabled && s.cacheManager != nil {
		_ = s.cacheManager.Set(ctx, prompt, content)
	}

	return response, nil
}

// Generate 便捷方法，只回傳內容字串（實作 agent.Oracle）
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.ProcessRequest(ctx, prompt)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
