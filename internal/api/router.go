package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cart-assistant/internal/api/handlers/assistant"
	"cart-assistant/internal/api/handlers/health"
	"cart-assistant/internal/api/middleware"
	"cart-assistant/internal/core/ai/cache"
	"cart-assistant/internal/core/ai/service"
	"cart-assistant/internal/core/cart"
	"cart-assistant/internal/core/session"
	"cart-assistant/internal/core/store"
	"cart-assistant/internal/infrastructure/config"
	"cart-assistant/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置
	timeoutDuration = 120 * time.Second
	// 請求體大小限制 (1MB)，純文字輸入用不到更多
	maxBodySize = 1 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, cacheManager *cache.CacheManager, st *store.SQLiteStore) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 限流與去重
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	router.Use(middleware.Deduplication(cfg))

	common.LogInfo("Initializing services",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("model", cfg.Ollama.Model),
		zap.String("store_path", cfg.Store.Path),
		zap.Duration("timeout", timeoutDuration),
	)

	// 初始化語言模型服務
	aiService, err := service.NewService(cfg, cacheManager)
	if err != nil || aiService == nil {
		common.LogError("Failed to initialize AI service", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize AI service: %w", err)
	}

	// 初始化會話註冊表；仲裁策略採預設（最低價）
	registry := session.NewRegistry(st, aiService, cart.CheapestPolicy{})
	assistantHandler := assistant.NewHandler(registry)

	// 全局中間件：設置超時和配置
	router.Use(func(c *gin.Context) {
		// 設置請求超時
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		// 設置配置
		c.Set("config", cfg)
		if cacheManager != nil {
			c.Set("cache_manager", cacheManager)
		}

		// 處理請求
		c.Next()

		// 檢查是否超時
		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeRequestTimeout,
				"details": gin.H{
					"timeout": timeoutDuration.String(),
				},
			})
			c.Abort()
			return
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck(st))
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		assistantGroup := api.Group("/assistant/:user_id")
		{
			// 自然語言回合
			assistantGroup.POST("/message", assistantHandler.HandleMessage)

			// 購物車快照
			assistantGroup.GET("/cart", assistantHandler.HandleViewCart)

			// 直接結帳
			assistantGroup.POST("/checkout", assistantHandler.HandleCheckout)

			// 清空購物車
			assistantGroup.POST("/clear", assistantHandler.HandleClear)

			// 快取的使用者檔案
			assistantGroup.GET("/profile", assistantHandler.HandleProfile)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Bool("cache_manager_initialized", cacheManager != nil),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
