package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"cart-assistant/internal/infrastructure/config"
	"cart-assistant/internal/pkg/common"

	"go.uber.org/zap"
)

// CacheManager 緩存管理器，以提示詞為鍵緩存語言模型回應
type CacheManager struct {
	config    *config.Config
	redis     *RedisCache
	mu        sync.RWMutex
	store     map[string]cacheEntry
	stats     cacheStats
	done      chan struct{}
	closeOnce sync.Once
}

// cacheEntry 緩存條目
type cacheEntry struct {
	value       string
	expiresAt   time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// cacheStats 緩存統計
type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
	errors    int64
}

// NewManager 創建新的緩存管理器
func NewManager(cfg *config.Config) *CacheManager {
	if !cfg.Cache.Enabled {
		common.LogInfo("Cache disabled")
		return nil
	}

	m := &CacheManager{
		config: cfg,
		store:  make(map[string]cacheEntry),
		stats:  cacheStats{},
		done:   make(chan struct{}),
	}

	// redis 模式：改用 redis 後端，記憶體 map 僅在 memory 模式使用
	if cfg.Cache.Driver == "redis" {
		redisCache, err := NewRedisCache(&cfg.Cache)
		if err != nil {
			common.LogError("Failed to initialize redis cache", zap.Error(err))
			return nil
		}
		m.redis = redisCache
	} else {
		// 啟動清理過期緩存的協程
		go m.startCleanup()
	}

	common.LogInfo("快取管理員已初始化",
		zap.String("驅動", cfg.Cache.Driver),
		zap.Int("最大容量", cfg.Cache.MaxSize),
		zap.Duration("存活時間", cfg.Cache.TTL),
		zap.Duration("清理間隔", cfg.Cache.CleanupInterval),
	)

	return m
}

// Get 獲取緩存值
func (m *CacheManager) Get(ctx context.Context, prompt string) (string, error) {
	if !m.config.Cache.Enabled {
		return "", common.ErrCacheDisabled
	}

	key := m.generateKey(prompt)

	if m.redis != nil {
		value, err := m.redis.Get(ctx, key)
		if err != nil {
			m.mu.Lock()
			m.stats.misses++
			m.mu.Unlock()
			common.LogCacheMiss("oracle", key)
			return "", err
		}
		m.mu.Lock()
		m.stats.hits++
		m.mu.Unlock()
		common.LogCacheHit("oracle", key)
		return value, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// 檢查緩存
	if entry, exists := m.store[key]; exists {
		// 檢查是否過期
		if time.Now().After(entry.expiresAt) {
			delete(m.store, key)
			m.stats.evictions++
			common.LogInfo("快取已過期",
				zap.String("鍵", key),
			)
			return "", common.ErrCacheDisabled
		}

		// 更新訪問統計
		entry.lastAccess = time.Now()
		entry.accessCount++
		m.store[key] = entry
		m.stats.hits++

		common.LogCacheHit("oracle", key)
		return entry.value, nil
	}

	m.stats.misses++
	common.LogCacheMiss("oracle", key)
	return "", common.ErrCacheDisabled
}

// Set 設置緩存值
func (m *CacheManager) Set(ctx context.Context, prompt, value string) error {
	if !m.config.Cache.Enabled {
		return nil
	}

	key := m.generateKey(prompt)

	if m.redis != nil {
		return m.redis.Set(ctx, key, value)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// 檢查緩存大小
	if len(m.store) >= m.config.Cache.MaxSize {
		// 清理過期項目
		evicted := m.cleanup()
		common.LogInfo("快取清理執行",
			zap.Int("清理數量", evicted),
		)

		// 如果仍然超過大小限制，執行 LRU 清理
		if len(m.store) >= m.config.Cache.MaxSize {
			m.evictLRU()
		}

		// 如果仍然超過大小限制，返回錯誤
		if len(m.store) >= m.config.Cache.MaxSize {
			m.stats.errors++
			common.LogWarn("快取已滿",
				zap.Int("目前容量", len(m.store)),
			)
			return common.ErrCacheFull
		}
	}

	// 設置緩存
	now := time.Now()
	m.store[key] = cacheEntry{
		value:       value,
		expiresAt:   now.Add(m.config.Cache.TTL),
		createdAt:   now,
		lastAccess:  now,
		accessCount: 0,
	}

	return nil
}

// generateKey 生成緩存鍵
func (m *CacheManager) generateKey(prompt string) string {
	hash := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("oracle:%s", hex.EncodeToString(hash[:]))
}

// startCleanup 啟動清理過期緩存的協程，Close 後退出
func (m *CacheManager) startCleanup() {
	ticker := time.NewTicker(m.config.Cache.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanup()
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}

// cleanup 清理過期的緩存，調用方需持有鎖
func (m *CacheManager) cleanup() int {
	now := time.Now()
	count := 0

	for key, entry := range m.store {
		if now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
			m.stats.evictions++
		}
	}

	return count
}

// evictLRU 執行 LRU 清理
func (m *CacheManager) evictLRU() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	// 找到最少訪問的項目
	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.evictions++
		common.LogInfo("快取已淘汰(LRU)",
			zap.String("鍵", oldestKey),
		)
	}
}

// GetStats 獲取緩存統計信息
func (m *CacheManager) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"size":      len(m.store),
		"max_size":  m.config.Cache.MaxSize,
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
		"errors":    m.stats.errors,
	}
}

// Close 關閉緩存管理器並停止清理協程
func (m *CacheManager) Close() error {
	if m == nil {
		return nil
	}

	m.closeOnce.Do(func() { close(m.done) })

	if m.redis != nil {
		return m.redis.Close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// 清空緩存
	m.store = make(map[string]cacheEntry)
	common.LogInfo("快取管理員已關閉",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
	return nil
}
