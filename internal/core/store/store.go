// Package store 提供型錄與使用者偏好的持久層存取
package store

import (
	"context"
	"strings"
	"unicode/utf8"

	"cart-assistant/internal/pkg/common"
)

// maxCartMatches 購物車模糊比對回傳的上限
const maxCartMatches = 5

// minQueryWordLen 參與比對的最小查詢字長（rune 數），過濾冠詞等短詞
const minQueryWordLen = 3

// Store 型錄/偏好儲存介面，管線只依賴此邊界
type Store interface {
	// GetUser 取得使用者檔案（含偏好品牌與排除品牌），不存在時回傳 ErrUserNotFound
	GetUser(ctx context.Context, userID string) (*common.UserProfile, error)

	// SetUserPreference 寫入某類別的偏好品牌，(user_id, category) 唯一，後寫者勝
	SetUserPreference(ctx context.Context, userID, category, brand string) error

	// SearchProducts 搜尋型錄商品。結果已依使用者的排除品牌與 vegan 需求過濾，
	// 並以該類別的偏好品牌優先、其次價格升冪排序
	SearchProducts(ctx context.Context, query, userID, category string, limit int) ([]common.Product, error)

	// Close 關閉儲存連接
	Close() error
}

// SearchCart 對現有購物車明細做模糊比對，用於移除操作。
// 查詢拆詞後（"le chocolat" → "chocolat"）以小寫子字串比對
// name/brand/category，最多回傳 min(5, 明細數) 筆。
func SearchCart(query string, lines []common.CartLine) []common.CartLine {
	if len(lines) == 0 {
		return nil
	}

	var words []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(word) >= minQueryWordLen {
			words = append(words, word)
		}
	}
	if len(words) == 0 {
		return nil
	}

	limit := maxCartMatches
	if len(lines) < limit {
		limit = len(lines)
	}

	var matches []common.CartLine
	for _, line := range lines {
		if lineMatches(line, words) {
			matches = append(matches, line)
			if len(matches) >= limit {
				break
			}
		}
	}

	return matches
}

// lineMatches 檢查明細行是否命中任一查詢詞
func lineMatches(line common.CartLine, words []string) bool {
	name := strings.ToLower(line.Name)
	brand := strings.ToLower(line.Brand)
	category := strings.ToLower(line.Category)

	for _, word := range words {
		if strings.Contains(name, word) || strings.Contains(brand, word) || strings.Contains(category, word) {
			return true
		}
	}
	return false
}
