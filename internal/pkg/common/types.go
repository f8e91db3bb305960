package common

import (
	"fmt"
	"strings"
)

// ActionType 動作類型
type ActionType string

const (
	ActionAdd      ActionType = "add"      // 加入商品
	ActionRemove   ActionType = "remove"   // 移除商品
	ActionView     ActionType = "view"     // 查看購物車
	ActionValidate ActionType = "validate" // 結帳
	ActionClear    ActionType = "clear"    // 清空購物車
)

// IsKnown 檢查動作類型是否為已定義的類型
func (t ActionType) IsKnown() bool {
	switch t {
	case ActionAdd, ActionRemove, ActionView, ActionValidate, ActionClear:
		return true
	}
	return false
}

// HasTarget 檢查動作類型是否攜帶目標短語
func (t ActionType) HasTarget() bool {
	return t == ActionAdd || t == ActionRemove
}

// Action 由語言模型解析出的粗粒度動作，僅存活於單一回合
type Action struct {
	Type   ActionType `json:"type"`
	Target string     `json:"target"`
}

// Ingredient 由目標短語展開出的具體食材
type Ingredient struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Category string `json:"category"`
}

// DefaultCategory 未分類食材的類別
const DefaultCategory = "autres"

// Product 型錄商品（對此管線而言為唯讀）
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	IsBio       bool    `json:"is_bio"`
	IsVegan     bool    `json:"is_vegan"`
	IsAvailable bool    `json:"is_available"`
}

// CartLine 購物車明細行，以 product_id 為唯一鍵
type CartLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Brand     string  `json:"brand"`
	Price     float64 `json:"price"`
	Category  string  `json:"category"`
}

// Subtotal 計算明細行小計
func (l CartLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

// UserProfile 使用者檔案，由持久層擁有；管線僅保存每個會話的快取副本
type UserProfile struct {
	UserID          string            `json:"user_id"`
	Name            string            `json:"name"`
	BioPreference   bool              `json:"bio_preference"`
	VeganPreference bool              `json:"vegan_preference"`
	FavoriteBrands  map[string]string `json:"favorite_brands"`
	Dislikes        []string          `json:"dislikes"`
}

// PreferredBrand 取得某類別的偏好品牌，第二回傳值表示是否已設定
func (p *UserProfile) PreferredBrand(category string) (string, bool) {
	if p == nil || p.FavoriteBrands == nil {
		return "", false
	}
	brand, ok := p.FavoriteBrands[category]
	return brand, ok
}

// FormatActions 格式化動作列表（顯示用）
func FormatActions(actions []Action) string {
	var sb strings.Builder
	for _, a := range actions {
		if a.Target != "" {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", strings.ToUpper(string(a.Type)), a.Target))
		} else {
			sb.WriteString(fmt.Sprintf("- %s\n", strings.ToUpper(string(a.Type))))
		}
	}
	return sb.String()
}

// FormatIngredients 格式化食材列表（顯示用）
func FormatIngredients(ingredients []Ingredient) string {
	var sb strings.Builder
	for _, ing := range ingredients {
		sb.WriteString(fmt.Sprintf("- %s (x%d) [%s]\n", ing.Name, ing.Quantity, ing.Category))
	}
	return sb.String()
}
