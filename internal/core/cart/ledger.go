package cart

import (
	"context"

	"cart-assistant/internal/core/store"
	"cart-assistant/internal/pkg/common"
)

// Ledger 單一會話的購物車：依 product_id 去重的有序明細集合。
// 由會話獨占持有，回合間不共享，無需加鎖。
type Ledger struct {
	lines []common.CartLine
}

// NewLedger 創建空購物車
func NewLedger() *Ledger {
	return &Ledger{}
}

// ViewLine 顯示用明細行，附小計
type ViewLine struct {
	common.CartLine
	Subtotal float64 `json:"subtotal"`
}

// View 顯示用購物車快照
type View struct {
	Lines []ViewLine `json:"lines"`
	Total float64    `json:"total"`
	Empty bool       `json:"empty"`
}

// CheckoutSummary 結帳摘要
type CheckoutSummary struct {
	Empty            bool    `json:"empty"`
	Total            float64 `json:"total"`
	Items            int     `json:"items"`
	PreferencesSaved int     `json:"preferences_saved"`
}

// Add 加入商品。同一 product_id 已存在時合併數量，否則追加新行；
// 首次加入的順序即顯示順序。回傳是否為合併與合併後的明細行。
func (l *Ledger) Add(product common.Product, quantity int) (merged bool, line common.CartLine) {
	if quantity < 1 {
		quantity = 1
	}

	for i := range l.lines {
		if l.lines[i].ProductID == product.ID {
			l.lines[i].Quantity += quantity
			return true, l.lines[i]
		}
	}

	line = common.CartLine{
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  quantity,
		Brand:     product.Brand,
		Price:     product.Price,
		Category:  product.Category,
	}
	l.lines = append(l.lines, line)
	return false, line
}

// Remove 依模糊比對移除明細行。無命中時購物車不變，
// 回傳現有明細名稱作為提示。
func (l *Ledger) Remove(query string) (removed []common.CartLine, hint []string) {
	matches := store.SearchCart(query, l.lines)

	if len(matches) == 0 {
		for _, line := range l.lines {
			hint = append(hint, line.Name)
		}
		return nil, hint
	}

	matchedIDs := make(map[string]bool, len(matches))
	for _, m := range matches {
		matchedIDs[m.ProductID] = true
	}

	var remaining []common.CartLine
	for _, line := range l.lines {
		if matchedIDs[line.ProductID] {
			removed = append(removed, line)
		} else {
			remaining = append(remaining, line)
		}
	}
	l.lines = remaining

	return removed, nil
}

// ViewCart 產生有序的明細列表，小計與總計四捨五入到兩位
func (l *Ledger) ViewCart() *View {
	if len(l.lines) == 0 {
		return &View{Empty: true}
	}

	view := &View{Lines: make([]ViewLine, 0, len(l.lines))}
	total := 0.0
	for _, line := range l.lines {
		subtotal := line.Subtotal()
		total += subtotal
		view.Lines = append(view.Lines, ViewLine{
			CartLine: line,
			Subtotal: common.Round2(subtotal),
		})
	}
	view.Total = common.Round2(total)

	return view
}

// Clear 清空購物車，回傳移除的行數
func (l *Ledger) Clear() int {
	count := len(l.lines)
	l.lines = nil
	return count
}

// Lines 回傳明細行副本
func (l *Ledger) Lines() []common.CartLine {
	lines := make([]common.CartLine, len(l.lines))
	copy(lines, l.lines)
	return lines
}

// Len 回傳明細行數
func (l *Ledger) Len() int {
	return len(l.lines)
}

// Checkout 結帳。空購物車為 no-op；否則為每一個品牌與既有偏好不同的
// 明細行寫入新偏好（唯一的批次提交路徑），計算總額後清空購物車。
// 偏好寫入後調用方必須自儲存層重新載入 UserProfile。
func (l *Ledger) Checkout(ctx context.Context, st store.Store, profile *common.UserProfile) (*CheckoutSummary, error) {
	if len(l.lines) == 0 {
		return &CheckoutSummary{Empty: true}, nil
	}

	saved := 0
	for _, line := range l.lines {
		current, _ := profile.PreferredBrand(line.Category)
		if current != line.Brand {
			if err := st.SetUserPreference(ctx, profile.UserID, line.Category, line.Brand); err != nil {
				return nil, err
			}
			saved++
		}
	}

	total := 0.0
	for _, line := range l.lines {
		total += line.Subtotal()
	}

	summary := &CheckoutSummary{
		Total:            common.Round2(total),
		Items:            len(l.lines),
		PreferencesSaved: saved,
	}

	l.lines = nil
	return summary, nil
}
