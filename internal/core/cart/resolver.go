package cart

import (
	"context"
	"fmt"

	"cart-assistant/internal/core/store"
	"cart-assistant/internal/pkg/common"

	"go.uber.org/zap"
)

// candidateLimit 向型錄請求的候選商品上限，限制歧義仲裁的成本
const candidateLimit = 10

// maxChoiceOptions 交給仲裁策略的品牌選項上限
const maxChoiceOptions = 4

// ResolutionStatus 解析結果狀態
type ResolutionStatus string

const (
	// ResolutionPreferred 命中既有偏好品牌，鎖定選擇
	ResolutionPreferred ResolutionStatus = "preferred"
	// ResolutionSingle 無歧義，直接取排序最前的候選
	ResolutionSingle ResolutionStatus = "single"
	// ResolutionArbitrated 多品牌歧義，由仲裁策略決定並記住品牌
	ResolutionArbitrated ResolutionStatus = "arbitrated"
	// ResolutionNotFound 型錄中無符合的商品
	ResolutionNotFound ResolutionStatus = "not_found"
)

// Resolution 單一食材的解析結果
type Resolution struct {
	Status       ResolutionStatus `json:"status"`
	Product      *common.Product  `json:"product,omitempty"`
	Options      []common.Product `json:"options,omitempty"` // 仲裁時提供過的選項
	LearnedBrand bool             `json:"learned_brand"`     // 是否寫入了新的品牌偏好
}

// ChoicePolicy 歧義仲裁策略。互動部署可換成詢問使用者的實作，
// 非互動部署使用預設的最低價策略。
type ChoicePolicy interface {
	ChooseAmong(options []common.Product) common.Product
}

// CheapestPolicy 預設仲裁策略：取最低價的選項
type CheapestPolicy struct{}

// ChooseAmong 回傳最低價的商品
func (CheapestPolicy) ChooseAmong(options []common.Product) common.Product {
	chosen := options[0]
	for _, p := range options[1:] {
		if p.Price < chosen.Price {
			chosen = p
		}
	}
	return chosen
}

// Resolver 將單一食材解析為具體商品，套用偏好規則與歧義仲裁
type Resolver struct {
	store  store.Store
	policy ChoicePolicy
}

// NewResolver 創建商品解析器，policy 為 nil 時使用最低價策略
func NewResolver(st store.Store, policy ChoicePolicy) *Resolver {
	if policy == nil {
		policy = CheapestPolicy{}
	}
	return &Resolver{
		store:  st,
		policy: policy,
	}
}

// Resolve 解析食材為商品。儲存後端錯誤向上傳播（會話級致命）；
// 型錄無符合商品不是錯誤，以 ResolutionNotFound 回報。
func (r *Resolver) Resolve(ctx context.Context, ingredient common.Ingredient, profile *common.UserProfile) (*Resolution, error) {
	products, err := r.store.SearchProducts(ctx, ingredient.Name, profile.UserID, ingredient.Category, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("product search failed: %w", err)
	}

	if len(products) == 0 {
		return &Resolution{Status: ResolutionNotFound}, nil
	}

	// 既有偏好品牌命中時鎖定選擇，跳過歧義仲裁
	if preferredBrand, ok := profile.PreferredBrand(ingredient.Category); ok {
		for i := range products {
			if products[i].Brand == preferredBrand {
				common.LogInfo("使用既有偏好品牌",
					zap.String("category", ingredient.Category),
					zap.String("brand", preferredBrand),
				)
				return &Resolution{
					Status:  ResolutionPreferred,
					Product: &products[i],
				}, nil
			}
		}
		// 偏好品牌無庫存時退回排序最前的候選
		return &Resolution{
			Status:  ResolutionSingle,
			Product: &products[0],
		}, nil
	}

	// 依品牌去重，保留排序，每品牌取第一筆
	seen := make(map[string]bool)
	var uniqueBrands []common.Product
	for _, p := range products {
		if !seen[p.Brand] {
			seen[p.Brand] = true
			uniqueBrands = append(uniqueBrands, p)
		}
	}

	// 多品牌且無既有偏好：交給仲裁策略，並把選擇記成新偏好
	if len(uniqueBrands) > 1 {
		options := uniqueBrands
		if len(options) > maxChoiceOptions {
			options = options[:maxChoiceOptions]
		}

		chosen := r.policy.ChooseAmong(options)

		// 先持久化品牌偏好再回傳結果
		if err := r.store.SetUserPreference(ctx, profile.UserID, ingredient.Category, chosen.Brand); err != nil {
			return nil, fmt.Errorf("failed to persist brand preference: %w", err)
		}

		common.LogInfo("偏好已儲存",
			zap.String("category", ingredient.Category),
			zap.String("brand", chosen.Brand),
		)

		return &Resolution{
			Status:       ResolutionArbitrated,
			Product:      &chosen,
			Options:      options,
			LearnedBrand: true,
		}, nil
	}

	return &Resolution{
		Status:  ResolutionSingle,
		Product: &products[0],
	}, nil
}
