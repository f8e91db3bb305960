package session

import (
	"context"
	"fmt"
	"sync"

	"cart-assistant/internal/core/agent"
	"cart-assistant/internal/core/cart"
	"cart-assistant/internal/core/store"
	"cart-assistant/internal/pkg/common"

	"go.uber.org/zap"
)

// TurnResult 單一回合的處理結果。Events 是顯示用的單行訊息，
// 不屬於程式化契約，呈現層可自由改寫。
type TurnResult struct {
	Actions  []common.Action `json:"actions"`
	Rejected []common.Action `json:"rejected,omitempty"`
	Events   []string        `json:"events"`
	Cart     *cart.View      `json:"cart,omitempty"`
}

// Session 單一使用者的會話：快取的使用者檔案與存活的購物車。
// 回合間無跨會話共享可變狀態。
type Session struct {
	ID      string
	UserID  string
	mu      sync.Mutex
	profile *common.UserProfile
	ledger  *cart.Ledger

	store           store.Store
	actionAgent     *agent.ActionAgent
	ingredientAgent *agent.IngredientAgent
	resolver        *cart.Resolver
}

// Process 處理一個使用者回合：解析 → 驗證 → 分發 → 渲染。
// 同一會話的回合嚴格串行；空解析或全數被過濾時提前結束並回報原因。
// 只有儲存後端錯誤會向上傳播，其他狀況都降級為單行訊息後繼續。
func (s *Session) Process(ctx context.Context, userInput string) (*TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := &TurnResult{}

	// Extracting
	actions := s.actionAgent.Parse(ctx, userInput)
	if len(actions) == 0 {
		result.Events = append(result.Events, "Je n'ai pas compris. Reformulez ?")
		return result, nil
	}

	// Validating
	kept, rejected := agent.ValidateActions(userInput, actions)
	result.Rejected = rejected
	for _, r := range rejected {
		result.Events = append(result.Events,
			fmt.Sprintf("Action ignorée (hallucination détectée): %s → %s", r.Type, r.Target))
	}

	if len(kept) == 0 {
		result.Events = append(result.Events, "Aucune action valide détectée.")
		return result, nil
	}
	result.Actions = kept

	common.LogInfo("回合動作已確認",
		zap.String("user_id", s.UserID),
		zap.Int("actions", len(kept)),
		zap.Int("rejected", len(rejected)),
	)
	common.LogDebug("動作明細", zap.String("actions", common.FormatActions(kept)))

	// Dispatching：依驗證器輸出的順序逐一處理，不重排
	mutated := false
	for _, action := range kept {
		switch action.Type {
		case common.ActionAdd:
			if err := s.handleAdd(ctx, action, result); err != nil {
				return nil, err
			}
			mutated = true
		case common.ActionRemove:
			s.handleRemove(action, result)
			mutated = true
		case common.ActionView:
			result.Cart = s.ledger.ViewCart()
		case common.ActionValidate:
			if err := s.handleCheckout(ctx, result); err != nil {
				return nil, err
			}
		case common.ActionClear:
			count := s.ledger.Clear()
			result.Events = append(result.Events, fmt.Sprintf("Panier vidé (%d articles)", count))
		}
	}

	// Rendering：回合內出現過 add/remove 才附上購物車快照
	if mutated {
		result.Cart = s.ledger.ViewCart()
	}

	return result, nil
}

// handleAdd 將目標短語展開為食材並逐一解析入車
func (s *Session) handleAdd(ctx context.Context, action common.Action, result *TurnResult) error {
	ingredients := s.ingredientAgent.Parse(ctx, action.Target)
	if len(ingredients) == 0 {
		result.Events = append(result.Events,
			fmt.Sprintf("Aucun ingrédient trouvé pour: %s", action.Target))
		return nil
	}

	result.Events = append(result.Events,
		fmt.Sprintf("%d ingrédient(s) pour: %s", len(ingredients), action.Target))
	common.LogDebug("食材明細", zap.String("ingredients", common.FormatIngredients(ingredients)))

	for _, ingredient := range ingredients {
		resolution, err := s.resolver.Resolve(ctx, ingredient, s.profile)
		if err != nil {
			return err
		}

		switch resolution.Status {
		case cart.ResolutionNotFound:
			result.Events = append(result.Events, fmt.Sprintf("Non trouvé: %s", ingredient.Name))
			continue
		case cart.ResolutionPreferred:
			result.Events = append(result.Events,
				fmt.Sprintf("Utilisation de votre marque préférée: %s", resolution.Product.Brand))
		case cart.ResolutionArbitrated:
			result.Events = append(result.Events,
				fmt.Sprintf("Préférence sauvegardée: %s → %s", ingredient.Category, resolution.Product.Brand))
		}

		// 解析器寫入新偏好後，以儲存層為準重新載入快取檔案
		if resolution.LearnedBrand {
			if err := s.refreshProfile(ctx); err != nil {
				return err
			}
		}

		merged, line := s.ledger.Add(*resolution.Product, ingredient.Quantity)
		if merged {
			result.Events = append(result.Events,
				fmt.Sprintf("Mis à jour: %s (total: %d)", line.Name, line.Quantity))
		} else {
			result.Events = append(result.Events,
				fmt.Sprintf("Ajouté: %s (%s) x%d", line.Name, line.Brand, line.Quantity))
		}
	}

	return nil
}

// handleRemove 依模糊比對移除明細，無命中時附上現有內容提示
func (s *Session) handleRemove(action common.Action, result *TurnResult) {
	removed, hint := s.ledger.Remove(action.Target)

	if len(removed) == 0 {
		result.Events = append(result.Events, fmt.Sprintf("Rien ne correspond à: %s", action.Target))
		for _, name := range hint {
			result.Events = append(result.Events, fmt.Sprintf("Dans le panier: %s", name))
		}
		return
	}

	for _, line := range removed {
		result.Events = append(result.Events, fmt.Sprintf("Retiré: %s (%s)", line.Name, line.Brand))
	}
}

// handleCheckout 結帳：批次提交偏好、回報總額並清空購物車
func (s *Session) handleCheckout(ctx context.Context, result *TurnResult) error {
	summary, err := s.ledger.Checkout(ctx, s.store, s.profile)
	if err != nil {
		return err
	}

	if summary.Empty {
		result.Events = append(result.Events, "Panier vide")
		return nil
	}

	if summary.PreferencesSaved > 0 {
		if err := s.refreshProfile(ctx); err != nil {
			return err
		}
		result.Events = append(result.Events,
			fmt.Sprintf("%d préférence(s) sauvegardée(s)", summary.PreferencesSaved))
	}

	result.Events = append(result.Events, "Commande validée!")
	result.Events = append(result.Events, fmt.Sprintf("Total: %.2f€", summary.Total))
	result.Events = append(result.Events, fmt.Sprintf("%d article(s)", summary.Items))

	return nil
}

// refreshProfile 自儲存層重新載入使用者檔案；快取永不先於確認的寫入變動
func (s *Session) refreshProfile(ctx context.Context) error {
	profile, err := s.store.GetUser(ctx, s.UserID)
	if err != nil {
		return err
	}
	s.profile = profile
	return nil
}

// Profile 回傳快取的使用者檔案
func (s *Session) Profile() *common.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// ViewCart 回傳目前購物車快照
func (s *Session) ViewCart() *cart.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ViewCart()
}

// Checkout 不經語言模型直接結帳（HTTP 端點用）
func (s *Session) Checkout(ctx context.Context) (*cart.CheckoutSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, err := s.ledger.Checkout(ctx, s.store, s.profile)
	if err != nil {
		return nil, err
	}
	if !summary.Empty && summary.PreferencesSaved > 0 {
		if err := s.refreshProfile(ctx); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

// Clear 不經語言模型直接清空購物車（HTTP 端點用）
func (s *Session) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Clear()
}
