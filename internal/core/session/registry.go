package session

import (
	"context"
	"sync"

	"cart-assistant/internal/core/agent"
	"cart-assistant/internal/core/cart"
	"cart-assistant/internal/core/store"
	"cart-assistant/internal/pkg/common"

	"go.uber.org/zap"
)

// Registry 會話註冊表：每個使用者一個存活的會話。
// 會話自身的互斥鎖保證同一會話的回合嚴格串行。
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	store           store.Store
	actionAgent     *agent.ActionAgent
	ingredientAgent *agent.IngredientAgent
	resolver        *cart.Resolver
}

// NewRegistry 創建會話註冊表
func NewRegistry(st store.Store, oracle agent.Oracle, policy cart.ChoicePolicy) *Registry {
	return &Registry{
		sessions:        make(map[string]*Session),
		store:           st,
		actionAgent:     agent.NewActionAgent(oracle),
		ingredientAgent: agent.NewIngredientAgent(oracle),
		resolver:        cart.NewResolver(st, policy),
	}
}

// Get 取得使用者的會話，不存在時載入使用者檔案並建立。
// 使用者不存在回傳 ErrUserNotFound；後端錯誤向上傳播。
func (r *Registry) Get(ctx context.Context, userID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[userID]; ok {
		return s, nil
	}

	profile, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:              common.GenerateUUID(),
		UserID:          userID,
		profile:         profile,
		ledger:          cart.NewLedger(),
		store:           r.store,
		actionAgent:     r.actionAgent,
		ingredientAgent: r.ingredientAgent,
		resolver:        r.resolver,
	}
	r.sessions[userID] = s

	common.LogInfo("會話已建立",
		zap.String("session_id", s.ID),
		zap.String("user_id", userID),
	)

	return s, nil
}
