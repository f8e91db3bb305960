package assistant

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"cart-assistant/internal/core/cart"
	"cart-assistant/internal/core/session"
	"cart-assistant/internal/core/store"
	"cart-assistant/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedOracle struct {
	actions     map[string]string
	ingredients map[string]string
}

func (o *scriptedOracle) Generate(ctx context.Context, prompt string) (string, error) {
	table := o.ingredients
	if strings.Contains(prompt, "parser d'actions") {
		table = o.actions
	}
	for key, response := range table {
		if strings.Contains(prompt, `INPUT: "`+key+`"`) {
			return response, nil
		}
	}
	return "", errors.New("no scripted response for prompt")
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "grocery.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	require.NoError(t, st.SeedProducts(ctx, []common.Product{
		{ID: "lait-1", Name: "Lait Demi-Écrémé", Brand: "Lactel", Category: "lait", Price: 1.15, IsAvailable: true},
	}))
	require.NoError(t, st.SeedUser(ctx, &common.UserProfile{UserID: "alice", Name: "Alice"}))

	oracle := &scriptedOracle{
		actions: map[string]string{
			"je veux du lait": `[{"type": "add", "target": "du lait"}]`,
		},
		ingredients: map[string]string{
			"du lait": `[{"name": "lait", "quantity": 1, "category": "lait"}]`,
		},
	}

	handler := NewHandler(session.NewRegistry(st, oracle, cart.CheapestPolicy{}))

	router := gin.New()
	group := router.Group("/api/v1/assistant/:user_id")
	group.POST("/message", handler.HandleMessage)
	group.GET("/cart", handler.HandleViewCart)
	group.POST("/checkout", handler.HandleCheckout)
	group.POST("/clear", handler.HandleClear)
	group.GET("/profile", handler.HandleProfile)

	return router
}

func TestHandleMessage(t *testing.T) {
	router := newTestRouter(t)

	t.Run("successful turn", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assistant/alice/message",
			strings.NewReader(`{"text": "je veux du lait"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"actions"`)
		assert.Contains(t, w.Body.String(), "Lait Demi-Écrémé")
	})

	t.Run("unknown user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assistant/nobody/message",
			strings.NewReader(`{"text": "je veux du lait"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "USER_NOT_FOUND")
	})

	t.Run("missing text field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assistant/alice/message",
			strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
	})
}

func TestCartEndpoints(t *testing.T) {
	router := newTestRouter(t)

	t.Run("empty cart snapshot", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/assistant/alice/cart", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"empty":true`)
	})

	t.Run("checkout empty cart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assistant/alice/checkout", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"empty":true`)
	})

	t.Run("clear", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assistant/alice/clear", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"cleared":0`)
	})

	t.Run("profile", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/assistant/alice/profile", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":"alice"`)
	})
}
