package cart

import (
	"context"
	"testing"

	"cart-assistant/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	laitLactel = common.Product{ID: "lait-1", Name: "Lait Demi-Écrémé", Brand: "Lactel", Category: "lait", Price: 1.15, IsAvailable: true}
	chocoLindt = common.Product{ID: "choc-1", Name: "Chocolat Noir 70%", Brand: "Lindt", Category: "chocolat", Price: 2.49, IsAvailable: true}
)

func TestLedger_Add(t *testing.T) {
	t.Run("new line appended", func(t *testing.T) {
		l := NewLedger()
		merged, line := l.Add(laitLactel, 2)
		assert.False(t, merged)
		assert.Equal(t, 2, line.Quantity)
		assert.Equal(t, 1, l.Len())
	})

	t.Run("same product merges quantities", func(t *testing.T) {
		l := NewLedger()
		l.Add(laitLactel, 2)
		merged, line := l.Add(laitLactel, 3)
		assert.True(t, merged)
		assert.Equal(t, 5, line.Quantity)
		assert.Equal(t, 1, l.Len())
	})

	t.Run("insertion order preserved", func(t *testing.T) {
		l := NewLedger()
		l.Add(chocoLindt, 1)
		l.Add(laitLactel, 1)
		l.Add(chocoLindt, 1)

		lines := l.Lines()
		require.Len(t, lines, 2)
		assert.Equal(t, "choc-1", lines[0].ProductID)
		assert.Equal(t, "lait-1", lines[1].ProductID)
	})

	t.Run("quantity below one clamped", func(t *testing.T) {
		l := NewLedger()
		_, line := l.Add(laitLactel, 0)
		assert.Equal(t, 1, line.Quantity)
	})
}

func TestLedger_Remove(t *testing.T) {
	t.Run("fuzzy match removes line", func(t *testing.T) {
		l := NewLedger()
		l.Add(laitLactel, 1)
		l.Add(chocoLindt, 1)

		removed, hint := l.Remove("le chocolat")
		require.Len(t, removed, 1)
		assert.Equal(t, "choc-1", removed[0].ProductID)
		assert.Empty(t, hint)
		assert.Equal(t, 1, l.Len())
	})

	t.Run("no match leaves cart unchanged with hint", func(t *testing.T) {
		l := NewLedger()
		l.Add(laitLactel, 1)

		removed, hint := l.Remove("fromage")
		assert.Empty(t, removed)
		require.Len(t, hint, 1)
		assert.Equal(t, "Lait Demi-Écrémé", hint[0])
		assert.Equal(t, 1, l.Len())
	})
}

func TestLedger_ViewCart(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		view := NewLedger().ViewCart()
		assert.True(t, view.Empty)
		assert.Empty(t, view.Lines)
	})

	t.Run("subtotals and total rounded", func(t *testing.T) {
		l := NewLedger()
		l.Add(laitLactel, 3) // 3.45
		l.Add(chocoLindt, 2) // 4.98

		view := l.ViewCart()
		require.Len(t, view.Lines, 2)
		assert.False(t, view.Empty)
		assert.Equal(t, 3.45, view.Lines[0].Subtotal)
		assert.Equal(t, 4.98, view.Lines[1].Subtotal)
		assert.Equal(t, 8.43, view.Total)
	})
}

func TestLedger_Clear(t *testing.T) {
	l := NewLedger()
	l.Add(laitLactel, 1)
	l.Add(chocoLindt, 1)

	assert.Equal(t, 2, l.Clear())
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 0, l.Clear())
}

func TestLedger_Checkout(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart is a no-op", func(t *testing.T) {
		st := newFakeStore()
		profile := &common.UserProfile{UserID: "alice"}

		summary, err := NewLedger().Checkout(ctx, st, profile)
		require.NoError(t, err)
		assert.True(t, summary.Empty)
		assert.Empty(t, st.savedPrefs)
	})

	t.Run("commits preferences, totals and clears", func(t *testing.T) {
		st := newFakeStore()
		profile := &common.UserProfile{
			UserID:         "alice",
			FavoriteBrands: map[string]string{"lait": "Lactel"},
		}

		l := NewLedger()
		l.Add(laitLactel, 2) // 品牌已是偏好，不重複寫入
		l.Add(chocoLindt, 1) // 新類別，結帳時提交

		summary, err := l.Checkout(ctx, st, profile)
		require.NoError(t, err)
		assert.False(t, summary.Empty)
		assert.Equal(t, 4.79, summary.Total)
		assert.Equal(t, 2, summary.Items)
		assert.Equal(t, 1, summary.PreferencesSaved)
		assert.Equal(t, "Lindt", st.savedPrefs["alice/chocolat"])
		assert.Equal(t, 0, l.Len())
	})
}
