package store

import (
	"testing"

	"cart-assistant/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cartLines() []common.CartLine {
	return []common.CartLine{
		{ProductID: "p1", Name: "Lait Demi-Écrémé", Brand: "Lactel", Category: "lait"},
		{ProductID: "p2", Name: "Chocolat Noir", Brand: "Lindt", Category: "chocolat"},
		{ProductID: "p3", Name: "Pâtes Penne", Brand: "Barilla", Category: "pates"},
	}
}

func TestSearchCart(t *testing.T) {
	t.Run("article words are skipped", func(t *testing.T) {
		// "le" 不參與比對，"chocolat" 命中
		matches := SearchCart("le chocolat", cartLines())
		require.Len(t, matches, 1)
		assert.Equal(t, "p2", matches[0].ProductID)
	})

	t.Run("matches by brand", func(t *testing.T) {
		matches := SearchCart("barilla", cartLines())
		require.Len(t, matches, 1)
		assert.Equal(t, "p3", matches[0].ProductID)
	})

	t.Run("matches by category", func(t *testing.T) {
		matches := SearchCart("lait", cartLines())
		require.NotEmpty(t, matches)
		assert.Equal(t, "p1", matches[0].ProductID)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, SearchCart("fromage", cartLines()))
	})

	t.Run("query with only short words", func(t *testing.T) {
		assert.Empty(t, SearchCart("le la du", cartLines()))
	})

	t.Run("empty cart", func(t *testing.T) {
		assert.Empty(t, SearchCart("chocolat", nil))
	})

	t.Run("result capped at five", func(t *testing.T) {
		var lines []common.CartLine
		for _, id := range []string{"p1", "p2", "p3", "p4", "p5", "p6"} {
			lines = append(lines, common.CartLine{ProductID: id, Name: "Lait " + id, Category: "lait"})
		}
		matches := SearchCart("lait", lines)
		assert.Len(t, matches, 5)
	})
}
