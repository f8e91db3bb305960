package agent

import (
	"testing"

	"cart-assistant/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateActions(t *testing.T) {
	t.Run("grounded add kept", func(t *testing.T) {
		kept, rejected := ValidateActions("je veux du lait", []common.Action{
			{Type: common.ActionAdd, Target: "du lait"},
		})
		require.Len(t, kept, 1)
		assert.Empty(t, rejected)
	})

	t.Run("hallucinated add rejected", func(t *testing.T) {
		kept, rejected := ValidateActions("je veux du lait", []common.Action{
			{Type: common.ActionAdd, Target: "du lait"},
			{Type: common.ActionAdd, Target: "du chocolat"},
		})
		require.Len(t, kept, 1)
		assert.Equal(t, "du lait", kept[0].Target)
		require.Len(t, rejected, 1)
		assert.Equal(t, "du chocolat", rejected[0].Target)
	})

	t.Run("targetless actions always kept", func(t *testing.T) {
		kept, rejected := ValidateActions("montre le panier", []common.Action{
			{Type: common.ActionView},
			{Type: common.ActionValidate},
			{Type: common.ActionClear},
		})
		assert.Len(t, kept, 3)
		assert.Empty(t, rejected)
	})

	t.Run("short words do not ground a target", func(t *testing.T) {
		// "le" 與 "du" 皆短於比對門檻，不足以支撐一個目標
		kept, rejected := ValidateActions("je veux du pain", []common.Action{
			{Type: common.ActionRemove, Target: "le du chocolat"},
		})
		assert.Empty(t, kept)
		assert.Len(t, rejected, 1)
	})

	t.Run("case insensitive match", func(t *testing.T) {
		kept, rejected := ValidateActions("Je veux du LAIT", []common.Action{
			{Type: common.ActionAdd, Target: "du lait"},
		})
		assert.Len(t, kept, 1)
		assert.Empty(t, rejected)
	})

	t.Run("empty target rejected", func(t *testing.T) {
		kept, rejected := ValidateActions("je veux du lait", []common.Action{
			{Type: common.ActionAdd, Target: ""},
		})
		assert.Empty(t, kept)
		assert.Len(t, rejected, 1)
	})

	t.Run("order preserved", func(t *testing.T) {
		kept, _ := ValidateActions("des pates et du lait", []common.Action{
			{Type: common.ActionAdd, Target: "des pates"},
			{Type: common.ActionAdd, Target: "du lait"},
		})
		require.Len(t, kept, 2)
		assert.Equal(t, "des pates", kept[0].Target)
		assert.Equal(t, "du lait", kept[1].Target)
	})
}
