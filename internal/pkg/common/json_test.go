package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONArray(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		got := ExtractJSONArray(`[{"type": "add"}]`)
		assert.Equal(t, `[{"type": "add"}]`, got)
	})

	t.Run("prose around the array is dropped", func(t *testing.T) {
		got := ExtractJSONArray("Voici le résultat:\n[{\"type\": \"add\"}]\nJ'espère que cela aide!")
		assert.Equal(t, `[{"type": "add"}]`, got)
	})

	t.Run("newlines inside the array become spaces", func(t *testing.T) {
		got := ExtractJSONArray("[\n{\"type\": \"add\"}\n]")
		assert.Equal(t, `[ {"type": "add"} ]`, got)
	})

	t.Run("no array at all", func(t *testing.T) {
		assert.Equal(t, "", ExtractJSONArray("je ne peux pas répondre"))
	})

	t.Run("unpaired brackets", func(t *testing.T) {
		assert.Equal(t, "", ExtractJSONArray("]["))
		assert.Equal(t, "", ExtractJSONArray("[only open"))
	})
}

func TestParseJSON(t *testing.T) {
	t.Run("valid object", func(t *testing.T) {
		var v struct {
			Name string `json:"name"`
		}
		require.NoError(t, ParseJSON(`{"name": "lait"}`, &v))
		assert.Equal(t, "lait", v.Name)
	})

	t.Run("trailing garbage rejected", func(t *testing.T) {
		var v map[string]interface{}
		assert.Error(t, ParseJSON(`{"a": 1} extra`, &v))
	})

	t.Run("strict mode rejects unknown fields", func(t *testing.T) {
		var v struct {
			Name string `json:"name"`
		}
		assert.Error(t, ParseJSONStrict(`{"name": "lait", "other": 1}`, &v))
	})
}

func TestQuoteJSONKeys(t *testing.T) {
	got := QuoteJSONKeys(`[{type: "add", target: "du lait"}]`)
	assert.Equal(t, `[{"type": "add", "target": "du lait"}]`, got)
}
