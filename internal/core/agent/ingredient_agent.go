package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"cart-assistant/internal/pkg/common"

	"go.uber.org/zap"
)

// IngredientAgent 食材解析代理，將目標短語（可能是菜名）展開為基礎食材
type IngredientAgent struct {
	oracle Oracle
}

// NewIngredientAgent 創建食材解析代理
func NewIngredientAgent(oracle Oracle) *IngredientAgent {
	return &IngredientAgent{oracle: oracle}
}

const ingredientPrompt = `Tu extrais les ingrédients d'une demande de courses.

RÈGLES STRICTES:
1. Extrait UNIQUEMENT ce qui est mentionné dans le texte
2. N'invente RIEN
3. Si c'est une recette, décompose en ingrédients de base
4. Utilise quantity=1 si non spécifié

CATÉGORIES: pates, riz, lait, yaourt, fromage, viande, poisson, legume_frais,
fruit_frais, sauce, chocolat, chips, biscuit, pain

Retourne UNIQUEMENT un JSON array valide, rien d'autre.

EXEMPLES:
"du lait" → [{"name": "lait", "quantity": 1, "category": "lait"}]
"2 bouteilles de lait" → [{"name": "lait", "quantity": 2, "category": "lait"}]
"des pates" → [{"name": "pâtes", "quantity": 1, "category": "pates"}]
"pâtes bolognaise" → [
  {"name": "pâtes", "quantity": 1, "category": "pates"},
  {"name": "sauce tomate", "quantity": 1, "category": "sauce"},
  {"name": "viande hachée", "quantity": 1, "category": "viande"}
]

INPUT: "%s"

JSON:`

// rawIngredient 語言模型回傳的單一食材條目，quantity 型別不可信
type rawIngredient struct {
	Name     string      `json:"name"`
	Quantity interface{} `json:"quantity"`
	Category string      `json:"category"`
}

// Parse 將目標短語展開為食材列表。
// 任何解析失敗（包含無法轉換為整數的 quantity）都降級為空列表，絕不向上拋出錯誤。
func (a *IngredientAgent) Parse(ctx context.Context, phrase string) []common.Ingredient {
	response, err := a.oracle.Generate(ctx, fmt.Sprintf(ingredientPrompt, phrase))
	if err != nil {
		common.LogWarn("食材解析失敗，降級為空結果", zap.Error(err))
		return nil
	}

	jsonText := common.ExtractJSONArray(response)
	if jsonText == "" {
		common.LogWarn("語言模型輸出中找不到 JSON 陣列")
		return nil
	}

	var entries []json.RawMessage
	if err := common.ParseJSON(jsonText, &entries); err != nil {
		// 模型偶爾輸出未加引號的鍵，補上引號後重試一次
		if err = common.ParseJSON(common.QuoteJSONKeys(jsonText), &entries); err != nil {
			common.LogWarn("語言模型輸出無法解析為陣列", zap.Error(err))
			return nil
		}
	}

	ingredients := make([]common.Ingredient, 0, len(entries))
	for _, entry := range entries {
		var raw rawIngredient
		// 非物件條目直接丟棄
		if err := common.ParseJSONBytes(entry, &raw); err != nil {
			continue
		}

		// name 為必填
		if raw.Name == "" {
			continue
		}

		quantity, err := coerceQuantity(raw.Quantity)
		if err != nil {
			// 數量無法轉為整數視為整體解析失敗，全部降級為空
			common.LogWarn("食材數量格式錯誤，降級為空結果",
				zap.String("name", raw.Name),
				zap.Error(err),
			)
			return nil
		}

		category := raw.Category
		if category == "" {
			category = common.DefaultCategory
		}

		ingredients = append(ingredients, common.Ingredient{
			Name:     raw.Name,
			Quantity: quantity,
			Category: category,
		})
	}

	return ingredients
}

// coerceQuantity 將語言模型回傳的數量轉為正整數，缺漏時預設為 1
func coerceQuantity(v interface{}) (int, error) {
	switch q := v.(type) {
	case nil:
		return 1, nil
	case json.Number:
		n, err := q.Int64()
		if err != nil {
			// 小數數量截斷為整數；只有真正非數值才失敗
			f, ferr := q.Float64()
			if ferr != nil {
				return 0, fmt.Errorf("quantity is not numeric: %v", q)
			}
			n = int64(f)
		}
		if n < 1 {
			return 1, nil
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(q)
		if err != nil {
			return 0, fmt.Errorf("quantity is not numeric: %q", q)
		}
		if n < 1 {
			return 1, nil
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected quantity type %T", v)
	}
}
