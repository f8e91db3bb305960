package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"cart-assistant/internal/pkg/common"

	"go.uber.org/zap"
)

// Oracle 文本轉結構的外部語言模型，輸出不可靠，視為黑盒
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ActionAgent 動作解析代理，將使用者輸入轉為粗粒度動作列表
type ActionAgent struct {
	oracle Oracle
}

// NewActionAgent 創建動作解析代理
func NewActionAgent(oracle Oracle) *ActionAgent {
	return &ActionAgent{oracle: oracle}
}

const actionPrompt = `Tu es un parser d'actions pour un assistant de courses.

TYPES D'ACTIONS: add, remove, view, validate, clear

RÈGLES STRICTES:
1. Le "target" doit être EXACTEMENT le texte mentionné par l'utilisateur, sans correction
2. N'invente AUCUN produit qui n'est pas explicitement demandé
3. Si l'utilisateur dit "je veux X", crée UNE SEULE action pour X
4. Ne rajoute JAMAIS d'actions non demandées

Retourne UNIQUEMENT un JSON array, rien d'autre.

EXEMPLES:
"je veux du lait" → [{"type": "add", "target": "du lait"}]
"enlève le chocolat" → [{"type": "remove", "target": "le chocolat"}]
"retire les pates" → [{"type": "remove", "target": "les pates"}]
"des pates et du lait" → [{"type": "add", "target": "des pates"}, {"type": "add", "target": "du lait"}]
"montre mon panier" → [{"type": "view", "target": ""}]

INPUT: "%s"

JSON:`

// rawAction 語言模型回傳的單一動作條目
type rawAction struct {
	Type   string `json:"type"`
	Target string `json:"target"`
}

// Parse 解析使用者輸入為動作列表。
// 語言模型輸出格式錯誤時回傳空列表，絕不向上拋出錯誤。
func (a *ActionAgent) Parse(ctx context.Context, userInput string) []common.Action {
	response, err := a.oracle.Generate(ctx, fmt.Sprintf(actionPrompt, userInput))
	if err != nil {
		common.LogWarn("動作解析失敗，降級為空結果", zap.Error(err))
		return nil
	}

	// 取出括號內的陣列片段，括號外的內容視為雜訊
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

	actions := make([]common.Action, 0, len(entries))
	for _, entry := range entries {
		var raw rawAction
		// 非物件條目直接丟棄
		if err := common.ParseJSONBytes(entry, &raw); err != nil {
			continue
		}

		// 缺少 type 時預設為 add
		if raw.Type == "" {
			raw.Type = string(common.ActionAdd)
		}

		action := common.Action{
			Type:   common.ActionType(raw.Type),
			Target: raw.Target,
		}
		// 未定義的動作類型丟棄
		if !action.Type.IsKnown() {
			continue
		}

		actions = append(actions, action)
	}

	return actions
}
