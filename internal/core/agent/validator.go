package agent

import (
	"strings"
	"unicode/utf8"

	"cart-assistant/internal/pkg/common"
)

// minTargetWordLen 目標短語中參與比對的最小字長（rune 數）。
// 啟發式的字串重疊檢查，不是語義層面的驗證；可調參數。
const minTargetWordLen = 3

// ValidateActions 過濾語言模型幻覺出的動作。
// view/validate/clear 不攜帶目標，一律保留；add/remove 只有在目標短語中
// 至少一個長度達標的詞（小寫化後）出現在原始輸入中時才保留。
// 回傳保留與被拒絕兩個列表，順序與輸入一致。
func ValidateActions(userInput string, actions []common.Action) (kept, rejected []common.Action) {
	userLower := strings.ToLower(userInput)

	for _, action := range actions {
		if !action.Type.HasTarget() {
			kept = append(kept, action)
			continue
		}

		if action.Target != "" && targetGrounded(userLower, action.Target) {
			kept = append(kept, action)
		} else {
			rejected = append(rejected, action)
		}
	}

	return kept, rejected
}

// targetGrounded 檢查目標短語是否有詞出現在使用者輸入中
func targetGrounded(userLower, target string) bool {
	for _, word := range strings.Fields(strings.ToLower(target)) {
		if utf8.RuneCountInString(word) < minTargetWordLen {
			continue
		}
		if strings.Contains(userLower, word) {
			return true
		}
	}
	return false
}
