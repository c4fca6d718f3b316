package grade

import "github.com/hitoshi/gradeport/internal/model"

// gradeRule は履歴エントリから成績文字列を取り出す抽出規則。
type gradeRule struct {
	name    string
	extract func(model.HistoryEntry) *string
}

// historyGradeRules は優先順に評価される成績抽出規則のリスト。
// published_gradeを最優先とし、なければnew_gradeへフォールバックする。
// 暗黙のフォールバック連鎖ではなく明示的な規則リストとして保持し、
// ネットワーク呼び出しなしで単体テスト可能にする。
var historyGradeRules = []gradeRule{
	{
		name: "published_grade",
		extract: func(e model.HistoryEntry) *string {
			return e.PublishedGrade
		},
	},
	{
		name: "new_grade",
		extract: func(e model.HistoryEntry) *string {
			return e.NewGrade
		},
	},
}

// extractHistoryGrade は抽出規則を優先順に評価し、最初に得られた成績を返す。
// どの規則も値を返さない場合はnilを返す。
func extractHistoryGrade(e model.HistoryEntry) *string {
	for _, rule := range historyGradeRules {
		if g := rule.extract(e); g != nil && *g != "" {
			return g
		}
	}
	return nil
}
