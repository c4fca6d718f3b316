package model

import "time"

// HistoryWorkflowGraded は採点済みの成績変更イベントを表すワークフロー状態。
const HistoryWorkflowGraded = "graded"

// HistoryEntry は成績簿履歴フィードの1イベントを表す。
// フィードはページ分割されており、ページをまたいだ順序は上流依存のため信頼しない。
// 最新エントリの選択は必ずRecordedAtによる明示的なソートで行うこと。
type HistoryEntry struct {
	UserID         int64     `json:"user_id"`
	ColumnTitle    string    `json:"column_title"`
	NewGrade       *string   `json:"new_grade"`
	PublishedGrade *string   `json:"published_grade"`
	PublishedScore *float64  `json:"published_score"`
	WorkflowState  string    `json:"workflow_state"`
	RecordedAt     time.Time `json:"created_at"`
}
