package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// GradeNA は成績ソースがデータを返さなかった場合のセンチネル値。
const GradeNA = "N/A"

// SubmissionStatusNotSubmitted は提出レコードが存在しない課題のステータス。
const SubmissionStatusNotSubmitted = "not_submitted"

// Score はコーススコアのJSON表現。
// 値が得られた場合は数値として、得られなかった場合は "N/A" としてシリアライズされる。
type Score struct {
	Value float64
	Valid bool
}

// NewScore は有効なスコアを生成する。
func NewScore(v float64) Score {
	return Score{Value: v, Valid: true}
}

// MarshalJSON はjson.Marshalerインターフェースを実装する。
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return json.Marshal(GradeNA)
	}
	return json.Marshal(s.Value)
}

// UnmarshalJSON はjson.Unmarshalerインターフェースを実装する。
// 数値または "N/A" を受け付ける。
func (s *Score) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte(`"`)) {
		var str string
		if err := json.Unmarshal(trimmed, &str); err != nil {
			return err
		}
		if str != GradeNA {
			return fmt.Errorf("スコアとして解釈できない文字列です: %q", str)
		}
		*s = Score{}
		return nil
	}

	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	*s = NewScore(v)
	return nil
}

// AssignmentLine は1課題分の提出状況を表すレポート行。
// 課題一覧の上流順を保持する。
type AssignmentLine struct {
	Name     string   `json:"name"`
	Score    *float64 `json:"score"`
	Possible *float64 `json:"possible"`
	Status   string   `json:"status"`
}

// CourseGradeRecord は1コース分の成績レポート。
// ディスカバリで発見されたコースごとに必ず1件生成される。
// 全成績ソースが失敗したコースもセンチネル値を持つレコードとして出力に残る。
type CourseGradeRecord struct {
	CourseID    int64            `json:"course_id"`
	CourseName  string           `json:"course"`
	Grade       string           `json:"grade"`
	Score       Score            `json:"score"`
	Assignments []AssignmentLine `json:"assignments,omitempty"`
}
