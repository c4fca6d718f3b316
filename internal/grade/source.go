// Package grade は成績解決エンジンを提供する。
// 3種類の成績ソース（履修レコード直接参照、成績簿履歴、課題・提出結合）と、
// それらを優先順で合成するチェーンを含む。各ソースは同一の入出力契約を実装し、
// 交換・合成可能である。
package grade

import (
	"context"

	"github.com/hitoshi/gradeport/internal/model"
)

// Result は1つの成績ソースが1コースについて解決した部分的な結果。
// nilのフィールドは「このソースでは得られなかった」ことを表し、
// チェーンが後続ソースの値で補完する。
type Result struct {
	Grade       *string
	Score       *float64
	Assignments []model.AssignmentLine
}

// complete は全フィールドが確定しているかを返す。
// 確定済みの場合、チェーンは後続ソースへの問い合わせを省略できる。
func (r Result) complete() bool {
	return r.Grade != nil && r.Score != nil && r.Assignments != nil
}

// merge はotherの値で未確定フィールドのみを補完した新しいResultを返す。
// 先に確定した値は決して上書きされない（first-match-wins）。
func (r Result) merge(other Result) Result {
	if r.Grade == nil {
		r.Grade = other.Grade
	}
	if r.Score == nil {
		r.Score = other.Score
	}
	if r.Assignments == nil {
		r.Assignments = other.Assignments
	}
	return r
}

// Source は成績ソースの共通契約。
// Resolveは1コース分の部分的な成績を返す。上流呼び出しの失敗はエラーとして返すが、
// そのエラーはチェーンがコース境界で吸収し、決して呼び出し元へ伝播しない。
type Source interface {
	// Name はメトリクスとログで使用するソース名を返す。
	Name() string
	// Resolve は指定コースの成績を解決する。
	Resolve(ctx context.Context, token string, course model.Course, studentID int64) (Result, error)
}
