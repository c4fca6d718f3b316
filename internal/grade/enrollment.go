package grade

import (
	"context"

	"github.com/hitoshi/gradeport/internal/model"
)

// EnrollmentLister は受講者履修レコード取得のインターフェース。
// upstream.Clientを抽象化してテスタビリティを向上させる。
type EnrollmentLister interface {
	ListStudentEnrollments(ctx context.Context, token string, courseID int64) ([]model.Enrollment, error)
}

// EnrollmentSource は履修レコードに埋め込まれた現在成績を直接参照する成績ソース。
// 最も単純だが履歴を持たず、上流の「現時点の」成績のみを返す。
type EnrollmentSource struct {
	client EnrollmentLister
}

// NewEnrollmentSource はEnrollmentSourceの新しいインスタンスを生成する。
func NewEnrollmentSource(client EnrollmentLister) *EnrollmentSource {
	return &EnrollmentSource{client: client}
}

// Name はSourceインターフェースを実装する。
func (s *EnrollmentSource) Name() string {
	return "enrollment"
}

// Resolve は受講者履修レコードの先頭エントリからcurrent_grade/current_scoreを取得する。
// 受講者レコードが存在しない、または成績が埋め込まれていない場合は空のResultを返す。
func (s *EnrollmentSource) Resolve(ctx context.Context, token string, course model.Course, studentID int64) (Result, error) {
	enrollments, err := s.client.ListStudentEnrollments(ctx, token, course.ID)
	if err != nil {
		return Result{}, err
	}

	for _, e := range enrollments {
		if e.Type != model.EnrollmentTypeStudent || e.Grades == nil {
			continue
		}

		var res Result
		if e.Grades.CurrentGrade != nil && *e.Grades.CurrentGrade != "" {
			res.Grade = e.Grades.CurrentGrade
		}
		if e.Grades.CurrentScore != nil {
			res.Score = e.Grades.CurrentScore
		}
		return res, nil
	}

	return Result{}, nil
}
