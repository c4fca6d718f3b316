package grade

import (
	"context"
	"fmt"
	"testing"

	"github.com/hitoshi/gradeport/internal/model"
)

type fakeEnrollmentLister struct {
	enrollments []model.Enrollment
	err         error
}

func (f *fakeEnrollmentLister) ListStudentEnrollments(ctx context.Context, token string, courseID int64) ([]model.Enrollment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.enrollments, nil
}

func TestEnrollmentSource_ReturnsCurrentGrade(t *testing.T) {
	lister := &fakeEnrollmentLister{
		enrollments: []model.Enrollment{
			{
				Type:   model.EnrollmentTypeStudent,
				UserID: 7,
				Grades: &model.EnrollmentGrades{
					CurrentGrade: strPtr("A-"),
					CurrentScore: floatPtr(90.5),
				},
			},
		},
	}

	s := NewEnrollmentSource(lister)
	res, err := s.Resolve(context.Background(), "t", testCourse, 7)
	if err != nil {
		t.Fatalf("Resolve がエラーを返した: %v", err)
	}
	if res.Grade == nil || *res.Grade != "A-" {
		t.Errorf("Grade = %v, want A-", res.Grade)
	}
	if res.Score == nil || *res.Score != 90.5 {
		t.Errorf("Score = %v, want 90.5", res.Score)
	}
}

func TestEnrollmentSource_SkipsNonStudentEnrollments(t *testing.T) {
	lister := &fakeEnrollmentLister{
		enrollments: []model.Enrollment{
			{Type: "TeacherEnrollment", Grades: &model.EnrollmentGrades{CurrentGrade: strPtr("X")}},
			{Type: model.EnrollmentTypeStudent, Grades: &model.EnrollmentGrades{CurrentGrade: strPtr("B")}},
		},
	}

	s := NewEnrollmentSource(lister)
	res, err := s.Resolve(context.Background(), "t", testCourse, 7)
	if err != nil {
		t.Fatalf("Resolve がエラーを返した: %v", err)
	}
	if res.Grade == nil || *res.Grade != "B" {
		t.Errorf("Grade = %v, want B（受講者レコードのみ対象）", res.Grade)
	}
}

func TestEnrollmentSource_EmptyGradeString_TreatedAsMissing(t *testing.T) {
	lister := &fakeEnrollmentLister{
		enrollments: []model.Enrollment{
			{
				Type:   model.EnrollmentTypeStudent,
				Grades: &model.EnrollmentGrades{CurrentGrade: strPtr(""), CurrentScore: floatPtr(65)},
			},
		},
	}

	s := NewEnrollmentSource(lister)
	res, err := s.Resolve(context.Background(), "t", testCourse, 7)
	if err != nil {
		t.Fatalf("Resolve がエラーを返した: %v", err)
	}
	if res.Grade != nil {
		t.Errorf("Grade = %v, 空文字列は未確定として扱うべき", res.Grade)
	}
	if res.Score == nil || *res.Score != 65 {
		t.Errorf("Score = %v, want 65", res.Score)
	}
}

func TestEnrollmentSource_ScoreZero_IsValid(t *testing.T) {
	// 0点は有効な成績であり、欠損と混同してはならない
	lister := &fakeEnrollmentLister{
		enrollments: []model.Enrollment{
			{
				Type:   model.EnrollmentTypeStudent,
				Grades: &model.EnrollmentGrades{CurrentScore: floatPtr(0)},
			},
		},
	}

	s := NewEnrollmentSource(lister)
	res, err := s.Resolve(context.Background(), "t", testCourse, 7)
	if err != nil {
		t.Fatalf("Resolve がエラーを返した: %v", err)
	}
	if res.Score == nil || *res.Score != 0 {
		t.Errorf("Score = %v, want 0", res.Score)
	}
}

func TestEnrollmentSource_NoEnrollments_ReturnsEmpty(t *testing.T) {
	lister := &fakeEnrollmentLister{}

	s := NewEnrollmentSource(lister)
	res, err := s.Resolve(context.Background(), "t", testCourse, 7)
	if err != nil {
		t.Fatalf("Resolve がエラーを返した: %v", err)
	}
	if res.Grade != nil || res.Score != nil {
		t.Errorf("Result = %+v, want 空", res)
	}
}

func TestEnrollmentSource_UpstreamError_Propagates(t *testing.T) {
	lister := &fakeEnrollmentLister{err: fmt.Errorf("boom")}

	s := NewEnrollmentSource(lister)
	if _, err := s.Resolve(context.Background(), "t", testCourse, 7); err == nil {
		t.Fatal("上流エラーは呼び出し元へ伝播すべき")
	}
}
