package grade

import (
	"context"

	"github.com/hitoshi/gradeport/internal/model"
)

// AssignmentLister は課題・提出レコード取得のインターフェース。
type AssignmentLister interface {
	ListAssignments(ctx context.Context, token string, courseID int64) ([]model.Assignment, error)
	ListSubmissions(ctx context.Context, token string, courseID int64) ([]model.Submission, error)
}

// AssignmentSource は課題一覧と提出レコードを結合する成績ソース。
// コース全体の成績は生成せず、課題ごとの提出状況のみを供給する。
// gradeとscoreは他ソース（enrollment/history）との合成で埋めることを想定する。
type AssignmentSource struct {
	client AssignmentLister
}

// NewAssignmentSource はAssignmentSourceの新しいインスタンスを生成する。
func NewAssignmentSource(client AssignmentLister) *AssignmentSource {
	return &AssignmentSource{client: client}
}

// Name はSourceインターフェースを実装する。
func (s *AssignmentSource) Name() string {
	return "assignments"
}

// Resolve は課題一覧を取得し、課題ごとの提出状況の行を上流の課題順で生成する。
// 提出レコードは課題一覧への埋め込みを優先し、埋め込みがない上流に対しては
// 提出一覧APIを別途呼び出してassignment_idで結合する。
// 結合の方向は常に課題→提出であり、対応する課題のない提出レコードは
// 行として捏造せず破棄する。
func (s *AssignmentSource) Resolve(ctx context.Context, token string, course model.Course, studentID int64) (Result, error) {
	assignments, err := s.client.ListAssignments(ctx, token, course.ID)
	if err != nil {
		return Result{}, err
	}

	// 埋め込みの有無を判定し、なければ提出一覧で補完する
	submissions := make(map[int64]*model.Submission, len(assignments))
	if len(assignments) > 0 && !hasEmbeddedSubmission(assignments) {
		subs, err := s.client.ListSubmissions(ctx, token, course.ID)
		if err != nil {
			return Result{}, err
		}
		for i := range subs {
			submissions[subs[i].AssignmentID] = &subs[i]
		}
	}

	lines := make([]model.AssignmentLine, 0, len(assignments))
	for _, a := range assignments {
		sub := a.Submission
		if sub == nil {
			sub = submissions[a.ID]
		}

		line := model.AssignmentLine{
			Name:     a.Name,
			Possible: a.PointsPossible,
			Status:   model.SubmissionStatusNotSubmitted,
		}
		if sub != nil && sub.WorkflowState != model.SubmissionWorkflowUnsubmitted {
			line.Score = sub.Score
			line.Status = sub.WorkflowState
		}
		lines = append(lines, line)
	}

	return Result{Assignments: lines}, nil
}

// hasEmbeddedSubmission は課題一覧に提出レコードが埋め込まれているかを判定する。
func hasEmbeddedSubmission(assignments []model.Assignment) bool {
	for _, a := range assignments {
		if a.Submission != nil {
			return true
		}
	}
	return false
}
