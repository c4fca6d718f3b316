package model

// SubmissionWorkflowUnsubmitted は未提出を表す上流のワークフロー状態。
const SubmissionWorkflowUnsubmitted = "unsubmitted"

// Assignment はコース内の課題を表す。
// Submissionは課題一覧APIにinclude[]=submissionを指定した場合に埋め込まれる。
type Assignment struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	PointsPossible *float64    `json:"points_possible"`
	Submission     *Submission `json:"submission,omitempty"`
}

// Submission は課題に対する提出レコードを表す。
// Scoreは未採点の場合nullになる。
type Submission struct {
	AssignmentID  int64    `json:"assignment_id"`
	Score         *float64 `json:"score"`
	WorkflowState string   `json:"workflow_state"`
}
