// Package model はドメインモデルを定義する。
// LMS上流APIから取得するエンティティと、プロキシが返すレポート型を含む。
// すべてのエンティティはリクエストスコープであり、レスポンス生成後に破棄される。
package model

// EnrollmentTypeStudent は受講者としての履修区分を表す上流の値。
const EnrollmentTypeStudent = "StudentEnrollment"

// Course はLMS上のコースを表す。
// 上流APIがすべてのフィールドを供給し、1リクエストの間はイミュータブルとして扱う。
// Enrollmentsはコース一覧APIがトークン所有者自身の履修レコードを埋め込む場合に設定される。
type Course struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Enrollments []Enrollment `json:"enrollments,omitempty"`
}

// EnrollmentGrades は履修レコードに埋め込まれる現在成績。
// 上流がどちらのフィールドもnullで返す場合がある。
type EnrollmentGrades struct {
	CurrentGrade *string  `json:"current_grade"`
	CurrentScore *float64 `json:"current_score"`
}

// Enrollment はユーザーとコースを結びつける上流の履修レコード。
type Enrollment struct {
	Type   string            `json:"type"`
	UserID int64             `json:"user_id"`
	Grades *EnrollmentGrades `json:"grades,omitempty"`
}
