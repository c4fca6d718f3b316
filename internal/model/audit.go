package model

import "time"

// ReportAudit はレポート生成1回分の監査レコード。
// リクエストメタデータのみを記録し、トークンや上流データは一切保存しない。
type ReportAudit struct {
	ID            string
	RequestID     string
	CourseCount   int
	FailedCourses int
	DurationMs    int64
	Result        string // ok, upstream_unavailable, identity_unresolved
	CreatedAt     time.Time
}
