// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/gradeport/internal/model"
)

// ReportAuditRepository はレポート生成監査レコードの永続化インターフェース。
// トークンや成績値そのものは保存せず、リクエストのメタデータのみを記録する。
type ReportAuditRepository interface {
	// InsertReportAudit はレポート生成1回分の監査レコードを挿入する。
	InsertReportAudit(ctx context.Context, audit model.ReportAudit) error

	// CountSince は指定時刻以降の監査レコード数を結果ラベル別に集計する。
	CountSince(ctx context.Context, since time.Time) (map[string]int, error)

	// DeleteBefore は指定時刻より前の監査レコードを削除し、削除件数を返す。
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
