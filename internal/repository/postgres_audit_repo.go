package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/gradeport/internal/model"
)

// PostgresAuditRepo はPostgreSQLを使用したレポート監査リポジトリ。
type PostgresAuditRepo struct {
	db *sql.DB
}

// NewPostgresAuditRepo はPostgresAuditRepoを生成する。
func NewPostgresAuditRepo(db *sql.DB) *PostgresAuditRepo {
	return &PostgresAuditRepo{db: db}
}

// InsertReportAudit はレポート生成1回分の監査レコードを挿入する。
// CreatedAtが未設定の場合は現在時刻を使用する。
func (r *PostgresAuditRepo) InsertReportAudit(ctx context.Context, audit model.ReportAudit) error {
	createdAt := audit.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO report_audits (id, request_id, course_count, failed_courses, duration_ms, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		audit.ID, audit.RequestID, audit.CourseCount, audit.FailedCourses,
		audit.DurationMs, audit.Result, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report audit: %w", err)
	}

	return nil
}

// CountSince は指定時刻以降の監査レコード数を結果ラベル別に集計する。
func (r *PostgresAuditRepo) CountSince(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT result, COUNT(*) FROM report_audits WHERE created_at >= $1 GROUP BY result`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count report audits: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var result string
		var count int
		if err := rows.Scan(&result, &count); err != nil {
			return nil, fmt.Errorf("failed to scan audit count: %w", err)
		}
		counts[result] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit counts: %w", err)
	}

	return counts, nil
}

// DeleteBefore は指定時刻より前の監査レコードを削除し、削除件数を返す。
// 保持期間を超えた監査レコードの定期クリーンアップに使用する。
func (r *PostgresAuditRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM report_audits WHERE created_at < $1`,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old report audits: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted row count: %w", err)
	}

	return deleted, nil
}
