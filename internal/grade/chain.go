package grade

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/gradeport/internal/config"
	"github.com/hitoshi/gradeport/internal/model"
	"github.com/hitoshi/gradeport/internal/upstream"
)

// FailureRecorder は成績ソースのコース単位失敗を記録するインターフェース。
type FailureRecorder interface {
	RecordSourceFailure(source string)
}

// Chain は複数の成績ソースをデプロイ単位で固定された優先順で合成する。
// 後続のソースは先行ソースが埋めなかったフィールドのみを補完し、
// 確定済みの値を決して上書きしない。
//
// いかなるソースの失敗もコース境界で吸収され、呼び出し元へは伝播しない。
// 全ソースが失敗したコースもセンチネル値を持つレコードとして出力される。
type Chain struct {
	sources []Source
	logger  *slog.Logger
	metrics FailureRecorder // nilの場合は記録しない
}

// NewChain はChainの新しいインスタンスを生成する。
func NewChain(sources []Source, logger *slog.Logger, metrics FailureRecorder) *Chain {
	return &Chain{
		sources: sources,
		logger:  logger,
		metrics: metrics,
	}
}

// ChainDeps はBuildChainが成績ソースの構築に必要とする依存関係。
// upstream.Clientは全インターフェースを満たすため、本番では同一インスタンスを渡す。
type ChainDeps struct {
	Enrollments EnrollmentLister
	History     HistoryLister
	Assignments AssignmentLister
}

// ChainConfig は成績ソースの構築パラメータ。
type ChainConfig struct {
	HistoryFinalColumn string
	HistoryPageSize    int
}

// BuildChain は設定の優先リストから成績ソースチェーンを構築する。
// 優先リストに不明なソース名が含まれる場合はエラーを返す。
func BuildChain(precedence []string, deps ChainDeps, cfg ChainConfig, logger *slog.Logger, metrics FailureRecorder) (*Chain, error) {
	sources := make([]Source, 0, len(precedence))
	for _, name := range precedence {
		switch name {
		case config.SourceEnrollment:
			sources = append(sources, NewEnrollmentSource(deps.Enrollments))
		case config.SourceHistory:
			sources = append(sources, NewHistorySource(deps.History, cfg.HistoryFinalColumn, cfg.HistoryPageSize))
		case config.SourceAssignments:
			sources = append(sources, NewAssignmentSource(deps.Assignments))
		default:
			return nil, fmt.Errorf("unknown grade source: %q", name)
		}
	}
	return NewChain(sources, logger, metrics), nil
}

// Resolve は優先順にソースを実行し、1コース分のレコードを組み立てる。
// 必ず1件のレコードを返し、決してエラーを返さない。
func (c *Chain) Resolve(ctx context.Context, token string, course model.Course, studentID int64) model.CourseGradeRecord {
	var merged Result

	for _, source := range c.sources {
		if merged.complete() {
			break
		}

		res, err := source.Resolve(ctx, token, course, studentID)
		if err != nil {
			// コース単位の失敗は警告ログとメトリクスのみ。残りのソースで継続する。
			c.logger.Warn("成績ソースの解決に失敗しました",
				slog.String("source", source.Name()),
				slog.Int64("course_id", course.ID),
				slog.String("course_name", course.Name),
				slog.Int("http_status", upstream.StatusOf(err)),
				slog.String("error", err.Error()),
			)
			if c.metrics != nil {
				c.metrics.RecordSourceFailure(source.Name())
			}
			continue
		}

		merged = merged.merge(res)
	}

	return buildRecord(course, merged)
}

// buildRecord は合成結果からレコードを組み立てる。未確定フィールドには
// センチネル値を設定する。
func buildRecord(course model.Course, res Result) model.CourseGradeRecord {
	record := model.CourseGradeRecord{
		CourseID:    course.ID,
		CourseName:  course.Name,
		Grade:       model.GradeNA,
		Assignments: res.Assignments,
	}
	if res.Grade != nil {
		record.Grade = *res.Grade
	}
	if res.Score != nil {
		record.Score = model.NewScore(*res.Score)
	}
	return record
}
