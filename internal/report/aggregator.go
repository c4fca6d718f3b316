// Package report は成績レポートの組み立てを提供する。
// コースディスカバリ、受講者ID解決、コース単位の成績解決のファンアウト、
// 結果のマージを含む。
package report

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/gradeport/internal/model"
	"github.com/hitoshi/gradeport/internal/upstream"
)

// レポート生成結果のメトリクスラベル。
const (
	ResultOK                  = "ok"
	ResultUpstreamUnavailable = "upstream_unavailable"
	ResultIdentityUnresolved  = "identity_unresolved"
)

// CourseLister はコースディスカバリのインターフェース。
type CourseLister interface {
	ListCourses(ctx context.Context, token string) ([]model.Course, error)
}

// CourseResolver は1コース分の成績解決のインターフェース。
// grade.Chainが実装する。実装は決してエラーを返さず、
// 失敗時はセンチネル値を持つレコードを返す。
type CourseResolver interface {
	Resolve(ctx context.Context, token string, course model.Course, studentID int64) model.CourseGradeRecord
}

// ReportRecorder はレポート生成のメトリクス記録のインターフェース。
type ReportRecorder interface {
	RecordReport(result string, courseCount int, duration time.Duration)
}

// Config はAggregatorの動作設定。
type Config struct {
	// MaxConcurrent はコース単位の成績解決の最大並列数。
	// 0以下の場合はデフォルト値5を使用する。
	MaxConcurrent int
	// IdentityOptional がtrueの場合、受講者ID解決の失敗はレポート全体を
	// 中断せず、履歴ソース抜きの縮退モードで続行する。
	IdentityOptional bool
}

// Aggregator はコースディスカバリと成績解決を駆動し、最終レポートを組み立てる。
// 1リクエストにつき1回の呼び出しを想定し、リクエスト間で共有する可変状態を持たない。
type Aggregator struct {
	courses  CourseLister
	resolver CourseResolver
	logger   *slog.Logger
	metrics  ReportRecorder // nilの場合は記録しない
	config   Config
}

// NewAggregator はAggregatorの新しいインスタンスを生成する。
func NewAggregator(courses CourseLister, resolver CourseResolver, logger *slog.Logger, metrics ReportRecorder, config Config) *Aggregator {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 5
	}
	return &Aggregator{
		courses:  courses,
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
		config:   config,
	}
}

// BuildReport はトークン所有者の全コースの成績レポートを組み立てる。
//
// terminalな失敗（トークン未指定、コース一覧取得失敗、受講者ID解決失敗）は
// *model.APIErrorとして返され、レコードは1件も生成されない。
// コース単位の失敗はコース境界で吸収され、該当コースのレコードが
// センチネル値になるのみで、他コースの解決を中断しない。
//
// 返されるレコードはディスカバリが返したコース順を保持し、
// 発見されたコース1件につき必ず1件生成される。
func (a *Aggregator) BuildReport(ctx context.Context, token string) ([]model.CourseGradeRecord, error) {
	start := time.Now()

	if token == "" {
		return nil, model.NewMissingTokenError()
	}

	// コース一覧はレポート全体の前提となる唯一の呼び出し。
	// この失敗のみがリクエスト全体を中断させる。
	courses, err := a.courses.ListCourses(ctx, token)
	if err != nil {
		a.logger.Error("コース一覧の取得に失敗しました",
			slog.Int("http_status", upstream.StatusOf(err)),
			slog.String("error", err.Error()),
		)
		a.record(ResultUpstreamUnavailable, 0, start)
		return nil, model.NewUpstreamUnavailableError(upstream.StatusOf(err))
	}

	studentID, err := ResolveStudentID(courses)
	if err != nil {
		if !a.config.IdentityOptional {
			a.record(ResultIdentityUnresolved, 0, start)
			return nil, err
		}
		// 縮退モード: 履歴ソースは受講者IDなしでは動作しないためスキップされ、
		// 残りのソースのみでレポートを生成する。
		a.logger.Warn("受講者IDを解決できませんでした。履歴なしの縮退モードで続行します")
		studentID = 0
	}

	// コース単位の成績解決には相互の順序依存がないため、semaphoreパターンで
	// 並列数を制御しながらファンアウトする。インデックス固定のスライスへ
	// 書き込むことでディスカバリ順を保持する。
	records := make([]model.CourseGradeRecord, len(courses))
	sem := make(chan struct{}, a.config.MaxConcurrent)
	var wg sync.WaitGroup

	for i, course := range courses {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(idx int, c model.Course) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			records[idx] = a.resolver.Resolve(ctx, token, c, studentID)
		}(i, course)
	}

	wg.Wait()

	a.logger.Info("成績レポートを生成しました",
		slog.Int("course_count", len(records)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	a.record(ResultOK, len(records), start)

	return records, nil
}

// record はメトリクスコレクタが設定されている場合のみ記録する。
func (a *Aggregator) record(result string, courseCount int, start time.Time) {
	if a.metrics != nil {
		a.metrics.RecordReport(result, courseCount, time.Since(start))
	}
}
