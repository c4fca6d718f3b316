package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/gradeport/internal/metrics"
	"github.com/hitoshi/gradeport/internal/middleware"
)

// HealthChecker はヘルスチェックに必要な疎通確認のインターフェース。
// 監査ストアが設定されていないデプロイではnilとなり、プロセス生存のみを報告する。
type HealthChecker interface {
	Ping() error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 成績レポート
	ReportService ReportServiceInterface
	AuditRecorder AuditRecorder

	// お知らせ
	AnnouncementService AnnouncementServiceInterface

	// 運用系
	HealthChecker HealthChecker
	Gatherer      prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → RequestIDMiddleware → LoggingMiddleware → RecoveryMiddleware → RateLimitMiddleware
//
// 運用系ルート（/health、/metrics）はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())

	gradeHandler := NewGradeHandler(deps.ReportService, deps.AuditRecorder)
	announcementHandler := NewAnnouncementHandler(deps.AnnouncementService)

	// --- 運用系ルート（レート制限の外）---

	r.Get("/health", newHealthHandler(deps.HealthChecker))

	if deps.Gatherer != nil {
		r.Get("/metrics", metrics.Handler(deps.Gatherer).ServeHTTP)
	}

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		r.Route("/api", func(r chi.Router) {
			// POST /api/grades - 成績レポート生成
			r.Post("/grades", gradeHandler.BuildReport)

			// POST /api/announcements - コースのお知らせ一覧
			r.Post("/announcements", announcementHandler.List)
		})
	})

	return r
}

// newHealthHandler はヘルスチェックハンドラーを生成する。
// checkerがnilでない場合はストレージの疎通確認も行う。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		statusCode := http.StatusOK

		if checker != nil {
			if err := checker.Ping(); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				status = "unavailable"
				statusCode = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
