// Package app はアプリケーションの起動とワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/gradeport/internal/announcement"
	"github.com/hitoshi/gradeport/internal/config"
	"github.com/hitoshi/gradeport/internal/database"
	"github.com/hitoshi/gradeport/internal/grade"
	"github.com/hitoshi/gradeport/internal/handler"
	"github.com/hitoshi/gradeport/internal/logger"
	"github.com/hitoshi/gradeport/internal/metrics"
	"github.com/hitoshi/gradeport/internal/middleware"
	"github.com/hitoshi/gradeport/internal/report"
	"github.com/hitoshi/gradeport/internal/repository"
	"github.com/hitoshi/gradeport/internal/security"
	"github.com/hitoshi/gradeport/internal/upstream"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("upstream_base_url", cfg.UpstreamBaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// 上流ベースURLを検証し、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. 上流ベースURLの検証（SSRFガード）
	guard := security.NewUpstreamGuard()
	if err := guard.ValidateBaseURL(cfg.UpstreamBaseURL); err != nil {
		return fmt.Errorf("invalid upstream base URL: %w", err)
	}

	// 2. メトリクスコレクタの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. 上流クライアントの初期化（検証済みHTTPクライアント経由）
	upstreamClient := upstream.NewClient(
		guard.NewSafeClient(cfg.UpstreamTimeout),
		cfg.UpstreamBaseURL,
		slog.Default(),
		collector,
	)

	// 4. 成績ソースチェーンの構築
	chain, err := grade.BuildChain(
		cfg.ResolverPrecedence,
		grade.ChainDeps{
			Enrollments: upstreamClient,
			History:     upstreamClient,
			Assignments: upstreamClient,
		},
		grade.ChainConfig{
			HistoryFinalColumn: cfg.HistoryFinalColumn,
			HistoryPageSize:    cfg.HistoryPageSize,
		},
		slog.Default(),
		collector,
	)
	if err != nil {
		return fmt.Errorf("failed to build grade source chain: %w", err)
	}

	// 5. レポートアグリゲータの初期化
	aggregator := report.NewAggregator(
		upstreamClient, chain, slog.Default(), collector,
		report.Config{
			MaxConcurrent:    cfg.ResolveMaxConcurrent,
			IdentityOptional: cfg.IdentityOptional,
		},
	)

	// 6. お知らせサービスの初期化
	sanitizer := security.NewContentSanitizer()
	announcementService := announcement.NewService(upstreamClient, sanitizer, slog.Default())

	// 7. 監査ストアの初期化（DATABASE_URLが設定されている場合のみ）
	var auditRecorder handler.AuditRecorder
	var healthChecker handler.HealthChecker

	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		slog.Info("audit store enabled")
		auditRecorder = repository.NewPostgresAuditRepo(db)
		healthChecker = db
	} else {
		slog.Info("audit store disabled (stateless mode)")
	}

	// 8. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		ReportService: aggregator,
		AuditRecorder: auditRecorder,

		AnnouncementService: announcementService,

		HealthChecker: healthChecker,
		Gatherer:      registry,
	})

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for migrate command")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
