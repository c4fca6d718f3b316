package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// 成績ソース名。RESOLVER_PRECEDENCEで指定可能な値。
const (
	SourceHistory     = "history"
	SourceEnrollment  = "enrollment"
	SourceAssignments = "assignments"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Upstream
	UpstreamBaseURL string
	UpstreamTimeout time.Duration

	// Resolver
	ResolverPrecedence   []string
	HistoryFinalColumn   string
	HistoryPageSize      int
	ResolveMaxConcurrent int
	IdentityOptional     bool

	// Database（監査ストア。未設定の場合は監査無効のステートレスモード）
	DatabaseURL string

	// Rate Limit
	RateLimitGeneral int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.UpstreamBaseURL = strings.TrimRight(os.Getenv("UPSTREAM_BASE_URL"), "/")
	if cfg.UpstreamBaseURL == "" {
		missing = append(missing, "UPSTREAM_BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second)
	cfg.HistoryFinalColumn = getEnvString("HISTORY_FINAL_COLUMN", "Final Score")
	cfg.HistoryPageSize = getEnvInt("HISTORY_PAGE_SIZE", 100)
	cfg.ResolveMaxConcurrent = getEnvInt("RESOLVE_MAX_CONCURRENT", 5)
	cfg.IdentityOptional = getEnvBool("IDENTITY_OPTIONAL", false)
	cfg.DatabaseURL = getEnvString("DATABASE_URL", "")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 60)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	precedence, err := parsePrecedence(getEnvString("RESOLVER_PRECEDENCE", "history,enrollment,assignments"))
	if err != nil {
		return nil, err
	}
	cfg.ResolverPrecedence = precedence

	return cfg, nil
}

// parsePrecedence はカンマ区切りの成績ソース優先リストを検証して返す。
// 優先順はデプロイ単位で固定であり、リクエストごとに推測してはならない。
func parsePrecedence(raw string) ([]string, error) {
	parts := strings.Split(raw, ",")
	precedence := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))

	for _, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		switch name {
		case SourceHistory, SourceEnrollment, SourceAssignments:
		default:
			return nil, fmt.Errorf("unknown grade source in RESOLVER_PRECEDENCE: %q", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate grade source in RESOLVER_PRECEDENCE: %q", name)
		}
		seen[name] = true
		precedence = append(precedence, name)
	}

	if len(precedence) == 0 {
		return nil, fmt.Errorf("RESOLVER_PRECEDENCE must contain at least one grade source")
	}

	return precedence, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
