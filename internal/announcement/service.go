// Package announcement はコースのお知らせ取得機能を提供する。
// ディスカバリ済みのコースごとに上流のお知らせをまとめ、
// 教員入力のHTML本文をサニタイズした上で平文の要約を添えて返す。
package announcement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/hitoshi/gradeport/internal/model"
	"github.com/hitoshi/gradeport/internal/upstream"
)

const (
	// maxContextCodesPerRequest は1リクエストあたりの最大コース数。
	// 上流のお知らせAPIはcontext_codesの数に上限があるためバッチ分割する。
	maxContextCodesPerRequest = 10
	// summaryMaxRunes は平文要約の最大文字数。
	summaryMaxRunes = 200
)

// Lister はお知らせサービスが必要とする上流操作のインターフェース。
type Lister interface {
	ListCourses(ctx context.Context, token string) ([]model.Course, error)
	ListAnnouncements(ctx context.Context, token string, courseIDs []int64) ([]model.Announcement, error)
}

// Sanitizer はHTMLサニタイズのインターフェース。
// security.ContentSanitizerServiceを抽象化してテスタビリティを向上させる。
type Sanitizer interface {
	Sanitize(rawHTML string) string
}

// Item はお知らせ1件分のレスポンス行。
type Item struct {
	Title    string     `json:"title"`
	Message  string     `json:"message"` // サニタイズ済みHTML
	Summary  string     `json:"summary"` // 平文の要約
	PostedAt *time.Time `json:"posted_at"`
}

// CourseAnnouncements は1コース分のお知らせ一覧。
type CourseAnnouncements struct {
	CourseID      int64  `json:"course_id"`
	CourseName    string `json:"course"`
	Announcements []Item `json:"announcements"`
}

// Service はお知らせ取得サービス。
type Service struct {
	client    Lister
	sanitizer Sanitizer
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(client Lister, sanitizer Sanitizer, logger *slog.Logger) *Service {
	return &Service{
		client:    client,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// ListCourseAnnouncements はトークン所有者の全コースのお知らせを取得する。
// コース一覧の取得失敗のみがterminalであり、お知らせ取得のバッチ単位の失敗は
// 警告ログの上で該当コースのお知らせが空になるのみで、他バッチを中断しない。
// 返り値はディスカバリが返したコース順を保持する。
func (s *Service) ListCourseAnnouncements(ctx context.Context, token string) ([]CourseAnnouncements, error) {
	if token == "" {
		return nil, model.NewMissingTokenError()
	}

	courses, err := s.client.ListCourses(ctx, token)
	if err != nil {
		s.logger.Error("コース一覧の取得に失敗しました",
			slog.Int("http_status", upstream.StatusOf(err)),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamUnavailableError(upstream.StatusOf(err))
	}

	// コースIDをバッチ分割してお知らせを取得し、context_codeで逆引きする
	byCourse := make(map[int64][]Item, len(courses))
	courseIDs := make([]int64, 0, len(courses))
	for _, c := range courses {
		courseIDs = append(courseIDs, c.ID)
	}

	for start := 0; start < len(courseIDs); start += maxContextCodesPerRequest {
		end := start + maxContextCodesPerRequest
		if end > len(courseIDs) {
			end = len(courseIDs)
		}
		batch := courseIDs[start:end]

		announcements, err := s.client.ListAnnouncements(ctx, token, batch)
		if err != nil {
			s.logger.Warn("お知らせの取得に失敗しました",
				slog.Int("batch_size", len(batch)),
				slog.Int("http_status", upstream.StatusOf(err)),
				slog.String("error", err.Error()),
			)
			continue
		}

		for _, a := range announcements {
			courseID, ok := parseContextCode(a.ContextCode)
			if !ok {
				continue
			}
			byCourse[courseID] = append(byCourse[courseID], Item{
				Title:    a.Title,
				Message:  s.sanitizer.Sanitize(a.Message),
				Summary:  Summarize(a.Message, summaryMaxRunes),
				PostedAt: a.PostedAt,
			})
		}
	}

	result := make([]CourseAnnouncements, 0, len(courses))
	for _, c := range courses {
		items := byCourse[c.ID]
		if items == nil {
			items = []Item{}
		}
		result = append(result, CourseAnnouncements{
			CourseID:      c.ID,
			CourseName:    c.Name,
			Announcements: items,
		})
	}

	return result, nil
}

// parseContextCode は "course_{id}" 形式のcontext_codeからコースIDを取り出す。
func parseContextCode(code string) (int64, bool) {
	const prefix = "course_"
	if !strings.HasPrefix(code, prefix) {
		return 0, false
	}
	var id int64
	if _, err := fmt.Sscanf(code[len(prefix):], "%d", &id); err != nil {
		return 0, false
	}
	return id, true
}

// Summarize はHTML本文からテキストノードのみを取り出し、
// 空白を正規化した平文の要約を返す。maxRunesを超える場合は省略記号で打ち切る。
// パースに失敗した場合は空文字列を返す（要約は補助情報であり失敗は致命的でない）。
func Summarize(rawHTML string, maxRunes int) string {
	node, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	collectText(node, &sb)

	// 連続する空白を1つにまとめる
	text := strings.Join(strings.Fields(sb.String()), " ")

	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxRunes]) + "…"
}

// collectText はHTMLノードツリーを走査してテキストノードを収集する。
// scriptとstyleの中身はテキストではないためスキップする。
func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteString(" ")
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, sb)
	}
}
