// Package upstream はLMS REST APIへの認証付きGETリクエストを提供する。
// 全呼び出しはベアラートークンを添えた読み取り専用の呼び出しであり、
// 非2xx応答は一律に構造化された失敗（*Error）として返される。リトライは行わない。
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hitoshi/gradeport/internal/model"
)

const (
	// maxResponseSize は上流レスポンスボディの最大読み取りサイズ。
	maxResponseSize = 10 * 1024 * 1024
	// errorBodyLimit はエラー診断用に保持するボディの最大長。
	errorBodyLimit = 512
)

// MetricsRecorder は上流呼び出しのメトリクス記録のインターフェース。
type MetricsRecorder interface {
	RecordUpstreamRequest(endpoint string, statusCode int, duration time.Duration)
	RecordUpstreamFailure(endpoint string)
}

// Client はLMS APIのクライアント。
// 認証付きGETとJSONデコードのみを担い、取得結果の解釈は呼び出し側の責務とする。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    MetricsRecorder // nilの場合は記録しない
	baseURL    string          // テスト用にhttptestサーバーへ差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLはLMS APIのベースURL（例: "https://school.instructure.com/api/v1"）。
func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger, metrics MetricsRecorder) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		metrics:    metrics,
		baseURL:    baseURL,
	}
}

// getJSON は認証付きGETリクエストを実行し、レスポンスJSONをvにデコードする。
// 非2xx応答は*Errorとして返す。endpointはメトリクスのラベルに使用する。
func (c *Client) getJSON(ctx context.Context, token, endpoint, path string, query url.Values, v any) error {
	reqURL, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("上流URLの構築に失敗しました: %w", err)
	}
	if query != nil {
		reqURL.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordUpstreamFailure(endpoint)
		}
		c.logger.Error("LMS APIの呼び出しに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("LMS APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	if c.metrics != nil {
		c.metrics.RecordUpstreamRequest(endpoint, resp.StatusCode, duration)
	}

	// レスポンスボディを読み込み（最大サイズ制限付き）
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	// 非2xxは一律に構造化された失敗として返す
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("LMS APIがエラーステータスを返しました",
			slog.String("endpoint", endpoint),
			slog.Int("http_status", resp.StatusCode),
		)
		return &Error{
			Status: resp.StatusCode,
			Body:   truncate(string(body), errorBodyLimit),
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	return nil
}

// ListCourses はトークン所有者が履修しているコースの一覧を取得する。
// コース一覧APIは所有者自身の履修レコードを各コースに埋め込んで返す。
func (c *Client) ListCourses(ctx context.Context, token string) ([]model.Course, error) {
	var courses []model.Course
	if err := c.getJSON(ctx, token, "courses", "/courses", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// ListStudentEnrollments はコースの受講者履修レコードを成績付きで取得する。
func (c *Client) ListStudentEnrollments(ctx context.Context, token string, courseID int64) ([]model.Enrollment, error) {
	query := url.Values{}
	query.Add("type[]", model.EnrollmentTypeStudent)
	query.Add("include[]", "grades")

	var enrollments []model.Enrollment
	path := fmt.Sprintf("/courses/%d/enrollments", courseID)
	if err := c.getJSON(ctx, token, "enrollments", path, query, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// ListGradebookHistory は成績簿履歴フィードの1ページ分を取得する。
// ページ番号は1始まり。ページ間の順序は上流依存のため呼び出し側でソートすること。
func (c *Client) ListGradebookHistory(ctx context.Context, token string, courseID, studentID int64, page, perPage int) ([]model.HistoryEntry, error) {
	query := url.Values{}
	query.Add("student[]", fmt.Sprintf("%d", studentID))
	query.Add("per_page", fmt.Sprintf("%d", perPage))
	query.Add("page", fmt.Sprintf("%d", page))

	var entries []model.HistoryEntry
	path := fmt.Sprintf("/courses/%d/gradebook_history", courseID)
	if err := c.getJSON(ctx, token, "gradebook_history", path, query, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListAssignments はコースの課題一覧を自身の提出レコード埋め込み付きで取得する。
func (c *Client) ListAssignments(ctx context.Context, token string, courseID int64) ([]model.Assignment, error) {
	query := url.Values{}
	query.Add("include[]", "submission")
	query.Add("student_ids[]", "self")

	var assignments []model.Assignment
	path := fmt.Sprintf("/courses/%d/assignments", courseID)
	if err := c.getJSON(ctx, token, "assignments", path, query, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// ListSubmissions はコースにおける自身の提出レコード一覧を取得する。
// 課題一覧に提出が埋め込まれていない上流向けのフォールバック。
func (c *Client) ListSubmissions(ctx context.Context, token string, courseID int64) ([]model.Submission, error) {
	query := url.Values{}
	query.Add("student_ids[]", "self")

	var submissions []model.Submission
	path := fmt.Sprintf("/courses/%d/students/submissions", courseID)
	if err := c.getJSON(ctx, token, "submissions", path, query, &submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

// ListAnnouncements は複数コースのお知らせを一括取得する。
// コースIDは "course_{id}" 形式のcontext_codesとして渡される。
func (c *Client) ListAnnouncements(ctx context.Context, token string, courseIDs []int64) ([]model.Announcement, error) {
	query := url.Values{}
	for _, id := range courseIDs {
		query.Add("context_codes[]", fmt.Sprintf("course_%d", id))
	}

	var announcements []model.Announcement
	if err := c.getJSON(ctx, token, "announcements", "/announcements", query, &announcements); err != nil {
		return nil, err
	}
	return announcements, nil
}

// truncate は文字列を最大lenバイトに切り詰める。
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
