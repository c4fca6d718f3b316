package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/gradeport/internal/model"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func newTestClient(server *httptest.Server) *Client {
	var buf bytes.Buffer
	return NewClient(server.Client(), server.URL, newTestLogger(&buf), nil)
}

// --- 認証とリクエスト形式 ---

func TestClient_ListCourses_SendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-abc" {
			t.Errorf("Authorization = %q, want \"Bearer token-abc\"", got)
		}
		if r.Method != http.MethodGet {
			t.Errorf("HTTPメソッド = %s, want GET", r.Method)
		}
		if r.URL.Path != "/courses" {
			t.Errorf("パス = %s, want /courses", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]model.Course{{ID: 1, Name: "数学"}})
	}))
	defer server.Close()

	c := newTestClient(server)
	courses, err := c.ListCourses(context.Background(), "token-abc")
	if err != nil {
		t.Fatalf("ListCourses がエラーを返した: %v", err)
	}
	if len(courses) != 1 || courses[0].ID != 1 {
		t.Errorf("courses = %+v, want 1件(ID=1)", courses)
	}
}

func TestClient_ListStudentEnrollments_QueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/courses/42/enrollments" {
			t.Errorf("パス = %s, want /courses/42/enrollments", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("type[]"); got != model.EnrollmentTypeStudent {
			t.Errorf("type[] = %q, want %q", got, model.EnrollmentTypeStudent)
		}
		if got := q.Get("include[]"); got != "grades" {
			t.Errorf("include[] = %q, want grades", got)
		}
		json.NewEncoder(w).Encode([]model.Enrollment{})
	}))
	defer server.Close()

	c := newTestClient(server)
	if _, err := c.ListStudentEnrollments(context.Background(), "t", 42); err != nil {
		t.Fatalf("ListStudentEnrollments がエラーを返した: %v", err)
	}
}

func TestClient_ListGradebookHistory_PaginationParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("student[]"); got != "777" {
			t.Errorf("student[] = %q, want 777", got)
		}
		if got := q.Get("per_page"); got != "100" {
			t.Errorf("per_page = %q, want 100", got)
		}
		if got := q.Get("page"); got != "3" {
			t.Errorf("page = %q, want 3", got)
		}
		json.NewEncoder(w).Encode([]model.HistoryEntry{})
	}))
	defer server.Close()

	c := newTestClient(server)
	if _, err := c.ListGradebookHistory(context.Background(), "t", 1, 777, 3, 100); err != nil {
		t.Fatalf("ListGradebookHistory がエラーを返した: %v", err)
	}
}

func TestClient_ListAssignments_QueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("include[]"); got != "submission" {
			t.Errorf("include[] = %q, want submission", got)
		}
		if got := q.Get("student_ids[]"); got != "self" {
			t.Errorf("student_ids[] = %q, want self", got)
		}
		json.NewEncoder(w).Encode([]model.Assignment{})
	}))
	defer server.Close()

	c := newTestClient(server)
	if _, err := c.ListAssignments(context.Background(), "t", 5); err != nil {
		t.Fatalf("ListAssignments がエラーを返した: %v", err)
	}
}

func TestClient_ListAnnouncements_ContextCodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		codes := r.URL.Query()["context_codes[]"]
		if len(codes) != 2 || codes[0] != "course_1" || codes[1] != "course_2" {
			t.Errorf("context_codes[] = %v, want [course_1 course_2]", codes)
		}
		json.NewEncoder(w).Encode([]model.Announcement{})
	}))
	defer server.Close()

	c := newTestClient(server)
	if _, err := c.ListAnnouncements(context.Background(), "t", []int64{1, 2}); err != nil {
		t.Fatalf("ListAnnouncements がエラーを返した: %v", err)
	}
}

// --- 非2xx応答の扱い ---

func TestClient_Non2xx_ReturnsStructuredError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"errors":[{"message":"Invalid access token."}]}`)
	}))
	defer server.Close()

	c := newTestClient(server)
	_, err := c.ListCourses(context.Background(), "bad-token")
	if err == nil {
		t.Fatal("401応答はエラーとなるべき")
	}

	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("エラー型 = %T, want *Error", err)
	}
	if upErr.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", upErr.Status)
	}
	if !strings.Contains(upErr.Body, "Invalid access token") {
		t.Errorf("Body = %q, 診断用ボディを含むべき", upErr.Body)
	}
}

func TestClient_Non2xx_TruncatesLongBody(t *testing.T) {
	longBody := strings.Repeat("x", 2000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, longBody)
	}))
	defer server.Close()

	c := newTestClient(server)
	_, err := c.ListCourses(context.Background(), "t")

	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("エラー型 = %T, want *Error", err)
	}
	if len(upErr.Body) > errorBodyLimit {
		t.Errorf("Body長 = %d, %d以下に切り詰めるべき", len(upErr.Body), errorBodyLimit)
	}
}

func TestStatusOf(t *testing.T) {
	if got := StatusOf(&Error{Status: 503}); got != 503 {
		t.Errorf("StatusOf(*Error{503}) = %d, want 503", got)
	}
	if got := StatusOf(fmt.Errorf("network down")); got != 0 {
		t.Errorf("StatusOf(通常のエラー) = %d, want 0", got)
	}
	if got := StatusOf(fmt.Errorf("wrapped: %w", &Error{Status: 404})); got != 404 {
		t.Errorf("StatusOf(ラップ済み) = %d, want 404", got)
	}
}

// --- 不正なレスポンス ---

func TestClient_InvalidJSON_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json at all")
	}))
	defer server.Close()

	c := newTestClient(server)
	if _, err := c.ListCourses(context.Background(), "t"); err == nil {
		t.Fatal("不正なJSONはエラーとなるべき")
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]model.Course{})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(server)
	if _, err := c.ListCourses(ctx, "t"); err == nil {
		t.Fatal("キャンセル済みコンテキストではエラーとなるべき")
	}
}
