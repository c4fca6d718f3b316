package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDMiddleware_AssignsUniqueID(t *testing.T) {
	var captured string
	mw := NewRequestIDMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := RequestIDFromContext(r.Context())
		if err != nil {
			t.Errorf("コンテキストからリクエストIDを取得できない: %v", err)
		}
		captured = id
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if _, err := uuid.Parse(captured); err != nil {
		t.Errorf("リクエストID = %q, UUID形式であるべき: %v", captured, err)
	}
	if got := rec.Header().Get("X-Request-ID"); got != captured {
		t.Errorf("X-Request-ID ヘッダー = %q, コンテキストのID %q と一致すべき", got, captured)
	}
}

func TestRequestIDMiddleware_DistinctPerRequest(t *testing.T) {
	var ids []string
	mw := NewRequestIDMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := RequestIDFromContext(r.Context())
		ids = append(ids, id)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if len(ids) != 2 || ids[0] == ids[1] {
		t.Errorf("リクエストID = %v, リクエストごとに異なるべき", ids)
	}
}

func TestRequestIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := RequestIDFromContext(req.Context()); err == nil {
		t.Fatal("ID未設定のコンテキストではエラーを返すべき")
	}
}
