package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/gradeport/internal/middleware"
	"github.com/hitoshi/gradeport/internal/model"
)

// ReportServiceInterface は成績ハンドラーが必要とするサービスインターフェース。
type ReportServiceInterface interface {
	// BuildReport はトークン所有者の全コースの成績レポートを組み立てる。
	BuildReport(ctx context.Context, token string) ([]model.CourseGradeRecord, error)
}

// AuditRecorder はレポート生成の監査記録のインターフェース。
// 監査ストアが設定されていないデプロイではnilとなる。
type AuditRecorder interface {
	// InsertReportAudit はレポート生成1回分の監査レコードを挿入する。
	InsertReportAudit(ctx context.Context, audit model.ReportAudit) error
}

// GradeHandler は成績レポートのHTTPハンドラー。
type GradeHandler struct {
	service ReportServiceInterface
	audit   AuditRecorder // nilの場合は監査無効
}

// NewGradeHandler はGradeHandlerを生成する。
func NewGradeHandler(service ReportServiceInterface, audit AuditRecorder) *GradeHandler {
	return &GradeHandler{
		service: service,
		audit:   audit,
	}
}

// gradesRequest は成績レポートリクエストのボディ。
type gradesRequest struct {
	Token string `json:"token"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// BuildReport は成績レポート生成を処理する。
// POST /api/grades
func (h *GradeHandler) BuildReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req gradesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	if req.Token == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingTokenError())
		return
	}

	records, err := h.service.BuildReport(r.Context(), req.Token)
	if err != nil {
		h.recordAudit(r, resultOf(err), 0, 0, start)
		handleServiceError(w, err)
		return
	}

	h.recordAudit(r, "ok", len(records), countFailedCourses(records), start)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// recordAudit は監査ストアが設定されている場合のみ監査レコードを挿入する。
// 監査の失敗はレスポンスに影響させず、ログのみに記録する。
func (h *GradeHandler) recordAudit(r *http.Request, result string, courseCount, failedCourses int, start time.Time) {
	if h.audit == nil {
		return
	}

	requestID, _ := middleware.RequestIDFromContext(r.Context())
	audit := model.ReportAudit{
		ID:            uuid.NewString(),
		RequestID:     requestID,
		CourseCount:   courseCount,
		FailedCourses: failedCourses,
		DurationMs:    time.Since(start).Milliseconds(),
		Result:        result,
	}

	if err := h.audit.InsertReportAudit(r.Context(), audit); err != nil {
		slog.Error("監査レコードの挿入に失敗しました",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
	}
}

// countFailedCourses は全成績ソースが失敗しセンチネル値のみとなったコース数を数える。
func countFailedCourses(records []model.CourseGradeRecord) int {
	failed := 0
	for _, rec := range records {
		if rec.Grade == model.GradeNA && !rec.Score.Valid && rec.Assignments == nil {
			failed++
		}
	}
	return failed
}

// resultOf はterminalエラーを監査レコードの結果ラベルに変換する。
func resultOf(err error) string {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return "error"
	}
	switch apiErr.Code {
	case model.ErrCodeUpstreamUnavailable:
		return "upstream_unavailable"
	case model.ErrCodeStudentNotFound:
		return "identity_unresolved"
	default:
		return "error"
	}
}

// --- ヘルパー関数 ---

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はエラーコードをHTTPステータスコードに対応付ける。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeMissingToken, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeUpstreamUnavailable:
		return http.StatusBadGateway
	case model.ErrCodeStudentNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
