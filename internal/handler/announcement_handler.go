package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/gradeport/internal/announcement"
	"github.com/hitoshi/gradeport/internal/model"
)

// AnnouncementServiceInterface はお知らせハンドラーが必要とするサービスインターフェース。
type AnnouncementServiceInterface interface {
	ListCourseAnnouncements(ctx context.Context, token string) ([]announcement.CourseAnnouncements, error)
}

// AnnouncementHandler はコースのお知らせ取得のHTTPハンドラー。
type AnnouncementHandler struct {
	service AnnouncementServiceInterface
}

// NewAnnouncementHandler はAnnouncementHandlerを生成する。
func NewAnnouncementHandler(service AnnouncementServiceInterface) *AnnouncementHandler {
	return &AnnouncementHandler{service: service}
}

// announcementsRequest はお知らせリクエストのボディ。
type announcementsRequest struct {
	Token string `json:"token"`
}

// List は全コースのお知らせ取得を処理する。
// POST /api/announcements
func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	var req announcementsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	if req.Token == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingTokenError())
		return
	}

	result, err := h.service.ListCourseAnnouncements(r.Context(), req.Token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
