package model

import (
	"errors"
	"strings"
	"testing"
)

func TestAPIError_ImplementsError(t *testing.T) {
	var err error = NewMissingTokenError()

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("APIError は errors.As で取り出せるべき")
	}
	if apiErr.Code != ErrCodeMissingToken {
		t.Errorf("Code = %s, want %s", apiErr.Code, ErrCodeMissingToken)
	}
}

func TestAPIError_ErrorMessageContainsCode(t *testing.T) {
	err := NewStudentNotFoundError()
	if !strings.Contains(err.Error(), ErrCodeStudentNotFound) {
		t.Errorf("Error() = %s, コード %s を含むべき", err.Error(), ErrCodeStudentNotFound)
	}
}

func TestNewUpstreamUnavailableError_IncludesStatus(t *testing.T) {
	err := NewUpstreamUnavailableError(503)
	if !strings.Contains(err.Message, "503") {
		t.Errorf("Message = %s, ステータスコード503を含むべき", err.Message)
	}
	if err.Category != "upstream" {
		t.Errorf("Category = %s, want upstream", err.Category)
	}
}

func TestNewInvalidRequestError_IncludesReason(t *testing.T) {
	err := NewInvalidRequestError("token フィールドがありません")
	if !strings.Contains(err.Message, "token フィールドがありません") {
		t.Errorf("Message = %s, 理由を含むべき", err.Message)
	}
}
