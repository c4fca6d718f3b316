package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, upstream, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
//
// レポート全体を中断するterminalエラーのみをコードとして定義する。
// コース単位の失敗はエラーとして表面化せず、センチネル値のレコードに変換される。
const (
	ErrCodeMissingToken        = "MISSING_TOKEN"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeStudentNotFound     = "STUDENT_NOT_FOUND"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
)

// NewMissingTokenError はアクセストークン未指定エラーを生成する。
func NewMissingTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingToken,
		Message:  "アクセストークンが指定されていません。",
		Category: "auth",
		Action:   "リクエストボディにLMSのアクセストークンを指定してください。",
	}
}

// NewUpstreamUnavailableError はコース一覧取得の失敗エラーを生成する。
// コース一覧はレポート全体の前提となる唯一の呼び出しのため、失敗はterminalとなる。
func NewUpstreamUnavailableError(status int) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnavailable,
		Message:  fmt.Sprintf("LMS APIからコース一覧を取得できませんでした（ステータス: %d）。", status),
		Category: "upstream",
		Action:   "トークンが有効か確認し、しばらく待ってから再度お試しください。",
	}
}

// NewStudentNotFoundError は受講者ID解決の失敗エラーを生成する。
// 発見されたどのコースにも受講者としての履修レコードが存在しない場合に返される。
func NewStudentNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeStudentNotFound,
		Message:  "受講者としての履修レコードが見つかりません。",
		Category: "upstream",
		Action:   "このトークンの所有者が受講者としてコースに登録されているか確認してください。",
	}
}

// NewInvalidRequestError はリクエスト形式エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストの形式が不正です: %s", reason),
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}
