package upstream

import (
	"errors"
	"fmt"
)

// Error はLMS APIからの非2xx応答を表す構造化エラー。
// 呼び出し元はこのエラーをその1回の呼び出しに限った回復可能な失敗として扱い、
// プロセス全体の失敗として扱ってはならない。
type Error struct {
	Status int    // HTTPステータスコード
	Body   string // レスポンスボディ（診断用に先頭のみ保持）
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	return fmt.Sprintf("LMS APIがステータス %d を返しました", e.Status)
}

// StatusOf はエラーチェーンに*Errorが含まれる場合そのステータスコードを返す。
// それ以外（ネットワークエラー等）の場合は0を返す。
func StatusOf(err error) int {
	var upErr *Error
	if errors.As(err, &upErr) {
		return upErr.Status
	}
	return 0
}
