package model

import "time"

// Announcement はコースのお知らせを表す。
// ContextCodeは "course_{id}" 形式でお知らせが属するコースを示す。
type Announcement struct {
	ID          int64      `json:"id"`
	ContextCode string     `json:"context_code"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	PostedAt    *time.Time `json:"posted_at"`
}
