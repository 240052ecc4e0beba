package entity

import "time"

// Session one browser's working copy of the catalog
type Session struct {
	ID           string
	Catalog      Catalog
	Dirty        bool // edited since the last load or save
	Notices      []Notice
	CreatedAt    time.Time
	LastActivity time.Time
}

// NoticeLevel severity of an inline message
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice inline message shown on the next render
type Notice struct {
	Level NoticeLevel
	Text  string
}

// Activity one recorded catalog action
type Activity struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"session_id"`
	Action    string    `db:"action" json:"action"` // "save", "upload_images", "reset", "import"
	Details   string    `db:"details" json:"details"`
	Timestamp time.Time `db:"ts" json:"timestamp"`
}
