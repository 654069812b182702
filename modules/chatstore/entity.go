package chatstore

import "time"

// ChatMessage is one persisted chat line, immutable once written.
// Timestamp is the client submission time in epoch milliseconds;
// CreatedAt is assigned by the database on insert.
type ChatMessage struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	MessageID string    `gorm:"size:64;not null" json:"id"`
	StreamKey string    `gorm:"size:100;not null;index:idx_stream_key" json:"streamKey"`
	Username  string    `gorm:"size:50;not null" json:"username"`
	Message   string    `gorm:"size:500;not null" json:"message"`
	Timestamp int64     `gorm:"not null;index:idx_timestamp" json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName returns the table name for ChatMessage model.
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// StreamChatStats are per-stream message aggregates.
type StreamChatStats struct {
	TotalMessages int   `json:"totalMessages"`
	FirstMessage  int64 `json:"firstMessage"`
	LastMessage   int64 `json:"lastMessage"`
	UniqueUsers   int   `json:"uniqueUsers"`
}

// StreamChatSummary is one row of the all-streams chat report.
type StreamChatSummary struct {
	StreamKey    string `json:"streamKey"`
	MessageCount int    `json:"messageCount"`
	FirstMessage int64  `json:"firstMessage"`
	LastMessage  int64  `json:"lastMessage"`
	UniqueUsers  int    `json:"uniqueUsers"`
}
