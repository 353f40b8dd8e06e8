package model

import "time"

const (
	ResponseTypeRAG      = "rag"
	ResponseTypeChitchat = "chitchat"
	ResponseTypeError    = "error"
)

// Response is one generated answer, persisted for the transcript together
// with its source attributions. Feedback is attachable after creation.
type Response struct {
	ID            string           `gorm:"primaryKey;size:64" json:"id"`
	QueryID       string           `gorm:"size:64;index" json:"query_id"`
	Text          string           `gorm:"type:text;not null" json:"text"`
	ResponseType  string           `gorm:"size:16;not null;default:rag" json:"response_type"`
	SessionID     string           `gorm:"size:64;index" json:"session_id"`
	UserID        uint             `json:"user_id"`
	Language      string           `gorm:"size:8;not null;default:vi" json:"language"`
	ProcessingMs  int64            `json:"processing_ms"`
	FeedbackType  string           `gorm:"size:16" json:"feedback_type,omitempty"`
	FeedbackValue string           `gorm:"size:512" json:"feedback_value,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	Sources       []ResponseSource `gorm:"foreignKey:ResponseID" json:"sources"`
}

// ResponseSource attributes a response to a chunk/document that grounded it.
type ResponseSource struct {
	ID         uint    `gorm:"primaryKey" json:"-"`
	ResponseID string  `gorm:"size:64;not null;index" json:"-"`
	ChunkID    string  `gorm:"size:128" json:"chunk_id"`
	DocumentID string  `gorm:"size:64;not null" json:"document_id"`
	Title      string  `gorm:"size:256" json:"title"`
	Category   string  `gorm:"size:64" json:"category"`
	Score      float32 `json:"score"`
}

// HistoryTurn is one prior exchange handed to the router and responder for
// follow-up disambiguation. Not persisted under this name; it is assembled
// from stored queries and responses.
type HistoryTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
