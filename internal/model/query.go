package model

import "time"

const (
	QueryTypeRAG      = "rag"
	QueryTypeChitchat = "chitchat"
)

// Query is one incoming user question, persisted for the transcript.
type Query struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	Text         string    `gorm:"type:text;not null" json:"text"`
	EnhancedText string    `gorm:"type:text" json:"enhanced_text,omitempty"`
	Language     string    `gorm:"size:8;not null;default:vi" json:"language"`
	SessionID    string    `gorm:"size:64;index" json:"session_id"`
	QueryType    string    `gorm:"size:16;not null;default:rag" json:"query_type"`
	UserID       uint      `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// EffectiveText is the text used for retrieval: the rewritten form when the
// rewriter produced one, the raw text otherwise.
func (q *Query) EffectiveText() string {
	if q.EnhancedText != "" {
		return q.EnhancedText
	}
	return q.Text
}
