package model

import (
	"encoding/json"
	"time"
)

// Chunk is the unit of embedding and retrieval: a bounded span of a
// document's extracted text plus the parent's searchable metadata flattened
// to scalar columns. Embedding is stored as a JSON array of float32 for
// portability.
type Chunk struct {
	ID          string    `gorm:"primaryKey;size:128" json:"id"`
	DocumentID  string    `gorm:"size:64;not null;index" json:"document_id"`
	ChunkIndex  int       `gorm:"not null" json:"chunk_index"`
	TotalChunks int       `gorm:"not null" json:"total_chunks"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Embedding   string    `gorm:"type:mediumtext" json:"-"`
	Title       string    `gorm:"size:256" json:"title"`
	Category    string    `gorm:"size:64" json:"category"`
	Tags        string    `gorm:"size:512" json:"tags"`
	UserID      uint      `json:"user_id"`
	Page        int       `json:"page"`
	TotalPages  int       `json:"total_pages"`
	CreatedAt   time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (c *Chunk) EmbeddingVector() []float32 {
	if c.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(c.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (c *Chunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	c.Embedding = string(b)
}
