package model

import (
	"strings"
	"time"
)

// Document is the metadata record for an ingested file. The chunk table is
// the authority for whether content is searchable; this record drives
// listing and deletion.
type Document struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Title      string    `gorm:"size:256;not null" json:"title"`
	Category   string    `gorm:"size:64;not null;default:general;index" json:"category"`
	Tags       string    `gorm:"size:512" json:"-"` // comma-joined
	UserID     uint      `gorm:"index" json:"user_id"` // 0 = no owner
	FileType   string    `gorm:"size:16" json:"file_type"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TagList reconstructs the structured tag list from the joined column.
func (d *Document) TagList() []string {
	if d.Tags == "" {
		return nil
	}
	parts := strings.Split(d.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			tags = append(tags, s)
		}
	}
	return tags
}

// SetTags stores the tag list as a comma-joined string.
func (d *Document) SetTags(tags []string) {
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		if s := strings.TrimSpace(t); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	d.Tags = strings.Join(cleaned, ",")
}
