// Package chunker splits extracted document text into overlapping passages
// suitable for embedding and retrieval.
package chunker

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"admitbot/internal/model"
)

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 150
)

// separators are tried coarsest first; a piece still over the target size
// is re-split with the next finer separator. The empty string means a plain
// fixed-width split at character boundaries.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Metadata is the scalar form of a document's searchable fields carried on
// every chunk. Structured values must be flattened before reaching here;
// the index storage accepts scalars only.
type Metadata struct {
	Title      string
	Category   string
	Tags       string
	UserID     uint
	Page       int
	TotalPages int
}

// Flatten serializes a document's structured metadata into the scalar form.
// This is the single structured-to-scalar boundary: tag lists are joined
// here and the original list is not passed any further.
func Flatten(title, category string, tags []string, userID uint) Metadata {
	if category == "" {
		category = "general"
	}
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		if s := strings.TrimSpace(t); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return Metadata{
		Title:    title,
		Category: category,
		Tags:     strings.Join(cleaned, ","),
		UserID:   userID,
	}
}

type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return &Chunker{size: size, overlap: overlap}
}

// Chunk splits text into passages and assigns each surviving passage a
// globally unique id, its position, the final count, and the flattened
// parent metadata. Whitespace-only passages are dropped and do not count
// toward the total. Non-empty input always yields at least one chunk.
func (c *Chunker) Chunk(documentID, text string, meta Metadata) []model.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	pieces := c.split(text, separators)
	pieces = dropBlank(pieces)
	if len(pieces) == 0 {
		pieces = dropBlank(fixedWidth(text, c.size, 0))
	}
	if len(pieces) == 0 {
		pieces = []string{strings.TrimSpace(text)}
	}

	chunks := make([]model.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = model.Chunk{
			ID:          chunkID(documentID, i),
			DocumentID:  documentID,
			ChunkIndex:  i,
			TotalChunks: len(pieces),
			Content:     piece,
			Title:       meta.Title,
			Category:    meta.Category,
			Tags:        meta.Tags,
			UserID:      meta.UserID,
			Page:        meta.Page,
			TotalPages:  meta.TotalPages,
		}
	}
	return chunks
}

// split merges separator-delimited pieces up to the target size, recursing
// into the next finer separator for any piece that alone exceeds it, then
// stitches neighbor overlap back in.
func (c *Chunker) split(text string, seps []string) []string {
	if runeLen(text) <= c.size {
		return []string{text}
	}
	sep := seps[0]
	if sep == "" {
		return fixedWidth(text, c.size, c.overlap)
	}

	parts := strings.SplitAfter(text, sep)
	var out []string
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			out = append(out, buf.String())
			buf.Reset()
		}
	}
	for _, part := range parts {
		if runeLen(part) > c.size {
			flush()
			out = append(out, c.split(part, seps[1:])...)
			continue
		}
		if runeLen(buf.String())+runeLen(part) > c.size {
			flush()
		}
		buf.WriteString(part)
	}
	flush()
	return applyOverlap(out, c.overlap)
}

// applyOverlap prefixes each piece with the tail of its predecessor so that
// context spanning a boundary appears in both neighbors.
func applyOverlap(pieces []string, overlap int) []string {
	if overlap <= 0 || len(pieces) < 2 {
		return pieces
	}
	out := make([]string, len(pieces))
	out[0] = pieces[0]
	for i := 1; i < len(pieces); i++ {
		prev := []rune(pieces[i-1])
		tail := prev
		if len(prev) > overlap {
			tail = prev[len(prev)-overlap:]
		}
		out[i] = string(tail) + pieces[i]
	}
	return out
}

func fixedWidth(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap >= size {
		overlap = 0
	}
	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
		if end == len(runes) {
			break
		}
		i += size - overlap
	}
	return out
}

func dropBlank(pieces []string) []string {
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// chunkID includes a random suffix so re-ingesting the same document never
// collides with leftover rows.
func chunkID(documentID string, index int) string {
	suffix := uuid.New().String()[:8]
	return documentID + "-" + strconv.Itoa(index) + "-" + suffix
}

func runeLen(s string) int {
	return len([]rune(s))
}
