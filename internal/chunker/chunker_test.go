package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkShortTextYieldsSingleChunk(t *testing.T) {
	c := New(800, 150)
	chunks := c.Chunk("doc-1", "Điểm chuẩn ngành CNTT năm 2024 là 26.5.", Metadata{Category: "admissions"})

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[0].TotalChunks)
	assert.Equal(t, "doc-1", chunks[0].DocumentID)
	assert.Equal(t, "admissions", chunks[0].Category)
}

func TestChunkBlankInputYieldsNothing(t *testing.T) {
	c := New(800, 150)
	assert.Nil(t, c.Chunk("doc-1", "   \n\t  ", Metadata{}))
	assert.Nil(t, c.Chunk("doc-1", "", Metadata{}))
}

func TestChunkIndicesAreContiguous(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("Tuition for the international program is due each semester. ")
		b.WriteString("Scholarships cover up to half of it.\n\n")
	}
	c := New(200, 40)
	chunks := c.Chunk("doc-2", b.String(), Metadata{})

	require.Greater(t, len(chunks), 1)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.ChunkIndex)
		assert.Equal(t, len(chunks), ch.TotalChunks)
		assert.NotEmpty(t, strings.TrimSpace(ch.Content))
		assert.Equal(t, "doc-2", ch.DocumentID)
	}
}

func TestChunkCarriesFlattenedMetadata(t *testing.T) {
	meta := Flatten("Admissions FAQ", "faq", []string{" tuition", "deadline ", ""}, 7)
	assert.Equal(t, "faq", meta.Category)
	assert.Equal(t, "tuition,deadline", meta.Tags)

	c := New(100, 20)
	text := strings.Repeat("Application deadlines differ by faculty. ", 20)
	chunks := c.Chunk("doc-3", text, meta)

	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.Equal(t, "Admissions FAQ", ch.Title)
		assert.Equal(t, "faq", ch.Category)
		assert.Equal(t, "tuition,deadline", ch.Tags)
		assert.Equal(t, uint(7), ch.UserID)
	}
}

func TestFlattenDefaultsCategory(t *testing.T) {
	meta := Flatten("t", "", nil, 0)
	assert.Equal(t, "general", meta.Category)
	assert.Empty(t, meta.Tags)
}

func TestFlattenIsIdempotentOnScalars(t *testing.T) {
	first := Flatten("t", "faq", []string{"a", "b"}, 1)
	second := Flatten("t", first.Category, strings.Split(first.Tags, ","), 1)
	assert.Equal(t, first.Tags, second.Tags)
	assert.Equal(t, first.Category, second.Category)
}

func TestChunkTextWithoutSeparators(t *testing.T) {
	// No newlines, sentences or spaces at all: falls through to the
	// fixed-width split.
	text := strings.Repeat("x", 1000)
	c := New(300, 50)
	chunks := c.Chunk("doc-4", text, Metadata{})

	require.Greater(t, len(chunks), 1)
	joined := 0
	for _, ch := range chunks {
		joined += len(ch.Content)
	}
	assert.GreaterOrEqual(t, joined, 1000)
}

func TestChunkIDsAreUniqueAcrossRuns(t *testing.T) {
	c := New(800, 150)
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		chunks := c.Chunk("doc-5", "same content every time", Metadata{})
		require.Len(t, chunks, 1)
		assert.False(t, seen[chunks[0].ID])
		seen[chunks[0].ID] = true
	}
}

func TestNewClampsBadOverlap(t *testing.T) {
	c := New(100, 100)
	assert.Equal(t, 25, c.overlap)

	c = New(0, -5)
	assert.Equal(t, DefaultChunkSize, c.size)
	assert.Equal(t, 0, c.overlap)
}

func TestOverlapRepeatsBoundaryText(t *testing.T) {
	pieces := applyOverlap([]string{"abcdefgh", "ijklmnop"}, 3)
	require.Len(t, pieces, 2)
	assert.Equal(t, "abcdefgh", pieces[0])
	assert.Equal(t, "fghijklmnop", pieces[1])
}
