package responder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admitbot/internal/ai"
	"admitbot/internal/model"
	"admitbot/internal/vectorindex"
)

type memoryStore struct {
	chunks []model.Chunk
}

func (s *memoryStore) CreateBatch(chunks []model.Chunk) error {
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *memoryStore) ExistsID(id string) (bool, error) {
	for _, c := range s.chunks {
		if c.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) ListAll() ([]model.Chunk, error) { return s.chunks, nil }

func (s *memoryStore) DeleteByDocumentID(documentID string) (int64, error) {
	var kept []model.Chunk
	var removed int64
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.chunks = kept
	return removed, nil
}

func (s *memoryStore) DeleteAll() error {
	s.chunks = nil
	return nil
}

// bagEmbedder gives every text the same unit vector so every stored chunk
// matches every query; tests control ranking through insertion order.
type bagEmbedder struct{}

func (bagEmbedder) EmbedMany(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (bagEmbedder) EmbedOne(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type scriptedBackend struct {
	replies []string
	errs    []error
	calls   int
	prompts []string
}

func (b *scriptedBackend) Name() string { return "scripted" }

func (b *scriptedBackend) Generate(_ context.Context, req ai.GenerateRequest) (string, error) {
	i := b.calls
	b.calls++
	b.prompts = append(b.prompts, req.Prompt)
	if i < len(b.errs) && b.errs[i] != nil {
		return "", b.errs[i]
	}
	if i < len(b.replies) {
		return b.replies[i], nil
	}
	return "", errors.New("unexpected call")
}

func seededIndex(t *testing.T, chunks []model.Chunk) *vectorindex.Index {
	t.Helper()
	idx := vectorindex.New(&memoryStore{}, bagEmbedder{})
	if len(chunks) > 0 {
		_, err := idx.Add(context.Background(), chunks)
		require.NoError(t, err)
	}
	return idx
}

func TestRespondEmptyCorpusSkipsGeneration(t *testing.T) {
	backend := &scriptedBackend{}
	r := New(seededIndex(t, nil), ai.NewGateway(backend), Options{})

	ans := r.Respond(context.Background(), "tuition fees?", "en", nil)
	assert.Equal(t, NotFoundMessage("en"), ans.Text)
	assert.Empty(t, ans.Sources)
	assert.Zero(t, backend.calls)

	ans = r.Respond(context.Background(), "học phí?", "vi", nil)
	assert.Equal(t, NotFoundMessage("vi"), ans.Text)
}

func TestRespondGeneratesFromRetrievedContext(t *testing.T) {
	backend := &scriptedBackend{replies: []string{"Tuition is 20 million VND per year."}}
	idx := seededIndex(t, []model.Chunk{
		{ID: "c1", DocumentID: "d1", Title: "Fees", Category: "faq", Content: "Tuition is 20 million VND per year."},
	})
	r := New(idx, ai.NewGateway(backend), Options{})

	ans := r.Respond(context.Background(), "how much is tuition?", "en", nil)
	assert.Equal(t, "Tuition is 20 million VND per year.", ans.Text)
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, "c1", ans.Sources[0].ChunkID)
	assert.Equal(t, "d1", ans.Sources[0].DocumentID)
	assert.Equal(t, "faq", ans.Sources[0].Category)

	require.Len(t, backend.prompts, 1)
	assert.Contains(t, backend.prompts[0], "Tuition is 20 million VND")
	assert.Contains(t, backend.prompts[0], "how much is tuition?")
}

func TestRespondBoundsContextAndTruncates(t *testing.T) {
	long := strings.Repeat("a", 500)
	var chunks []model.Chunk
	for _, id := range []string{"c1", "c2", "c3", "c4", "c5"} {
		chunks = append(chunks, model.Chunk{ID: id, DocumentID: "d1", Title: "T" + id, Content: long})
	}
	backend := &scriptedBackend{replies: []string{"answer"}}
	r := New(seededIndex(t, chunks), ai.NewGateway(backend), Options{TopK: 5, ContextChunks: 3, ChunkCharLimit: 100})

	ans := r.Respond(context.Background(), "anything", "en", nil)
	assert.Equal(t, "answer", ans.Text)
	assert.Len(t, ans.Sources, 3)

	prompt := backend.prompts[0]
	assert.Contains(t, prompt, "[3]")
	assert.NotContains(t, prompt, "[4]")
	assert.NotContains(t, prompt, long)
	assert.Contains(t, prompt, strings.Repeat("a", 100)+"...")
}

func TestRespondRetriesWithReducedContext(t *testing.T) {
	backend := &scriptedBackend{
		errs:    []error{errors.New("context too large"), nil},
		replies: []string{"", "short answer"},
	}
	idx := seededIndex(t, []model.Chunk{
		{ID: "c1", DocumentID: "d1", Content: "passage one"},
		{ID: "c2", DocumentID: "d1", Content: "passage two"},
		{ID: "c3", DocumentID: "d1", Content: "passage three"},
	})
	r := New(idx, ai.NewGateway(backend), Options{})

	history := []model.HistoryTurn{{Role: "user", Content: "earlier question"}}
	ans := r.Respond(context.Background(), "question", "en", history)

	assert.Equal(t, "short answer", ans.Text)
	require.Equal(t, 2, backend.calls)
	// The retry drops history and shrinks the context block.
	assert.Contains(t, backend.prompts[0], "earlier question")
	assert.NotContains(t, backend.prompts[1], "earlier question")
	assert.NotContains(t, backend.prompts[1], "[3]")
}

func TestRespondTerminalFailureReturnsErrorText(t *testing.T) {
	backend := &scriptedBackend{errs: []error{errors.New("down"), errors.New("still down")}}
	idx := seededIndex(t, []model.Chunk{{ID: "c1", DocumentID: "d1", Content: "passage"}})
	r := New(idx, ai.NewGateway(backend), Options{})

	ans := r.Respond(context.Background(), "question", "vi", nil)
	assert.Equal(t, ErrorMessage("vi"), ans.Text)
	assert.Empty(t, ans.Sources)
}

func TestAttributionSkipsChunksWithoutIDs(t *testing.T) {
	hits := []vectorindex.Hit{
		{Chunk: model.Chunk{ID: "c1", DocumentID: "d1"}, Score: 0.9},
		{Chunk: model.Chunk{ID: "", DocumentID: "d1"}, Score: 0.8},
		{Chunk: model.Chunk{ID: "c3", DocumentID: ""}, Score: 0.7},
	}
	sources := attributions(hits)
	require.Len(t, sources, 1)
	assert.Equal(t, "c1", sources[0].ChunkID)
}

func TestLocalizedFallsBackToVietnamese(t *testing.T) {
	assert.Equal(t, notFoundText["vi"], NotFoundMessage("fr"))
	assert.Equal(t, errorText["en"], ErrorMessage("en"))
}
