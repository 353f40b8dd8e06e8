// Package vectorindex persists chunks with their embeddings and serves
// nearest-neighbor retrieval by cosine similarity.
package vectorindex

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"

	"admitbot/internal/ai"
	"admitbot/internal/model"
)

const DefaultTopK = 5

// ChunkStore is the persistence behind the index. The GORM chunk
// repository implements it in production; tests use an in-memory store.
type ChunkStore interface {
	CreateBatch(chunks []model.Chunk) error
	ExistsID(id string) (bool, error)
	ListAll() ([]model.Chunk, error)
	DeleteByDocumentID(documentID string) (int64, error)
	DeleteAll() error
}

// Hit is one retrieval result: a stored chunk and its similarity to the
// query, higher first.
type Hit struct {
	Chunk model.Chunk
	Score float32
}

type Index struct {
	store    ChunkStore
	embedder ai.Embedder
}

func New(store ChunkStore, embedder ai.Embedder) *Index {
	return &Index{store: store, embedder: embedder}
}

// Add embeds and stores the given chunks. Chunks with empty text are
// filtered out first; an id already present in the store is replaced with a
// fresh random one. Empty input is a no-op.
func (idx *Index) Add(ctx context.Context, chunks []model.Chunk) (int, error) {
	kept := make([]model.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return 0, nil
	}

	texts := make([]string, len(kept))
	for i := range kept {
		texts[i] = kept[i].Content
	}
	embeddings, err := idx.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks failed: %w", err)
	}
	if len(embeddings) != len(kept) {
		return 0, fmt.Errorf("embed chunks failed: %w", ai.ErrEmbedding)
	}

	for i := range kept {
		kept[i].SetEmbedding(embeddings[i])
		if err := idx.ensureFreeID(&kept[i]); err != nil {
			return 0, err
		}
	}

	if err := idx.store.CreateBatch(kept); err != nil {
		return 0, fmt.Errorf("store chunks failed: %w", err)
	}
	return len(kept), nil
}

func (idx *Index) ensureFreeID(c *model.Chunk) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
		return nil
	}
	exists, err := idx.store.ExistsID(c.ID)
	if err != nil {
		return fmt.Errorf("validate chunk id failed: %w", err)
	}
	if exists {
		c.ID = uuid.New().String()
	}
	return nil
}

// SimilaritySearch embeds the query and returns the k nearest stored
// chunks, highest similarity first. Ties keep insertion order. k <= 0 uses
// DefaultTopK.
func (idx *Index) SimilaritySearch(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	queryVec, err := idx.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}

	chunks, err := idx.store.ListAll()
	if err != nil {
		return nil, fmt.Errorf("load chunks failed: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	hits := make([]Hit, len(chunks))
	for i := range chunks {
		hits[i] = Hit{
			Chunk: chunks[i],
			Score: ai.Cosine(queryVec, chunks[i].EmbeddingVector()),
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// DeleteByDocument removes every chunk of the given document. Removing
// nothing is still success; only a storage error reports false.
func (idx *Index) DeleteByDocument(documentID string) bool {
	removed, err := idx.store.DeleteByDocumentID(documentID)
	if err != nil {
		log.Printf("vector index delete for document %s failed: %v", documentID, err)
		return false
	}
	if removed > 0 {
		log.Printf("vector index removed %d chunks for document %s", removed, documentID)
	}
	return true
}

// DeleteAll drops the entire index ahead of a full re-index pass.
func (idx *Index) DeleteAll() error {
	if err := idx.store.DeleteAll(); err != nil {
		return fmt.Errorf("drop index failed: %w", err)
	}
	return nil
}
