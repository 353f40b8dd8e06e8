// Package ingest turns uploaded files into indexed, retrievable chunks.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"admitbot/internal/chunker"
	"admitbot/internal/extract"
	"admitbot/internal/model"
	"admitbot/internal/vectorindex"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrExtractionFailed  = errors.New("text extraction failed")
	ErrNoChunks          = errors.New("no chunks produced")
)

// DocumentStore is the metadata side of ingestion; the GORM document
// repository implements it.
type DocumentStore interface {
	Save(doc *model.Document) error
	GetByID(id string) (*model.Document, error)
	Delete(id string) error
}

type Input struct {
	Content  []byte
	Filename string
	Title    string
	Category string
	Tags     []string
	UserID   uint
}

type Result struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}

type Pipeline struct {
	chunker *chunker.Chunker
	index   *vectorindex.Index
	docs    DocumentStore
}

func New(ch *chunker.Chunker, index *vectorindex.Index, docs DocumentStore) *Pipeline {
	return &Pipeline{chunker: ch, index: index, docs: docs}
}

// Ingest validates, extracts, chunks and indexes one uploaded file, then
// records the document's metadata. The chunk table is written first: it is
// the authority for whether content exists, the document record only drives
// listing and deletion. The temp extraction file is removed on every path.
func (p *Pipeline) Ingest(ctx context.Context, input Input) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(input.Filename))
	if !extract.Supported(ext) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	tmpPath, err := writeTemp(input.Content, ext)
	if err != nil {
		return nil, fmt.Errorf("stage upload failed: %w", err)
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil {
			log.Printf("cleanup temp file %s failed: %v", tmpPath, err)
		}
	}()

	sections, err := extract.File(tmpPath, ext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	sections = usableSections(sections)
	if len(sections) == 0 {
		return nil, fmt.Errorf("%w: no usable text in %s", ErrExtractionFailed, input.Filename)
	}

	docID := uuid.New().String()
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = input.Filename
	}
	meta := chunker.Flatten(title, input.Category, input.Tags, input.UserID)
	meta.TotalPages = len(sections)

	var chunks []model.Chunk
	for _, sec := range sections {
		meta.Page = sec.Page
		chunks = append(chunks, p.chunker.Chunk(docID, sec.Text, meta)...)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoChunks, input.Filename)
	}
	// Chunk counts were assigned per section; fix them up to the document
	// total so total_chunks means the same thing on every chunk.
	for i := range chunks {
		chunks[i].ChunkIndex = i
		chunks[i].TotalChunks = len(chunks)
	}

	stored, err := p.index.Add(ctx, chunks)
	if err != nil {
		log.Printf("index write for %s failed: %v", input.Filename, err)
		return nil, err
	}
	if stored == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoChunks, input.Filename)
	}

	doc := &model.Document{
		ID:         docID,
		Title:      title,
		Category:   meta.Category,
		UserID:     input.UserID,
		FileType:   strings.TrimPrefix(ext, "."),
		ChunkCount: stored,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	doc.SetTags(input.Tags)
	if err := p.docs.Save(doc); err != nil {
		// Chunks are orphaned but searchable; the index stays the source of
		// truth for existence, so surface the error without unwinding.
		log.Printf("document record write for %s failed after index write: %v", docID, err)
		return nil, err
	}

	return &Result{DocumentID: docID, ChunkCount: stored}, nil
}

// Delete removes a document from both stores best-effort: overall success
// when either store succeeded, a partially deleted document being
// preferable to an undeletable one.
func (p *Pipeline) Delete(documentID string) bool {
	indexOK := p.index.DeleteByDocument(documentID)

	metaOK := true
	if err := p.docs.Delete(documentID); err != nil {
		log.Printf("document metadata delete for %s failed: %v", documentID, err)
		metaOK = false
	}

	if indexOK != metaOK {
		log.Printf("partial delete for document %s: index=%v metadata=%v", documentID, indexOK, metaOK)
	}
	return indexOK || metaOK
}

// Rebuild drops the whole index ahead of a full re-ingestion pass.
func (p *Pipeline) Rebuild() error {
	return p.index.DeleteAll()
}

func usableSections(sections []extract.Section) []extract.Section {
	out := make([]extract.Section, 0, len(sections))
	for _, s := range sections {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func writeTemp(content []byte, ext string) (string, error) {
	tmp, err := os.CreateTemp("", "admitbot-upload-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
