package repository

import (
	"fmt"

	"gorm.io/gorm"

	"admitbot/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) CreateBatch(chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.Create(&chunks).Error; err != nil {
		return fmt.Errorf("create chunks batch failed: %w", err)
	}
	return nil
}

func (r *ChunkRepository) ExistsID(id string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Chunk{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check chunk id failed: %w", err)
	}
	return count > 0, nil
}

// ListAll returns every stored chunk in insertion order. Ranking happens in
// process, so retrieval loads the corpus; acceptable at this corpus scale.
func (r *ChunkRepository) ListAll() ([]model.Chunk, error) {
	var chunks []model.Chunk
	if err := r.db.Order("created_at ASC, id ASC").Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list chunks failed: %w", err)
	}
	return chunks, nil
}

// DeleteByDocumentID removes every chunk of one document and reports how
// many rows went away.
func (r *ChunkRepository) DeleteByDocumentID(documentID string) (int64, error) {
	res := r.db.Where("document_id = ?", documentID).Delete(&model.Chunk{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete chunks by document failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteAll drops the whole chunk table contents, used before a full
// re-index pass.
func (r *ChunkRepository) DeleteAll() error {
	if err := r.db.Where("1 = 1").Delete(&model.Chunk{}).Error; err != nil {
		return fmt.Errorf("delete all chunks failed: %w", err)
	}
	return nil
}
