package repository

import (
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"admitbot/internal/model"
)

// TranscriptRepository persists the chat transcript: queries, responses
// with their source attributions, and feedback.
type TranscriptRepository struct {
	db *gorm.DB
}

func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

func (r *TranscriptRepository) SaveQuery(q *model.Query) error {
	if err := r.db.Create(q).Error; err != nil {
		return fmt.Errorf("save query failed: %w", err)
	}
	return nil
}

func (r *TranscriptRepository) SaveResponse(resp *model.Response) error {
	if err := r.db.Create(resp).Error; err != nil {
		return fmt.Errorf("save response failed: %w", err)
	}
	return nil
}

func (r *TranscriptRepository) AddFeedback(responseID, feedbackType, value string) error {
	res := r.db.Model(&model.Response{}).
		Where("id = ?", responseID).
		Updates(map[string]interface{}{
			"feedback_type":  feedbackType,
			"feedback_value": value,
		})
	if res.Error != nil {
		return fmt.Errorf("add feedback failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("add feedback failed: response %s not found", responseID)
	}
	return nil
}

// GetChatHistory returns up to limit recent turns for a session, oldest
// first, interleaving user queries and assistant responses by time.
func (r *TranscriptRepository) GetChatHistory(sessionID string, limit int) ([]model.HistoryTurn, error) {
	if limit <= 0 {
		limit = 50
	}

	var queries []model.Query
	if err := r.db.Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&queries).Error; err != nil {
		return nil, fmt.Errorf("load session queries failed: %w", err)
	}

	var responses []model.Response
	if err := r.db.Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("load session responses failed: %w", err)
	}

	type stamped struct {
		turn model.HistoryTurn
		at   int64
		seq  int
	}
	entries := make([]stamped, 0, len(queries)+len(responses))
	for i, q := range queries {
		entries = append(entries, stamped{
			turn: model.HistoryTurn{Role: "user", Content: q.Text},
			at:   q.CreatedAt.UnixNano(),
			seq:  -i,
		})
	}
	for i, resp := range responses {
		entries = append(entries, stamped{
			turn: model.HistoryTurn{Role: "assistant", Content: resp.Text},
			at:   resp.CreatedAt.UnixNano(),
			seq:  -i,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].at != entries[j].at {
			return entries[i].at < entries[j].at
		}
		return entries[i].seq < entries[j].seq
	})

	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	turns := make([]model.HistoryTurn, len(entries))
	for i, e := range entries {
		turns[i] = e.turn
	}
	return turns, nil
}

// GetResponse loads one response with its sources, nil when absent.
func (r *TranscriptRepository) GetResponse(id string) (*model.Response, error) {
	var resp model.Response
	err := r.db.Preload("Sources").Where("id = ?", id).First(&resp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get response failed: %w", err)
	}
	return &resp, nil
}
