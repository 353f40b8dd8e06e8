package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"admitbot/internal/ai"
	"admitbot/internal/model"
	"admitbot/internal/responder"
	"admitbot/internal/rewrite"
	"admitbot/internal/router"
)

var ErrInvalidInput = errors.New("invalid input")

// TranscriptStore persists queries, responses and feedback and reads back
// session history.
type TranscriptStore interface {
	SaveQuery(q *model.Query) error
	SaveResponse(resp *model.Response) error
	AddFeedback(responseID, feedbackType, value string) error
	GetChatHistory(sessionID string, limit int) ([]model.HistoryTurn, error)
}

// TurnPublisher hands a finished turn to the async persistence path.
type TurnPublisher interface {
	PublishTurn(ctx context.Context, turn model.TranscriptTurn) error
}

// HistoryCache fronts the transcript store for session history reads.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.HistoryTurn, bool, error)
	SetHistory(ctx context.Context, sessionID string, turns []model.HistoryTurn) error
	Invalidate(ctx context.Context, sessionID string) error
}

// ChatService runs the query-time path: route, rewrite, answer, persist.
type ChatService struct {
	router      *router.Router
	rewriter    *rewrite.Rewriter
	responder   *responder.Responder
	gateway     *ai.Gateway
	store       TranscriptStore
	publisher   TurnPublisher // nil = persist synchronously
	cache       HistoryCache  // nil = always read the store
	historyLen  int
	defaultLang string
}

func NewChatService(
	rt *router.Router,
	rw *rewrite.Rewriter,
	rd *responder.Responder,
	gateway *ai.Gateway,
	store TranscriptStore,
	publisher TurnPublisher,
	cache HistoryCache,
	historyLen int,
	defaultLang string,
) *ChatService {
	if historyLen <= 0 {
		historyLen = 6
	}
	if defaultLang == "" {
		defaultLang = "vi"
	}
	return &ChatService{
		router:      rt,
		rewriter:    rw,
		responder:   rd,
		gateway:     gateway,
		store:       store,
		publisher:   publisher,
		cache:       cache,
		historyLen:  historyLen,
		defaultLang: defaultLang,
	}
}

type ProcessInput struct {
	Text      string
	SessionID string
	UserID    uint
	Language  string
}

type ProcessResult struct {
	ResponseID string                 `json:"response_id"`
	QueryID    string                 `json:"query_id"`
	Text       string                 `json:"response"`
	RouteType  string                 `json:"route_type"`
	Sources    []model.ResponseSource `json:"source_documents"`
}

// Process handles one user query end to end. It never returns a pipeline
// error; terminal failures surface as localized error text in the result.
func (s *ChatService) Process(ctx context.Context, input ProcessInput) (*ProcessResult, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, ErrInvalidInput
	}
	language := input.Language
	if language == "" {
		language = s.defaultLang
	}
	start := time.Now()

	query := &model.Query{
		ID:        uuid.New().String(),
		Text:      text,
		Language:  language,
		SessionID: input.SessionID,
		UserID:    input.UserID,
		CreatedAt: start,
	}

	history := s.history(ctx, input.SessionID)

	if enhanced := s.rewriter.Enhance(ctx, text, language); enhanced != text {
		query.EnhancedText = enhanced
	}

	route := s.router.Route(ctx, query.EffectiveText(), router.Context{
		Language:    language,
		SessionID:   input.SessionID,
		ChatHistory: history,
	})
	query.QueryType = route

	resp := &model.Response{
		ID:        uuid.New().String(),
		QueryID:   query.ID,
		SessionID: input.SessionID,
		UserID:    input.UserID,
		Language:  language,
	}

	if route == router.RouteRAG {
		answer := s.responder.Respond(ctx, query.EffectiveText(), language, history)
		resp.Text = answer.Text
		resp.Sources = answer.Sources
		resp.ResponseType = model.ResponseTypeRAG
		if answer.Text == responder.ErrorMessage(language) {
			resp.ResponseType = model.ResponseTypeError
		}
	} else {
		answer, err := s.gateway.Generate(ctx, ai.GenerateRequest{
			Prompt:       query.EffectiveText(),
			SystemPrompt: ai.ChitchatSystemPrompt(language),
			History:      history,
		})
		if err != nil {
			log.Printf("chitchat generation failed: %v", err)
			resp.Text = responder.ErrorMessage(language)
			resp.ResponseType = model.ResponseTypeError
		} else {
			resp.Text = strings.TrimSpace(answer)
			resp.ResponseType = model.ResponseTypeChitchat
		}
	}

	resp.ProcessingMs = time.Since(start).Milliseconds()
	resp.CreatedAt = time.Now()

	s.persistTurn(ctx, query, resp)
	s.invalidateHistory(ctx, input.SessionID)

	return &ProcessResult{
		ResponseID: resp.ID,
		QueryID:    query.ID,
		Text:       resp.Text,
		RouteType:  resp.ResponseType,
		Sources:    resp.Sources,
	}, nil
}

// persistTurn stores the transcript, preferring the async queue. Transcript
// persistence is best-effort: its failure never fails the answer.
func (s *ChatService) persistTurn(ctx context.Context, query *model.Query, resp *model.Response) {
	turn := model.TranscriptTurn{Query: query, Response: resp}
	if s.publisher != nil {
		err := s.publisher.PublishTurn(ctx, turn)
		if err == nil {
			return
		}
		log.Printf("publish transcript turn failed, persisting directly: %v", err)
	}
	if err := s.store.SaveQuery(query); err != nil {
		log.Printf("save query failed: %v", err)
	}
	if err := s.store.SaveResponse(resp); err != nil {
		log.Printf("save response failed: %v", err)
	}
}

// Feedback attaches a thumbs up/down plus optional text to a response.
func (s *ChatService) Feedback(responseID, feedbackType, value string) error {
	if responseID == "" || feedbackType == "" {
		return ErrInvalidInput
	}
	return s.store.AddFeedback(responseID, feedbackType, value)
}

// History returns recent turns for a session, for display.
func (s *ChatService) History(ctx context.Context, sessionID string, limit int) ([]model.HistoryTurn, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = 50
	}
	if s.cache != nil {
		if turns, ok, err := s.cache.GetHistory(ctx, sessionID); err == nil && ok {
			return turns, nil
		}
	}
	turns, err := s.store.GetChatHistory(sessionID, limit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetHistory(ctx, sessionID, turns); err != nil {
			log.Printf("cache history for session %s failed: %v", sessionID, err)
		}
	}
	return turns, nil
}

// history is the pipeline-facing variant: bounded, best-effort, never fails.
func (s *ChatService) history(ctx context.Context, sessionID string) []model.HistoryTurn {
	if sessionID == "" {
		return nil
	}
	turns, err := s.History(ctx, sessionID, s.historyLen)
	if err != nil {
		log.Printf("load chat history for session %s failed: %v", sessionID, err)
		return nil
	}
	if len(turns) > s.historyLen {
		turns = turns[len(turns)-s.historyLen:]
	}
	return turns
}

func (s *ChatService) invalidateHistory(ctx context.Context, sessionID string) {
	if s.cache == nil || sessionID == "" {
		return
	}
	if err := s.cache.Invalidate(ctx, sessionID); err != nil {
		log.Printf("invalidate history cache for session %s failed: %v", sessionID, err)
	}
}
