// Package responder answers retrieval-routed queries: similarity search,
// bounded context assembly, LLM generation, source attribution.
package responder

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"admitbot/internal/ai"
	"admitbot/internal/model"
	"admitbot/internal/vectorindex"
)

const (
	DefaultTopK           = 5
	DefaultContextChunks  = 3
	DefaultChunkCharLimit = 300

	// The degraded retry after a failed generation uses a smaller context.
	fallbackContextChunks = 2
	fallbackCharLimit     = 150
)

var notFoundText = map[string]string{
	"vi": "Tôi không tìm thấy thông tin liên quan trong kho kiến thức. Bạn có thể đặt câu hỏi khác hoặc cung cấp thêm chi tiết.",
	"en": "I couldn't find relevant information in the knowledge base. You can ask a different question or provide more details.",
}

var errorText = map[string]string{
	"vi": "Đã xảy ra lỗi khi xử lý câu hỏi của bạn. Vui lòng thử lại sau.",
	"en": "An error occurred while processing your question. Please try again later.",
}

// Answer is the responder's result. Sources lists only chunks that carried
// a valid id; chunks without one still contribute context but are excluded
// from attribution.
type Answer struct {
	Text    string
	Sources []model.ResponseSource
}

type Options struct {
	TopK           int
	ContextChunks  int
	ChunkCharLimit int
}

type Responder struct {
	index   *vectorindex.Index
	gateway *ai.Gateway
	opts    Options
}

func New(index *vectorindex.Index, gateway *ai.Gateway, opts Options) *Responder {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.ContextChunks <= 0 {
		opts.ContextChunks = DefaultContextChunks
	}
	if opts.ChunkCharLimit <= 0 {
		opts.ChunkCharLimit = DefaultChunkCharLimit
	}
	return &Responder{index: index, gateway: gateway, opts: opts}
}

// Respond never returns an error: every terminal failure degrades to a
// localized error string so the caller always has an answer-shaped value.
func (r *Responder) Respond(ctx context.Context, query, language string, history []model.HistoryTurn) Answer {
	hits, err := r.index.SimilaritySearch(ctx, query, r.opts.TopK)
	if err != nil {
		log.Printf("similarity search failed: %v", err)
		return Answer{Text: localized(errorText, language)}
	}
	if len(hits) == 0 {
		return Answer{Text: localized(notFoundText, language)}
	}

	selected := selectContext(hits, r.opts.ContextChunks)
	prompt := buildPrompt(query, language, selected, r.opts.ChunkCharLimit, history)

	text, err := r.gateway.Generate(ctx, ai.GenerateRequest{Prompt: prompt})
	if err != nil {
		log.Printf("generation failed (%v), retrying with reduced context", err)
		fallback := selectContext(hits, fallbackContextChunks)
		prompt = buildPrompt(query, language, fallback, fallbackCharLimit, nil)
		text, err = r.gateway.Generate(ctx, ai.GenerateRequest{Prompt: prompt})
		if err != nil {
			log.Printf("fallback generation failed: %v", err)
			return Answer{Text: localized(errorText, language)}
		}
	}

	return Answer{
		Text:    strings.TrimSpace(text),
		Sources: attributions(selected),
	}
}

// selectContext keeps the prompt bounded: highest scores first, ties and
// score-free hits in retrieval order.
func selectContext(hits []vectorindex.Hit, n int) []vectorindex.Hit {
	sorted := make([]vectorindex.Hit, len(hits))
	copy(sorted, hits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

func buildPrompt(query, language string, hits []vectorindex.Hit, charLimit int, history []model.HistoryTurn) string {
	var ctxBlock strings.Builder
	for i, h := range hits {
		title := h.Chunk.Title
		if title == "" {
			title = h.Chunk.DocumentID
		}
		fmt.Fprintf(&ctxBlock, "[%d] %s:\n%s\n\n", i+1, title, truncate(h.Chunk.Content, charLimit))
	}

	var historyBlock string
	if len(history) > 0 {
		var hb strings.Builder
		for _, turn := range history {
			fmt.Fprintf(&hb, "%s: %s\n", turn.Role, turn.Content)
		}
		historyBlock = hb.String()
	}

	if language == "en" {
		var b strings.Builder
		b.WriteString("Below is a question and related text passages. Use only the information from these passages to answer.\n\n")
		if historyBlock != "" {
			b.WriteString("Conversation so far:\n" + historyBlock + "\n")
		}
		b.WriteString("Question: " + query + "\n\n")
		b.WriteString("Relevant passages:\n" + ctxBlock.String())
		b.WriteString("Provide a concise, complete and accurate answer in English. ")
		b.WriteString("If the information is not in the passages, say \"" + notFoundText["en"] + "\"")
		return b.String()
	}

	var b strings.Builder
	b.WriteString("Dưới đây là một câu hỏi và các đoạn văn bản liên quan. Chỉ sử dụng thông tin từ các đoạn văn bản này để trả lời.\n\n")
	if historyBlock != "" {
		b.WriteString("Cuộc hội thoại trước đó:\n" + historyBlock + "\n")
	}
	b.WriteString("Câu hỏi: " + query + "\n\n")
	b.WriteString("Đoạn văn bản liên quan:\n" + ctxBlock.String())
	b.WriteString("Hãy trả lời ngắn gọn, đầy đủ và chính xác bằng tiếng Việt. ")
	b.WriteString("Nếu thông tin không có trong đoạn văn bản, hãy nói \"" + notFoundText["vi"] + "\"")
	return b.String()
}

func attributions(hits []vectorindex.Hit) []model.ResponseSource {
	var sources []model.ResponseSource
	for _, h := range hits {
		if h.Chunk.ID == "" || h.Chunk.DocumentID == "" {
			continue
		}
		sources = append(sources, model.ResponseSource{
			ChunkID:    h.Chunk.ID,
			DocumentID: h.Chunk.DocumentID,
			Title:      h.Chunk.Title,
			Category:   h.Chunk.Category,
			Score:      h.Score,
		})
	}
	return sources
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func localized(texts map[string]string, language string) string {
	if t, ok := texts[language]; ok {
		return t
	}
	return texts["vi"]
}

// NotFoundMessage exposes the canned empty-corpus reply so callers can
// distinguish it from generated answers.
func NotFoundMessage(language string) string {
	return localized(notFoundText, language)
}

// ErrorMessage exposes the canned terminal-failure reply.
func ErrorMessage(language string) string {
	return localized(errorText, language)
}
