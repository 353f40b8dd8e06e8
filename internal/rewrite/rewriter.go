// Package rewrite expands queries with retrieval-friendly keywords ahead
// of similarity search. Strictly best-effort: every failure path returns
// the original query.
package rewrite

import (
	"context"
	"log"
	"strings"

	"admitbot/internal/ai"
)

// maxGrowth bounds the rewritten text relative to the input; anything
// longer is treated as a runaway expansion and discarded.
const maxGrowth = 3

// specificPatterns mark queries that are already clearly scoped; rewriting
// those risks topic drift for no retrieval gain.
var specificPatterns = []string{
	"who is", "what is", "when is", "where is", "how much", "how many",
	"ai là", "là gì", "là ai", "khi nào", "ở đâu", "bao nhiêu",
}

type Rewriter struct {
	gateway *ai.Gateway
}

func New(gateway *ai.Gateway) *Rewriter {
	return &Rewriter{gateway: gateway}
}

// Enhance returns either a rewritten, richer form of the query or the
// query unchanged. It never fails.
func (r *Rewriter) Enhance(ctx context.Context, query, language string) string {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" || r.gateway.BackendName() == "none" {
		return query
	}
	if len(strings.Fields(trimmed)) <= 3 {
		return query
	}
	lower := strings.ToLower(trimmed)
	for _, pattern := range specificPatterns {
		if strings.Contains(lower, pattern) {
			return query
		}
	}

	enhanced, err := r.gateway.Generate(ctx, ai.GenerateRequest{
		Prompt:      rewritePrompt(trimmed, language),
		Temperature: ai.Temp(0.3),
	})
	if err != nil {
		log.Printf("query rewrite failed (%v), keeping original", err)
		return query
	}

	enhanced = strings.TrimSpace(enhanced)
	if enhanced == "" {
		return query
	}
	if len([]rune(enhanced)) > len([]rune(trimmed))*maxGrowth {
		log.Printf("rewritten query too long (%d runes), keeping original", len([]rune(enhanced)))
		return query
	}
	return enhanced
}

func rewritePrompt(query, language string) string {
	if language == "en" {
		return "You are improving a user's query for an information retrieval system.\n\n" +
			"The original query is: \"" + query + "\"\n\n" +
			"Rewrite it with richer, more specific keywords. Do not change the question's " +
			"meaning and do not introduce new topics; only add directly relevant keywords. " +
			"If the query is already specific, return it unchanged. " +
			"Return only the improved query, without any commentary."
	}
	return "Bạn đang cải thiện truy vấn của người dùng cho hệ thống tìm kiếm thông tin.\n\n" +
		"Truy vấn gốc là: \"" + query + "\"\n\n" +
		"Hãy viết lại truy vấn với từ khóa phong phú và cụ thể hơn. Không thay đổi ý nghĩa " +
		"câu hỏi, không thêm chủ đề mới; chỉ bổ sung từ khóa liên quan trực tiếp. " +
		"Nếu truy vấn đã đủ cụ thể, giữ nguyên. " +
		"Chỉ trả về truy vấn đã cải thiện, không thêm chú thích."
}
