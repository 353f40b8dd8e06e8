// Package router classifies incoming queries as needing retrieval or being
// plain conversation.
package router

import (
	"context"
	"fmt"
	"log"
	"strings"

	"admitbot/internal/ai"
	"admitbot/internal/model"
)

const (
	RouteRAG      = "rag"
	RouteChitchat = "chitchat"
)

// Context carries per-request routing inputs. ChatHistory, when present,
// lets the classifier resolve follow-ups like "how about that program?".
type Context struct {
	Language    string
	SessionID   string
	ChatHistory []model.HistoryTurn
}

// Router decides routes keyword-first: a deterministic domain-keyword match
// guarantees recall for the queries this deployment cares most about, at
// zero latency and with no LLM in the loop. The LLM classifier only handles
// novelty, and its failures degrade to a narrower keyword list.
type Router struct {
	gateway          *ai.Gateway
	keywords         []string
	fallbackKeywords []string
}

func New(gateway *ai.Gateway, keywords, fallbackKeywords []string) *Router {
	return &Router{
		gateway:          gateway,
		keywords:         lowerAll(keywords),
		fallbackKeywords: lowerAll(fallbackKeywords),
	}
}

// Route never fails; every query gets a route.
func (r *Router) Route(ctx context.Context, query string, rctx Context) string {
	if matchesAny(query, r.keywords) {
		return RouteRAG
	}

	label, err := r.gateway.Classify(ctx, classifyPrompt(query, rctx), classifySystemPrompt(rctx.Language))
	if err != nil {
		log.Printf("query classification failed (%v), using fallback keywords", err)
		if matchesAny(query, r.fallbackKeywords) {
			return RouteRAG
		}
		return RouteChitchat
	}

	if strings.Contains(strings.ToLower(label), "rag") {
		return RouteRAG
	}
	return RouteChitchat
}

func matchesAny(query string, keywords []string) bool {
	q := strings.ToLower(query)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

func classifySystemPrompt(language string) string {
	if language == "en" {
		return "You are a query classification system. Decide whether a user query " +
			"needs information retrieved from the admissions knowledge base (RAG) " +
			"or is general conversation (Chitchat). Respond with only RAG or Chitchat."
	}
	return "Bạn là hệ thống phân loại truy vấn. Hãy xác định truy vấn của người dùng " +
		"cần truy xuất thông tin từ kho kiến thức tuyển sinh (RAG) hay chỉ là trò chuyện " +
		"thông thường (Chitchat). Chỉ trả lời RAG hoặc Chitchat."
}

// classifyPrompt is two-shot: one example per class in the session's
// language, plus recent history when available so pronoun-only follow-ups
// classify correctly.
func classifyPrompt(query string, rctx Context) string {
	var b strings.Builder
	if rctx.Language == "en" {
		b.WriteString("Examples:\n")
		b.WriteString("Query: \"What is the tuition for the computer science program?\" -> RAG\n")
		b.WriteString("Query: \"Good morning, how are you today?\" -> Chitchat\n\n")
	} else {
		b.WriteString("Ví dụ:\n")
		b.WriteString("Truy vấn: \"Học phí ngành công nghệ thông tin là bao nhiêu?\" -> RAG\n")
		b.WriteString("Truy vấn: \"Chào bạn, hôm nay bạn thế nào?\" -> Chitchat\n\n")
	}
	if len(rctx.ChatHistory) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, turn := range rctx.ChatHistory {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Query: %q ->", query)
	return b.String()
}
