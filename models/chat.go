package models

import "time"

// Message roles stored in chat_history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatSession is one user's conversational thread, identified by an opaque
// UUID the transport layer carries in a cookie.
type ChatSession struct {
	SessionID    string    `db:"session_id" json:"session_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	LastActivity time.Time `db:"last_activity" json:"last_activity"`
	IsActive     bool      `db:"is_active" json:"is_active"`
}

// ChatMessage is a single turn in a session. Append-only.
type ChatMessage struct {
	Role      string    `db:"role" json:"role"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SessionInfo is ChatSession plus the message count, for the session-info
// endpoint.
type SessionInfo struct {
	ChatSession
	TotalMessages int `json:"total_messages"`
}

type UserChatRequest struct {
	Query string `json:"query" binding:"required,min=1"`
}

// UserChatResponse deliberately excludes retrieval internals; end users get
// the question and the answer only.
type UserChatResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type ConversationHistoryResponse struct {
	SessionID     string        `json:"session_id"`
	History       []ChatMessage `json:"history"`
	TotalMessages int           `json:"total_messages"`
}

type NewSessionResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatMetrics are reference-free quality scores computed from embeddings.
// A nil field means the metric could not be computed for this turn.
type ChatMetrics struct {
	Faithfulness     *float64 `json:"faithfulness"`
	Relevance        *float64 `json:"relevance"`
	ContextPrecision *float64 `json:"context_precision"`
}

type TestChatRequest struct {
	Query string `json:"query" binding:"required,min=1"`
}

// TestChatResponse is the admin test-chat payload: answer plus the snippets
// that grounded it and the quality metrics for the turn.
type TestChatResponse struct {
	Query      string         `json:"query"`
	Response   string         `json:"response"`
	NumSources int            `json:"num_sources"`
	Sources    []SearchResult `json:"sources"`
	Metrics    *ChatMetrics   `json:"metrics,omitempty"`
}

// RAGQueryRequest is the admin-only search request with explicit retrieval
// parameters. User-facing flows never accept these from the client.
type RAGQueryRequest struct {
	Query               string  `json:"query" binding:"required,min=1"`
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

type RAGQueryResponse struct {
	Query         string         `json:"query"`
	SearchResults []SearchResult `json:"search_results"`
	NumResults    int            `json:"num_results"`
}
