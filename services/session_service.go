package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
)

// Role labels used when rendering history as LLM context.
const (
	userLabel      = "Pengguna"
	assistantLabel = "Asisten"
)

// SessionService owns conversational state: session rows and the
// append-only chat history. Expiry is advisory; stale sessions are only
// removed by the worker's cleanup schedule, never mid-request.
type SessionService struct {
	db *sqlx.DB
}

func NewSessionService(db *sqlx.DB) *SessionService {
	return &SessionService{db: db}
}

func (s *SessionService) CreateSession(ctx context.Context) (models.ChatSession, error) {
	var session models.ChatSession
	err := s.db.GetContext(ctx, &session,
		`INSERT INTO chat_sessions (created_at, last_activity, is_active)
		 VALUES (now(), now(), true)
		 RETURNING session_id, created_at, last_activity, is_active`)
	if err != nil {
		return models.ChatSession{}, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetSession returns nil (without error) when the session does not exist.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.db.GetContext(ctx, &session,
		`SELECT session_id, created_at, last_activity, is_active
		 FROM chat_sessions WHERE session_id = $1`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionService) TouchSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET last_activity = now() WHERE session_id = $1`, sessionID)
	return err
}

// ShouldReuseSession is the pure resolve decision: a candidate is reused
// only when it is a well-formed UUID referencing an existing active
// session.
func ShouldReuseSession(candidateID string, existing *models.ChatSession) bool {
	if candidateID == "" {
		return false
	}
	if _, err := uuid.Parse(candidateID); err != nil {
		return false
	}
	return existing != nil && existing.IsActive
}

// ResolveOrCreate applies ShouldReuseSession against the store: reuse
// refreshes last_activity, anything else allocates a fresh session. Called
// exactly once per chat request, before any message is appended.
func (s *SessionService) ResolveOrCreate(ctx context.Context, candidateID string) (sessionID string, isNew bool, err error) {
	// Parse before the lookup: a malformed id must fall through to a fresh
	// session, not surface as a uuid cast error from the store.
	if _, err := uuid.Parse(candidateID); candidateID != "" && err == nil {
		existing, lookupErr := s.GetSession(ctx, candidateID)
		if lookupErr != nil {
			return "", false, lookupErr
		}
		if ShouldReuseSession(candidateID, existing) {
			if err := s.TouchSession(ctx, candidateID); err != nil {
				return "", false, err
			}
			return candidateID, false, nil
		}
	}

	session, err := s.CreateSession(ctx)
	if err != nil {
		return "", false, err
	}
	return session.SessionID, true, nil
}

// AddMessage appends one turn. History rows are never mutated or reordered.
func (s *SessionService) AddMessage(ctx context.Context, sessionID, role, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_history (session_id, role, message, created_at) VALUES ($1, $2, $3, now())`,
		sessionID, role, message)
	if err != nil {
		return fmt.Errorf("failed to add message to history: %w", err)
	}
	return nil
}

// ConversationHistory returns up to limit messages, newest first. Callers
// needing chronological order must reverse.
func (s *SessionService) ConversationHistory(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	messages := make([]models.ChatMessage, 0, limit)
	err := s.db.SelectContext(ctx, &messages,
		`SELECT role, message, created_at FROM chat_history
		 WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2`,
		sessionID, limit)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// FormatConversationContext renders newest-first messages as chronological
// "<label>: <message>" lines for the prompt composer. Pure.
func FormatConversationContext(newestFirst []models.ChatMessage) string {
	if len(newestFirst) == 0 {
		return ""
	}

	lines := make([]string, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		label := assistantLabel
		if newestFirst[i].Role == models.RoleUser {
			label = userLabel
		}
		lines = append(lines, label+": "+newestFirst[i].Message)
	}
	return strings.Join(lines, "\n")
}

// RecentContext fetches the limit most recent messages and formats them as
// LLM context. Never returned verbatim to the caller.
func (s *SessionService) RecentContext(ctx context.Context, sessionID string, limit int) (string, error) {
	messages, err := s.ConversationHistory(ctx, sessionID, limit)
	if err != nil {
		return "", err
	}
	return FormatConversationContext(messages), nil
}

// SessionInfo returns the session row plus its message count, or nil when
// the session does not exist.
func (s *SessionService) SessionInfo(ctx context.Context, sessionID string) (*models.SessionInfo, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil || session == nil {
		return nil, err
	}

	var total int
	err = s.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM chat_history WHERE session_id = $1`, sessionID)
	if err != nil {
		return nil, err
	}

	return &models.SessionInfo{ChatSession: *session, TotalMessages: total}, nil
}

// DeactivateSession ends a session explicitly. History is kept; the session
// simply stops being resumable. Returns false when the id does not exist.
func (s *SessionService) DeactivateSession(ctx context.Context, sessionID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET is_active = false WHERE session_id = $1`, sessionID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CleanupInactiveSessions deactivates sessions idle for more than 24 hours
// via the SQL function the schema provides. Invoked by the worker cron.
func (s *SessionService) CleanupInactiveSessions(ctx context.Context) (int, error) {
	var cleaned int
	if err := s.db.GetContext(ctx, &cleaned, `SELECT cleanup_inactive_sessions()`); err != nil {
		return 0, err
	}
	return cleaned, nil
}
