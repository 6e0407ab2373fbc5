package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
)

func sessionRows(id string, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"session_id", "created_at", "last_activity", "is_active"}).
		AddRow(id, now, now, active)
}

func TestResolveOrCreateReusesActiveSession(t *testing.T) {
	db, mock := newMockDBRegexp(t)
	sessions := NewSessionService(db)

	mock.ExpectQuery(`SELECT session_id, created_at, last_activity, is_active\s+FROM chat_sessions WHERE session_id = \$1`).
		WithArgs(wellFormedID).
		WillReturnRows(sessionRows(wellFormedID, true))
	mock.ExpectExec(`UPDATE chat_sessions SET last_activity = now\(\) WHERE session_id = \$1`).
		WithArgs(wellFormedID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sessionID, isNew, err := sessions.ResolveOrCreate(context.Background(), wellFormedID)
	require.NoError(t, err)
	assert.Equal(t, wellFormedID, sessionID)
	assert.False(t, isNew)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveOrCreateAllocatesForUnknownCandidate(t *testing.T) {
	db, mock := newMockDBRegexp(t)
	sessions := NewSessionService(db)

	mock.ExpectQuery(`SELECT session_id, created_at, last_activity, is_active\s+FROM chat_sessions WHERE session_id = \$1`).
		WithArgs(wellFormedID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO chat_sessions`).
		WillReturnRows(sessionRows("new-session-id", true))

	sessionID, isNew, err := sessions.ResolveOrCreate(context.Background(), wellFormedID)
	require.NoError(t, err)
	assert.Equal(t, "new-session-id", sessionID)
	assert.True(t, isNew)
}

func TestResolveOrCreateSkipsLookupForMalformedCandidate(t *testing.T) {
	db, mock := newMockDBRegexp(t)
	sessions := NewSessionService(db)

	// Malformed candidates never reach the store; a fresh session is
	// allocated directly.
	mock.ExpectQuery(`INSERT INTO chat_sessions`).
		WillReturnRows(sessionRows("fresh-id", true))

	sessionID, isNew, err := sessions.ResolveOrCreate(context.Background(), "not-a-uuid")
	require.NoError(t, err)
	assert.Equal(t, "fresh-id", sessionID)
	assert.True(t, isNew)
}

func TestConversationHistoryNewestFirst(t *testing.T) {
	db, mock := newMockDBRegexp(t)
	sessions := NewSessionService(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT role, message, created_at FROM chat_history\s+WHERE session_id = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs(wellFormedID, 5).
		WillReturnRows(sqlmock.NewRows([]string{"role", "message", "created_at"}).
			AddRow(models.RoleAssistant, "m2", now).
			AddRow(models.RoleUser, "m1", now.Add(-time.Minute)))

	history, err := sessions.ConversationHistory(context.Background(), wellFormedID, 5)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "m2", history[0].Message)
	assert.Equal(t, "m1", history[1].Message)
}

func TestRecentContextFormatsChronologically(t *testing.T) {
	db, mock := newMockDBRegexp(t)
	sessions := NewSessionService(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT role, message, created_at FROM chat_history`).
		WithArgs(wellFormedID, 2).
		WillReturnRows(sqlmock.NewRows([]string{"role", "message", "created_at"}).
			AddRow(models.RoleAssistant, "m2", now).
			AddRow(models.RoleUser, "m1", now.Add(-time.Minute)))

	got, err := sessions.RecentContext(context.Background(), wellFormedID, 2)
	require.NoError(t, err)
	assert.Equal(t, "Pengguna: m1\nAsisten: m2", got)
}

func TestCleanupInactiveSessions(t *testing.T) {
	db, mock := newMockDBRegexp(t)
	sessions := NewSessionService(db)

	mock.ExpectQuery(`SELECT cleanup_inactive_sessions\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"cleanup_inactive_sessions"}).AddRow(3))

	cleaned, err := sessions.CleanupInactiveSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, cleaned)
}
