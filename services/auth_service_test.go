package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/utils"
)

func adminRows(t *testing.T, id, username, passwordHash string, active bool) *sqlmock.Rows {
	t.Helper()
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash", "full_name", "is_active", "last_login", "created_at",
	}).AddRow(id, username, username+"@denpasar.go.id", passwordHash, nil, active, nil, time.Now())
}

func TestLoginSuccess(t *testing.T) {
	db, mock := newMockDBRegexp(t)
	auth := NewAuthService(db, "secret", time.Hour, 4)

	hash, err := utils.HashPassword("rahasia-kuat", 4)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT (.+) FROM admin_users WHERE username = \$1`).
		WithArgs("admin").
		WillReturnRows(adminRows(t, "admin-1", "admin", hash, true))
	mock.ExpectExec(`UPDATE admin_users SET last_login = \$1 WHERE id = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := auth.Login(context.Background(), models.LoginRequest{
		Username: "admin", Password: "rahasia-kuat",
	})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "admin-1", resp.Admin.ID)
	require.NotNil(t, resp.Admin.LastLogin)

	claims, err := utils.ValidateJWT(resp.AccessToken, "secret")
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.UserID)
	assert.Equal(t, "admin", claims.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	db, mock := newMockDBRegexp(t)
	auth := NewAuthService(db, "secret", time.Hour, 4)

	hash, err := utils.HashPassword("rahasia-kuat", 4)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT (.+) FROM admin_users WHERE username = \$1`).
		WithArgs("admin").
		WillReturnRows(adminRows(t, "admin-1", "admin", hash, true))

	_, err = auth.Login(context.Background(), models.LoginRequest{
		Username: "admin", Password: "salah",
	})
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestLoginUnknownUser(t *testing.T) {
	db, mock := newMockDBRegexp(t)
	auth := NewAuthService(db, "secret", time.Hour, 4)

	mock.ExpectQuery(`SELECT (.+) FROM admin_users WHERE username = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := auth.Login(context.Background(), models.LoginRequest{
		Username: "ghost", Password: "apapun",
	})
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestLoginInactiveAccount(t *testing.T) {
	db, mock := newMockDBRegexp(t)
	auth := NewAuthService(db, "secret", time.Hour, 4)

	hash, err := utils.HashPassword("rahasia-kuat", 4)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT (.+) FROM admin_users WHERE username = \$1`).
		WithArgs("disabled").
		WillReturnRows(adminRows(t, "admin-2", "disabled", hash, false))

	_, err = auth.Login(context.Background(), models.LoginRequest{
		Username: "disabled", Password: "rahasia-kuat",
	})
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	db, mock := newMockDBRegexp(t)
	auth := NewAuthService(db, "secret", time.Hour, 4)

	hash, err := utils.HashPassword("lama", 4)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT password_hash FROM admin_users WHERE id = \$1 AND is_active`).
		WithArgs("admin-1").
		WillReturnRows(sqlmock.NewRows([]string{"password_hash"}).AddRow(hash))

	err = auth.ChangePassword(context.Background(), "admin-1", models.ChangePasswordRequest{
		OldPassword: "salah", NewPassword: "baru-sekali",
	})
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}
