package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/utils"
)

// ErrInvalidCredentials covers unknown username, wrong password and disabled
// accounts alike, so responses never reveal which one failed.
var ErrInvalidCredentials = errors.New("invalid username or password")

const adminColumns = `id, username, email, password_hash, full_name, is_active, last_login, created_at`

// AuthService handles admin accounts. End users stay anonymous; only the
// back office authenticates.
type AuthService struct {
	db         *sqlx.DB
	jwtSecret  string
	expiresIn  time.Duration
	bcryptCost int
}

func NewAuthService(db *sqlx.DB, jwtSecret string, expiresIn time.Duration, bcryptCost int) *AuthService {
	return &AuthService{db: db, jwtSecret: jwtSecret, expiresIn: expiresIn, bcryptCost: bcryptCost}
}

// Login verifies the credentials, stamps last_login and issues a bearer
// token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	admin, err := s.GetByUsername(ctx, req.Username)
	if err != nil {
		return models.LoginResponse{}, err
	}
	if admin == nil || !admin.IsActive || !utils.CheckPassword(req.Password, admin.PasswordHash) {
		return models.LoginResponse{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE admin_users SET last_login = $1 WHERE id = $2`, now, admin.ID)
	if err != nil {
		return models.LoginResponse{}, fmt.Errorf("failed to update last login: %w", err)
	}
	admin.LastLogin = &now

	token, err := utils.GenerateJWT(admin.ID, admin.Username, s.jwtSecret, s.expiresIn)
	if err != nil {
		return models.LoginResponse{}, fmt.Errorf("failed to generate token: %w", err)
	}

	return models.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Admin:       *admin,
	}, nil
}

// Register creates a new active admin account. Username and email collisions
// surface as database unique violations for the handler to map.
func (s *AuthService) Register(ctx context.Context, req models.RegisterAdminRequest) (models.AdminUser, error) {
	hash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return models.AdminUser{}, err
	}

	var admin models.AdminUser
	err = s.db.GetContext(ctx, &admin,
		`INSERT INTO admin_users (username, email, password_hash, full_name, is_active)
		 VALUES ($1, $2, $3, $4, true)
		 RETURNING `+adminColumns,
		req.Username, req.Email, hash, req.FullName)
	if err != nil {
		return models.AdminUser{}, fmt.Errorf("failed to create admin: %w", err)
	}
	return admin, nil
}

// ChangePassword requires the current password before accepting a new one.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	var currentHash string
	err := s.db.GetContext(ctx, &currentHash,
		`SELECT password_hash FROM admin_users WHERE id = $1 AND is_active`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if !utils.CheckPassword(req.OldPassword, currentHash) {
		return ErrInvalidCredentials
	}

	newHash, err := utils.HashPassword(req.NewPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE admin_users SET password_hash = $1 WHERE id = $2`, newHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// GetByUsername returns nil (without error) when no such admin exists.
func (s *AuthService) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := s.db.GetContext(ctx, &admin,
		`SELECT `+adminColumns+` FROM admin_users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// GetByID returns nil (without error) when no such admin exists.
func (s *AuthService) GetByID(ctx context.Context, id string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := s.db.GetContext(ctx, &admin,
		`SELECT `+adminColumns+` FROM admin_users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}
