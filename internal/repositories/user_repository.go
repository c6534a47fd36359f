package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error
	GetUserByToken(ctx context.Context, email, token string) (*models.User, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `id, name, email, password, role, is_verified, token, token_expiry, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}

	var token sql.NullString
	var expiry sql.NullTime

	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.Role, &user.IsVerified,
		&token, &expiry, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}

	user.Token = token.String
	if expiry.Valid {
		user.TokenExpiry = &expiry.Time
	}

	return user, nil
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO users (id, name, email, password, role, is_verified, token, token_expiry, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, NOW(), NOW())
		RETURNING created_at, updated_at`

	err := r.DB.QueryRowContext(dbCtx, query, user.ID, user.Name, user.Email, user.Password, user.Role,
		user.IsVerified, user.Token, user.TokenExpiry).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapError(err))
	}

	return nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	user, err := scanUser(r.DB.QueryRowContext(dbCtx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", mapError(err))
	}

	return user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	user, err := scanUser(r.DB.QueryRowContext(dbCtx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", mapError(err))
	}

	return user, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `UPDATE users SET name = $1, email = $2, updated_at = NOW() WHERE id = $3 RETURNING updated_at`

	if err := r.DB.QueryRowContext(dbCtx, query, user.Name, user.Email, user.ID).Scan(&user.UpdatedAt); err != nil {
		return fmt.Errorf("failed to update profile: %w", mapError(err))
	}

	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return requireAffected(result, "user")
}

func (r *userRepository) SetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `UPDATE users SET token = $1, token_expiry = $2, updated_at = NOW() WHERE id = $3`, token, expiry, id)
	if err != nil {
		return fmt.Errorf("failed to set user token: %w", err)
	}

	return requireAffected(result, "user")
}

// GetUserByToken matches an unexpired token issued to email.
func (r *userRepository) GetUserByToken(ctx context.Context, email, token string) (*models.User, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND token = $2 AND token_expiry > NOW()`

	user, err := scanUser(r.DB.QueryRowContext(dbCtx, query, email, token))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by token: %w", mapError(err))
	}

	return user, nil
}

func (r *userRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `UPDATE users SET is_verified = TRUE, token = NULL, token_expiry = NULL, updated_at = NOW() WHERE id = $1`

	result, err := r.DB.ExecContext(dbCtx, query, id)
	if err != nil {
		return fmt.Errorf("failed to verify user: %w", err)
	}

	return requireAffected(result, "user")
}

// ResetPassword stores the new hash and consumes the reset token.
func (r *userRepository) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `UPDATE users SET password = $1, token = NULL, token_expiry = NULL, updated_at = NOW() WHERE id = $2`

	result, err := r.DB.ExecContext(dbCtx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return requireAffected(result, "user")
}
