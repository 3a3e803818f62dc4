package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/unohall/server/internal/models"
)

// ErrUserNotFound is returned when no account matches the lookup.
var ErrUserNotFound = errors.New("database: user not found")

// CreateUser inserts a new account. The password must already be hashed.
func CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	_, err := DB.Exec(ctx, `
		INSERT INTO users (id, email, password, username, avatar)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.Email, user.Password, user.Username, user.Avatar)
	if err != nil {
		return fmt.Errorf("database: failed to insert user: %w", err)
	}
	return nil
}

// GetUserByEmail loads an account, including the password hash, for login.
func GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := DB.QueryRow(ctx, `
		SELECT id, email, password, username, avatar
		FROM users WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &user.Password, &user.Username, &user.Avatar)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("database: failed to query user: %w", err)
	}
	return &user, nil
}

// GetUser loads an account by id.
func GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := DB.QueryRow(ctx, `
		SELECT id, email, username, avatar
		FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.Email, &user.Username, &user.Avatar)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("database: failed to query user: %w", err)
	}
	return &user, nil
}
