package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pairchat/internal/domain"
	"pairchat/internal/protocol"
)

// UserDirectory is the SQLite-backed identity store.
type UserDirectory struct {
	db *sql.DB
}

func NewUserDirectory(db *sql.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

var _ domain.UserDirectory = (*UserDirectory)(nil)

func (d *UserDirectory) LoginUser(ctx context.Context, userID string) (bool, error) {
	_, err := d.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetUser fetches the account registered under the given user id, or
// domain.ErrNotFound.
func (d *UserDirectory) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT id, user_id, username, email, created_at FROM users WHERE user_id = ?`
	var u domain.User
	err := d.db.QueryRowContext(ctx, query, userID).
		Scan(&u.ID, &u.UserID, &u.Username, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (d *UserDirectory) CheckForUserName(ctx context.Context, username string) (bool, error) {
	return d.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username)
}

func (d *UserDirectory) CheckForEmail(ctx context.Context, email string) (bool, error) {
	return d.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email)
}

func (d *UserDirectory) CheckForUserID(ctx context.Context, userID string) (bool, error) {
	return d.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE user_id = ?)`, userID)
}

// SignUp inserts a new account and returns its generated user id. A username
// or email that raced past the resolver's checks fails with
// domain.ErrConflict.
func (d *UserDirectory) SignUp(ctx context.Context, info protocol.SignupInfo) (string, error) {
	if info.UserName == "" || info.UserEmail == "" {
		return "", fmt.Errorf("sign up: %w", domain.ErrInvalidInput)
	}

	userID := uuid.NewString()
	query := `
		INSERT INTO users (user_id, username, email, created_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`
	if _, err := d.db.ExecContext(ctx, query, userID, info.UserName, info.UserEmail); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("insert user: %w", domain.ErrConflict)
		}
		return "", fmt.Errorf("insert user: %w", err)
	}
	return userID, nil
}

func (d *UserDirectory) exists(ctx context.Context, query string, arg any) (bool, error) {
	var found bool
	if err := d.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("query user: %w", err)
	}
	return found, nil
}
