// Package repository provides PostgreSQL persistence for users, their
// session tokens, and their tasks.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/TaskTracker/internal/apperr"
	"github.com/atinyakov/TaskTracker/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// PostgresAuthRepository stores users and their session tokens in PostgreSQL.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// CreateUser inserts u and fills in its timestamps.
// A duplicate email yields apperr.ErrConflict.
func (r *PostgresAuthRepository) CreateUser(ctx context.Context, u *models.User) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, u.ID, u.Name, u.Email, u.PasswordHash).Scan(&u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("create user: email %w", apperr.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepository) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at, updated_at FROM users WHERE `+where+` = $1`,
		arg,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetUserByID fetches a user by id, or apperr.ErrNotFound.
func (r *PostgresAuthRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getUser(ctx, "id", id)
}

// GetUserByEmail fetches a user by normalized email, or apperr.ErrNotFound.
func (r *PostgresAuthRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, "email", email)
}

// UpdateUser overwrites the mutable profile fields of u and refreshes UpdatedAt.
func (r *PostgresAuthRepository) UpdateUser(ctx context.Context, u *models.User) error {
	err := r.DB.QueryRowContext(ctx, `
		UPDATE users
		   SET name = $2, email = $3, password_hash = $4, updated_at = now()
		 WHERE id = $1
		RETURNING updated_at
	`, u.ID, u.Name, u.Email, u.PasswordHash).Scan(&u.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperr.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("update user: email %w", apperr.ErrConflict)
	case err != nil:
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// DeleteUser removes the user row; its tokens go with it through the foreign key.
func (r *PostgresAuthRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// UserExists checks whether a user with the specified id exists in the database.
// It returns true if the user exists, false otherwise.
// If an error occurs during the query, it is returned.
func (r *PostgresAuthRepository) UserExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`,
		id,
	).Scan(&exists)
	return exists, err
}

// AddToken appends token to the user's session list.
func (r *PostgresAuthRepository) AddToken(ctx context.Context, userID, token string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO user_tokens (token, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		token, userID,
	)
	if err != nil {
		return fmt.Errorf("add token: %w", err)
	}
	return nil
}

// HasToken reports whether token is in the user's session list.
func (r *PostgresAuthRepository) HasToken(ctx context.Context, userID, token string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM user_tokens WHERE user_id = $1 AND token = $2)`,
		userID, token,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has token: %w", err)
	}
	return exists, nil
}

// RemoveToken deletes one token from the user's session list. Missing tokens are ignored.
func (r *PostgresAuthRepository) RemoveToken(ctx context.Context, userID, token string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`DELETE FROM user_tokens WHERE user_id = $1 AND token = $2`,
		userID, token,
	)
	if err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// RemoveAllTokens clears the user's session list.
func (r *PostgresAuthRepository) RemoveAllTokens(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM user_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("remove all tokens: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (r *PostgresAuthRepository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}
