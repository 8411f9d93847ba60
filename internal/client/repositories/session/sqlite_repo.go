package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const keyPinVerified = "pin_verified"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) SetPinVerified(ctx context.Context, verified bool) error {
	value := "false"
	if verified {
		value = "true"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_state (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, keyPinVerified, value)
	if err != nil {
		return fmt.Errorf("failed to set session_state[%s]: %w", keyPinVerified, err)
	}
	return nil
}

func (r *SQLiteRepository) PinVerified(ctx context.Context) (bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM session_state WHERE name = ?`, keyPinVerified).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get session_state[%s]: %w", keyPinVerified, err)
	}
	return value == "true", nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session_state`)
	if err != nil {
		return fmt.Errorf("failed to clear session_state: %w", err)
	}
	return nil
}
