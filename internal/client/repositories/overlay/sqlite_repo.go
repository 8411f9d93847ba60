package overlay

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const keyAvatarURI = "avatar_uri"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) SetAvatar(ctx context.Context, uri string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profile_overlay (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, keyAvatarURI, uri)
	if err != nil {
		return fmt.Errorf("failed to set profile_overlay[%s]: %w", keyAvatarURI, err)
	}
	return nil
}

func (r *SQLiteRepository) Avatar(ctx context.Context) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM profile_overlay WHERE name = ?`, keyAvatarURI).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get profile_overlay[%s]: %w", keyAvatarURI, err)
	}
	return value, nil
}
