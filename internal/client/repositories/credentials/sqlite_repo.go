package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qarzkitob/qarzkitob/internal/client/models"
	"github.com/qarzkitob/qarzkitob/internal/dbx"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, pair models.TokenPair) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := set(ctx, tx, keyAccessToken, pair.AccessToken); err != nil {
			return err
		}
		return set(ctx, tx, keyRefreshToken, pair.RefreshToken)
	})
}

func (r *SQLiteRepository) Load(ctx context.Context) (models.TokenPair, error) {
	access, err := get(ctx, r.db, keyAccessToken)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := get(ctx, r.db, keyRefreshToken)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credentials`)
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

func set(ctx context.Context, tx dbx.DBTX, name, value string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO credentials (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, name, value)
	if err != nil {
		return fmt.Errorf("failed to set credentials[%s]: %w", name, err)
	}
	return nil
}

func get(ctx context.Context, db *sql.DB, name string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get credentials[%s]: %w", name, err)
	}
	return value, nil
}
