// Package storage bootstraps the local sqlite database and wires the
// persisted-record repositories.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/qarzkitob/qarzkitob/internal/client/migrations"
	"github.com/qarzkitob/qarzkitob/internal/client/repositories/credentials"
	"github.com/qarzkitob/qarzkitob/internal/client/repositories/overlay"
	"github.com/qarzkitob/qarzkitob/internal/client/repositories/session"
)

// Repositories groups the three persisted records. They share one database
// but have independent lifecycles (see the migration comments).
type Repositories struct {
	Credentials credentials.Repository
	Session     session.Repository
	Overlay     overlay.Repository
	DB          *sql.DB
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the client database at dsn,
// migrates it, and returns the wired repositories.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		Credentials: credentials.NewSQLiteRepository(db),
		Session:     session.NewSQLiteRepository(db),
		Overlay:     overlay.NewSQLiteRepository(db),
		DB:          db,
	}, nil
}
