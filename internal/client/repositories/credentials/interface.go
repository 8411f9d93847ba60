// Package credentials persists the bearer tokens of the primary session.
// Lifecycle: durable until logout or a failed restore.
package credentials

import (
	"context"

	"github.com/qarzkitob/qarzkitob/internal/client/models"
)

type Repository interface {
	// Save stores both tokens atomically: a partially written pair must never
	// be observable.
	Save(ctx context.Context, pair models.TokenPair) error

	// Load returns the stored pair; a zero pair when nothing is stored.
	Load(ctx context.Context) (models.TokenPair, error)

	// Clear removes both tokens.
	Clear(ctx context.Context) error
}
