// Package session persists session-scoped state: today only the
// PIN-satisfied flag. Lifecycle: cleared at logout, survives restarts
// within a session.
package session

import "context"

type Repository interface {
	SetPinVerified(ctx context.Context, verified bool) error
	PinVerified(ctx context.Context) (bool, error)
	Clear(ctx context.Context) error
}
