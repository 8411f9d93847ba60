// Package overlay persists local overrides of remote profile fields,
// currently the avatar image. Lifecycle: durable across logout/login cycles;
// nothing clears it automatically.
package overlay

import "context"

type Repository interface {
	SetAvatar(ctx context.Context, uri string) error

	// Avatar returns the stored override, or "" when none is set.
	Avatar(ctx context.Context) (string, error)
}
