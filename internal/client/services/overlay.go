package services

import "github.com/qarzkitob/qarzkitob/internal/client/models"

// ProfileOverlay is the set of locally overridden profile fields, layered on
// top of whatever the remote profile service returns.
type ProfileOverlay struct {
	AvatarURI string
}

// Apply merges the overlay onto identity, overlay values taking precedence
// when present. Pure and idempotent.
func (o ProfileOverlay) Apply(identity models.Identity) models.Identity {
	if o.AvatarURI != "" {
		identity.AvatarURI = o.AvatarURI
	}
	return identity
}
