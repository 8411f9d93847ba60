// Package models defines the client-side domain types: the authenticated
// identity, its bearer tokens, and debtor records served by the ledger API.
package models

// Identity is the authenticated user as reported by the remote identity
// service, possibly with a locally overridden avatar merged in.
type Identity struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	DisplayName string `json:"name,omitempty"`
	AvatarURI   string `json:"avatar,omitempty"`
}

// TokenPair holds the bearer credentials for a session. Both tokens are
// opaque strings; the refresh token may be empty.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}
