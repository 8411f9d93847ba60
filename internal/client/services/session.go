// Package services contains the application services of the qarzkitob
// client. The central one is the SessionAuthenticator: a dual-factor session
// authority holding the primary session (bearer tokens + identity), the PIN
// lockout guard for sensitive screens, and the local profile overlay.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/qarzkitob/qarzkitob/internal/client/api"
	"github.com/qarzkitob/qarzkitob/internal/client/models"
	"github.com/qarzkitob/qarzkitob/internal/client/storage"
	"github.com/qarzkitob/qarzkitob/internal/cryptox"
	"github.com/qarzkitob/qarzkitob/internal/logging"
	"github.com/qarzkitob/qarzkitob/internal/notify"
)

// Local fallback credentials used when the remote service cannot render a
// verdict. The sentinel token marks a session that was never issued remotely.
const (
	localFallbackUsername = "admin"
	localFallbackPassword = "1111"
	localAccessToken      = "local-admin-token"
)

type loginVerdict int

const (
	loginOK loginVerdict = iota
	loginRejected
	loginUnavailable
)

// SessionAuthenticator establishes, restores, and tears down the
// authenticated session, and gates sensitive screens behind the PIN guard.
//
// Not safe for concurrent Login/Restore/Logout calls; callers own that
// sequencing. VerifyPin may overlap freely.
type SessionAuthenticator struct {
	api      api.Client
	repos    *storage.Repositories
	guard    *PinGuard
	notifier notify.Notifier
	log      logging.Logger

	mu          sync.Mutex
	identity    *models.Identity
	pinVerified bool
	loading     bool
}

// NewSessionAuthenticator wires the authenticator from its collaborators.
func NewSessionAuthenticator(
	apiClient api.Client,
	repos *storage.Repositories,
	guard *PinGuard,
	notifier notify.Notifier,
	log logging.Logger,
) *SessionAuthenticator {
	return &SessionAuthenticator{
		api:      apiClient,
		repos:    repos,
		guard:    guard,
		notifier: notifier,
		log:      log.With("component", "session"),
	}
}

// Restore attempts to rebuild the session from persisted tokens. Called once
// at startup, before any protected screen renders; IsLoading reports true
// until it returns. A stale or rejected token silently downgrades to the
// unauthenticated state and clears persisted tokens.
func (a *SessionAuthenticator) Restore(ctx context.Context) {
	a.setLoading(true)
	defer a.setLoading(false)

	pair, err := a.repos.Credentials.Load(ctx)
	if err != nil {
		a.log.Error(ctx, "reading stored credentials failed", "error", err)
		return
	}
	if pair.AccessToken == "" {
		return
	}

	a.api.SetTokens(pair)
	profile, err := a.api.FetchProfile(ctx)
	if err != nil {
		// a stale token must never produce a half-authenticated state
		a.log.Warn(ctx, "session restore failed, clearing stored tokens", "error", err)
		a.clearCredentials(ctx)
		return
	}

	pinVerified, err := a.repos.Session.PinVerified(ctx)
	if err != nil {
		a.log.Error(ctx, "reading pin flag failed", "error", err)
		pinVerified = false
	}

	merged := a.withOverlay(ctx, profile)

	a.mu.Lock()
	a.identity = &merged
	a.pinVerified = pinVerified
	a.mu.Unlock()

	a.log.Info(ctx, "session restored", "user", merged.Username)
}

// Login authenticates against the remote service first; when the remote path
// cannot render a verdict at all, it falls back to the fixed local pair. An
// explicit remote rejection never falls through to the fallback. On success
// (either path) the resulting tokens are persisted. Errors never escape:
// the result is a boolean plus a notification.
func (a *SessionAuthenticator) Login(ctx context.Context, username, password string) bool {
	a.setLoading(true)
	defer a.setLoading(false)

	identity, pair, verdict := a.remoteLogin(ctx, username, password)

	switch verdict {
	case loginOK:
	case loginRejected:
		a.notifier.Send(ctx, notify.Message{Kind: notify.KindLoginFailed, Body: "Invalid username or password"})
		return false
	case loginUnavailable:
		localIdentity, localPair, ok := localLogin(username, password)
		if !ok {
			// the api client may hold tokens from a half-finished remote
			// attempt; drop back to whatever is persisted
			a.resyncAPITokens(ctx)
			a.notifier.Send(ctx, notify.Message{Kind: notify.KindLoginFailed, Body: "Invalid username or password"})
			return false
		}
		a.log.Warn(ctx, "remote login unavailable, using local fallback", "user", username)
		identity, pair = localIdentity, localPair
	}

	if err := a.repos.Credentials.Save(ctx, pair); err != nil {
		a.log.Error(ctx, "persisting tokens failed", "error", err)
		a.resyncAPITokens(ctx)
		a.notifier.Send(ctx, notify.Message{Kind: notify.KindLoginFailed, Body: "Could not store the session"})
		return false
	}
	a.api.SetTokens(pair)

	merged := a.withOverlay(ctx, identity)

	a.mu.Lock()
	a.identity = &merged
	a.mu.Unlock()

	a.notifier.Send(ctx, notify.Message{Kind: notify.KindLoginSuccess, Body: "Welcome, " + merged.Username + "!"})
	return true
}

// Logout notifies the remote service best-effort and then unconditionally
// tears the session down: tokens, PIN flag (durable and in-memory), identity,
// and the guard's counters. The teardown runs via defer so it completes even
// when the network call fails.
func (a *SessionAuthenticator) Logout(ctx context.Context) {
	defer func() {
		if err := a.repos.Credentials.Clear(ctx); err != nil {
			a.log.Error(ctx, "clearing credentials failed", "error", err)
		}
		if err := a.repos.Session.Clear(ctx); err != nil {
			a.log.Error(ctx, "clearing session state failed", "error", err)
		}
		a.api.SetTokens(models.TokenPair{})
		a.guard.Reset()

		a.mu.Lock()
		a.identity = nil
		a.pinVerified = false
		a.mu.Unlock()

		a.log.Info(ctx, "logged out")
	}()

	if err := a.api.InvalidateSession(ctx); err != nil {
		a.log.Warn(ctx, "remote session invalidation failed", "error", err)
	}
}

// VerifyPin runs one attempt through the lockout guard. On success the
// PIN-satisfied flag is set and persisted for the session. Never touches the
// network; always returns a plain boolean.
func (a *SessionAuthenticator) VerifyPin(ctx context.Context, candidate string) bool {
	result := a.guard.Verify(candidate)

	switch result.Verdict {
	case PinAccepted:
		a.mu.Lock()
		a.pinVerified = true
		a.mu.Unlock()
		if err := a.repos.Session.SetPinVerified(ctx, true); err != nil {
			a.log.Error(ctx, "persisting pin flag failed", "error", err)
		}
		return true

	case PinBlocked:
		return false

	default:
		if result.NewBlock > 0 {
			a.notifier.Send(ctx, notify.Message{
				Kind: notify.KindPinLockout,
				Body: fmt.Sprintf("Too many incorrect attempts. Try again in %s.", result.NewBlock),
			})
		}
		return false
	}
}

// UpdateAvatar stores the avatar override durably and, when an identity is
// loaded, merges it in immediately so the UI reflects the change without a
// round trip. The override outlives logout/login cycles.
func (a *SessionAuthenticator) UpdateAvatar(ctx context.Context, uri string) error {
	if err := a.repos.Overlay.SetAvatar(ctx, uri); err != nil {
		a.notifier.Send(ctx, notify.Message{Kind: notify.KindAvatarSaveFailed, Body: "Could not save the profile image"})
		return err
	}

	a.mu.Lock()
	if a.identity != nil {
		a.identity.AvatarURI = uri
	}
	a.mu.Unlock()

	a.notifier.Send(ctx, notify.Message{Kind: notify.KindAvatarSaved, Body: "Profile image saved"})
	return nil
}

// Identity returns a copy of the current identity, if any.
func (a *SessionAuthenticator) Identity() (models.Identity, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.identity == nil {
		return models.Identity{}, false
	}
	return *a.identity, true
}

// IsAuthenticated reports whether a primary session is established.
func (a *SessionAuthenticator) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.identity != nil
}

// IsPinVerified reports whether the PIN gate has been satisfied in this
// session.
func (a *SessionAuthenticator) IsPinVerified() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pinVerified
}

// IsLoading reports whether a Restore or Login is in flight; protected
// content must not render while true.
func (a *SessionAuthenticator) IsLoading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// PinBlockedFor exposes the guard's remaining block window for UI messaging.
func (a *SessionAuthenticator) PinBlockedFor() time.Duration {
	return a.guard.BlockedFor()
}

// PinAttempts exposes the guard's current failure count.
func (a *SessionAuthenticator) PinAttempts() int {
	return a.guard.Attempts()
}

func (a *SessionAuthenticator) setLoading(v bool) {
	a.mu.Lock()
	a.loading = v
	a.mu.Unlock()
}

// remoteLogin runs the remote stage: authenticate, then fetch the profile.
// An explicit credential rejection maps to loginRejected; anything that
// prevented a verdict (unreachable, server error, malformed response, or a
// profile fetch failing after a token was issued) maps to loginUnavailable.
func (a *SessionAuthenticator) remoteLogin(ctx context.Context, username, password string) (models.Identity, models.TokenPair, loginVerdict) {
	pair, err := a.api.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, api.ErrInvalidCredentials) {
			return models.Identity{}, models.TokenPair{}, loginRejected
		}
		a.log.Warn(ctx, "remote authentication unavailable", "error", err)
		return models.Identity{}, models.TokenPair{}, loginUnavailable
	}

	profile, err := a.api.FetchProfile(ctx)
	if err != nil {
		a.log.Warn(ctx, "profile fetch after login failed", "error", err)
		return models.Identity{}, models.TokenPair{}, loginUnavailable
	}

	return profile, pair, loginOK
}

// localLogin checks the fixed fallback pair in constant time and, on a
// match, synthesizes the minimal local identity and sentinel token.
func localLogin(username, password string) (models.Identity, models.TokenPair, bool) {
	userOK := cryptox.SecureCompare([]byte(username), []byte(localFallbackUsername))
	passOK := cryptox.SecureCompare([]byte(password), []byte(localFallbackPassword))
	if !userOK || !passOK {
		return models.Identity{}, models.TokenPair{}, false
	}

	identity := models.Identity{
		ID:          "1",
		Username:    localFallbackUsername,
		Role:        "admin",
		DisplayName: "Admin User",
	}
	return identity, models.TokenPair{AccessToken: localAccessToken}, true
}

func (a *SessionAuthenticator) withOverlay(ctx context.Context, identity models.Identity) models.Identity {
	avatar, err := a.repos.Overlay.Avatar(ctx)
	if err != nil {
		a.log.Warn(ctx, "reading avatar override failed", "error", err)
		return identity
	}
	return ProfileOverlay{AvatarURI: avatar}.Apply(identity)
}

func (a *SessionAuthenticator) clearCredentials(ctx context.Context) {
	if err := a.repos.Credentials.Clear(ctx); err != nil {
		a.log.Error(ctx, "clearing credentials failed", "error", err)
	}
	a.api.SetTokens(models.TokenPair{})
}

// resyncAPITokens points the api client back at whatever pair is persisted,
// undoing token state a failed login attempt may have left behind.
func (a *SessionAuthenticator) resyncAPITokens(ctx context.Context) {
	pair, err := a.repos.Credentials.Load(ctx)
	if err != nil {
		a.log.Error(ctx, "reloading stored credentials failed", "error", err)
		return
	}
	a.api.SetTokens(pair)
}
