package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/qarzkitob/qarzkitob/internal/client/api"
	"github.com/qarzkitob/qarzkitob/internal/client/models"
	"github.com/qarzkitob/qarzkitob/internal/client/repositories/credentials"
	"github.com/qarzkitob/qarzkitob/internal/client/repositories/overlay"
	"github.com/qarzkitob/qarzkitob/internal/client/repositories/session"
	"github.com/qarzkitob/qarzkitob/internal/client/storage"
	"github.com/qarzkitob/qarzkitob/internal/logging"
	"github.com/qarzkitob/qarzkitob/internal/notify"
)

// ---- helpers ----

var dbSeq int

func setupRepos(t *testing.T) *storage.Repositories {
	t.Helper()
	dbSeq++
	dsn := fmt.Sprintf("file:sessiontest%d?mode=memory&cache=shared", dbSeq)
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE credentials (name TEXT PRIMARY KEY, value TEXT NOT NULL);
CREATE TABLE session_state (name TEXT PRIMARY KEY, value TEXT NOT NULL);
CREATE TABLE profile_overlay (name TEXT PRIMARY KEY, value TEXT NOT NULL);
`)
	require.NoError(t, err)

	return &storage.Repositories{
		Credentials: credentials.NewSQLiteRepository(db),
		Session:     session.NewSQLiteRepository(db),
		Overlay:     overlay.NewSQLiteRepository(db),
		DB:          db,
	}
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// ---- fake api client ----

type fakeAPI struct {
	AuthPair models.TokenPair
	AuthErr  error

	Profile    models.Identity
	ProfileErr error

	InvalidateErr error

	Debtors    []models.Debtor
	DebtorsErr error

	tokens models.TokenPair

	AuthCalls       int
	ProfileCalls    int
	InvalidateCalls int
	DebtorsCalls    int

	LastAuthUsername string
	LastAuthPassword string
}

func (f *fakeAPI) Authenticate(ctx context.Context, username, password string) (models.TokenPair, error) {
	f.AuthCalls++
	f.LastAuthUsername = username
	f.LastAuthPassword = password
	if f.AuthErr != nil {
		return models.TokenPair{}, f.AuthErr
	}
	f.tokens = f.AuthPair
	return f.AuthPair, nil
}

func (f *fakeAPI) FetchProfile(ctx context.Context) (models.Identity, error) {
	f.ProfileCalls++
	if f.ProfileErr != nil {
		return models.Identity{}, f.ProfileErr
	}
	return f.Profile, nil
}

func (f *fakeAPI) InvalidateSession(ctx context.Context) error {
	f.InvalidateCalls++
	return f.InvalidateErr
}

func (f *fakeAPI) ListDebtors(ctx context.Context) ([]models.Debtor, error) {
	f.DebtorsCalls++
	return f.Debtors, f.DebtorsErr
}

func (f *fakeAPI) SetTokens(pair models.TokenPair) { f.tokens = pair }
func (f *fakeAPI) Tokens() models.TokenPair        { return f.tokens }

// ---- recording notifier ----

type recordingNotifier struct {
	msgs []notify.Message
}

func (n *recordingNotifier) Send(_ context.Context, m notify.Message) {
	n.msgs = append(n.msgs, m)
}

func (n *recordingNotifier) kinds() []string {
	out := make([]string, 0, len(n.msgs))
	for _, m := range n.msgs {
		out = append(out, m.Kind)
	}
	return out
}

func newAuthenticator(t *testing.T, apiClient *fakeAPI) (*SessionAuthenticator, *storage.Repositories, *recordingNotifier, *fakeClock) {
	t.Helper()
	repos := setupRepos(t)
	notifier := &recordingNotifier{}
	clock := newFakeClock()
	guard := NewPinGuard(testPin, clock)
	a := NewSessionAuthenticator(apiClient, repos, guard, notifier, discardLogger())
	return a, repos, notifier, clock
}

// ---- login ----

func TestLogin_RemoteSuccess(t *testing.T) {
	apiClient := &fakeAPI{
		AuthPair: models.TokenPair{AccessToken: "at-1", RefreshToken: "rt-1"},
		Profile:  models.Identity{ID: "7", Username: "gulnora", Role: "user"},
	}
	a, repos, notifier, _ := newAuthenticator(t, apiClient)
	ctx := context.Background()

	require.True(t, a.Login(ctx, "gulnora", "secret"))
	require.True(t, a.IsAuthenticated())

	identity, ok := a.Identity()
	require.True(t, ok)
	require.Equal(t, "gulnora", identity.Username)

	stored, err := repos.Credentials.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "at-1", stored.AccessToken)
	require.Equal(t, "rt-1", stored.RefreshToken)

	require.Equal(t, []string{notify.KindLoginSuccess}, notifier.kinds())
}

func TestLogin_FallbackWhenRemoteUnavailable(t *testing.T) {
	apiClient := &fakeAPI{AuthErr: api.ErrUnavailable}
	a, repos, notifier, _ := newAuthenticator(t, apiClient)
	ctx := context.Background()

	require.True(t, a.Login(ctx, "admin", "1111"))
	require.True(t, a.IsAuthenticated())

	identity, ok := a.Identity()
	require.True(t, ok)
	require.Equal(t, "admin", identity.Role)
	require.Equal(t, "admin", identity.Username)

	stored, err := repos.Credentials.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, localAccessToken, stored.AccessToken)
	require.Empty(t, stored.RefreshToken)

	require.Equal(t, []string{notify.KindLoginSuccess}, notifier.kinds())
}

func TestLogin_FallbackRejectsOtherPairs(t *testing.T) {
	apiClient := &fakeAPI{AuthErr: api.ErrUnavailable}
	a, repos, notifier, _ := newAuthenticator(t, apiClient)
	ctx := context.Background()

	require.False(t, a.Login(ctx, "admin", "2222"))
	require.False(t, a.IsAuthenticated())

	stored, err := repos.Credentials.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, stored.AccessToken)

	require.Equal(t, []string{notify.KindLoginFailed}, notifier.kinds())
}

func TestLogin_ExplicitRejectionDoesNotFallBack(t *testing.T) {
	apiClient := &fakeAPI{AuthErr: api.ErrInvalidCredentials}
	a, _, notifier, _ := newAuthenticator(t, apiClient)
	ctx := context.Background()

	// the remote rendered a verdict; even the fallback pair must not bypass it
	require.False(t, a.Login(ctx, "admin", "1111"))
	require.False(t, a.Login(ctx, "someone", "else"))
	require.False(t, a.IsAuthenticated())
	require.Equal(t, []string{notify.KindLoginFailed, notify.KindLoginFailed}, notifier.kinds())
}

func TestLogin_ProfileFetchFailureCountsAsUnavailable(t *testing.T) {
	apiClient := &fakeAPI{
		AuthPair:   models.TokenPair{AccessToken: "at-1"},
		ProfileErr: api.ErrUnavailable,
	}
	a, repos, _, _ := newAuthenticator(t, apiClient)
	ctx := context.Background()

	require.True(t, a.Login(ctx, "admin", "1111"))

	identity, ok := a.Identity()
	require.True(t, ok)
	require.Equal(t, "admin", identity.Role)

	// the half-issued remote token is not what got persisted
	stored, err := repos.Credentials.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, localAccessToken, stored.AccessToken)
}

// ---- restore ----

func TestRestore_NoTokenLeavesUnauthenticated(t *testing.T) {
	apiClient := &fakeAPI{}
	a, _, _, _ := newAuthenticator(t, apiClient)

	a.Restore(context.Background())
	require.False(t, a.IsAuthenticated())
	require.False(t, a.IsLoading())
	require.Zero(t, apiClient.ProfileCalls)
}

func TestRestore_ValidTokenRebuildsSession(t *testing.T) {
	apiClient := &fakeAPI{Profile: models.Identity{ID: "7", Username: "gulnora"}}
	a, repos, _, _ := newAuthenticator(t, apiClient)
	ctx := context.Background()

	require.NoError(t, repos.Credentials.Save(ctx, models.TokenPair{AccessToken: "at-1"}))
	require.NoError(t, repos.Session.SetPinVerified(ctx, true))

	a.Restore(ctx)
	require.True(t, a.IsAuthenticated())
	require.True(t, a.IsPinVerified())
	require.Equal(t, "at-1", apiClient.Tokens().AccessToken)
}

func TestRestore_RejectedTokenClearsCredentials(t *testing.T) {
	apiClient := &fakeAPI{ProfileErr: api.ErrUnauthorized}
	a, repos, _, _ := newAuthenticator(t, apiClient)
	ctx := context.Background()

	require.NoError(t, repos.Credentials.Save(ctx, models.TokenPair{AccessToken: "stale", RefreshToken: "r"}))

	a.Restore(ctx)
	require.False(t, a.IsAuthenticated())
	require.False(t, a.IsPinVerified())

	stored, err := repos.Credentials.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, stored.AccessToken)
	require.Empty(t, stored.RefreshToken)
}

func TestRestore_PinFlagNotSetWithoutVerification(t *testing.T) {
	apiClient := &fakeAPI{Profile: models.Identity{ID: "7", Username: "gulnora"}}
	a, repos, _, _ := newAuthenticator(t, apiClient)
	ctx := context.Background()

	require.NoError(t, repos.Credentials.Save(ctx, models.TokenPair{AccessToken: "at-1"}))

	a.Restore(ctx)
	require.True(t, a.IsAuthenticated())
	require.False(t, a.IsPinVerified())
}

// ---- logout ----

func TestLogout_ClearsEverythingEvenWhenRemoteFails(t *testing.T) {
	apiClient := &fakeAPI{AuthErr: api.ErrUnavailable, InvalidateErr: api.ErrUnavailable}
	a, repos, _, _ := newAuthenticator(t, apiClient)
	ctx := context.Background()

	require.True(t, a.Login(ctx, "admin", "1111"))
	require.True(t, a.VerifyPin(ctx, testPin))
	require.True(t, a.IsPinVerified())

	a.Logout(ctx)

	require.Equal(t, 1, apiClient.InvalidateCalls)
	require.False(t, a.IsAuthenticated())
	require.False(t, a.IsPinVerified())
	require.Empty(t, apiClient.Tokens().AccessToken)

	stored, err := repos.Credentials.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, stored.AccessToken)

	pinStored, err := repos.Session.PinVerified(ctx)
	require.NoError(t, err)
	require.False(t, pinStored)
}

func TestLogout_ResetsPinGuard(t *testing.T) {
	apiClient := &fakeAPI{AuthErr: api.ErrUnavailable}
	a, _, _, _ := newAuthenticator(t, apiClient)
	ctx := context.Background()

	require.True(t, a.Login(ctx, "admin", "1111"))
	for i := 0; i < 4; i++ {
		require.False(t, a.VerifyPin(ctx, "0000"))
	}
	require.NotZero(t, a.PinBlockedFor())

	a.Logout(ctx)
	require.Zero(t, a.PinAttempts())
	require.Zero(t, a.PinBlockedFor())
}

// ---- pin gate ----

func TestVerifyPin_SetsAndPersistsFlag(t *testing.T) {
	apiClient := &fakeAPI{AuthErr: api.ErrUnavailable}
	a, repos, _, _ := newAuthenticator(t, apiClient)
	ctx := context.Background()

	require.True(t, a.Login(ctx, "admin", "1111"))
	beforeProfileCalls := apiClient.ProfileCalls

	require.True(t, a.VerifyPin(ctx, testPin))
	require.True(t, a.IsPinVerified())

	// no network involved in pin verification
	require.Equal(t, beforeProfileCalls, apiClient.ProfileCalls)

	stored, err := repos.Session.PinVerified(ctx)
	require.NoError(t, err)
	require.True(t, stored)
}

func TestVerifyPin_LockoutNotifiesWithDuration(t *testing.T) {
	apiClient := &fakeAPI{}
	a, _, notifier, _ := newAuthenticator(t, apiClient)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.False(t, a.VerifyPin(ctx, "0000"))
	}

	require.Equal(t, []string{notify.KindPinLockout}, notifier.kinds())
	require.Contains(t, notifier.msgs[0].Body, "30s")

	// correct pin is still rejected while blocked, and no new notification fires
	require.False(t, a.VerifyPin(ctx, testPin))
	require.Len(t, notifier.msgs, 1)
}

func TestVerifyPin_RecoversAfterWindow(t *testing.T) {
	apiClient := &fakeAPI{}
	a, _, _, clock := newAuthenticator(t, apiClient)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.False(t, a.VerifyPin(ctx, "0000"))
	}
	clock.Advance(31 * time.Second)

	require.True(t, a.VerifyPin(ctx, testPin))
	require.Zero(t, a.PinAttempts())
}

// ---- avatar overlay ----

func TestUpdateAvatar_ImmediateAndDurable(t *testing.T) {
	apiClient := &fakeAPI{AuthErr: api.ErrUnavailable}
	a, _, notifier, _ := newAuthenticator(t, apiClient)
	ctx := context.Background()

	require.True(t, a.Login(ctx, "admin", "1111"))
	beforeProfileCalls := apiClient.ProfileCalls

	require.NoError(t, a.UpdateAvatar(ctx, "data:image/png;base64,AAAA"))
	require.Equal(t, beforeProfileCalls, apiClient.ProfileCalls)

	identity, ok := a.Identity()
	require.True(t, ok)
	require.Equal(t, "data:image/png;base64,AAAA", identity.AvatarURI)
	require.Contains(t, notifier.kinds(), notify.KindAvatarSaved)

	// the override survives a full logout/login cycle
	a.Logout(ctx)
	require.True(t, a.Login(ctx, "admin", "1111"))

	identity, ok = a.Identity()
	require.True(t, ok)
	require.Equal(t, "data:image/png;base64,AAAA", identity.AvatarURI)
}

func TestUpdateAvatar_OverlayWinsOverRemoteAvatar(t *testing.T) {
	apiClient := &fakeAPI{
		AuthPair: models.TokenPair{AccessToken: "at-1"},
		Profile:  models.Identity{ID: "7", Username: "gulnora", AvatarURI: "remote.png"},
	}
	a, repos, _, _ := newAuthenticator(t, apiClient)
	ctx := context.Background()

	require.NoError(t, repos.Overlay.SetAvatar(ctx, "local.png"))
	require.True(t, a.Login(ctx, "gulnora", "secret"))

	identity, ok := a.Identity()
	require.True(t, ok)
	require.Equal(t, "local.png", identity.AvatarURI)
}
