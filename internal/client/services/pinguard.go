package services

import (
	"sync"
	"time"

	"github.com/qarzkitob/qarzkitob/internal/common"
	"github.com/qarzkitob/qarzkitob/internal/cryptox"
)

// Lockout thresholds are deliberately asymmetric: a short block after a few
// mistypes, a long one once the failure count looks like guessing.
const (
	shortBlockAttempts = 4
	longBlockAttempts  = 8

	shortBlockWindow = 30 * time.Second
	longBlockWindow  = 3 * time.Minute
)

// PinVerdict classifies the outcome of a single verification attempt.
type PinVerdict int

const (
	// PinAccepted: the candidate matched and no block was active.
	PinAccepted PinVerdict = iota
	// PinRejected: the candidate did not match; the attempt was counted.
	PinRejected
	// PinBlocked: a block window is active; the attempt was not counted.
	PinBlocked
)

// PinResult carries the verdict plus the data the UI layer needs for
// messaging.
type PinResult struct {
	Verdict PinVerdict

	// RetryAfter is the remaining block window when Verdict is PinBlocked.
	RetryAfter time.Duration

	// NewBlock is the window length when this very attempt engaged a block,
	// zero otherwise.
	NewBlock time.Duration

	// Attempts is the failure count after this attempt.
	Attempts int
}

// PinGuard gates the secondary short-code check with an escalating,
// time-boxed lockout. It holds no network dependency and stays fully
// operational offline. All state is in-memory; a restart starts the guard
// open.
//
// The block window is evaluated lazily on each Verify call; there is no
// background timer. An expired window is cleared on the next attempt, but
// the failure counter carries over so repeat offenders escalate from the
// short window to the long one. The counter drops to zero only on a
// successful verification or an explicit Reset.
type PinGuard struct {
	clock Clock

	mu           sync.Mutex
	salt         []byte
	verifier     []byte
	attempts     int
	blockedUntil time.Time
}

// NewPinGuard builds a guard for the given PIN. The PIN itself is not
// retained; only an argon2id verifier is.
func NewPinGuard(pin string, clock Clock) *PinGuard {
	salt := common.GenerateRandByteArray(16)
	key := cryptox.DeriveKey([]byte(pin), salt)
	return &PinGuard{
		clock:    clock,
		salt:     salt,
		verifier: cryptox.MakeVerifier(key),
	}
}

// Verify checks candidate against the configured PIN under the lockout
// policy. It never returns an error; the verdict carries everything the
// caller needs.
func (g *PinGuard) Verify(candidate string) PinResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()

	if !g.blockedUntil.IsZero() {
		if remaining := g.blockedUntil.Sub(now); remaining > 0 {
			// inert during a block: nothing counts, not even a correct PIN
			return PinResult{Verdict: PinBlocked, RetryAfter: remaining, Attempts: g.attempts}
		}
		g.blockedUntil = time.Time{}
	}

	if cryptox.VerifySecret([]byte(candidate), g.salt, g.verifier) {
		g.attempts = 0
		g.blockedUntil = time.Time{}
		return PinResult{Verdict: PinAccepted}
	}

	g.attempts++
	result := PinResult{Verdict: PinRejected, Attempts: g.attempts}

	switch {
	case g.attempts >= longBlockAttempts:
		result.NewBlock = longBlockWindow
	case g.attempts >= shortBlockAttempts:
		result.NewBlock = shortBlockWindow
	}
	if result.NewBlock > 0 {
		g.blockedUntil = now.Add(result.NewBlock)
	}

	return result
}

// Reset clears the failure counter and any block window unconditionally.
func (g *PinGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attempts = 0
	g.blockedUntil = time.Time{}
}

// Attempts returns the current failure count.
func (g *PinGuard) Attempts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempts
}

// BlockedFor returns the remaining block window, or zero when the guard is
// not blocking.
func (g *PinGuard) BlockedFor() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.blockedUntil.IsZero() {
		return 0
	}
	remaining := g.blockedUntil.Sub(g.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
