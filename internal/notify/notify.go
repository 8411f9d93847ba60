// Package notify delivers fire-and-forget user-facing notifications
// (the CLI equivalent of UI toasts). Delivery failures are never propagated
// to business logic.
package notify

import (
	"context"
	"fmt"
	"io"

	"github.com/qarzkitob/qarzkitob/internal/logging"
)

const (
	// KindLoginSuccess indicates a completed login (remote or local fallback).
	KindLoginSuccess = "login_success"
	// KindLoginFailed indicates a rejected or failed login.
	KindLoginFailed = "login_failed"
	// KindPinLockout indicates a newly engaged PIN block window.
	KindPinLockout = "pin_lockout"
	// KindAvatarSaved indicates the avatar override was stored.
	KindAvatarSaved = "avatar_saved"
	// KindAvatarSaveFailed indicates the avatar override could not be stored.
	KindAvatarSaveFailed = "avatar_save_failed"
)

// Message describes a notification payload.
type Message struct {
	Kind string
	Body string
}

// Notifier delivers notifications to the user-facing layer.
type Notifier interface {
	Send(ctx context.Context, message Message)
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	log logging.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(log logging.Logger) *LoggerNotifier {
	return &LoggerNotifier{log: log}
}

func (n *LoggerNotifier) Send(ctx context.Context, message Message) {
	if n == nil || n.log == nil {
		return
	}
	n.log.Info(ctx, "notification", "kind", message.Kind, "body", message.Body)
}

// WriterNotifier prints notifications to an io.Writer; the CLI uses it with
// stdout so messages land in front of the user.
type WriterNotifier struct {
	w io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Send(_ context.Context, message Message) {
	if n == nil || n.w == nil {
		return
	}
	fmt.Fprintf(n.w, "[%s] %s\n", message.Kind, message.Body)
}
