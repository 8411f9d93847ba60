// Package cli implements the interactive command loop of the qarzkitob
// client: login, PIN unlock, profile/avatar management, and the debtor list.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/qarzkitob/qarzkitob/internal/client/api"
	"github.com/qarzkitob/qarzkitob/internal/client/config"
	"github.com/qarzkitob/qarzkitob/internal/client/models"
	"github.com/qarzkitob/qarzkitob/internal/client/services"
	"github.com/qarzkitob/qarzkitob/internal/client/storage"
	"github.com/qarzkitob/qarzkitob/internal/logging"
	"github.com/qarzkitob/qarzkitob/internal/notify"

	_ "modernc.org/sqlite"
)

type App struct {
	config  *config.Config
	auth    *services.SessionAuthenticator
	debtors *services.DebtorService
	log     logging.Logger
	reader  *bufio.Reader
}

func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	repos, err := storage.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiClient := api.NewHTTPClient(c.APIBaseURL,
		api.WithTimeout(c.RequestTimeout),
		api.WithTokensRefreshed(func(pair models.TokenPair) {
			// keep the persisted pair in step with silently refreshed tokens
			if err := repos.Credentials.Save(context.Background(), pair); err != nil {
				log.Error(context.Background(), "persisting refreshed tokens failed", "error", err)
			}
		}),
	)

	guard := services.NewPinGuard(c.PinCode, services.SystemClock())
	notifier := notify.NewWriterNotifier(os.Stdout)

	return &App{
		config:  c,
		auth:    services.NewSessionAuthenticator(apiClient, repos, guard, notifier, log),
		debtors: services.NewDebtorService(apiClient, log),
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	a.auth.Restore(ctx)
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.auth.IsAuthenticated()
}

func (a *App) isUnlocked() bool {
	return a.auth.IsPinVerified()
}
