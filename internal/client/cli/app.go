package cli

import (
	"bufio"
	"context"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/tsheet/internal/client/api"
	"github.com/dmitrijs2005/tsheet/internal/client/config"
	"github.com/dmitrijs2005/tsheet/internal/client/models"
	"github.com/dmitrijs2005/tsheet/internal/client/netwatch"
	"github.com/dmitrijs2005/tsheet/internal/client/services"
	"github.com/dmitrijs2005/tsheet/internal/client/storage"
	"github.com/dmitrijs2005/tsheet/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config  *config.Config
	auth    services.AuthService
	session services.SessionService
	sync    services.SyncService
	site    services.SiteService
	watcher *netwatch.Watcher
	log     logging.Logger

	user   *models.UserData
	reader *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	db, err := storage.Open(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiClient := api.NewHTTPClient(c.BaseURL, c.RequestTimeout)

	watcher := netwatch.New(apiClient, c.OnlineCheckInterval, logger)

	syncService := services.NewSyncService(apiClient, db, logger)
	watcher.OnOnline(syncService.Drain)

	app := &App{
		config:  c,
		auth:    services.NewAuthService(apiClient, db, watcher, logger),
		session: services.NewSessionService(apiClient, db, watcher, logger),
		sync:    syncService,
		site:    services.NewSiteService(apiClient, db, logger),
		watcher: watcher,
		log:     logger,
		reader:  bufio.NewReader(os.Stdin),
	}
	return app, nil
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

// Run starts the connectivity watcher, restores any stored login, and hands
// control to the REPL. It blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.auth.Close(ctx)

	go a.watcher.Run(ctx)

	a.restoreLogin(ctx)
	a.Root(ctx)
}
