package cli

import (
	"io"
	"log/slog"

	"github.com/eshaffer321/bankrec/internal/application/service"
	"github.com/eshaffer321/bankrec/internal/infrastructure/config"
	"github.com/eshaffer321/bankrec/internal/infrastructure/logging"
	"github.com/eshaffer321/bankrec/internal/infrastructure/storage"
)

// GlobalOptions are the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	JSON       bool
}

// App holds the dependencies a command needs.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   *storage.Storage
	Service *service.ReconciliationService
}

// LoadConfig reads the config file named by the options, falling back to
// environment variables when it does not exist. A malformed file is an error.
func (o *GlobalOptions) LoadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrEnvStrict(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	if o.Verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	return cfg, nil
}

// OpenApp loads configuration, opens the database and builds the service.
// Logs go to logOut so command output stays machine readable.
func OpenApp(opts *GlobalOptions, logOut io.Writer, system string) (*App, error) {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.NewLoggerTo(logOut, cfg.Observability.Logging).With("system", system)

	store, err := storage.NewStorage(cfg.Storage.DatabasePath, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Service: service.NewReconciliationService(cfg, store, logger),
	}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.Store.Close()
}
