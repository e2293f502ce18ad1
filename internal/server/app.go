// Package server wires the storage backend, the services and the transports
// together and runs them until the process is signalled.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/lootledger/internal/logging"
	"github.com/dmitrijs2005/lootledger/internal/server/artwork"
	"github.com/dmitrijs2005/lootledger/internal/server/commands"
	"github.com/dmitrijs2005/lootledger/internal/server/config"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/memory"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lootledger/internal/server/services"
	"github.com/dmitrijs2005/lootledger/internal/server/sweeper"

	gs "github.com/dmitrijs2005/lootledger/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	store    repomanager.RepositoryManager
	services *services.Services
	registry *commands.Registry
	artwork  *artwork.Resolver
	sweeper  *sweeper.Sweeper
}

// openStore picks the process-local store for the memory DSN and PostgreSQL
// otherwise. Migrations are applied before the store is returned.
func openStore(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	var m repomanager.RepositoryManager
	if c.DatabaseDSN == config.MemoryDSN {
		m = memory.New()
	} else {
		pg, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		m = pg
	}

	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}
	return m, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	store, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}

	svc := services.New(store, c, logger)

	return &App{
		config:   c,
		logger:   logger,
		store:    store,
		services: svc,
		registry: commands.NewRegistry(svc, logger),
		artwork:  artwork.NewResolver(c, logger),
		sweeper:  sweeper.New(svc, c, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(gs.Options{
		Address:   app.config.EndpointAddrGRPC,
		SecretKey: app.config.SecretKey,
		RateLimit: app.config.RateLimit,
		RateBurst: app.config.RateBurst,
	}, app.logger, app.registry, app.services.Catalog, app.artwork)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startSweeper(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.sweeper.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or a component fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "store", storeKind(app.config))

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startSweeper(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "store close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}

func storeKind(c *config.Config) string {
	if c.DatabaseDSN == config.MemoryDSN {
		return "memory"
	}
	return "postgres"
}
