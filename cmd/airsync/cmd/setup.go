package cmd

import (
	"context"
	"fmt"

	"github.com/elliotlrichardson/airsync/internal/airtable"
	"github.com/elliotlrichardson/airsync/internal/config"
	"github.com/elliotlrichardson/airsync/internal/logger"
	"github.com/elliotlrichardson/airsync/internal/syncer"
	"github.com/elliotlrichardson/airsync/internal/warehouse"
)

// app holds the adapters shared by the sync and plan commands.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	warehouse *warehouse.Manager
}

// setup loads and validates configuration and builds the logger.
func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if cfg.LocalEnvFile != "" {
		log.Infow("Loaded local environment file", "path", cfg.LocalEnvFile)
	}

	return &app{
		cfg:       cfg,
		log:       log,
		warehouse: warehouse.NewManager(&cfg.Warehouse),
	}, nil
}

func (a *app) connect(ctx context.Context) error {
	if err := a.warehouse.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	return nil
}

func (a *app) driver() (*syncer.Driver, error) {
	opts, err := syncer.OptionsFromConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	store := airtable.NewStore(
		airtable.NewClient(&a.cfg.Airtable),
		a.cfg.Sync.UniqueID,
		a.cfg.Sync.DuplicatePolicy(),
	)
	return syncer.NewDriver(store, a.warehouse.Reader(), opts, a.log.WithTable(a.cfg.Airtable.TableName))
}

// Close releases the warehouse connection and flushes the logger.
func (a *app) Close() {
	if err := a.warehouse.Close(); err != nil {
		a.log.Warnw("Failed to close warehouse connection", "error", err)
	}
	_ = a.log.Sync()
}
