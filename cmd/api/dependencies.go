package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wealthwise/docparse/internal/domain/bookkeeping"
	"github.com/wealthwise/docparse/internal/domain/categorize"
	"github.com/wealthwise/docparse/internal/domain/document"
	"github.com/wealthwise/docparse/internal/domain/parse"
	"github.com/wealthwise/docparse/internal/domain/transaction"
	"github.com/wealthwise/docparse/pkg/config"
	"github.com/wealthwise/docparse/pkg/cron"
	"github.com/wealthwise/docparse/pkg/db"
	"github.com/wealthwise/docparse/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config   *config.Config
	DB       *db.DB
	Logger   *slog.Logger
	Registry *prometheus.Registry

	// Repositories
	DocumentRepo    document.Repository
	TransactionRepo transaction.Repository
	RuleRepo        bookkeeping.Repository

	// Services
	FileStorage        storage.Storage
	DocumentService    *document.Service
	ParseService       *parse.Service
	CategorizeService  *categorize.Service
	BookkeepingService *bookkeeping.Service
	Scheduler          *cron.Scheduler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.DocumentRepo = document.NewPostgresRepository(d.DB.Pool)
	d.TransactionRepo = transaction.NewPostgresRepository(d.DB.Pool)
	d.RuleRepo = bookkeeping.NewPostgresRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	fileStorage, err := storage.New(&storage.Config{BaseDir: d.Config.Upload.Dir})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	classifier := categorize.NewClient(categorize.ClientConfig{
		BaseURL:        d.Config.Classifier.BaseURL,
		TimeoutSeconds: d.Config.Classifier.TimeoutSeconds,
		RatePerSecond:  d.Config.Classifier.RatePerSecond,
		RateBurst:      d.Config.Classifier.RateBurst,
	}, d.Logger)
	d.CategorizeService = categorize.NewService(classifier, d.Logger)

	parseMetrics := parse.NewMetrics(d.Registry)
	d.ParseService = parse.NewService(parse.Config{
		Workers:   d.Config.Parse.Workers,
		QueueSize: d.Config.Parse.QueueSize,
	}, d.DocumentRepo, d.TransactionRepo, d.FileStorage, d.CategorizeService, parseMetrics, d.Logger)

	d.DocumentService = document.NewService(
		d.DocumentRepo, d.FileStorage, d.Config.Upload.MaxSizeBytes, d.Logger,
	).WithParseTrigger(d.ParseService)

	d.BookkeepingService = bookkeeping.NewService(d.RuleRepo, d.TransactionRepo, d.Logger)
	d.Scheduler = cron.NewScheduler(d.BookkeepingService, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}
