package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"medbook/internal/appointments"
	"medbook/internal/booking"
	"medbook/internal/catalog"
	"medbook/internal/config"
	"medbook/internal/database"
	"medbook/internal/events"
	"medbook/internal/metrics"
	"medbook/internal/slots"
)

// app holds the wired components shared by all commands.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	catalog  *catalog.Catalog
	store    *appointments.Store
	service  *booking.Service
	bus      *events.EventBus
	storage  *storage
	location *time.Location
}

// storage is the opened persistence backend and the handles behind it.
type storage struct {
	backend appointments.Backend
	db      *database.DB
	rdb     *redis.Client
	path    string
}

func (s *storage) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.Format == "json" {
		logger = zerolog.New(os.Stdout)
	} else {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		logger = zerolog.New(output)
	}
	logger = logger.With().Timestamp().Logger()

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	explicit := path != "" || os.Getenv("MEDBOOK_CONFIG_PATH") != ""
	if path == "" {
		path = config.PathFromEnv()
	}
	cfg, err := config.Load(path)
	// Without an explicit path a missing default file means built-in defaults.
	if !explicit && errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Storage.Backend {
	case config.BackendFile:
		return &storage{backend: appointments.NewFileBackend(cfg.Storage.Path), path: cfg.Storage.Path}, nil
	case config.BackendSQLite:
		db, err := database.NewDB(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		return &storage{backend: appointments.NewSQLiteBackend(db, cfg.Storage.Key), db: db, path: cfg.Storage.Path}, nil
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return &storage{backend: appointments.NewRedisBackend(rdb, cfg.Storage.Key), rdb: rdb}, nil
	}
	return &storage{backend: appointments.NewMemoryBackend()}, nil
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Logging)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	st, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	bus := events.NewEventBus()
	metrics.Observe(bus)
	bus.SubscribeAll(func(e events.Event) error {
		logger.Debug().Str("event", e.Type).Str("appointment_id", e.Appointment.ID).Msg("appointment event")
		return nil
	})

	store := appointments.NewStore(st.backend,
		appointments.WithEvents(bus),
		appointments.WithLogger(logger),
	)
	cat := catalog.New(nil)
	gen := slots.NewGenerator(store, cfg.Hours.BusinessHours)
	svc := booking.NewService(cat, gen, store,
		booking.WithWindowDays(cfg.BookingWindowDays()),
		booking.WithRescheduleDays(cfg.RescheduleMaxDays()),
		booking.WithLocation(loc),
		booking.WithServiceLogger(logger),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		catalog:  cat,
		store:    store,
		service:  svc,
		bus:      bus,
		storage:  st,
		location: loc,
	}, nil
}

func (a *app) Close() {
	a.storage.Close()
}

// watchCatalog loads the catalog override file and reloads it on change.
func (a *app) watchCatalog(ctx context.Context) error {
	if a.cfg.Catalog.Path == "" {
		return nil
	}
	logger := a.logger.With().Str("component", "catalog").Str("path", a.cfg.Catalog.Path).Logger()
	return config.FileWatch[*catalog.Data]{
		Path:     a.cfg.Catalog.Path,
		Interval: a.cfg.CatalogReloadInterval(),
		Load:     catalog.LoadFile,
		Apply: func(data *catalog.Data) {
			a.catalog.Replace(data)
			logger.Info().Int("departments", len(data.Departments)).Int("doctors", len(data.Doctors)).Msg("catalog loaded")
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("catalog reload skipped, keeping previous catalog")
		},
	}.Start(ctx)
}

// backupService returns nil for backends without a local file.
func (a *app) backupService() *database.BackupService {
	if a.storage.path == "" {
		return nil
	}
	logger := a.logger.With().Str("component", "backup").Logger()
	return database.NewBackupService(a.storage.path, a.storage.db, a.cfg.Backup, a.cfg.BackupInterval(), &logger)
}
