package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/DRPozdniakov/Tracker/internal/config"
	"github.com/DRPozdniakov/Tracker/internal/database"
	"github.com/DRPozdniakov/Tracker/internal/httpapi"
	"github.com/DRPozdniakov/Tracker/internal/logging"
	"github.com/DRPozdniakov/Tracker/internal/repositories"
	"github.com/DRPozdniakov/Tracker/internal/services"
	"github.com/DRPozdniakov/Tracker/internal/telegram"
)

const (
	shutdownTimeout = 10 * time.Second
	janitorInterval = time.Minute
)

func main() {
	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, notes, profiles, cleanup, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var dialogs repositories.DialogStore
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		dialogs = repositories.NewRedisDialogRepository(redisClient)
		logger.Info("dialog store backed by redis")
	} else {
		dialogs = repositories.NewMemoryDialogStore()
		logger.Info("dialog store in memory")
	}

	roster, err := config.LoadRoster(cfg.RosterPath)
	if err != nil {
		return err
	}

	coordinator := services.NewActionCoordinator(store, services.CoordinatorConfig{
		PendingTTL: cfg.PendingActionTTL,
		Location: services.LocationPolicy{
			Required: cfg.RequireLocation,
			MaxSkew:  cfg.MaxLocationSkew,
		},
	})
	timesheet := services.NewTimesheetService(store, notes)

	bot, err := telegram.New(cfg.TelegramToken, telegram.Deps{
		Coordinator: coordinator,
		Timesheet:   timesheet,
		Profiles:    profiles,
		Dialogs:     dialogs,
		Roster:      roster,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}

	api := httpapi.NewServer(timesheet, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: api.Router(),
	}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("starting http server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	group.Go(func() error {
		return bot.Run(gctx)
	})

	group.Go(func() error {
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if swept := coordinator.SweepExpired(); swept > 0 {
					logger.Debug("swept expired pending actions", "count", swept)
				}
			}
		}
	})

	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// buildStores wires the configured backend. The returned cleanup closes
// whatever connection the backend holds.
func buildStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (
	repositories.AttendanceStore, repositories.NoteStore, repositories.ProfileStore, func(), error,
) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		attendance := repositories.NewPostgresAttendanceStore(pool)
		if err := attendance.Init(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, nil, err
		}
		profiles := repositories.NewPostgresProfileStore(pool)
		if err := profiles.Init(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, nil, err
		}
		logger.Info("attendance store backed by postgres")
		return attendance, attendance, profiles, pool.Close, nil

	case config.BackendSQLite:
		db, err := database.NewSQLiteDB(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		attendance := repositories.NewSQLiteAttendanceStore(db)
		if err := attendance.Init(ctx); err != nil {
			db.Close()
			return nil, nil, nil, nil, err
		}
		profiles := repositories.NewSQLiteProfileStore(db)
		if err := profiles.Init(ctx); err != nil {
			db.Close()
			return nil, nil, nil, nil, err
		}
		logger.Info("attendance store backed by sqlite", "path", cfg.SQLitePath)
		return attendance, attendance, profiles, func() { db.Close() }, nil

	case config.BackendMemory:
		attendance := repositories.NewMemoryAttendanceStore()
		logger.Warn("attendance store in memory, events are lost on restart")
		return attendance, attendance, repositories.NewMemoryProfileStore(), func() {}, nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}
