package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uplora/uplora/internal/api"
	"github.com/uplora/uplora/internal/auth"
	"github.com/uplora/uplora/internal/config"
	"github.com/uplora/uplora/internal/content"
	"github.com/uplora/uplora/internal/database"
	"github.com/uplora/uplora/internal/events"
	"github.com/uplora/uplora/internal/metrics"
	"github.com/uplora/uplora/internal/platform"
	"github.com/uplora/uplora/internal/scheduler"
	"github.com/uplora/uplora/internal/team"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	if err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	pool := db.Pool()
	teamRepo := team.NewRepository(pool)
	memberRepo := team.NewMembershipRepository(pool)
	userRepo := auth.NewUserRepository(pool)
	contentRepo := content.NewRepository(pool)
	platformRepo := platform.NewRepository(pool)

	authService := auth.NewService(userRepo, memberRepo, cfg.BcryptCost)
	if _, err := authService.BootstrapAdmin(ctx); err != nil {
		slog.Error("failed to bootstrap admin user", "error", err)
		os.Exit(1)
	}

	hub := events.NewHub(cfg.EventBufferSize)
	hub.OnDrop(metrics.EventsDroppedTotal.Inc)

	sched := scheduler.New(
		contentRepo,
		hub,
		time.Duration(cfg.SchedulerInterval)*time.Second,
		scheduler.WithObserver(metrics.ScheduledPublishedTotal.Inc),
	)
	go sched.Start(ctx)

	router := api.NewRouter(api.RouterDeps{
		AuthService:  authService,
		UserRepo:     userRepo,
		TeamRepo:     teamRepo,
		MemberRepo:   memberRepo,
		ContentRepo:  contentRepo,
		PlatformRepo: platformRepo,
		Hub:          hub,
		DBPinger:     db,
		Version:      cfg.Version,
		CORSOrigins:  cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting Uplora server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
