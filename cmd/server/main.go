// Package main initializes and starts the task tracker HTTP server,
// setting up configuration, logging, storage, sessions, notifications,
// services, and handlers.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/TaskTracker/internal/config"
	"github.com/atinyakov/TaskTracker/internal/db"
	"github.com/atinyakov/TaskTracker/internal/logger"
	"github.com/atinyakov/TaskTracker/internal/notify"
	"github.com/atinyakov/TaskTracker/internal/repository"
	"github.com/atinyakov/TaskTracker/internal/repository/memory"
	"github.com/atinyakov/TaskTracker/internal/server/handler/http"
	"github.com/atinyakov/TaskTracker/internal/service"
	"github.com/atinyakov/TaskTracker/internal/session"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 15 * time.Second

// userStore is what the account service and the session issuer need from storage.
type userStore interface {
	service.UserRepository
	session.TokenStore
	http.Pinger
}

func main() {
	// Parse command-line, file, and environment configuration.
	options, err := config.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := options.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(2)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Pick the storage backend.
	var (
		users userStore
		tasks service.TaskRepository
	)
	if options.DatabaseDSN == "" {
		zapLogger.Warn("no database DSN configured, using in-memory store")
		store := memory.New()
		users, tasks = store, store
	} else {
		postgresDB, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot init database", zap.Error(err))
		}
		defer postgresDB.Close()

		users = repository.NewPostgresAuthRepository(postgresDB)
		tasks = repository.NewPostgresTaskRepository(postgresDB)

		if options.SessionRetention.Duration > 0 {
			db.StartSessionPruner(ctx, postgresDB,
				options.PruneInterval.Duration,
				options.SessionRetention.Duration,
				zapLogger,
			)
		}
	}

	issuer, err := session.NewIssuer(users, []byte(options.JWTSecret))
	if err != nil {
		zapLogger.Fatal("cannot init session issuer", zap.Error(err))
	}

	// Email delivery falls back to logging when SendGrid is not configured.
	var sender notify.Sender = notify.LogSender{Log: zapLogger}
	if options.SendGridAPIKey != "" {
		sender = notify.NewSendGridSender(options.SendGridAPIKey)
	}
	dispatcher := notify.NewDispatcher(sender, options.MailFrom, zapLogger)

	// Initialize business-logic services.
	authService := service.NewAuthService(users, tasks, issuer, dispatcher, zapLogger)
	taskService := service.NewTaskService(tasks)

	// Create HTTP handlers for account and task endpoints.
	userHandler := &http.UserHandler{UserService: authService, Log: zapLogger}
	taskHandler := &http.TaskHandler{TaskService: taskService, Log: zapLogger}

	// Build the router with middleware and routes.
	router := http.NewRouter(userHandler, taskHandler, issuer, users, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if options.TLSCertFile != "" {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
			errCh <- server.ListenAndServeTLS(options.TLSCertFile, options.TLSKeyFile)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("graceful shutdown failed", zap.Error(err))
	}

	// Let queued welcome/farewell emails finish.
	dispatcher.Wait()
	zapLogger.Info("server stopped")
}
