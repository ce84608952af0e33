// Package main initializes and starts the task manager HTTP server,
// setting up configuration, logging, database connections, repositories,
// services, handlers and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/taskmanager/internal/config"
	"github.com/atinyakov/taskmanager/internal/db"
	"github.com/atinyakov/taskmanager/internal/imaging"
	"github.com/atinyakov/taskmanager/internal/logger"
	"github.com/atinyakov/taskmanager/internal/middleware"
	"github.com/atinyakov/taskmanager/internal/notify"
	"github.com/atinyakov/taskmanager/internal/repository"
	"github.com/atinyakov/taskmanager/internal/server/handler/http"
	"github.com/atinyakov/taskmanager/internal/service"
	"github.com/atinyakov/taskmanager/internal/token"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	generated, err := options.EnsureJWTSecret()
	if err != nil {
		zapLogger.Fatal("cannot create jwt secret", zap.Error(err))
	}
	if generated {
		zapLogger.Warn("no JWT secret configured, using a random one; sessions will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(ctx, options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Purge expired sessions in the background.
	db.StartExpiredTokenCleaner(ctx, postgresDB, time.Duration(options.CleanupInterval), zapLogger)

	// Initialize repositories.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	tokenRepo := repository.NewPostgresTokenRepository(postgresDB)
	taskRepo := repository.NewPostgresTaskRepository(postgresDB)

	// Initialize notifications.
	notifier := notify.NewAsync(newSender(options.Mail, zapLogger), zapLogger)

	// Initialize business-logic services.
	resizer := imaging.NewResizer(options.Avatar.Width, options.Avatar.Height)
	resizer.MaxPixels = options.Avatar.MaxPixels
	userService := service.NewUserService(userRepo, notifier, resizer)
	sessionService := service.NewSessionService(tokenRepo, userRepo,
		token.NewJWT(options.JWTSecret, time.Duration(options.TokenTTL)))
	taskService := service.NewTaskService(taskRepo)

	routerCfg := http.RouterConfig{
		Users: &http.UserHandler{Users: userService, Sessions: sessionService, Log: zapLogger},
		Avatars: &http.AvatarHandler{
			Users:      userService,
			MaxBytes:   options.Avatar.MaxBytes,
			Extensions: options.Avatar.Extensions,
			Log:        zapLogger,
		},
		Tasks:   &http.TaskHandler{Tasks: taskService, Log: zapLogger},
		Auth:    middleware.BearerAuth(sessionService, zapLogger),
		Version: cmp.Or(version, "N/A"),
		Logger:  zapLogger,
	}
	if options.Limit.Enabled {
		limiter := middleware.NewRateLimiter(options.Limit.RPS, options.Limit.Burst)
		limiter.StartSweeper(ctx, time.Minute)
		routerCfg.Limiter = limiter.Handler
	}

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           http.NewRouter(routerCfg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		if options.TLSEnabled() {
			server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Address))
			errCh <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}

	// Let in-flight notifications finish before the process exits.
	notifier.Wait()
}

// newSender returns an SMTP mailer, or a logging-only sender when no mail
// host is configured.
func newSender(cfg config.Mail, log *zap.Logger) notify.Sender {
	if cfg.Host == "" {
		return notify.LogSender{Log: log}
	}
	mailer, err := notify.NewMailer(notify.MailerConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.APIKey,
		From:     cfg.From,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		log.Fatal("cannot init mailer", zap.Error(err))
	}
	return mailer
}
