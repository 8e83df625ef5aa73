// Package app wires the sandbox backend: storage, services, handlers and
// the HTTP server.
package app

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

	"freightdesk/internal/config"
	"freightdesk/internal/database"
	"freightdesk/internal/handler"
	"freightdesk/internal/middleware"
	"freightdesk/internal/repository"
	"freightdesk/internal/router"
	"freightdesk/internal/service"
	"freightdesk/internal/storage"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	var (
		store   repository.Store
		health  func(context.Context) error
		cleanup []func()
	)

	if cfg.DatabaseURL != "" {
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(ctx, cfg.DatabaseURL, int32(cfg.DBMaxConns))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}

		store = repository.NewPostgresStore(db.Pool)
		health = db.Health
		cleanup = append(cleanup, db.Close)
		slog.Info("database ready")
	} else {
		slog.Warn("DATABASE_URL not set, records are kept in memory")
		store = repository.NewMemoryStore()
	}

	closeAll := func() {
		for _, fn := range cleanup {
			fn()
		}
	}

	documentStore, err := storage.New(cfg.DocumentRoot)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to initialize document storage: %w", err)
	}

	recordService := service.NewRecordService(store, cfg.MaxPageSize)
	documentService := service.NewDocumentService(documentStore, recordService, cfg.MaxUploadSize)
	authService, err := service.NewAuthService(store, recordService, cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	if cfg.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to seed admin account: %w", err)
		}
		slog.Info("admin account ready", "email", cfg.AdminEmail)
	}

	handlers := router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Records: handler.NewRecordHandler(recordService, documentService),
		Loads:   handler.NewLoadHandler(recordService, documentService, cfg.MaxUploadSize),
		Health:  health,
	}

	if cfg.AuditLogFile != "" {
		auditService, err := service.NewAuditService(cfg.AuditLogFile)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to initialize audit log: %w", err)
		}
		handlers.Audit = handler.NewAuditHandler(auditService, cfg.MaxPageSize)
		handlers.AuditLog = auditService
		slog.Info("audit log ready", "path", cfg.AuditLogFile)
	}

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(authService), handlers)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{server: server, cleanupFuncs: cleanup}, nil
}

// Handler exposes the routed handler, mainly for in-process tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("sandbox starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serveErr:
		if err != nil {
			a.cleanup()
			return fmt.Errorf("server failed: %w", err)
		}
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	a.cleanup()
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("sandbox stopped")
	return nil
}

func (a *App) cleanup() {
	for _, fn := range a.cleanupFuncs {
		fn()
	}
}
