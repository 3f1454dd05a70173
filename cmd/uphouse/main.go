// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package main is the entry point for the uphouse site server.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/cache"
	"github.com/olegiv/uphouse/internal/config"
	"github.com/olegiv/uphouse/internal/content"
	"github.com/olegiv/uphouse/internal/handler"
	"github.com/olegiv/uphouse/internal/listing"
	"github.com/olegiv/uphouse/internal/logging"
	"github.com/olegiv/uphouse/internal/media"
	"github.com/olegiv/uphouse/internal/middleware"
	"github.com/olegiv/uphouse/internal/model"
	"github.com/olegiv/uphouse/internal/render"
	"github.com/olegiv/uphouse/internal/scheduler"
	"github.com/olegiv/uphouse/internal/session"
	"github.com/olegiv/uphouse/internal/store"
	"github.com/olegiv/uphouse/internal/supabase"
	"github.com/olegiv/uphouse/internal/version"
	"github.com/olegiv/uphouse/web"
)

const (
	// eventRetention is how long audit events are kept.
	eventRetention = 30 * 24 * time.Hour
	jobTimeout     = 5 * time.Minute

	// Contact form: one message every five seconds per IP, bursts of three.
	contactRPS   = 0.2
	contactBurst = 3
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "uphouse - property developer site and content console\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UPHOUSE_SESSION_SECRET      Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UPHOUSE_BACKEND             auto|supabase|local (default: auto)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UPHOUSE_SUPABASE_URL        Hosted backend project URL\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UPHOUSE_SUPABASE_ANON_KEY   Hosted backend public key\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UPHOUSE_DB_PATH             SQLite database path (default: ./data/uphouse.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UPHOUSE_SERVER_PORT         Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UPHOUSE_ENV                 development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UPHOUSE_MEDIA_HOST          cloudinary|s3 (default: cloudinary)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UPHOUSE_REDIS_URL           Redis URL for the shared read cache (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Println(version.Get().String())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// The local database always exists: it holds sessions and the audit
	// log, and doubles as the data store for the local backend.
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Upgrade logger to also write WARN and ERROR logs to the event log
	eventLog := store.NewEventLog(db)
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, eventLog))
	slog.SetDefault(logger)

	ctx := context.Background()

	b, err := newBackend(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	logger.Info("data backend selected", "mode", b.Mode())

	cacher, cacheBackend := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTLDuration(),
		MaxSize:    10000,
	}, logger)
	defer func() { _ = cacher.Close() }()
	ttl := cfg.CacheTTLDuration()

	gw := media.New(ctx, cfg, logger)
	_, noMedia := gw.(media.Unconfigured)

	pages := handler.Pages{
		Home:     content.NewRepository[model.HomePage](b, model.PageHome, cacher, ttl, logger),
		About:    content.NewRepository[model.AboutPage](b, model.PageAbout, cacher, ttl, logger),
		Contact:  content.NewRepository[model.ContactPage](b, model.PageContact, cacher, ttl, logger),
		Projects: content.NewRepository[model.ProjectsPage](b, model.PageProjects, cacher, ttl, logger),
	}
	projects := listing.NewProjects(b, gw, cacher, ttl, logger)
	leads := listing.NewLeads(b)

	sessionManager := session.NewManager(db, cfg.IsDevelopment())
	resetRedirect := cfg.PasswordResetRedirect
	if resetRedirect == "" && cfg.SiteURL != "" {
		resetRedirect = cfg.SiteURL + handler.RouteLogin
	}
	sessions := session.NewStore(sessionManager, b, cacher, session.Options{
		ResolveBudget: cfg.SessionResolveBudget,
		ResetRedirect: resetRedirect,
	}, logger)
	sessions.Init(session.AuditListener(eventLog, logger))
	defer sessions.Teardown()

	renderer, err := render.New(render.Config{
		TemplatesFS:    web.TemplatesFS(),
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	r := handler.NewRouter(handler.Deps{
		Backend:         b,
		DB:              db,
		SessionManager:  sessionManager,
		Sessions:        sessions,
		Renderer:        renderer,
		StaticFS:        web.StaticFS(),
		Pages:           pages,
		Projects:        projects,
		Leads:           leads,
		Events:          eventLog,
		Media:           gw,
		MediaReady:      !noMedia,
		MediaMaxWidth:   cfg.MediaMaxWidth,
		CacheBackend:    cacheBackend,
		LoginProtection: loginProtection,
		ContactThrottle: middleware.NewThrottle(contactRPS, contactBurst),
		IsDev:           cfg.IsDevelopment(),
		CSRFKey:         []byte(cfg.SessionSecret),
		ServerAddr:      cfg.ServerAddr(),
		Logger:          logger,

		SiteURL:          cfg.SiteURL,
		DisallowCrawlers: cfg.IsDevelopment(),
	})

	sched := scheduler.New(jobTimeout, logger)
	if err := scheduleMaintenance(sched, eventLog, loginProtection, logger); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // uploads
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Get().Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// newBackend builds the data backend selected by the configuration.
func newBackend(ctx context.Context, cfg *config.Config, db *sql.DB, logger *slog.Logger) (backend.Backend, error) {
	switch cfg.BackendMode() {
	case config.BackendSupabase:
		return supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey), nil
	case config.BackendLocal:
		local := store.NewLocal(db)
		created, err := local.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
		if err != nil {
			return nil, err
		}
		if created {
			logger.Info("seeded admin account", "email", cfg.AdminEmail)
		}
		return local, nil
	default:
		logger.Warn("no data backend configured, serving sample content")
		return backend.Unconfigured{}, nil
	}
}

// scheduleMaintenance registers the periodic cleanup jobs.
func scheduleMaintenance(s *scheduler.Scheduler, events *store.EventLog, lp *middleware.LoginProtection, logger *slog.Logger) error {
	if err := s.Add("prune-events", "@hourly", func(ctx context.Context) error {
		n, err := events.DeleteBefore(ctx, time.Now().Add(-eventRetention))
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("pruned event log", "deleted", n)
		}
		return nil
	}); err != nil {
		return err
	}

	return s.Add("login-limiter-cleanup", "*/15 * * * *", func(context.Context) error {
		lp.Cleanup()
		return nil
	})
}
