// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// ChainQuest CMS server: the JSON API backing the landing page and the
// admin panel.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"chainquest-cms/internal/cache"
	"chainquest-cms/internal/config"
	"chainquest-cms/internal/geoip"
	"chainquest-cms/internal/handler"
	"chainquest-cms/internal/logging"
	"chainquest-cms/internal/middleware"
	"chainquest-cms/internal/model"
	"chainquest-cms/internal/rbac"
	"chainquest-cms/internal/scheduler"
	"chainquest-cms/internal/service"
	"chainquest-cms/internal/session"
	"chainquest-cms/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments use environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	db, sessionsDB, err := openDatabases(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if sessionsDB != db {
		defer sessionsDB.Close()
	}

	// Mirror WARN+ records into the events table now that the schema exists.
	logger = slog.New(logging.NewEventLogHandler(logger.Handler(), db))
	slog.SetDefault(logger)

	if cfg.DoSeed {
		if err := store.Seed(context.Background(), db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	contentCache, err := cache.New(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
	if err != nil {
		return fmt.Errorf("creating cache: %w", err)
	}
	defer contentCache.Close()

	var geo *geoip.Resolver
	if cfg.GeoIPEnabled() {
		geo, err = geoip.Open(cfg.GeoIPDBPath)
		if err != nil {
			logger.Warn("geoip disabled", "error", err)
		} else {
			defer geo.Close()
		}
	}

	sm := session.New(sessionsDB, cfg.IsDevelopment())

	events := service.NewEventService(db)
	notifications := service.NewNotificationService(db)

	protection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer protection.Stop()

	sched := scheduler.New(db, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	router := newRouter(cfg, db, sm, events, notifications, protection, geo, contentCache)

	srv := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      sm.LoadAndSave(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// openDatabases opens the application database per the configured driver
// and a SQLite database for scs sessions. Sessions stay node-local even
// when application data lives in MySQL.
func openDatabases(cfg *config.Config) (db, sessionsDB *sql.DB, err error) {
	switch cfg.DBDriver {
	case "mysql":
		db, err = store.NewMySQLDB(cfg.DBDSN, store.DefaultDBConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("opening mysql database: %w", err)
		}
		if err = store.Migrate(db, "mysql"); err != nil {
			return nil, nil, fmt.Errorf("migrating mysql database: %w", err)
		}

		sessionsDB, err = store.NewDB(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sessions database: %w", err)
		}
		if err = store.Migrate(sessionsDB, "sqlite"); err != nil {
			return nil, nil, fmt.Errorf("migrating sessions database: %w", err)
		}
		return db, sessionsDB, nil

	default:
		db, err = store.NewDB(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		if err = store.Migrate(db, "sqlite"); err != nil {
			return nil, nil, fmt.Errorf("migrating database: %w", err)
		}
		return db, db, nil
	}
}

func newRouter(
	cfg *config.Config,
	db *sql.DB,
	sm *scs.SessionManager,
	events *service.EventService,
	notifications *service.NotificationService,
	protection *middleware.LoginProtection,
	geo *geoip.Resolver,
	contentCache cache.Cache,
) http.Handler {
	authH := handler.NewAuthHandler(db, sm, events, protection, geo)
	userH := handler.NewUserHandler(db, events)
	roleH := handler.NewRoleHandler(db, events)
	contentH := handler.NewContentHandler(db, events, contentCache)
	apiKeyH := handler.NewAPIKeyHandler(db, events)
	notifH := handler.NewNotificationHandler(notifications)
	themeH := handler.NewThemeHandler(db, events)
	mediaH := handler.NewMediaHandler(cfg.UploadsDir, events)
	eventH := handler.NewEventHandler(db)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(slog.Default()))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.RequestPath)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Public landing page content and theme.
	r.Get("/api/content", contentH.PublicList)
	r.Get("/api/content/{type}", contentH.PublicGet)
	r.Get("/api/theme", themeH.PublicActive)

	// Bearer-authenticated content API for external consumers.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAPIKey(db, model.APIPermContentRead))
		r.Get("/api/v1/content", contentH.PublicList)
		r.Get("/api/v1/content/{type}", contentH.PublicGet)
	})

	// Uploaded media.
	r.Handle("/media/*", http.StripPrefix("/media/",
		http.FileServer(http.Dir(cfg.UploadsDir))))

	// Session-cookie surface. Mutations are CSRF-protected; the login
	// endpoint is additionally rate-limited inside the handler.
	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF(nil))
		r.Use(middleware.LoadUser(sm, db, cfg.TrustIdentityHeader))

		r.Post("/auth/login", authH.Login)
		r.Post("/auth/logout", authH.Logout)
		r.Get("/api/auth/me", authH.Me)

		// Admin panel API: panel.access first, then fine-grained checks.
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(middleware.RequirePanelAccess(events))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermUsersView))
				r.Get("/users", userH.List)
				r.Get("/users/{id}", userH.Get)
			})
			r.With(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermUsersCreate)).
				Post("/users", userH.Create)
			r.With(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermUsersEdit)).
				Put("/users/{id}", userH.Update)
			r.With(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermUsersDelete)).
				Delete("/users/{id}", userH.Delete)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermRolesView))
				r.Get("/roles", roleH.List)
				r.Get("/roles/{id}", roleH.Get)
				r.Get("/permissions", roleH.Permissions)
			})
			r.With(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermRolesCreate)).
				Post("/roles", roleH.Create)
			r.With(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermRolesEdit)).
				Put("/roles/{id}", roleH.Update)
			r.With(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermRolesDelete)).
				Delete("/roles/{id}", roleH.Delete)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermContentView))
				r.Get("/content", contentH.AdminList)
				r.Get("/content/{type}", contentH.AdminGet)
			})
			r.With(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermContentEdit)).
				Put("/content/{type}", contentH.Update)

			r.With(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermAPIKeysView)).
				Get("/api-keys", apiKeyH.List)
			r.With(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermAPIKeysCreate)).
				Post("/api-keys", apiKeyH.Create)
			r.With(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermAPIKeysEdit)).
				Put("/api-keys/{id}/active", apiKeyH.SetActive)
			r.With(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermAPIKeysDelete)).
				Delete("/api-keys/{id}", apiKeyH.Delete)

			// Notifications are personal; panel access suffices.
			r.Get("/notifications", notifH.List)
			r.Get("/notifications/unread-count", notifH.UnreadCount)
			r.Put("/notifications/{id}/read", notifH.MarkRead)
			r.Put("/notifications/read-all", notifH.MarkAllRead)
			r.With(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermSettingsEdit)).
				Post("/notifications", notifH.Create)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermSettingsView))
				r.Get("/themes", themeH.List)
				r.Get("/events", eventH.List)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermSettingsEdit))
				r.Post("/themes", themeH.Create)
				r.Put("/themes/{id}", themeH.Update)
				r.Put("/themes/{id}/activate", themeH.Activate)
				r.Delete("/themes/{id}", themeH.Delete)
			})

			r.With(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermMediaView)).
				Get("/media", mediaH.List)
			r.With(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermMediaUpload)).
				Post("/media", mediaH.Upload)
			r.With(middleware.RequirePermission(middleware.RequireAll, events, rbac.PermMediaDelete)).
				Delete("/media", mediaH.Delete)
		})
	})

	return r
}
