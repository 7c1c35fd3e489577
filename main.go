package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/qmsoft/dmt-tracker/auth"
	"github.com/qmsoft/dmt-tracker/config"
	"github.com/qmsoft/dmt-tracker/controllers"
	"github.com/qmsoft/dmt-tracker/database"
	authmiddleware "github.com/qmsoft/dmt-tracker/middleware"
	"github.com/qmsoft/dmt-tracker/models"
	"github.com/qmsoft/dmt-tracker/repositories"
	"github.com/qmsoft/dmt-tracker/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := repositories.NewRepositories(db)
	sessions := auth.NewSessionStore(cfg.SessionTTL)
	hasher := auth.NewBcryptHasher()
	srvs := services.NewServices(repos, sessions, hasher, logger)

	// A fresh database gets a default admin so the system is reachable.
	if err := srvs.Auth.SeedAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Error("failed to seed admin user", "error", err)
		os.Exit(1)
	}

	ctrl := controllers.NewControllers(srvs)
	r := setupRouter(ctrl, sessions)

	logger.Info("QMS server starting", "port", cfg.Port, "database", cfg.DatabasePath)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// setupRouter configures all routes
func setupRouter(ctrl *controllers.Controllers, sessions *auth.SessionStore) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(chimiddleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "dmt-tracker"}`))
	})

	r.Route("/api", func(r chi.Router) {
		// PUBLIC ROUTES (no authentication required)
		r.Post("/auth/login", ctrl.Auth.Login)
		r.Post("/auth/logout", ctrl.Auth.Logout)
		r.Get("/auth/me", ctrl.Auth.Me)

		// PROTECTED ROUTES (authentication required)
		r.Group(func(r chi.Router) {
			r.Use(authmiddleware.RequireAuth(sessions))

			// User management is admin-only.
			r.Route("/users", func(r chi.Router) {
				r.Use(authmiddleware.RequireRole(models.RoleAdmin))
				r.Get("/", ctrl.User.List)
				r.Post("/", ctrl.User.Create)
				r.Get("/{id}", ctrl.User.Get)
				r.Put("/{id}", ctrl.User.Update)
				r.Delete("/{id}", ctrl.User.Delete)
				r.Post("/{id}/activate", ctrl.User.Activate)
				r.Post("/{id}/deactivate", ctrl.User.Deactivate)
			})

			r.Route("/dmt", func(r chi.Router) {
				r.Get("/", ctrl.DMT.List)
				r.Post("/", ctrl.DMT.Create)
				r.Get("/export/{format}", ctrl.DMT.Export)
				r.Get("/{id}", ctrl.DMT.Get)
				r.Put("/{id}", ctrl.DMT.Update)
				r.Delete("/{id}", ctrl.DMT.Delete)
				r.Post("/{id}/close", ctrl.DMT.Close)
				r.Post("/{id}/reopen", ctrl.DMT.Reopen)
				r.Post("/{id}/advance-workflow", ctrl.DMT.AdvanceWorkflow)
			})

			r.Route("/entities/{entity}", func(r chi.Router) {
				r.Get("/", ctrl.Entity.List)
				r.Post("/", ctrl.Entity.Create)
				r.Get("/export/{format}", ctrl.Entity.Export)
				r.Post("/import", ctrl.Entity.Import)
				r.Get("/{id}", ctrl.Entity.Get)
				r.Put("/{id}", ctrl.Entity.Update)
				r.Delete("/{id}", ctrl.Entity.Delete)
			})

			r.Get("/audit", ctrl.Audit.List)
			r.Get("/dashboard/stats", ctrl.Dashboard.Stats)
		})
	})

	return r
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
