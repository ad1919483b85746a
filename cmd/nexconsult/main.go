package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nexconsult/internal/cnpj"
	"nexconsult/internal/config"
	"nexconsult/internal/database"
	"nexconsult/internal/handlers"
	"nexconsult/internal/links"
	"nexconsult/internal/logger"
	"nexconsult/internal/mailer"
	custommiddleware "nexconsult/internal/middleware"
	"nexconsult/internal/scoring"
	"nexconsult/internal/version"
	"nexconsult/web/static"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Command line flags
	port := flag.String("port", "", "Port to bind to (overrides PORT env var)")
	ip := flag.String("ip", "", "IP address to bind to (overrides IP env var)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Set environment variables from flags
	if *port != "" {
		os.Setenv("PORT", *port)
	}
	if *ip != "" {
		os.Setenv("IP", *ip)
	}
	if *debug {
		os.Setenv("DEBUG", "true")
	}

	cfg := config.Load()

	// Initialize logger
	logger.WithDebug(cfg.Debug)

	logger.Info("Starting NexConsult", "version", version.GetVersion(), "user_agent", version.UserAgent())

	// Initialize database
	db, err := database.InitDB()
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Core services
	resolver := cnpj.NewResolver(cnpj.ResolverConfig{
		Timeout: time.Duration(cfg.LookupTimeoutSec) * time.Second,
	})
	engine := scoring.NewEngine()
	registry := links.NewRegistry(links.RegistryConfig{})
	mail := mailer.New(cfg)

	// Periodic sweep of expired/exhausted links
	stopSweeper := registry.StartSweeper(time.Duration(cfg.SweepIntervalMin) * time.Minute)
	defer stopSweeper()

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Initialize handlers
	consultHandler := handlers.NewConsultHandler(db, cfg, resolver, engine, registry, mail)
	downloadHandler := handlers.NewDownloadHandler(registry)
	webHandler := handlers.NewWebHandler()

	// Static files (embedded)
	staticFS := http.FS(static.FS())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(staticFS)))

	// Web routes
	r.Get("/", webHandler.LandingPage)
	r.Get("/download/{id}", downloadHandler.Download)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// API routes with CORS
	r.Route("/api", func(r chi.Router) {
		r.Use(custommiddleware.CORS([]string{"*"}))
		r.Use(custommiddleware.Timeout(45 * time.Second))

		r.Post("/consultar", consultHandler.Consult)
		r.Get("/link/{id}", downloadHandler.LinkStatus)
		r.Get("/health", webHandler.Health)

		r.Route("/admin", func(r chi.Router) {
			r.Use(custommiddleware.AdminKey(cfg.AdminAPIKey))
			r.Get("/consultas", consultHandler.RecentConsultations)
		})
	})

	// Create server
	addr := cfg.BindIP + ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Gracefully shutdown with a timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("Server gracefully stopped")
}
