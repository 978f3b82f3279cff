package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vcubone/library-boot/internal/auth"
	"github.com/vcubone/library-boot/internal/db/bunx"
	"github.com/vcubone/library-boot/internal/repository"
	"github.com/vcubone/library-boot/internal/server"
	"github.com/vcubone/library-boot/internal/services/books"
	"github.com/vcubone/library-boot/internal/services/iam"
	"github.com/vcubone/library-boot/internal/services/people"
	"github.com/vcubone/library-boot/internal/telemetry"
)

var secureCookies bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the library server",
	Long:  `Starts the HTTP server with the bearer-token API under /api and the session-based web surface.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateServe(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		shutdownTelemetry, err := telemetry.Init(cmd.Context(), cfg.Observability)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(ctx); err != nil {
				log.Printf("WARNING: telemetry shutdown: %v", err)
			}
		}()

		serverMetrics, err := telemetry.NewServerMetrics()
		if err != nil {
			return fmt.Errorf("create server metrics: %w", err)
		}
		dbMetrics, err := telemetry.NewDatabaseMetrics()
		if err != nil {
			return fmt.Errorf("create database metrics: %w", err)
		}
		authMetrics, err := telemetry.NewAuthMetrics()
		if err != nil {
			return fmt.Errorf("create auth metrics: %w", err)
		}
		sessionMetrics, err := telemetry.NewSessionMetrics()
		if err != nil {
			return fmt.Errorf("create session metrics: %w", err)
		}

		// Connect to database
		db, err := openDB()
		if err != nil {
			return err
		}
		defer bunx.Close(db)
		db.AddQueryHook(telemetry.NewQueryHook(dbMetrics))

		log.Printf("Connected to database")

		// Initialize repositories
		personRepo := repository.NewBunPersonRepository(db)
		roleRepo := repository.NewBunRoleRepository(db)
		bookRepo := repository.NewBunBookRepository(db)

		hasher := auth.NewBcryptHasher(cfg.BcryptCost)
		codec, err := auth.NewTokenCodec([]byte(cfg.JWTSecret))
		if err != nil {
			return fmt.Errorf("create token codec: %w", err)
		}

		resolver := iam.NewIdentityResolver(personRepo, codec, hasher)
		registry := iam.NewSessionRegistry(iam.SessionRegistryConfig{
			MaxPerIdentity: cfg.Session.MaxPerIdentity,
			TTL:            cfg.Session.TTL,
		})
		defer registry.Close()
		invalidation := iam.NewInvalidationService(registry, sessionMetrics)

		var versions *iam.VersionCache
		if cfg.VersionCache.TTL > 0 {
			versions = iam.NewVersionCache(cfg.VersionCache.Size, cfg.VersionCache.TTL, resolver.CurrentVersion)
			log.Printf("Identity version cache enabled (size=%d, ttl=%s)", cfg.VersionCache.Size, cfg.VersionCache.TTL)
		}

		// Initialize services
		peopleSvc := people.NewService(personRepo, roleRepo, hasher).
			WithBookRepository(bookRepo).
			WithInvalidation(invalidation).
			WithVersionCache(versions)
		bookSvc := books.NewService(bookRepo, personRepo)

		healthHandler := func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":   "ok",
				"sessions": registry.Count(),
			})
		}

		handler := server.NewH2CHandler(server.RouterOptions{
			People:         peopleSvc,
			Books:          bookSvc,
			Resolver:       resolver,
			Codec:          codec,
			Registry:       registry,
			Versions:       versions,
			Web:            cfg.Web,
			CookieName:     cfg.Session.CookieName,
			SecureCookies:  secureCookies,
			AuthMetrics:    authMetrics,
			ServerMetrics:  serverMetrics,
			SessionMetrics: sessionMetrics,
			HealthHandler:  healthHandler,
		})

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Background sweep of expired and idle sessions
		sweepCtx, cancelSweep := context.WithCancel(cmd.Context())
		defer cancelSweep()
		go sweepSessions(sweepCtx, registry, cfg.Session.SweepInterval)

		// Start server in goroutine
		serverErrors := make(chan error, 1)
		go func() {
			log.Printf("Starting server on %s", cfg.ServerAddr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// SIGHUP forces an immediate session sweep
		sweepNow := make(chan os.Signal, 1)
		signal.Notify(sweepNow, syscall.SIGHUP)

		for {
			select {
			case err := <-serverErrors:
				return fmt.Errorf("server error: %w", err)

			case sig := <-sweepNow:
				n := registry.Sweep()
				log.Printf("Received signal %v, swept %d session(s), %d live", sig, n, registry.Count())

			case sig := <-shutdown:
				log.Printf("Received signal %v, shutting down gracefully", sig)

				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := srv.Shutdown(ctx); err != nil {
					srv.Close()
					return fmt.Errorf("graceful shutdown failed: %w", err)
				}

				log.Printf("Server stopped")
				return nil
			}
		}
	},
}

// sweepSessions drops dead sessions every interval until ctx is done.
// A non-positive interval disables the sweeper; Lookup still expires
// sessions lazily.
func sweepSessions(ctx context.Context, registry *iam.SessionRegistry, interval time.Duration) {
	if interval <= 0 {
		log.Printf("Session sweeper disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := registry.Sweep(); n > 0 {
				log.Printf("Swept %d expired session(s), %d live", n, registry.Count())
			}
		case <-ctx.Done():
			log.Printf("Stopping session sweeper")
			return
		}
	}
}

func init() {
	serveCmd.Flags().BoolVar(&secureCookies, "secure-cookies", false, "Mark the session cookie Secure (serve behind TLS)")
	rootCmd.AddCommand(serveCmd)
}
