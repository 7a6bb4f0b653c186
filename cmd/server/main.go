package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ringsaturn/tzf"

	"github.com/wayfarerhq/wayfarer/internal/config"
	"github.com/wayfarerhq/wayfarer/internal/database"
	"github.com/wayfarerhq/wayfarer/internal/handlers"
	"github.com/wayfarerhq/wayfarer/internal/logging"
	"github.com/wayfarerhq/wayfarer/internal/middleware"
	"github.com/wayfarerhq/wayfarer/internal/services"
	"github.com/wayfarerhq/wayfarer/internal/services/ai"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Server.Debug {
		logger.SetLevel(logging.LevelDebug)
		logging.SetDefaultLevel(logging.LevelDebug)
		logger.Debug("Debug logging enabled", map[string]interface{}{
			"env": cfg.Server.Environment,
		})
	}

	logger.Info("Starting Wayfarer server...")

	// Connect to PostgreSQL
	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Run migrations
	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	// Connect to Redis
	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	// Timezone lookup for trip destinations. The embedded dataset takes a
	// moment to decompress, so do it once up front.
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return fmt.Errorf("initializing timezone finder: %w", err)
	}

	// Initialize services
	dbAdapter := services.NewPoolAdapter(db.Pool)
	suggestStates := database.NewSuggestStateStore(redisDB.Client)

	userService := services.NewUserService(dbAdapter)
	authService := services.NewAuthService(dbAdapter, redisDB.Client)
	emailService := services.NewEmailService(&cfg.Email, dbAdapter)
	tripService := services.NewTripService(dbAdapter, finder)
	suggestionService := services.NewSuggestionService(
		dbAdapter,
		tripService,
		suggestStates,
		time.Duration(cfg.Suggest.CatalogTTLSeconds)*time.Second,
		cfg.Suggest.StaleThreshold,
	)
	exportService := services.NewExportService(tripService)
	assistant := ai.NewAssistant(&cfg.AI)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, redisDB)
	authHandler := handlers.NewAuthHandler(userService, authService, emailService, cfg.Server.Secure)
	tripHandler := handlers.NewTripHandler(tripService)
	suggestionHandler := handlers.NewSuggestionHandler(tripService, suggestionService)
	assistantHandler := handlers.NewAssistantHandler(tripService, suggestionService, assistant)
	exportHandler := handlers.NewExportHandler(exportService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)
	csrfMiddleware := middleware.NewCSRFMiddleware(cfg.Server.Secure)
	securityHeaders := middleware.NewSecurityHeaders(cfg.Server.Secure)
	cacheControl := middleware.NewCacheControl()
	compress := middleware.NewCompress()
	requestLogger := middleware.NewRequestLogger(logger)
	metrics := middleware.NewMetrics()

	authLimiter := middleware.NewAuthRateLimiter(redisDB.Client)
	apiLimiter := middleware.NewAPIRateLimiter(redisDB.Client)
	assistantLimiter := middleware.NewAssistantRateLimiter(redisDB.Client)

	requireAuth := func(h http.HandlerFunc) http.Handler {
		return apiLimiter.Limit(authMiddleware.RequireAuth(h))
	}
	requireAuthAssistant := func(h http.HandlerFunc) http.Handler {
		return assistantLimiter.LimitUser(authMiddleware.RequireAuth(h))
	}

	// Set up router
	mux := http.NewServeMux()

	// Health endpoints (no auth, no rate limit)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)
	mux.Handle("GET /metrics", metrics.Handler())

	// CSRF token endpoint
	mux.Handle("GET /api/csrf", http.HandlerFunc(csrfMiddleware.GetToken))

	// Auth endpoints
	mux.Handle("POST /api/auth/register", authLimiter.Limit(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/login", authLimiter.Limit(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/auth/logout", apiLimiter.Limit(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/auth/me", requireAuth(authHandler.Me))
	mux.Handle("POST /api/auth/password", requireAuth(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/verify-email", authLimiter.Limit(http.HandlerFunc(authHandler.VerifyEmail)))
	mux.Handle("POST /api/auth/resend-verification", authLimiter.Limit(authMiddleware.RequireAuth(http.HandlerFunc(authHandler.ResendVerification))))

	// Trip endpoints
	mux.Handle("POST /api/trips", requireAuth(tripHandler.Create))
	mux.Handle("GET /api/trips", requireAuth(tripHandler.List))
	mux.Handle("GET /api/trips/{id}", requireAuth(tripHandler.Get))
	mux.Handle("PUT /api/trips/{id}", requireAuth(tripHandler.Update))
	mux.Handle("DELETE /api/trips/{id}", requireAuth(tripHandler.Delete))

	// Itinerary endpoints
	mux.Handle("GET /api/trips/{id}/itinerary", requireAuth(tripHandler.Itinerary))
	mux.Handle("POST /api/trips/{id}/flights", requireAuth(tripHandler.AddFlight))
	mux.Handle("DELETE /api/trips/{id}/flights/{flightID}", requireAuth(tripHandler.DeleteFlight))
	mux.Handle("POST /api/trips/{id}/lodgings", requireAuth(tripHandler.AddLodging))
	mux.Handle("DELETE /api/trips/{id}/lodgings/{lodgingID}", requireAuth(tripHandler.DeleteLodging))
	mux.Handle("POST /api/trips/{id}/schedule", requireAuth(tripHandler.AddScheduleEntry))
	mux.Handle("DELETE /api/trips/{id}/schedule/{entryID}", requireAuth(tripHandler.DeleteScheduleEntry))
	mux.Handle("POST /api/trips/{id}/notes", requireAuth(tripHandler.AddNote))
	mux.Handle("DELETE /api/trips/{id}/notes/{noteID}", requireAuth(tripHandler.DeleteNote))
	mux.Handle("GET /api/trips/{id}/messages", requireAuth(tripHandler.Messages))

	// Suggestion endpoints
	mux.Handle("GET /api/trips/{id}/suggestions", requireAuth(suggestionHandler.List))
	mux.Handle("POST /api/trips/{id}/suggestions/dismiss", requireAuth(suggestionHandler.Dismiss))
	mux.Handle("POST /api/trips/{id}/logistics/{kind}", requireAuth(suggestionHandler.Logistics))

	// Assistant endpoints (per-user rate limit; calls out to the model provider)
	mux.Handle("POST /api/trips/{id}/assistant", requireAuthAssistant(assistantHandler.Chat))
	mux.Handle("POST /api/trips/{id}/regenerate", requireAuthAssistant(assistantHandler.Regenerate))

	// Export endpoints
	mux.Handle("GET /api/trips/{id}/export/ics", requireAuth(exportHandler.ICS))

	// Build middleware chain (order matters: outermost first)
	var handler http.Handler = mux
	handler = authMiddleware.Authenticate(handler)
	handler = csrfMiddleware.Protect(handler)
	handler = cacheControl.Apply(handler)
	handler = compress.Apply(handler)
	handler = securityHeaders.Apply(handler)
	handler = metrics.Apply(handler)
	handler = requestLogger.Apply(handler)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Assistant calls can legitimately take >15s; keep a higher write
		// timeout so clients get a JSON error instead of a dropped connection.
		WriteTimeout: 95 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}
