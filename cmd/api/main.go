package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kmercado/casaway/internal/background"
	"github.com/kmercado/casaway/internal/cache"
	"github.com/kmercado/casaway/internal/config"
	"github.com/kmercado/casaway/internal/database"
	"github.com/kmercado/casaway/internal/handlers"
	"github.com/kmercado/casaway/internal/metrics"
	middlewareCustom "github.com/kmercado/casaway/internal/middleware"
	"github.com/kmercado/casaway/internal/repositories"
	"github.com/kmercado/casaway/internal/routes"
	"github.com/kmercado/casaway/internal/services"
	"github.com/kmercado/casaway/internal/throttle"
	pkghttp "github.com/kmercado/casaway/pkg/http"
	pkglogger "github.com/kmercado/casaway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Run migrations before opening the pool
	if err := database.Migrate(cfg.Database.DSN(), logger); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Throttle store: Redis when configured, in-process memory otherwise.
	// A single-instance deployment works fine on the memory store; Redis is
	// required once multiple replicas share the login counters.
	var throttleStore throttle.Store
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(&cfg.Redis, logger)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()
		throttleStore = throttle.NewRedisStore(redisClient)
	} else {
		logger.Warn("redis not configured, using in-process throttle store")
		throttleStore = throttle.NewMemoryStore()
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)
	attemptRepo := repositories.NewLoginAttemptRepository(db)
	roomRepo := repositories.NewRoomRepository(db)
	availabilityRepo := repositories.NewAvailabilityRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)

	// Login and registration throttles
	loginLimiter := throttle.NewLoginLimiter(throttleStore, throttle.LoginPolicy{
		MaxAttempts:     cfg.Auth.MaxLoginAttempts,
		DecayWindow:     cfg.Auth.LoginDecayWindow,
		LockoutDuration: cfg.Auth.LockoutDuration,
	})
	registerLimiter := throttle.NewRegistrationLimiter(throttleStore, throttle.RegistrationPolicy{
		MaxAttempts: cfg.Auth.MaxRegisterAttempts,
		Window:      cfg.Auth.RegisterWindow,
	})

	auditLogger := pkglogger.NewAuditLogger(logger)

	// AWS SES email service; disabled deployments send nothing
	var mailer services.Mailer
	if cfg.Email.Enabled {
		sesMailer, err := services.NewAWSSESMailer(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		mailer = sesMailer
	}

	// Initialize services
	authService := services.NewAuthService(
		userRepo, tokenRepo, attemptRepo,
		loginLimiter, registerLimiter,
		mailer, cfg.Auth, logger, auditLogger,
	)
	availabilityService := services.NewAvailabilityService(roomRepo, availabilityRepo, bookingRepo, logger)
	bookingService := services.NewBookingService(bookingRepo, roomRepo, availabilityRepo, paymentRepo, reviewRepo, mailer, logger, auditLogger)
	catalogService := services.NewCatalogService(roomRepo, availabilityRepo, reviewRepo, logger)
	adminService := services.NewAdminService(attemptRepo, logger)

	appMetrics := metrics.New()

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	authHandler.SetMetrics(appMetrics)
	roomsHandler := handlers.NewRoomsHandler(catalogService, availabilityService)
	bookingsHandler := handlers.NewBookingsHandler(bookingService)
	bookingsHandler.SetMetrics(appMetrics)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Background pruning of expired tokens and aged login attempts
	cleanup := background.NewCleanup(tokenRepo, attemptRepo, appMetrics, logger,
		cfg.Auth.CleanupInterval, cfg.Auth.AttemptRetention)
	cleanup.Start()
	defer cleanup.Stop()

	// Setup router
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, appMetrics))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, routes.Handlers{
		Auth:           authHandler,
		Rooms:          roomsHandler,
		Bookings:       bookingsHandler,
		Admin:          adminHandler,
		Authenticator:  authService,
		MetricsHandler: appMetrics.Handler(),
		HealthCheck:    healthHandler(db),
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped")
}

func healthHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	}
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
