package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ms-booking/internal/auth"
	"ms-booking/internal/booking"
	"ms-booking/internal/booking/booking_api"
	bookingdb "ms-booking/internal/booking/db"
	bookingredis "ms-booking/internal/booking/redis"
	"ms-booking/internal/config"
	"ms-booking/internal/dashboard"
	dashboard_api "ms-booking/internal/dashboard/api"
	"ms-booking/internal/database/migrations"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/payment"
	"ms-booking/internal/payment/payment_api"
	"ms-booking/internal/settings"
	"ms-booking/internal/settings/settings_api"
	"ms-booking/internal/tickets"
	"ms-booking/internal/tickets/ticket_api"
	"ms-booking/internal/venue"
	"ms-booking/internal/venue/venue_api"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func verifyConnections(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.PingContext(ctx)
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	logger.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	logger.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s (DB: %d)", cfg.Redis.Addr, cfg.Redis.DB))

	return bunDB, redisClient
}

func newPublisher(ctx context.Context, cfg config.KafkaConfig, logger *logger.Logger) (booking.EventPublisher, func()) {
	if !cfg.Enabled {
		logger.Info("KAFKA", "Kafka disabled, booking events will not be published")
		return kafka.NoopPublisher{Logger: logger}, func() {}
	}

	if err := kafka.EnsureTopicsExist(ctx, cfg.Brokers, cfg.Topics.All(), logger); err != nil {
		logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}
	producer := kafka.NewProducer(cfg.Brokers, cfg.Topics, logger)
	logger.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for %v", cfg.Brokers))

	return producer, func() {
		if err := producer.Close(); err != nil {
			logger.Error("KAFKA", fmt.Sprintf("Failed to close producer: %v", err))
		}
	}
}

// sweepExpired catches holds whose expiry notification was missed.
func sweepExpired(ctx context.Context, svc *booking.Service, ttl time.Duration, logger *logger.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.SweepExpired(ctx, ttl)
			if err != nil {
				logger.Error("BOOKING", fmt.Sprintf("Expired hold sweep failed: %v", err))
				continue
			}
			if n > 0 {
				logger.Info("BOOKING", fmt.Sprintf("Sweep cancelled %d expired bookings", n))
			}
		}
	}
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Booking Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	defer redisClient.Close()

	migrationOpts := migrations.DefaultOptions()
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		migrationOpts.Dir = dir
	}
	if os.Getenv("AUTO_MIGRATE") == "false" {
		migrationOpts.AutoMigrate = false
	}
	if migrationOpts.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrationOpts, logger)
		if err := runner.Up(); err != nil {
			logger.Fatal("MIGRATE", err.Error())
		}
		runner.Close()
	}

	publisher, closePublisher := newPublisher(ctx, cfg.Kafka, logger)
	defer closePublisher()

	holds := bookingredis.NewHolds(redisClient, cfg.Booking.SeatHoldTTL, logger)
	venues := venue.NewDB(bunDB)

	bookingService := booking.NewService(
		bookingdb.New(bunDB),
		venues,
		holds,
		publisher,
		cfg.Booking.CancelStrategy,
		logger,
	)
	venueService := venue.NewService(venues, holds, cfg.Booking.DefaultVenueID, logger)
	paymentService := payment.NewService(bookingService, cfg.Payment, logger)
	dashboardService := dashboard.NewService(dashboard.NewDB(bunDB), logger)
	ticketService := tickets.NewService(tickets.NewDB(bunDB), tickets.NewCodec(cfg.Tickets.QRSecretKey), logger)

	verifier, err := auth.NewVerifier(ctx, cfg.Auth)
	if err != nil {
		logger.Fatal("AUTH", fmt.Sprintf("Failed to set up admin auth: %v", err))
	}
	if cfg.Auth.AdminJWTSecret == "" && cfg.Auth.OIDCIssuer == "" {
		logger.Warn("AUTH", "Neither ADMIN_JWT_SECRET nor OIDC_ISSUER set, admin routes will refuse every request")
	}
	adminOnly := auth.AdminOnly(verifier, logger)

	logger.Info("HTTP", "Setting up router and middleware")
	router := newRouter(cfg.Server, handlers{
		Booking:   booking_api.NewHandler(bookingService, logger),
		Venue:     venue_api.NewHandler(venueService, logger),
		Payment:   payment_api.NewHandler(paymentService, logger),
		Settings:  settings_api.NewHandler(settings.NewReader(cfg.Settings.File), logger),
		Dashboard: dashboard_api.NewHandler(dashboardService, logger),
		Tickets:   ticket_api.NewHandler(ticketService, logger),
	}, adminOnly, logger)

	expiry := bookingredis.NewExpiryListener(redisClient, bookingService.HandleHoldExpired, logger)
	expiry.EnableNotifications(ctx)
	go func() {
		if err := expiry.Run(ctx); err != nil {
			logger.Error("REDIS", fmt.Sprintf("Expiry listener stopped: %v", err))
		}
	}()
	go sweepExpired(ctx, bookingService, cfg.Booking.SeatHoldTTL, logger)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("Booking Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-ctx.Done()

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "Booking Service shutdown complete")
	}
}
