package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"

	"github.com/pkonarski/sklep-orders-service/internal/application"
	"github.com/pkonarski/sklep-orders-service/internal/config"
	"github.com/pkonarski/sklep-orders-service/internal/events"
	"github.com/pkonarski/sklep-orders-service/internal/logger"
	"github.com/pkonarski/sklep-orders-service/internal/migrate"
	"github.com/pkonarski/sklep-orders-service/internal/payments"
	"github.com/pkonarski/sklep-orders-service/internal/presentation"
	"github.com/pkonarski/sklep-orders-service/internal/repository"
)

func main() {
	logger.Init()
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Warn("config load failed", "err", err)
		os.Exit(1)
	}

	// Backup store is always on; the database is optional.
	backup := repository.NewFileStore(cfg.BACKUP_FILE)

	var dbStore repository.OrderStore
	if cfg.DATABASE_URL != "" {
		pool, err := connectDB(context.Background(), cfg.DATABASE_URL)
		if err != nil {
			logger.Warn("db connect failed, continuing on backup store only", "err", err)
		} else {
			defer pool.Close()
			if err := migrate.Up(cfg.DATABASE_URL); err != nil {
				logger.Warn("migrations failed", "err", err)
			}
			dbStore = repository.NewPostgresStore(pool)
			logger.Info("db connected")
		}
	} else {
		logger.Info("no DATABASE_URL, running on backup store only")
	}

	store := repository.NewReplicatingStore(backup, dbStore)
	gateway := payments.NewStripeGateway(cfg.STRIPE_SECRET_KEY)

	// Kafka event publisher for POST /create-payment-intent and status changes
	pub := events.NewPublisher(cfg.KAFKA_BROKERS, cfg.KAFKA_TOPIC)
	defer pub.Close()

	svc := application.NewOrdersService(store, gateway, pub, cfg.ADMIN_PASSWORD, cfg.CURRENCY)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API
	h := presentation.NewOrdersHandler(svc, cfg.STRIPE_WEBHOOK_SECRET)
	h.Register(r)

	// STATIC (index.html + payment.html + success.html + assets)
	presentation.MountStatic(r, cfg.STATIC_DIR)

	addr := ":" + cfg.HTTP_PORT
	logger.Info("starting http", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Warn("http server crashed", "err", err)
		os.Exit(1)
	}
}

// connectDB pings with exponential backoff so the service survives the
// database coming up a few seconds after it in compose setups.
func connectDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
