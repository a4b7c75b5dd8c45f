package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/chronos-watches/storefront/internal/auth"
	"github.com/chronos-watches/storefront/internal/config"
	delivery "github.com/chronos-watches/storefront/internal/delivery/http"
	"github.com/chronos-watches/storefront/internal/messaging"
	"github.com/chronos-watches/storefront/internal/messaging/kafka"
	"github.com/chronos-watches/storefront/internal/recordstore"
	"github.com/chronos-watches/storefront/internal/repository"
	pgrepo "github.com/chronos-watches/storefront/internal/repository/postgres"
	rsrepo "github.com/chronos-watches/storefront/internal/repository/recordstore"
	redisrepo "github.com/chronos-watches/storefront/internal/repository/redis"
	"github.com/chronos-watches/storefront/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	if cfg.Environment == "development" {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Data backends ---
	var (
		products repository.ProductRepository
		carts    repository.CartStore
		ready    func(ctx context.Context) error
	)
	switch cfg.Backend {
	case config.BackendRecordStore:
		client := recordstore.NewClient(cfg.RecordStoreURL, cfg.RecordStoreTimeout())
		products = rsrepo.NewProductRepository(client)
		carts = rsrepo.NewCartStore(client)
		slog.Info("Using record-store backend", "url", cfg.RecordStoreURL)

	default:
		db, err := pgrepo.InitDB(cfg.DatabaseURL)
		if err != nil {
			slog.Error("Failed to init database", "err", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := pgrepo.Seed(ctx, db); err != nil {
			slog.Error("Failed to seed catalog", "err", err)
			os.Exit(1)
		}

		redisClient, err := redisrepo.NewClient(cfg.RedisURL, 5*time.Second, 3*time.Second)
		if err != nil {
			slog.Error("Failed to connect to redis", "err", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		products = pgrepo.NewProductRepository(db)
		carts = redisrepo.NewCartStore(redisClient)
		ready = func(ctx context.Context) error { return db.PingContext(ctx) }
		slog.Info("Using local backend", "database", "postgres", "carts", "redis")
	}

	// --- Messaging ---
	var (
		publisher  messaging.Publisher = messaging.NopPublisher{}
		subscriber messaging.Subscriber
	)
	if len(cfg.KafkaBrokers) > 0 {
		publisher, subscriber = kafka.NewKafkaBroker(cfg.KafkaBrokers)
		slog.Info("Kafka publisher ready", "brokers", cfg.KafkaBrokers)
	}

	// --- Services ---
	catalogSvc := service.NewCatalogService(products, publisher)
	cartSvc := service.NewCartService(carts, products, publisher)

	// --- HTTP ---
	verifier := auth.NewVerifier(cfg.JWTSecret)
	handler := delivery.NewHandler(catalogSvc, cartSvc, verifier, ready)

	router := mux.NewRouter()
	router.Use(delivery.LogRequests)
	handler.RegisterRoutes(router)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           delivery.EnableCORS(router),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Consumer: carts.activity → activity log. Downstream systems (email,
	// analytics) hang off this topic; locally we just record it.
	if subscriber != nil {
		go subscriber.Consume(ctx, messaging.TopicCartActivity, "storefront-activity", func(ctx context.Context, payload []byte) error {
			var event map[string]any
			if err := json.Unmarshal(payload, &event); err != nil {
				slog.Warn("Malformed cart activity event", "err", err)
				return nil
			}
			slog.Info("Cart activity", "event", event)
			return nil
		})
	}

	go func() {
		slog.Info("HTTP server starting", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
}
