package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mallkit/storefront/internal/cache"
	"github.com/mallkit/storefront/internal/cart"
	"github.com/mallkit/storefront/internal/catalog"
	"github.com/mallkit/storefront/internal/config"
	"github.com/mallkit/storefront/internal/db"
	"github.com/mallkit/storefront/internal/events"
	"github.com/mallkit/storefront/internal/metrics"
	"github.com/mallkit/storefront/internal/order"
	"github.com/mallkit/storefront/internal/payment"
	"github.com/mallkit/storefront/internal/transport"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "storefront").Logger()

	log.Info().Msg("Storefront starting...")

	cfg, err := config.New(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	rdb := cache.NewClient(cfg.Redis.Addr)
	defer rdb.Close()
	cartView := cache.NewCartView(rdb, cfg.Redis.CartViewTTL)

	producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.App.ServiceName, 256)
	producer.Start(ctx)

	m := metrics.New()

	productRepo := catalog.NewRepository(dbConn.Pool)
	cartRepo := cart.NewRepository(dbConn.Pool)
	orderRepo := order.NewRepository(dbConn.Pool)

	cartSvc := cart.NewService(cartRepo, productRepo, cartView, m)
	orderSvc := order.NewService(orderRepo, cartRepo, cartView, producer, m)
	paymentSvc := payment.NewService(orderRepo, producer, m)

	router := transport.NewRouter(cartSvc, orderSvc, paymentSvc, productRepo, cartView)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
	producer.WaitClosed()
	log.Info().Msg("Server stopped")
}
