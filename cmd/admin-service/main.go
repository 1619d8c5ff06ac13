package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront-admin/internal/catalog"
	"github.com/vasiliy-maslov/storefront-admin/internal/config"
	"github.com/vasiliy-maslov/storefront-admin/internal/db"
	"github.com/vasiliy-maslov/storefront-admin/internal/events"
	"github.com/vasiliy-maslov/storefront-admin/internal/handler"
	"github.com/vasiliy-maslov/storefront-admin/internal/inventory"
	"github.com/vasiliy-maslov/storefront-admin/internal/order"
	"github.com/vasiliy-maslov/storefront-admin/internal/platform/kafka"
	"github.com/vasiliy-maslov/storefront-admin/internal/platform/metrics"
	"github.com/vasiliy-maslov/storefront-admin/internal/platform/tracing"
	"github.com/vasiliy-maslov/storefront-admin/internal/settings"
	"github.com/vasiliy-maslov/storefront-admin/internal/transport"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg.App.Name, cfg.Log)

	log.Info().Msg("Admin service starting...")

	ctx := context.Background()

	shutdownTracing, err := tracing.Setup(ctx, cfg.App.Name, cfg.Tracing)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up tracing")
	}

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics(registry, "admin")
	inventoryGauges := metrics.NewInventoryGauges(registry)

	bus := events.NewBus()

	catalogRepo := catalog.NewRepository(pg.Pool)
	orderRepo := order.NewRepository(pg.Pool)
	settingsRepo := settings.NewRepository(pg.Pool)

	orderService := order.NewService(orderRepo, catalogRepo, bus)
	inventoryService := inventory.NewService(catalogRepo, orderRepo, inventoryGauges)
	settingsService := settings.NewService(settingsRepo)

	unsubscribeInventory := bus.Subscribe(events.OrderConfirmed, inventoryService.HandleOrderConfirmed)
	defer unsubscribeInventory()

	kafkaClient := kafka.NewClient(cfg.KafkaBrokers())
	if kafkaClient.Enabled() {
		writer := kafkaClient.NewWriter(cfg.Kafka.Topic)
		defer func() {
			if err := writer.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close Kafka writer")
			}
		}()
		unsubscribeKafka := bus.Subscribe(events.OrderConfirmed, kafka.OrderConfirmedForwarder(writer))
		defer unsubscribeKafka()
		log.Info().Strs("brokers", kafkaClient.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Forwarding order confirmations to Kafka")
	}

	if _, err := inventoryService.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial inventory stats refresh failed")
	}

	router := transport.NewRouter(transport.RouterConfig{
		DB:       pg,
		Metrics:  serverMetrics,
		Gatherer: registry,
		Handlers: []transport.RouteRegistrar{
			handler.NewOrderHandler(orderService),
			handler.NewInventoryHandler(inventoryService),
			handler.NewSettingsHandler(settingsService),
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Shutting down...")
	case err := <-serverErr:
		log.Error().Err(err).Msg("Server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := bus.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Event handlers still running at shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Tracer provider shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

func setupLogger(service string, cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		log.Warn().Str("level", cfg.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(os.Stderr)
	if cfg.Format == "console" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = logger.With().Timestamp().Str("service", service).Logger()
}
