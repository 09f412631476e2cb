package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mhndayesh/capital-trading-bot/internal/cache"
	"github.com/mhndayesh/capital-trading-bot/internal/capital"
	"github.com/mhndayesh/capital-trading-bot/internal/config"
	"github.com/mhndayesh/capital-trading-bot/internal/events"
	httpserver "github.com/mhndayesh/capital-trading-bot/internal/http"
	"github.com/mhndayesh/capital-trading-bot/internal/relay"
	"github.com/mhndayesh/capital-trading-bot/internal/symbols"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	client := capital.NewClient(capital.Config{
		BaseURL:    cfg.CapitalEndpoint,
		APIKey:     cfg.CapitalAPIKey,
		Identifier: cfg.CapitalIdentifier,
		Password:   cfg.CapitalPassword,
	}, logger)

	overrides, err := cfg.EpicOverrides()
	if err != nil {
		logger.Fatal("epic map", zap.Error(err))
	}

	var searcher symbols.MarketSearcher
	var epics *cache.Epics
	if cfg.SearchFallback {
		searcher = client
		epics, err = cache.NewEpics(1<<20 /* ~1MB */, cfg.SearchCacheTTL)
		if err != nil {
			logger.Fatal("cache", zap.Error(err))
		}
	}
	resolver := symbols.NewResolver(overrides, searcher, epics, logger)

	pub := events.NewPublisher(cfg.Brokers(), cfg.KafkaTopic, logger)
	defer func() {
		if err := pub.Close(); err != nil {
			logger.Warn("publisher close", zap.Error(err))
		}
	}()

	defaults := relay.OrderDefaults{
		GuaranteedStop: cfg.GuaranteedStop,
		TimeInForce:    cfg.TimeInForce,
	}
	svc := relay.NewService(resolver, client, client, defaults, pub, logger)
	s := httpserver.NewServer(svc, logger, cfg.WebhookSecret, cfg.CORSOrigin)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: s.R}
	go func() {
		logger.Info("http listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http", zap.Error(err))
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShut()
	_ = server.Shutdown(ctxShut)
	logger.Info("shutdown complete")
}
