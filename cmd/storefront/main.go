package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"shopfront/internal/catalog"
	"shopfront/internal/config"
	"shopfront/internal/notify"
	"shopfront/internal/storefront"
	"shopfront/pkg/kit"
)

const service = "storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := kit.NewLogger(service, cfg.Server.LogLevel)
	defer func() { _ = log.Sync() }()

	registry := prometheus.NewRegistry()

	fetcher, ping, err := buildFetcher(cfg)
	if err != nil {
		log.Fatal("catalog source setup", zap.Error(err))
	}

	var notifier catalog.Notifier = &notify.Logger{Log: log}
	if cfg.Notifier.WebhookURL != "" {
		notifier = notify.Multi{
			&notify.Logger{Log: log},
			notify.NewWebhook(cfg.Notifier.WebhookURL, log),
		}
	}

	store := catalog.NewStore(fetcher, catalog.Options{
		StaleAfter: cfg.Catalog.StaleAfter(),
		RetryDelay: cfg.Catalog.RetryDelay(),
		Notifier:   notifier,
		Log:        log,
		Metrics:    catalog.NewMetrics(registry),
	})

	s := &storefront.Server{
		Store: store,
		Log:   log,
		Ping:  ping,
	}
	if cfg.Cart.BaseURL != "" {
		s.Cart = storefront.NewCartClient(cfg.Cart.BaseURL)
	}

	h := storefront.NewHandler(s, storefront.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       registry,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
		RateLimit: kit.NewIPRateLimiter(
			cfg.Server.RateLimit,
			time.Duration(cfg.Server.RateLimitWindow)*time.Second,
		),
	})

	if err := kit.RunHTTPServer(cfg.Server.Addr, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func buildFetcher(cfg *config.Config) (catalog.Fetcher, func(context.Context) error, error) {
	if cfg.Catalog.Source == "postgres" {
		db, err := catalog.OpenPostgres(cfg.Catalog.DSN)
		if err != nil {
			return nil, nil, err
		}
		f := catalog.NewPostgresFetcher(db)
		return f, f.Ping, nil
	}

	return catalog.NewHTTPFetcher(cfg.Catalog.BaseURL), nil, nil
}
