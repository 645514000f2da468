package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bazaar/internal/config"
	"bazaar/internal/gateway"
	"bazaar/internal/http/handlers"
	"bazaar/internal/idempotency"
	applog "bazaar/internal/log"
	"bazaar/internal/metrics"
	"bazaar/internal/repos"
	"bazaar/internal/telemetry"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "bazaar", cfg.TraceExporter, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal(err)
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Idempotency keys live in Redis when configured, else in the database.
	var idem idempotency.Store = idempotency.NewSQLStore(db)
	if cfg.RedisURL != "" {
		client, err := idempotency.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("[redis] %v", err)
		}
		defer client.Close()
		idem = idempotency.NewRedisStore(client, 24*time.Hour)
	}

	gw := gateway.NewSSLCommerz(gateway.Config{
		StoreID:     cfg.Gateway.StoreID,
		StorePass:   cfg.Gateway.StorePass,
		BaseURL:     cfg.Gateway.BaseURL,
		CallbackURL: cfg.Gateway.CallbackURL,
		Timeout:     cfg.Gateway.Timeout,
	}, nil)

	app := handlers.NewApp(handlers.Options{
		DB:        db,
		Config:    cfg,
		Gateway:   gw,
		Idem:      idem,
		Metrics:   metrics.New(),
		AccessLog: true,
	})

	go func() {
		<-ctx.Done()
		applog.Info(nil, "server.shutdown", nil)
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	applog.Info(nil, "server.start", map[string]any{"port": cfg.Port})
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("[server] %v", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Printf("[otel] shutdown: %v", err)
	}
}
