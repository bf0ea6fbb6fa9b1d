// Package server runs the collector's HTTP API.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	kratoshttp "github.com/go-kratos/kratos/v2/transport/http"
	swaggerUI "github.com/tx7do/kratos-swagger-ui"

	_ "github.com/go-tangra/go-tangra-facts/internal/codec"
	"github.com/go-tangra/go-tangra-facts/internal/config"
	"github.com/go-tangra/go-tangra-facts/internal/store"
)

// Run starts the HTTP server and blocks until the context is cancelled.
func Run(ctx context.Context, cfg *config.Config, openApiData []byte) error {
	db, err := store.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	cmdQueue := NewCommandQueue()
	svc := NewService(db, cmdQueue, cfg.CommandWait)

	srv := kratoshttp.NewServer(
		kratoshttp.Address(cfg.Listen),
		kratoshttp.Middleware(AuthMiddleware(cfg.ApiSecret, cfg.ClientSecret)),
	)
	svc.RegisterRoutes(srv)

	// Swagger UI is registered via HandlePrefix and bypasses the
	// middleware chain, so it stays reachable without an API key.
	if cfg.EnableSwagger && len(openApiData) > 0 {
		swaggerUI.RegisterSwaggerUIServerWithOption(
			srv,
			swaggerUI.WithTitle("Facts Collector"),
			swaggerUI.WithMemoryData(openApiData, "yaml"),
		)
		log.Printf("Swagger UI available at http://%s/docs/", cfg.Listen)
	}

	// Optional retention purge goroutine.
	if cfg.RetentionDays > 0 {
		go runPurgeLoop(ctx, db, cfg.RetentionDays, cfg.PurgeInterval)
	}

	// Graceful shutdown when the caller cancels the context.
	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		_ = srv.Stop(context.Background())
	}()

	log.Printf("Facts Collector listening on %s (db: %s)", cfg.Listen, cfg.DatabasePath)
	if cfg.RetentionDays > 0 {
		log.Printf("Retention: %d days, purge interval: %s", cfg.RetentionDays, cfg.PurgeInterval)
	}

	return srv.Start(ctx)
}

func runPurgeLoop(ctx context.Context, db *store.Store, retentionDays int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			olderThan := time.Duration(retentionDays) * 24 * time.Hour
			n, err := db.Purge(ctx, olderThan)
			if err != nil {
				log.Printf("Purge error: %v", err)
			} else if n > 0 {
				log.Printf("Purged %d records older than %d days", n, retentionDays)
			}
		}
	}
}
