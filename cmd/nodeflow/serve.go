package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kbukum/nodeflow/autorun"
	"github.com/kbukum/nodeflow/logger"
	"github.com/kbukum/nodeflow/nodes"
	"github.com/kbukum/nodeflow/observability"
	"github.com/kbukum/nodeflow/server"
	"github.com/kbukum/nodeflow/server/endpoint"
	"github.com/kbukum/nodeflow/storage"
	"github.com/kbukum/nodeflow/version"
)

// cmdServe runs the HTTP API until ctx is cancelled.
func cmdServe(ctx context.Context, stderr io.Writer, args []string) error {
	fs := newFlagSet("serve", stderr)
	configPath := fs.String("config", "", "config file")
	if err := fs.Parse(args); err != nil {
		return &exitError{code: 2}
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	log := logger.New(&cfg.Logging, cfg.Name)
	log.Info("Starting service", map[string]interface{}{
		"version":     version.Short(),
		"environment": cfg.Environment,
	})

	shutdown, err := observability.Setup(ctx, cfg.Observability, cfg.Name, version.Version, cfg.Environment, log)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Warn("Observability shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	var metrics *observability.Metrics
	if cfg.Observability.Metrics {
		metrics, err = observability.NewMetrics(observability.Meter(cfg.Name))
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	pingers := map[string]observability.Pinger{}
	var store storage.Adapter
	if cfg.Storage.Enabled {
		store, err = storage.New(cfg.Storage.Config, cfg.Storage.ProviderConfig(), log)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		if c, ok := store.(storage.Closer); ok {
			defer func() {
				if err := c.Close(); err != nil {
					log.Warn("Storage close failed", map[string]interface{}{"error": err.Error()})
				}
			}()
		}
		if p, ok := store.(observability.Pinger); ok {
			pingers["storage"] = p
		}
	}

	engine := newEngine(cfg, log, metrics)
	planner := autorun.NewPlanner(cfg.Autorun.Policy())
	api := server.NewAPI(engine, planner, log.WithComponent("api"),
		server.WithStore(store),
		server.WithAdapters(map[string]any{
			nodes.HTTPClientAdapterName: &http.Client{Timeout: cfg.Flow.DefaultTimeout},
		}),
	)

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware(metrics, cfg.Name)
	srv.RegisterDefaultEndpoints(cfg.Name, endpoint.PingChecker(pingers))
	api.Register(srv.GinEngine())

	if err := srv.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return srv.Stop(context.Background())
}
