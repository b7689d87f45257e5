// Package app wires the service's lifecycle: open the database pool,
// construct the domain services, serve HTTP, and drain cleanly on
// shutdown signal.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/gyeh/cms-pricing/internal/config"
	"github.com/gyeh/cms-pricing/internal/geo"
	"github.com/gyeh/cms-pricing/internal/httpapi"
	"github.com/gyeh/cms-pricing/internal/mrf"
	"github.com/gyeh/cms-pricing/internal/pricing/engine"
	"github.com/gyeh/cms-pricing/internal/pricing/orchestrator"
	"github.com/gyeh/cms-pricing/internal/snapshot"
	"github.com/gyeh/cms-pricing/internal/store/pg"
)

const drainTimeout = 15 * time.Second

// App owns every long-lived resource the server needs and the HTTP
// listener serving them.
type App struct {
	store  *pg.Store
	server *http.Server
	log    *zap.Logger
}

// Init opens the database pool, migrates it, and builds the HTTP
// server, but does not start listening.
func Init(ctx context.Context, cfg config.Settings, log *zap.Logger) (*App, error) {
	store, err := pg.Open(ctx, pg.Config{
		DSN:      cfg.PostgresDSN,
		MaxConns: cfg.PostgresMaxConns,
		MinConns: cfg.PostgresMinConns,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	resolver := geo.NewResolver(store, store, log, cfg.ServiceVersion, cfg.DefaultLocalityID)
	registry := snapshot.NewRegistry(store, log)
	engines := engine.NewTable(store)
	orch := orchestrator.NewOrchestrator(resolver, store, store, engines, store, log)
	mrfLookup := mrf.NewLookup(store)

	srv := httpapi.NewServer(httpapi.Deps{
		Resolver:           resolver,
		Orchestrator:       orch,
		Registry:           registry,
		Traces:             store,
		MRF:                mrfLookup,
		Log:                log,
		CORSOrigins:        cfg.CORSAllowedOrigins,
		RequestTimeout:     cfg.RequestTimeout,
		APIKeys:            cfg.APIKeys,
		AdminAPIKeys:       cfg.AdminAPIKeys,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	return &App{
		store: store,
		server: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}, nil
}

// Serve blocks until the HTTP listener stops (ListenAndServe's normal
// error return, http.ErrServerClosed on a clean shutdown).
func (a *App) Serve() error {
	a.log.Info("listening", zap.String("addr", a.server.Addr))
	return a.server.ListenAndServe()
}

// Drain gracefully stops accepting new connections and waits up to
// drainTimeout for in-flight requests to finish.
func (a *App) Drain(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	return a.server.Shutdown(ctx)
}

// Close releases the database pool. Call after Drain.
func (a *App) Close() {
	a.store.Close()
}
