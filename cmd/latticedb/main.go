// Command latticedb runs the gateway server: it loads configuration,
// opens the storage engine, wires logging/metrics, builds the route
// table from whatever handler packages were linked in via their
// init-time registry.Register calls, and serves until an interrupt
// signal triggers a graceful drain. Grounded on the teacher's
// cmd/graphdb-server/main.go boot sequence.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lattice-graph/latticedb/internal/auth"
	"github.com/lattice-graph/latticedb/internal/config"
	"github.com/lattice-graph/latticedb/internal/gateway"
	"github.com/lattice-graph/latticedb/internal/logging"
	"github.com/lattice-graph/latticedb/internal/metrics"
	"github.com/lattice-graph/latticedb/internal/registry"
	"github.com/lattice-graph/latticedb/internal/storage"

	// Deployments import their own latticec-generated handlers package
	// here for its init-time registry.Register side effects (spec §9's
	// registration strategy); this module ships no queries of its own, so
	// registry.Handlers() is empty until one is linked in.
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the gateway config file")
	metricsAddr := flag.String("metrics-addr", "127.0.0.1:9090", "address to serve /metrics on")
	flag.Parse()

	if err := run(*configPath, *metricsAddr); err != nil {
		fmt.Fprintln(os.Stderr, "latticedb:", err)
		os.Exit(1)
	}
}

func run(configPath, metricsAddr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := logging.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	logger := logging.NewJSONLogger(os.Stdout, level)

	nodesOpts, edgesOpts, indicesOpts := cfg.StorageTuning()
	store, err := storage.Open(storage.Tuning{Nodes: nodesOpts, Edges: edgesOpts, Indices: indicesOpts})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	metricsRegistry := metrics.NewRegistry(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", logging.F("error", err.Error()))
		}
	}()

	var jwtManager *auth.JWTManager
	if cfg.AuthSecret != "" {
		seconds := cfg.AuthTokenSeconds
		if seconds <= 0 {
			seconds = 3600
		}
		jwtManager, err = auth.NewJWTManager(cfg.AuthSecret, time.Duration(seconds)*time.Second)
		if err != nil {
			return fmt.Errorf("configure auth: %w", err)
		}
	}

	srv := gateway.New(gateway.Options{
		Addr:         cfg.ListenAddress,
		Store:        store,
		Handlers:     registry.Handlers(),
		Logger:       logger,
		Metrics:      metricsRegistry,
		Workers:      cfg.WorkerPoolSize,
		ConnDeadline: 30 * time.Second,
		JWTManager:   jwtManager,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	_ = metricsServer.Shutdown(ctx)
	return nil
}
