package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oriys/memo/internal/cache"
	"github.com/oriys/memo/internal/config"
	memogrpc "github.com/oriys/memo/internal/grpc"
	"github.com/oriys/memo/internal/logging"
	"github.com/oriys/memo/internal/lookup"
	"github.com/oriys/memo/internal/metrics"
	"github.com/oriys/memo/internal/observability"
	"github.com/oriys/memo/internal/origin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	var (
		httpAddr   string
		grpcAddr   string
		originKind string
		logLevel   string
		ttl        int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the lookup daemon",
		Long:  "Serve origin values over HTTP through an in-process TTL cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("http") {
				cfg.Daemon.HTTPAddr = httpAddr
			}
			if cmd.Flags().Changed("grpc") {
				cfg.Daemon.GRPCAddr = grpcAddr
			}
			if cmd.Flags().Changed("origin") {
				cfg.Origin.Kind = originKind
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Daemon.LogLevel = logLevel
			}
			if cmd.Flags().Changed("ttl") {
				cfg.Cache.LookupTTLSeconds = ttl
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&grpcAddr, "grpc", "", "gRPC health listen address (empty disables)")
	cmd.Flags().StringVar(&originKind, "origin", "static", "Origin kind: static, redis, postgres, s3")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level")
	cmd.Flags().IntVar(&ttl, "ttl", 300, "Lookup TTL in seconds")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logging.InitStructured(cfg.Daemon.LogFormat, cfg.Daemon.LogLevel)

	if err := observability.Init(ctx, cfg.Observability.Tracing); err != nil {
		logging.Op().Warn("failed to initialize tracing", "error", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		observability.Shutdown(shutdownCtx)
	}()

	src, err := origin.New(ctx, cfg.Origin)
	if err != nil {
		return fmt.Errorf("create origin: %w", err)
	}
	defer src.Close()

	stats := metrics.NewStats()
	prom := metrics.NewPrometheus(cfg.Observability.Metrics.Namespace, cfg.Observability.Metrics.Buckets)

	opts := []cache.Option{
		cache.WithDefaultTTL(cfg.Cache.DefaultTTLSeconds),
		cache.WithObserver(cache.Observers(stats, prom, logging.CacheObserver{})),
	}
	if cfg.Cache.CoalesceLoads {
		opts = append(opts, cache.WithLoadCoalescing())
	}
	if d := cfg.Cache.SweepInterval.Std(); d > 0 {
		opts = append(opts, cache.WithSweepInterval(d))
	}
	store := cache.New(opts...)
	defer store.Close()
	prom.TrackEntries(store.Len)

	access := logging.NewAccessLog()
	if cfg.Daemon.AccessLog != "" {
		if err := access.SetOutput(cfg.Daemon.AccessLog); err != nil {
			return fmt.Errorf("open access log: %w", err)
		}
	}
	defer access.Close()

	h := &lookup.Handler{
		Cache:      store,
		Origin:     src,
		TTLSeconds: cfg.Cache.LookupTTLSeconds,
		Stats:      stats,
		Prometheus: prom,
		Access:     access,
	}
	handler := lookup.NewHandler(h)

	if err := warm(ctx, h, cfg.Cache); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Daemon.HTTPAddr != "" {
		httpServer := &http.Server{Addr: cfg.Daemon.HTTPAddr, Handler: handler}
		g.Go(func() error {
			logging.Op().Info("HTTP server started", "addr", cfg.Daemon.HTTPAddr, "origin", src.Name())
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	var grpcServer *memogrpc.Server
	if cfg.Daemon.GRPCAddr != "" {
		lis, err := memogrpc.Listen(cfg.Daemon.GRPCAddr)
		if err != nil {
			return err
		}
		grpcServer = memogrpc.NewServer()
		g.Go(func() error { return grpcServer.Serve(lis) })
		g.Go(func() error {
			<-gctx.Done()
			grpcServer.Stop()
			return nil
		})
	}

	g.Go(func() error {
		probeOrigin(gctx, src, cfg.Daemon.ProbeInterval.Std(), func(ok bool) {
			h.SetReady(ok)
			if grpcServer != nil {
				grpcServer.SetServing(ok)
			}
		})
		return nil
	})

	err = g.Wait()
	logging.Op().Info("memo stopped", "entries", store.Len())
	return err
}

// warm loads the configured keys before the daemon reports ready.
func warm(ctx context.Context, h *lookup.Handler, cfg config.CacheConfig) error {
	keys, err := cfg.Warm()
	if err != nil {
		return fmt.Errorf("warm keys: %w", err)
	}
	loaded := 0
	for _, key := range keys.Items() {
		if _, _, err := h.Fetch(ctx, key); err != nil {
			logging.Op().Warn("warm load failed", "key", key, "error", err)
			continue
		}
		loaded++
	}
	if keys.Len() > 0 {
		logging.Op().Info("cache warmed", "loaded", loaded, "requested", keys.Len())
	}
	return nil
}

// probeOrigin pings src every interval and reports transitions through set.
func probeOrigin(ctx context.Context, src origin.Origin, interval time.Duration, set func(bool)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := src.Ping(pingCtx)
			cancel()

			ok := err == nil
			if ok != healthy {
				if ok {
					logging.Op().Info("origin recovered", "origin", src.Name())
				} else {
					logging.Op().Warn("origin unavailable", "origin", src.Name(), "error", err)
				}
				healthy = ok
				set(ok)
			}
		}
	}
}
