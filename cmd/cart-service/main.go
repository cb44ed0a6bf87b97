package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jcmexdev/necs-cart/internal/cart"
	"github.com/jcmexdev/necs-cart/internal/config"
	"github.com/jcmexdev/necs-cart/internal/notify"
	"github.com/jcmexdev/necs-cart/internal/pkg/health"
	"github.com/jcmexdev/necs-cart/internal/pkg/interceptors"
	"github.com/jcmexdev/necs-cart/internal/pkg/kv"
	"github.com/jcmexdev/necs-cart/internal/pkg/kv/postgres"
	"github.com/jcmexdev/necs-cart/internal/pkg/kv/sqlite"
	"github.com/jcmexdev/necs-cart/internal/pkg/telemetry"
	"github.com/jcmexdev/necs-cart/internal/storefront/infra/adapters/service"
	"github.com/jcmexdev/necs-cart/internal/storefront/infra/httpx"
)

const (
	healthInterval  = 15 * time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("cart service stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	telemetry.InitLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, telemetry.TracerConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		Disabled:    cfg.TracingDisabled,
	})
	if err != nil {
		return fmt.Errorf("initialise tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	storage, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	metrics := telemetry.NewServerMetrics("cart_service")
	registry := cart.NewRegistryWithCapacity(storage, cfg.RegistrySize,
		cart.WithKey(cfg.StorageKey),
		cart.WithListener(func(ctx context.Context, c cart.Change) {
			metrics.CartMutations.WithLabelValues(string(c.Kind)).Inc()
			slog.DebugContext(ctx, "cart changed",
				"kind", c.Kind,
				"visitor", c.Scope,
				"count", c.Snapshot.TotalCount,
				"total", c.Snapshot.TotalPrice.String(),
			)
		}),
	)

	checker := health.NewChecker(storage)
	go checker.Run(ctx, healthInterval)

	handler := httpx.NewHandler(service.NewCartService(registry), notify.NewToaster(), checker)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(handler, metrics),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(interceptors.TraceServerInterceptor()),
	)
	healthpb.RegisterHealthServer(grpcServer, checker.Server())

	errCh := make(chan error, 2)
	go func() {
		slog.Info("cart service gRPC health running", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()
	go func() {
		slog.Info("cart service HTTP running", "addr", cfg.HTTPAddr, "backend", cfg.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err = <-errCh:
		slog.Error("server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		slog.Error("http shutdown error", "error", serr)
	}
	grpcServer.GracefulStop()
	return err
}

// openStorage builds the backend named by cfg. The returned close func is
// always safe to call.
func openStorage(ctx context.Context, cfg config.Config) (kv.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendRedis:
		store := kv.NewRedis(cfg.RedisAddr, cfg.RedisPrefix)
		return store, func() {
			if err := store.Close(); err != nil {
				slog.Error("redis close error", "error", err)
			}
		}, nil
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		repo, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				slog.Error("sqlite close error", "error", err)
			}
		}, nil
	case config.BackendPostgres:
		repo, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	default:
		return kv.NewMemory(), func() {}, nil
	}
}
