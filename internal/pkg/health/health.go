// Package health reports whether the cart storage is reachable, both through
// the standard grpc.health.v1 service and to the HTTP /healthz handler.
package health

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the name the cart service registers its status under.
const Service = "necs.cart.v1.CartService"

const pingTimeout = 5 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker pings the storage and mirrors the result into a gRPC health server.
type Checker struct {
	pinger Pinger
	server *health.Server
}

func NewChecker(p Pinger) *Checker {
	return &Checker{pinger: p, server: health.NewServer()}
}

// Server is the grpc_health_v1 implementation to register on a grpc.Server.
func (c *Checker) Server() *health.Server {
	return c.server
}

// Check pings once and updates the reported status.
func (c *Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	err := c.pinger.Ping(ctx)
	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		slog.WarnContext(ctx, "storage ping failed", "error", err)
	}
	c.server.SetServingStatus("", status)
	c.server.SetServingStatus(Service, status)
	return err
}

// Run checks every interval until ctx is done, then marks the service as
// shutting down.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	_ = c.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			c.server.Shutdown()
			return
		case <-ticker.C:
			_ = c.Check(ctx)
		}
	}
}
