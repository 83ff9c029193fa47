package grpc

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// pinger is anything whose reachability decides whether we can serve, typically the repository.
type pinger interface {
	Ping(ctx context.Context) error
}

// HealthMonitorArgs are the mandatory args to instantiate the HealthMonitor.
type HealthMonitorArgs struct {
	// Server is the grpc health server whose statuses are maintained.
	Server *health.Server

	// Storage is pinged on every check.
	Storage pinger

	// Services are the service names reported next to the overall ("") status.
	Services []string
}

// HealthMonitorOptArgs are the optional arguments for the HealthMonitor.
type HealthMonitorOptArgs = func(*HealthMonitor)

// WithInterval overrides the interval between two checks. Default is 10s.
func WithInterval(interval time.Duration) HealthMonitorOptArgs {
	return func(h *HealthMonitor) {
		if interval > 0 {
			h.interval = interval
		}
	}
}

// WithPingTimeout overrides the timeout of a single storage ping. Default is 2s.
func WithPingTimeout(timeout time.Duration) HealthMonitorOptArgs {
	return func(h *HealthMonitor) {
		if timeout > 0 {
			h.pingTimeout = timeout
		}
	}
}

// NewHealthMonitor creates a new HealthMonitor.
func NewHealthMonitor(args HealthMonitorArgs, optArgs ...HealthMonitorOptArgs) (*HealthMonitor, error) {
	if args.Server == nil {
		return nil, errors.New("health monitor requires a health server")
	}
	if args.Storage == nil {
		return nil, errors.New("health monitor requires a storage to ping")
	}
	h := &HealthMonitor{
		server:      args.Server,
		storage:     args.Storage,
		services:    append([]string{""}, args.Services...),
		interval:    10 * time.Second,
		pingTimeout: 2 * time.Second,
	}
	for _, opt := range optArgs {
		opt(h)
	}
	return h, nil
}

// HealthMonitor keeps the grpc health statuses in line with the storage reachability.
type HealthMonitor struct {
	server      *health.Server
	storage     pinger
	services    []string
	interval    time.Duration
	pingTimeout time.Duration
}

// Check pings the storage once and publishes the resulting status.
func (h *HealthMonitor) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, h.pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.storage.Ping(pingCtx); err != nil {
		log.WithError(err).Warn("storage is not reachable, reporting not serving")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	for _, service := range h.services {
		h.server.SetServingStatus(service, status)
	}
	return status
}

// Monitor checks the storage periodically. This is a blocking method and should be started in it's own go-routine.
// Cancelling the context in input stops the monitor and marks every service as not serving.
func (h *HealthMonitor) Monitor(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}
