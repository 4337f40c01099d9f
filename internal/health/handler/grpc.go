package handler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewGRPCServer returns a grpc_health_v1 server whose overall status starts as NOT_SERVING
// until the first Watch tick.
func NewGRPCServer() *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return hs
}

// Watch runs checker every interval and mirrors the result into hs until ctx is done.
// The overall service ("") and serviceName are both updated. On return hs is shut down so
// watchers see NOT_SERVING during drain.
func Watch(ctx context.Context, hs *health.Server, checker *Checker, serviceName string, interval time.Duration, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	last := healthpb.HealthCheckResponse_UNKNOWN
	update := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if checker != nil {
			if err := checker.Check(ctx); err != nil {
				status = healthpb.HealthCheckResponse_NOT_SERVING
				if last != status {
					log.Warn("health: not serving", zap.Error(err))
				}
			}
		}
		if status != last {
			log.Info("health: status changed", zap.String("status", status.String()))
			last = status
		}
		hs.SetServingStatus("", status)
		if serviceName != "" {
			hs.SetServingStatus(serviceName, status)
		}
	}

	update()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
			update()
		}
	}
}
