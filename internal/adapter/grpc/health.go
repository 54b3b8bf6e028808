package grpc

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the profile collection API.
const ServiceName = "profile.v1.ProfileService"

// CheckFunc probes one dependency. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// HealthChecker serves grpc.health.v1.Health and flips the serving status of the
// API according to its dependency checks.
type HealthChecker struct {
	server   *health.Server
	log      *zap.Logger
	interval time.Duration
	timeout  time.Duration

	mu     sync.Mutex
	checks map[string]CheckFunc
}

// NewHealthChecker creates a health checker that probes every interval.
func NewHealthChecker(interval time.Duration, log *zap.Logger) *HealthChecker {
	hc := &HealthChecker{
		server:   health.NewServer(),
		log:      log,
		interval: interval,
		timeout:  2 * time.Second,
		checks:   make(map[string]CheckFunc),
	}
	hc.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return hc
}

// AddCheck registers a named dependency check.
func (hc *HealthChecker) AddCheck(name string, fn CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[name] = fn
}

// Register attaches the health service to s.
func (hc *HealthChecker) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, hc.server)
}

// Probe runs every check once and updates the serving status. It returns the
// names of the failing dependencies.
func (hc *HealthChecker) Probe(ctx context.Context) []string {
	hc.mu.Lock()
	checks := make(map[string]CheckFunc, len(hc.checks))
	for name, fn := range hc.checks {
		checks[name] = fn
	}
	hc.mu.Unlock()

	var failing []string
	for name, fn := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, hc.timeout)
		err := fn(checkCtx)
		cancel()
		if err != nil {
			hc.log.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			failing = append(failing, name)
		}
	}
	sort.Strings(failing)

	if len(failing) > 0 {
		hc.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	} else {
		hc.setStatus(healthpb.HealthCheckResponse_SERVING)
	}
	return failing
}

// Run probes immediately and then every interval until ctx is done.
func (hc *HealthChecker) Run(ctx context.Context) {
	hc.Probe(ctx)

	ticker := time.NewTicker(hc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hc.Probe(ctx)
		}
	}
}

// Shutdown reports NOT_SERVING for good; later probes are ignored.
func (hc *HealthChecker) Shutdown() {
	hc.server.Shutdown()
}

func (hc *HealthChecker) setStatus(s healthpb.HealthCheckResponse_ServingStatus) {
	hc.server.SetServingStatus("", s)
	hc.server.SetServingStatus(ServiceName, s)
}
