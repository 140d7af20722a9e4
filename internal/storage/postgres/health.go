package postgres

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const healthCheckTimeout = 5 * time.Second

// healthTarget is the slice of Pool the checker needs.
type healthTarget interface {
	Health(ctx context.Context, timeout time.Duration) error
	Close()
}

// HealthChecker periodically checks database reachability and owns the pool's
// shutdown. It implements the server Service interface; Start blocks until
// Stop is called, and Stop closes the pool.
type HealthChecker struct {
	target   healthTarget
	interval time.Duration
	logger   *zap.Logger
	done     chan struct{}
	stopOnce sync.Once
}

// NewHealthChecker creates a checker checking target every interval.
//
// Precondition: target and logger must be non-nil; interval must be > 0.
func NewHealthChecker(target healthTarget, interval time.Duration, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		target:   target,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start runs the check loop until Stop is called. A failed check is logged
// and the loop keeps going; transient outages are the operator's call.
func (h *HealthChecker) Start() error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return nil
		case <-ticker.C:
			if err := h.target.Health(context.Background(), healthCheckTimeout); err != nil {
				h.logger.Warn("database health check failed", zap.Error(err))
			}
		}
	}
}

// Stop terminates the check loop and closes the pool. Safe to call more
// than once.
func (h *HealthChecker) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.target.Close()
	})
}
