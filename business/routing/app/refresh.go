package app

import (
	"context"
	"time"

	"github.com/fd1az/swap-router/internal/logger"
)

// RefreshService periodically re-quotes the current request while no round is running.
type RefreshService struct {
	orch     *Orchestrator
	interval time.Duration
	logger   logger.LoggerInterface
}

// NewRefreshService creates a RefreshService. A non-positive interval disables it.
func NewRefreshService(orch *Orchestrator, interval time.Duration, log logger.LoggerInterface) *RefreshService {
	return &RefreshService{orch: orch, interval: interval, logger: log}
}

// Run ticks until ctx is done.
func (r *RefreshService) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.tick() {
				r.logger.Debug(ctx, "refreshing quotes")
			}
		}
	}
}

func (r *RefreshService) tick() bool {
	if r.orch.Running() || !r.orch.Request().Filled() {
		return false
	}
	r.orch.OnExternalRefresh()
	return true
}
