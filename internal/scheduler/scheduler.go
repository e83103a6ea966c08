package scheduler

import (
	"context"
	"time"

	"signalrelay/internal/logger"
)

// IntervalScheduler runs a task on a fixed tick. One invocation completes
// before the next begins; ticks that fire while the task is running are
// coalesced by the ticker.
type IntervalScheduler struct {
	Interval time.Duration

	ctx context.Context
}

func NewIntervalScheduler(ctx context.Context, interval time.Duration) *IntervalScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &IntervalScheduler{Interval: interval, ctx: ctx}
}

// Start blocks, invoking task every interval until the context is done.
func (s *IntervalScheduler) Start(task func()) {
	if s == nil || task == nil {
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("IntervalScheduler: invalid interval=%s, exit", s.Interval)
		return
	}
	logger.Infof("IntervalScheduler: started interval=%s", s.Interval)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			logger.Infof("IntervalScheduler: ctx done, exit")
			return
		case <-ticker.C:
			task()
		}
	}
}
