package reconcile

import (
	"context"
	"time"

	"invitebounty/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Scheduler triggers one reconciliation pass per interval. Passes run
// sequentially on a single timer; the interval is expected to exceed the
// processing time of one batch.
type Scheduler struct {
	service  *Service
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(svc *Service, cfg *config.Config) *Scheduler {
	return &Scheduler{
		service:  svc,
		interval: cfg.Reward.PassInterval,
		done:     make(chan struct{}),
	}
}

func StartScheduler(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			s.cancel = cancel
			go s.run(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.cancel()
			select {
			case <-s.done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	zap.L().Info("[Scheduler] started reconciliation scheduler", zap.Duration("interval", s.interval))

	for {
		select {
		case <-time.After(s.interval):
			start := time.Now()
			s.service.RunPass(ctx)
			zap.L().Debug("[Scheduler] pass complete", zap.Duration("duration", time.Since(start)))
		case <-ctx.Done():
			zap.L().Warn("[Scheduler] stopped")
			return
		}
	}
}
