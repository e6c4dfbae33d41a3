package poll

import (
	"context"
	"time"

	"go.uber.org/zap"

	"linkedva-engine/internal/logging"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on each tick until ctx is done.
// Task errors are logged and do not stop the loop.
func Every(ctx context.Context, interval time.Duration, name string, log *zap.Logger, task Task) {
	log = logging.OrNop(log)
	run := func() {
		if err := task(ctx); err != nil && ctx.Err() == nil {
			log.Warn("periodic task failed", zap.String("task", name), zap.Error(err))
		}
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
