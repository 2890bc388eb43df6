package reaper

import (
	"context"
	"time"

	"github.com/matheus3301/flasher/internal/bus"
	"go.uber.org/zap"
)

// Purger drops session values that expired at or before now.
type Purger interface {
	Purge(ctx context.Context, now time.Time) (int, error)
}

// Reaper periodically removes expired sessions from the store, so flash
// state left behind by abandoned sessions does not pile up.
type Reaper struct {
	store    Purger
	interval time.Duration
	bus      *bus.Bus
	logger   *zap.Logger
	now      func() time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a reaper that runs every interval.
func New(store Purger, interval time.Duration, b *bus.Bus, logger *zap.Logger) *Reaper {
	return &Reaper{
		store:    store,
		interval: interval,
		bus:      b,
		logger:   logger,
		now:      time.Now,
	}
}

// Start begins the reap loop.
func (r *Reaper) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.loop(ctx)
}

// Stop stops the reap loop and waits for an in-flight pass to finish.
func (r *Reaper) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

func (r *Reaper) loop(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = r.Reap(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Reap runs one purge pass and reports how many values were removed.
func (r *Reaper) Reap(ctx context.Context) (int, error) {
	n, err := r.store.Purge(ctx, r.now())
	if err != nil {
		r.logger.Error("failed to purge expired sessions", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		r.logger.Info("expired sessions purged", zap.Int("count", n))
		r.bus.Emit(bus.KindSessionPurged, bus.SessionPurged{Count: n})
	}
	return n, nil
}
