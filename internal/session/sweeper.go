package session

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSweepSchedule runs the idle sweep every ten minutes.
const DefaultSweepSchedule = "*/10 * * * *"

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Sweeper deletes sessions that have been idle longer than a TTL, on a
// cron schedule.
type Sweeper struct {
	store  Store
	locker *Locker
	idle   time.Duration
	logger *zap.Logger
	now    func() time.Time
	cron   *cron.Cron
}

// NewSweeper creates a sweeper for store. When locker is set, sessions with
// a turn in flight are skipped.
func NewSweeper(store Store, locker *Locker, idle time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		store:  store,
		locker: locker,
		idle:   idle,
		logger: logger,
		now:    time.Now,
		cron:   cron.New(cron.WithParser(cronParser)),
	}
}

// Sweep deletes every idle session once and returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	if s.idle <= 0 {
		return 0, nil
	}
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.idle)
	removed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		ok, err := s.sweepOne(ctx, key, cutoff)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

func (s *Sweeper) sweepOne(ctx context.Context, key string, cutoff time.Time) (bool, error) {
	if s.locker != nil {
		unlock, ok := s.locker.TryLock(key)
		if !ok {
			return false, nil
		}
		defer unlock()
	}

	st, err := s.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("sweep %q: %w", key, err)
	}
	if st == nil || !st.UpdatedAt.Before(cutoff) {
		return false, nil
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return false, fmt.Errorf("sweep %q: %w", key, err)
	}
	return true, nil
}

// Start schedules Sweep with a 5-field cron expression. An empty spec uses
// DefaultSweepSchedule.
func (s *Sweeper) Start(spec string) error {
	if spec == "" {
		spec = DefaultSweepSchedule
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	s.cron.Start()
	return nil
}

func (s *Sweeper) run() {
	n, err := s.Sweep(context.Background())
	if err != nil {
		s.logger.Warn("session sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("swept idle sessions", zap.Int("removed", n), zap.Duration("idle_ttl", s.idle))
	}
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
