package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Pruner deletes all but the newest keep versions of every document.
type Pruner interface {
	PruneVersions(ctx context.Context, keep int) (int64, error)
}

// Scheduler runs version pruning on a cron schedule (seconds field included).
type Scheduler struct {
	pruner   Pruner
	keep     int
	schedule string
	timeout  time.Duration
	log      zerolog.Logger
	cron     *cron.Cron
}

func NewScheduler(pruner Pruner, keep int, schedule string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		pruner:   pruner,
		keep:     keep,
		schedule: schedule,
		timeout:  5 * time.Minute,
		log:      log.With().Str("component", "retention").Logger(),
		cron:     cron.New(cron.WithSeconds()),
	}
}

// Start registers the prune job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { _, _ = s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("failed to schedule retention job %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Int("keep", s.keep).Msg("retention scheduler started")
	return nil
}

// Stop waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce prunes immediately and returns the number of deleted versions.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.pruner.PruneVersions(ctx, s.keep)
	if err != nil {
		s.log.Error().Err(err).Msg("version pruning failed")
		return 0, err
	}
	s.log.Info().Int64("deleted", n).Dur("took", time.Since(start)).Msg("versions pruned")
	return n, nil
}
