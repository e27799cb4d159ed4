package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
)

// runTimeout bounds one scheduled pass over all owners.
const runTimeout = 10 * time.Minute

// DailyRunner is the part of the deduction engine the scheduler drives.
type DailyRunner interface {
	RunForAllOwners(ctx context.Context, day *time.Time) ([]dto.DeductionResult, error)
}

// Scheduler fires the daily feed deduction on a cron expression evaluated in
// the farm timezone.
type Scheduler struct {
	cron   *cron.Cron
	runner DailyRunner
	spec   string

	// guards against a slow run overlapping the next tick
	mu      sync.Mutex
	running bool
}

func New(runner DailyRunner, spec string, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		runner: runner,
		spec:   spec,
	}
}

// Start registers the job and starts the cron goroutine. An invalid
// expression is returned as an error and nothing is started.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runDaily); err != nil {
		return fmt.Errorf("schedule daily deduction %q: %w", s.spec, err)
	}
	log.Info().Str("cron", s.spec).Msg("deduction scheduler started")
	s.cron.Start()
	return nil
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		log.Info().Msg("deduction scheduler stopped")
	case <-ctx.Done():
		log.Warn().Msg("deduction scheduler stop timed out")
	}
}

func (s *Scheduler) runDaily() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Warn().Msg("previous deduction run still in progress; tick skipped")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	start := time.Now()
	results, err := s.runner.RunForAllOwners(ctx, nil)
	records, skipped, warnings := 0, 0, 0
	for _, r := range results {
		records += len(r.Records)
		skipped += len(r.Skipped)
		warnings += len(r.Warnings)
	}
	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Int("owners", len(results)).
		Int("records", records).
		Int("skipped", skipped).
		Int("warnings", warnings).
		Dur("took", time.Since(start)).
		Msg("scheduled deduction finished")
}
