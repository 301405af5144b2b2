// Package scheduler runs the periodic expiry sweep of the validation state
// and the persisted token records.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/api/metrics"
	"github.com/99minutos/auth-service/internal/core/ports"
	"github.com/99minutos/auth-service/internal/infrastructure/validation"
)

const (
	DefaultSchedule = "@every 5m"
	purgeTimeout    = 30 * time.Second
)

// Sweepable is the in-process state swept on each run.
type Sweepable interface {
	SweepExpired() validation.SweepResult
	Stats() validation.Stats
}

// Sweeper removes expired validation keys, token records and blacklist
// entries on a cron schedule. When a store implements ports.TokenPurger its
// expired records are deleted too.
type Sweeper struct {
	cron     *cron.Cron
	schedule string
	state    Sweepable
	purger   ports.TokenPurger
	log      zerolog.Logger

	reportBlacklist bool
}

// NewSweeper builds a sweeper. purger may be nil.
func NewSweeper(schedule string, state Sweepable, purger ports.TokenPurger, log zerolog.Logger) *Sweeper {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Sweeper{
		cron:     cron.New(),
		schedule: schedule,
		state:    state,
		purger:   purger,
		log:      log,

		reportBlacklist: true,
	}
}

// ReportBlacklistSize controls whether each run publishes the in-process
// blacklist size. Turn it off when revoked jtis live in Redis: the local map
// is then always empty.
func (s *Sweeper) ReportBlacklistSize(on bool) {
	s.reportBlacklist = on
}

// Start registers the sweep job and launches the scheduler.
func (s *Sweeper) Start() error {
	if err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("sweep schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("sweeper started")
	return nil
}

func (s *Sweeper) Stop() {
	s.cron.Stop()
}

// RunOnce performs a single sweep and returns what was removed in process.
func (s *Sweeper) RunOnce(ctx context.Context) validation.SweepResult {
	res := s.state.SweepExpired()
	metrics.SweepRemovedTotal.WithLabelValues("keys").Add(float64(res.Keys))
	metrics.SweepRemovedTotal.WithLabelValues("tokens").Add(float64(res.Tokens))
	metrics.SweepRemovedTotal.WithLabelValues("blacklist").Add(float64(res.Blacklist))
	if s.reportBlacklist {
		metrics.BlacklistSize.Set(float64(s.state.Stats().Blacklisted))
	}

	purged := 0
	if s.purger != nil {
		pctx, cancel := context.WithTimeout(ctx, purgeTimeout)
		n, err := s.purger.DeleteExpiredTokens(pctx)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to purge expired token records")
		} else {
			purged = n
		}
	}

	s.log.Debug().
		Int("keys", res.Keys).
		Int("tokens", res.Tokens).
		Int("blacklist", res.Blacklist).
		Int("purged", purged).
		Msg("expiry sweep finished")
	return res
}
