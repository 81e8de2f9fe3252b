// Package janitor runs the periodic cleanup: stale channel registrations
// are pruned and idle rate-limiter state is dropped.
package janitor

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Registrations is the cleanup slice of the store.
type Registrations interface {
	PruneStaleRegistrations(maxAge time.Duration) (int64, error)
	CountRegistrations() (int64, error)
}

// Limiter is the resettable rate-limiter cache.
type Limiter interface {
	Purge()
}

type Janitor struct {
	registrations Registrations
	limiter       Limiter
	maxAge        time.Duration
	log           zerolog.Logger
	cron          *cron.Cron
}

func New(registrations Registrations, limiter Limiter, maxAge time.Duration, log zerolog.Logger) *Janitor {
	return &Janitor{
		registrations: registrations,
		limiter:       limiter,
		maxAge:        maxAge,
		log:           log,
		cron:          cron.New(),
	}
}

// Start schedules RunOnce on the given cron spec ("@every 5m" style specs
// included) and launches the scheduler.
func (j *Janitor) Start(schedule string) error {
	if _, err := j.cron.AddFunc(schedule, j.RunOnce); err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

// RunOnce performs one cleanup pass. Failures are logged and the next run
// tries again; there is nothing to escalate.
func (j *Janitor) RunOnce() {
	pruned, err := j.registrations.PruneStaleRegistrations(j.maxAge)
	if err != nil {
		j.log.Error().Err(err).Msg("registration prune failed")
	} else if pruned > 0 {
		j.log.Info().Int64("pruned", pruned).Msg("stale registrations removed")
	}

	if remaining, err := j.registrations.CountRegistrations(); err != nil {
		j.log.Error().Err(err).Msg("registration count failed")
	} else {
		j.log.Debug().Int64("registrations", remaining).Msg("cleanup pass done")
	}

	if j.limiter != nil {
		j.limiter.Purge()
	}
}
