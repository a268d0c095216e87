// Package jobs runs the background work of the scheduler service.
package jobs

import (
	"alcyxob/workout-scheduler/internal/logger"
	"alcyxob/workout-scheduler/internal/service"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// defaultSweepTimeout bounds one sweep run.
const defaultSweepTimeout = 10 * time.Minute

// Sweeper is the part of the schedule service the missed sweep drives.
type Sweeper interface {
	SweepMissed(ctx context.Context) (*service.SweepResult, error)
}

// MissedSweep marks overdue workouts missed on a cron schedule.
type MissedSweep struct {
	sweeper Sweeper
	spec    string
	loc     *time.Location
	timeout time.Duration
	log     *logger.Logger

	mu sync.Mutex
	c  *cron.Cron
}

// NewMissedSweep validates spec (standard five-field cron or a descriptor like "@daily").
func NewMissedSweep(sweeper Sweeper, spec string, loc *time.Location, log *logger.Logger) (*MissedSweep, error) {
	if _, err := parser().Parse(spec); err != nil {
		return nil, fmt.Errorf("invalid sweep cron %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &MissedSweep{
		sweeper: sweeper,
		spec:    spec,
		loc:     loc,
		timeout: defaultSweepTimeout,
		log:     log.With("job", "MissedSweep"),
	}, nil
}

func parser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// Start registers the job and starts the cron runner. Runs that overlap a
// still-running sweep are skipped.
func (j *MissedSweep) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.c != nil {
		return nil
	}
	c := cron.New(
		cron.WithParser(parser()),
		cron.WithLocation(j.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(j.spec, func() { _ = j.RunOnce(ctx) }); err != nil {
		return err
	}
	c.Start()
	j.c = c
	j.log.Info("Missed sweep scheduled", "cron", j.spec, "tz", j.loc.String())
	return nil
}

// Stop stops the runner and waits for an in-flight sweep to finish.
func (j *MissedSweep) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.c == nil {
		return
	}
	<-j.c.Stop().Done()
	j.c = nil
	j.log.Info("Missed sweep stopped")
}

// RunOnce performs a single sweep.
func (j *MissedSweep) RunOnce(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	started := time.Now()
	res, err := j.sweeper.SweepMissed(runCtx)
	if err != nil {
		j.log.Error("Missed sweep failed", "error", err, "elapsed", time.Since(started))
		return err
	}
	j.log.Debug("Missed sweep run", "marked", res.Marked, "rescheduled", res.Rescheduled, "elapsed", time.Since(started))
	return nil
}
