package crontab

import (
	"context"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"pawsitive-haven/assistant-api/internal/utils/platformerrors"
)

// Sweeper removes expired entries from an in-process store.
type Sweeper interface {
	Sweep() int
}

// Crontab runs housekeeping jobs until its context ends.
type Crontab struct {
	ctab     *crontab.Crontab
	sweeper  Sweeper
	schedule string
	onSweep  func(removed int)
	log      zerolog.Logger
}

// NewCrontab schedules sweeper on schedule. A nil sweeper (shared Redis
// counters expire on their own) leaves the crontab idle.
func NewCrontab(sweeper Sweeper, schedule string, onSweep func(removed int), log zerolog.Logger) *Crontab {
	if onSweep == nil {
		onSweep = func(int) {}
	}
	return &Crontab{
		ctab:     crontab.New(),
		sweeper:  sweeper,
		schedule: schedule,
		onSweep:  onSweep,
		log:      log.With().Str("component", "crontab").Logger(),
	}
}

func (c *Crontab) Run(ctx context.Context) error {
	if c.sweeper != nil {
		if err := c.ctab.AddJob(c.schedule, c.SweepNow); err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add counter sweep job")
		}
		c.log.Info().Str("schedule", c.schedule).Msg("counter sweep scheduled")
	}

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

// SweepNow runs one sweep.
func (c *Crontab) SweepNow() {
	removed := c.sweeper.Sweep()
	c.onSweep(removed)
	if removed > 0 {
		c.log.Debug().Int("removed", removed).Msg("expired counters swept")
	}
}
