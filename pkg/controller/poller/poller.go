package poller

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
	"github.com/m-mizutani/releasebot/pkg/utils/errutil"
	"github.com/robfig/cron/v3"
)

// Poller runs release cycles one after another. Cycles never overlap; the
// sleep between them is taken from each cycle report and may be cut short
// by Kick or by a cron schedule.
type Poller struct {
	uc        interfaces.ReleaseUseCase
	kick      chan struct{}
	schedule  cron.Schedule
	maxCycles int
	now       func() time.Time

	mu   sync.RWMutex
	last *model.CycleReport
}

var _ interfaces.Trigger = (*Poller)(nil)

// Option configures Poller
type Option func(*Poller)

// WithSchedule wakes the poller at the times of schedule in addition to the
// refresh interval
func WithSchedule(schedule cron.Schedule) Option {
	return func(p *Poller) {
		p.schedule = schedule
	}
}

// WithMaxCycles stops Run after n cycles. Zero means no limit.
func WithMaxCycles(n int) Option {
	return func(p *Poller) {
		p.maxCycles = n
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		p.now = now
	}
}

// ParseSchedule parses a standard five field cron expression such as
// "0 9 * * 1-5"
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse cron schedule",
			goerr.V("schedule", spec),
			goerr.T(model.ErrTagConfiguration))
	}
	return schedule, nil
}

// New creates a Poller driving uc
func New(uc interfaces.ReleaseUseCase, opts ...Option) *Poller {
	p := &Poller{
		uc:   uc,
		kick: make(chan struct{}, 1),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Kick implements interfaces.Trigger. Kicks arriving while a cycle runs are
// coalesced into one early cycle.
func (p *Poller) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// LastReport returns the report of the last finished cycle, or nil
func (p *Poller) LastReport() *model.CycleReport {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Run loops until ctx is canceled. A running cycle is not interrupted by
// cancellation; Run returns once it completes. The use case is closed on
// return.
func (p *Poller) Run(ctx context.Context) error {
	logger := ctxlog.From(ctx)
	defer func() {
		if err := p.uc.Close(); err != nil {
			errutil.Handle(ctx, "failed to close release use case", err)
		}
	}()

	for n := 1; ; n++ {
		report := p.uc.RunCycle(context.WithoutCancel(ctx))

		p.mu.Lock()
		p.last = report
		p.mu.Unlock()

		logger.Info("Cycle finished",
			"cycle_id", report.ID,
			"version", report.Version,
			"published", report.Published,
			"errors", len(report.Errors),
			"next_interval", report.NextInterval.String(),
		)

		if p.maxCycles > 0 && n >= p.maxCycles {
			return nil
		}
		if ctx.Err() != nil {
			logger.Info("Poller stopped")
			return nil
		}

		wait := p.nextWait(report.NextInterval)
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("Poller stopped")
			return nil
		case <-timer.C:
		case <-p.kick:
			timer.Stop()
			logger.Info("Woken up by trigger")
		}
	}
}

func (p *Poller) nextWait(interval time.Duration) time.Duration {
	if p.schedule == nil {
		return interval
	}

	now := p.now()
	next := p.schedule.Next(now)
	if d := next.Sub(now); !next.IsZero() && d < interval {
		return d
	}
	return interval
}
