package recordsync

import (
	"context"
	"errors"
	"time"

	"maisync/internal/components/assert"
	"maisync/internal/components/chrono"
	"maisync/internal/components/telemetry"
)

const (
	report_scheduler_startup = "scheduler.startup-cycle"
	report_scheduler_tick    = "scheduler.tick"
)

// DefaultInterval is how often the periodic cycle runs.
const DefaultInterval = 10 * time.Minute

type Scheduler struct {
	engine   *Engine
	cron     chrono.CronAPI
	interval time.Duration
	tel      telemetry.API
}

func NewScheduler(engine *Engine, cron chrono.CronAPI, interval time.Duration, tel telemetry.API) Scheduler {
	assert.NotNil(engine, "engine")
	assert.NotNil(cron, "cron")
	assert.NotNil(tel, "telemetry")
	if interval <= 0 {
		interval = DefaultInterval
	}
	return Scheduler{
		engine:   engine,
		cron:     cron,
		interval: interval,
		tel:      telemetry.NewScopedAPI("recordsync", tel),
	}
}

// Start runs the startup cycle synchronously, then registers the periodic
// cycle with cron. Errors of the startup cycle are only reported.
func (s Scheduler) Start(ctx context.Context) error {
	result, err := s.engine.RunCycle(ctx)
	if err != nil {
		s.tel.ReportWarning(report_scheduler_startup, err)
	} else {
		s.tel.ReportDebug("startup cycle finished", result.ID, string(result.Kind))
	}

	return s.cron.Cron(chrono.Every(s.interval), s.tick)
}

// tick is only bounded by the request timeout of the client.
func (s Scheduler) tick() {
	_, err := s.engine.RunCycle(context.Background())
	if errors.Is(err, ErrCycleInProgress) {
		return
	}
	if err != nil {
		s.tel.ReportWarning(report_scheduler_tick, err)
	}
}
