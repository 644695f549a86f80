package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/m3rciful/buttonbot/core/logger"
)

// scheduleStats starts the periodic stats report. A non-positive interval disables it.
func (a *App) scheduleStats(ctx context.Context) (*gocron.Scheduler, error) {
	minutes := a.cfg.Stats.IntervalMinutes
	if minutes <= 0 {
		return nil, nil
	}
	s := gocron.NewScheduler(time.UTC)
	if _, err := s.Every(time.Duration(minutes) * time.Minute).WaitForSchedule().Do(a.logStats, context.WithoutCancel(ctx)); err != nil {
		return nil, fmt.Errorf("stats: schedule: %w", err)
	}
	s.StartAsync()
	return s, nil
}

func (a *App) logStats(ctx context.Context) {
	logger.Info(ctx, "stats", "stats.report",
		slog.Int("sessions", a.Sessions()),
		slog.Uint64("send_failures", a.SendFailures()),
	)
}
