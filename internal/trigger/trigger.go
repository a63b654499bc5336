// Package trigger fires the reminder evaluation once per day at a
// configured wall-clock time in a configured timezone.
package trigger

import (
	"context"
	"fmt"
	"time"

	"medremind.app/cloud/internal/config"
	"medremind.app/cloud/internal/logger"
	"medremind.app/cloud/internal/notify"
)

type Trigger struct {
	Notifier *notify.Notifier

	hour     int
	minute   int
	location *time.Location
}

func New(notifier *notify.Notifier, cfg *config.Config) (*Trigger, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	return &Trigger{
		Notifier: notifier,
		hour:     cfg.NotifyHour,
		minute:   cfg.NotifyMinute,
		location: location,
	}, nil
}

// Start launches the daily loop. It returns immediately; the loop stops
// when ctx is cancelled.
func (t *Trigger) Start(ctx context.Context) {
	go t.loop(ctx)
}

func (t *Trigger) loop(ctx context.Context) {
	for {
		now := time.Now().In(t.location)
		next := t.NextRun(now)

		logger.Info("Next reminder run scheduled", map[string]interface{}{
			"at": next.Format(time.RFC3339),
		})

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := t.Notifier.Run(ctx); err != nil {
			logger.Error("Scheduled reminder run failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

// NextRun returns the next daily firing time strictly after now.
func (t *Trigger) NextRun(now time.Time) time.Time {
	now = now.In(t.location)
	next := time.Date(now.Year(), now.Month(), now.Day(), t.hour, t.minute, 0, 0, t.location)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
