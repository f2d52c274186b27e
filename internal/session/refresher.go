package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"fxconverter/internal/converter"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// Refresher periodically reissues the rate request of every live session so
// open pages follow the market.
type Refresher struct {
	sessions *Manager
	interval time.Duration
	// -----
	mu    sync.Mutex
	sched gocron.Scheduler
}

func NewRefresher(sessions *Manager, interval time.Duration) *Refresher {
	return &Refresher{sessions: sessions, interval: interval}
}

// Start schedules the refresh job. A non-positive interval leaves the
// refresher disabled.
func (r *Refresher) Start(ctx context.Context) error {
	if r.interval <= 0 {
		logrus.Info("Rate refresh disabled")
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() { r.RefreshAll() }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return err
	}

	r.mu.Lock()
	r.sched = scheduler
	r.mu.Unlock()
	scheduler.Start()

	// Stop scheduler when the provided context is canceled.
	go func() {
		<-ctx.Done()
		if sdErr := r.Shutdown(); sdErr != nil {
			logrus.Errorf("Refresher shutdown error: %v", sdErr)
		}
	}()
	return nil
}

// RefreshAll reissues the rate request of every live session and returns how
// many were refreshed.
func (r *Refresher) RefreshAll() int {
	refreshed := 0
	r.sessions.Range(func(id string, conv *converter.Converter) bool {
		if err := conv.Refresh(); err != nil {
			if !errors.Is(err, converter.ErrUnmounted) {
				logrus.WithError(err).WithField("session", id).Warn("refresh failed")
			}
			return true
		}
		refreshed++
		return true
	})
	logrus.WithField("sessions", refreshed).Debug("rates refreshed")
	return refreshed
}

func (r *Refresher) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sched == nil {
		return nil
	}
	err := r.sched.Shutdown()
	r.sched = nil
	return err
}
