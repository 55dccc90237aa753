// Package scheduler delivers due reminders. A fixed-interval sweep fetches
// pending reminders whose due time has passed, notifies their owners, and
// marks each delivered reminder as sent.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/notexe/reminder-bot/internal/reminder"
)

// Notifier delivers a message to a user. A failed send leaves the reminder
// pending; it is retried on the next sweep.
type Notifier interface {
	Send(ctx context.Context, userID int64, text string) error
}

// Scheduler runs the periodic due-reminder sweep.
type Scheduler struct {
	store       *reminder.Store
	notifier    Notifier
	interval    time.Duration
	sendTimeout time.Duration
	now         func() time.Time
}

// New creates a Scheduler sweeping every interval. sendTimeout bounds each
// individual notification so one slow recipient cannot stall the batch.
func New(store *reminder.Store, notifier Notifier, interval, sendTimeout time.Duration) *Scheduler {
	return &Scheduler{
		store:       store,
		notifier:    notifier,
		interval:    interval,
		sendTimeout: sendTimeout,
		now:         time.Now,
	}
}

// Run blocks and runs a sweep on interval, plus immediately on start. It
// exits when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", s.interval)
	}

	log.Printf("[scheduler] Started. Interval: %s", s.interval)

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[scheduler] Shutting down...")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick performs one sweep. Failures are isolated per reminder: a send or
// store error is logged and the sweep moves on.
func (s *Scheduler) tick(ctx context.Context) {
	due, err := s.store.ListDue(ctx, s.now())
	if err != nil {
		log.Printf("[scheduler] Error: failed to fetch due reminders: %v", err)
		return
	}

	for _, r := range due {
		if err := s.deliver(ctx, r); err != nil {
			log.Printf("[scheduler] Error: reminder %d for user %d: %v", r.ID, r.UserID, err)
			continue
		}
		log.Printf("[scheduler] Reminder %d sent to user %d", r.ID, r.UserID)
	}
}

func (s *Scheduler) deliver(ctx context.Context, r reminder.Reminder) error {
	sendCtx := ctx
	if s.sendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.sendTimeout)
		defer cancel()
	}

	if err := s.notifier.Send(sendCtx, r.UserID, "⏰ Reminder\n\n"+r.Text); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}

	ok, err := s.store.MarkSent(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("mark sent failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("reminder was no longer pending")
	}
	return nil
}
