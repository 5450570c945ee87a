package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reminder sends one round of reminders and reports how many went out
type Reminder interface {
	SendReminders(ctx context.Context) (int, error)
}

// ReminderWorker periodically nudges approvers about requests that sat idle
type ReminderWorker struct {
	reminder Reminder
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewReminderWorker creates a worker that runs reminder every interval
func NewReminderWorker(reminder Reminder, interval time.Duration, logger *zap.Logger) *ReminderWorker {
	return &ReminderWorker{
		reminder: reminder,
		interval: interval,
		timeout:  30 * time.Second,
		logger:   logger,
	}
}

// Start launches the reminder loop
func (w *ReminderWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("reminder worker is already running")
	}
	if w.interval <= 0 {
		return fmt.Errorf("reminder interval must be positive, got %s", w.interval)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true

	w.logger.Info("Reminder worker started", zap.Duration("interval", w.interval))
	go w.loop(loopCtx, w.done)
	return nil
}

// Stop cancels the loop and waits for the current round to finish
func (w *ReminderWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.cancel()
	done := w.done
	w.mu.Unlock()

	<-done
	w.logger.Info("Reminder worker stopped")
	return nil
}

// Name returns the worker name for identification
func (w *ReminderWorker) Name() string {
	return "ReminderWorker"
}

func (w *ReminderWorker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ReminderWorker) runOnce(ctx context.Context) {
	roundCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	sent, err := w.reminder.SendReminders(roundCtx)
	if err != nil {
		w.logger.Error("Reminder round failed", zap.Int("sent", sent), zap.Error(err))
		return
	}
	if sent > 0 {
		w.logger.Info("Reminders sent", zap.Int("count", sent))
	}
}
