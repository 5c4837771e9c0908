package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"sync_service/pkg/logging"
)

type autoSyncer interface {
	RunAutoSync(ctx context.Context) (int, error)
}

type reminderSender interface {
	SendReminders(ctx context.Context, window time.Duration) (int, error)
}

type worker interface {
	Start(ctx context.Context)
}

// runWorkers blocks until every worker has returned.
func runWorkers(ctx context.Context, workers ...worker) {
	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Start(ctx)
		}()
	}
	wg.Wait()
}

type AutoSyncWorker struct {
	svc      autoSyncer
	logger   *logging.Logger
	interval time.Duration
}

func NewAutoSyncWorker(svc autoSyncer, logger *logging.Logger, interval time.Duration) *AutoSyncWorker {
	return &AutoSyncWorker{
		svc:      svc,
		logger:   logger.Named("auto_sync_worker"),
		interval: interval,
	}
}

func (w *AutoSyncWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Auto sync worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *AutoSyncWorker) runOnce(ctx context.Context) {
	n, err := w.svc.RunAutoSync(ctx)
	if err != nil {
		w.logger.Error(ctx, "Auto sync round failed", zap.Int("processed", n), zap.Error(err))
		return
	}
	if n > 0 {
		w.logger.Info(ctx, "Auto sync round finished", zap.Int("processed", n))
	}
}

type ReminderWorker struct {
	svc      reminderSender
	logger   *logging.Logger
	interval time.Duration
	window   time.Duration
}

func NewReminderWorker(svc reminderSender, logger *logging.Logger, interval, window time.Duration) *ReminderWorker {
	return &ReminderWorker{
		svc:      svc,
		logger:   logger.Named("reminder_worker"),
		interval: interval,
		window:   window,
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Reminder worker stopped")
			return
		case <-ticker.C:
			w.processReminders(ctx)
		}
	}
}

func (w *ReminderWorker) processReminders(ctx context.Context) {
	sent, err := w.svc.SendReminders(ctx, w.window)
	if err != nil {
		w.logger.Error(ctx, "Failed to send reminders", zap.Error(err))
		return
	}
	if sent > 0 {
		w.logger.Info(ctx, "Sent assignment reminders", zap.Int("count", sent))
	}
}
