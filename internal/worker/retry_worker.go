package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/IlliaFransua/burger-order-api/internal/logger"
	"github.com/IlliaFransua/burger-order-api/internal/model"
	"github.com/IlliaFransua/burger-order-api/internal/service"
)

// RetryWorker resends notifications stuck in ERROR once at start and then on
// every tick. Ticks never overlap; a slow tick delays the next one.
type RetryWorker struct {
	dispatcher *service.Dispatcher
	interval   time.Duration
	log        *zap.Logger
}

func NewRetryWorker(dispatcher *service.Dispatcher, interval time.Duration, log *zap.Logger) *RetryWorker {
	log = logger.OrNop(log)
	return &RetryWorker{
		dispatcher: dispatcher,
		interval:   interval,
		log:        log,
	}
}

func (w *RetryWorker) Start(ctx context.Context) {
	w.log.Info("starting notification retry worker", zap.Duration("interval", w.interval))
	w.runBatch(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("notification retry worker stopped")
			return
		case <-ticker.C:
			w.runBatch(ctx)
		}
	}
}

func (w *RetryWorker) runBatch(ctx context.Context) {
	if err := w.processBatch(ctx); err != nil && ctx.Err() == nil {
		w.log.Error("retry batch failed", zap.Error(err))
	}
}

func (w *RetryWorker) processBatch(ctx context.Context) error {
	records, err := w.dispatcher.Retryable(ctx)
	if err != nil {
		return fmt.Errorf("get retryable notifications: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	w.log.Info("retrying notifications", zap.Int("count", len(records)))
	sent := 0
	for i := range records {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rec := &records[i]
		w.log.Debug("retrying notification", zap.String("id", rec.ID), zap.Int("attempts", rec.Attempts))
		if err := w.dispatcher.Send(ctx, rec); err != nil {
			w.log.Error("failed to persist retried notification", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		if rec.Status == model.NotificationSent {
			sent++
		}
	}
	w.log.Info("retry batch finished", zap.Int("count", len(records)), zap.Int("sent", sent))
	return nil
}
