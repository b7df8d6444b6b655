package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Reminder interface {
	RemindStale(ctx context.Context, now time.Time) (int, error)
}

// DraftReminderWorker dispara os lembretes de rascunho a cada tick.
type DraftReminderWorker struct {
	reminder     Reminder
	tickInterval time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

func NewDraftReminderWorker(reminder Reminder, interval time.Duration, logger *zap.Logger) *DraftReminderWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &DraftReminderWorker{
		reminder:     reminder,
		tickInterval: interval,
		logger:       logger,
		now:          time.Now,
	}
}

// Start roda até o ctx ser cancelado. Sempre devolve nil para o errgroup.
func (w *DraftReminderWorker) Start(ctx context.Context) error {
	w.logger.Info("🕒 draft reminder worker started", zap.Duration("interval", w.tickInterval))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("⚠️ draft reminder worker stopped")
			return nil
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *DraftReminderWorker) tick(ctx context.Context) {
	sent, err := w.reminder.RemindStale(ctx, w.now())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("❌ draft reminder run failed", zap.Error(err))
		return
	}
	if sent > 0 {
		w.logger.Info("✅ draft reminders queued", zap.Int("count", sent))
	}
}
