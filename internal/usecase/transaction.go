package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Transaction executa operações em sequência e, se uma falhar, roda as
// compensações das que já passaram em ordem inversa (saga local).
type Transaction struct {
	operations []step
	logger     *zap.Logger
}

type step struct {
	name       string
	fn         func(context.Context) error
	compensate func(context.Context) error
}

func NewTransaction(logger *zap.Logger) *Transaction {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transaction{logger: logger}
}

func (t *Transaction) AddOperation(name string, fn func(context.Context) error) {
	t.operations = append(t.operations, step{name: name, fn: fn})
}

// AddCompensation attaches a rollback to the last added operation.
func (t *Transaction) AddCompensation(fn func(context.Context) error) {
	if len(t.operations) == 0 {
		return
	}
	t.operations[len(t.operations)-1].compensate = fn
}

func (t *Transaction) Execute(ctx context.Context) error {
	for i, op := range t.operations {
		if err := op.fn(ctx); err != nil {
			t.rollback(ctx, i)
			return fmt.Errorf("operation '%s' failed: %w (rolled back %d operations)", op.name, err, i)
		}
	}
	return nil
}

func (t *Transaction) rollback(ctx context.Context, failedAt int) {
	for i := failedAt - 1; i >= 0; i-- {
		op := t.operations[i]
		if op.compensate == nil {
			continue
		}
		if err := op.compensate(ctx); err != nil {
			// Estado inconsistente: precisa de intervenção manual.
			t.logger.Error("⚠️ compensation failed",
				zap.String("operation", op.name),
				zap.Error(err),
			)
		}
	}
}
