package usecase

import (
	"context"
	"fmt"

	"github.com/xavierca1/clientpulse/internal/logging"
)

// Transaction runs a sequence of steps across repositories that do not
// share a database transaction. When a step fails, the compensations of the
// steps that already ran are executed in reverse order.
type Transaction struct {
	steps  []step
	logger logging.Logger
}

type step struct {
	name       string
	fn         func(context.Context) error
	compensate func(context.Context) error
}

func NewTransaction(logger logging.Logger) *Transaction {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Transaction{logger: logger}
}

// AddOperation appends a step. compensate may be nil for the last step or
// for steps with nothing to undo.
func (t *Transaction) AddOperation(name string, fn, compensate func(context.Context) error) {
	t.steps = append(t.steps, step{name: name, fn: fn, compensate: compensate})
}

func (t *Transaction) Execute(ctx context.Context) error {
	for i, s := range t.steps {
		if err := s.fn(ctx); err != nil {
			t.rollback(ctx, i)
			return fmt.Errorf("operation '%s' failed: %w (rolled back %d operations)", s.name, err, i)
		}
	}
	return nil
}

func (t *Transaction) rollback(ctx context.Context, failedAt int) {
	// compensations must run even if the request context is gone
	ctx = context.WithoutCancel(ctx)
	for i := failedAt - 1; i >= 0; i-- {
		s := t.steps[i]
		if s.compensate == nil {
			continue
		}
		if err := s.compensate(ctx); err != nil {
			t.logger.Error("compensation failed, data may be inconsistent", "step", s.name, "error", err)
		}
	}
}
