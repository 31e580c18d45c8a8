package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingExpirer struct {
	calls atomic.Int32
	n     int
	err   error
}

func (e *countingExpirer) Execute(ctx context.Context) (int, error) {
	e.calls.Add(1)
	return e.n, e.err
}

func TestActivationReconciler_RunsImmediatelyAndOnTick(t *testing.T) {
	expirer := &countingExpirer{n: 2}
	w := NewActivationReconciler(expirer, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return expirer.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop after cancel")
	}
}

func TestActivationReconciler_SurvivesErrors(t *testing.T) {
	expirer := &countingExpirer{err: errors.New("db down")}
	w := NewActivationReconciler(expirer, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	assert.Eventually(t, func() bool { return expirer.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestNewActivationReconciler_Defaults(t *testing.T) {
	w := NewActivationReconciler(&countingExpirer{}, 0, nil)
	assert.Equal(t, DefaultReconcileInterval, w.tickInterval)
	assert.NotNil(t, w.logger)
}
