package usecase

import (
	"sync"
	"time"
)

// Task is a handle to scheduled work. Cancel is idempotent and safe to call
// from any goroutine.
type Task interface {
	Cancel()
}

// Scheduler runs callbacks later. The wizard owns every Task it gets back
// and cancels them on completion and teardown.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Task
	After(delay time.Duration, fn func()) Task
}

type timeScheduler struct{}

// NewScheduler returns a Scheduler backed by the runtime timers.
func NewScheduler() Scheduler {
	return timeScheduler{}
}

type tickerTask struct {
	stop chan struct{}
	once sync.Once
}

func (t *tickerTask) Cancel() {
	t.once.Do(func() { close(t.stop) })
}

func (timeScheduler) Every(interval time.Duration, fn func()) Task {
	task := &tickerTask{stop: make(chan struct{})}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-task.stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return task
}

type timerTask struct {
	timer *time.Timer
}

func (t *timerTask) Cancel() {
	t.timer.Stop()
}

func (timeScheduler) After(delay time.Duration, fn func()) Task {
	return &timerTask{timer: time.AfterFunc(delay, fn)}
}
