package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xavierca1/clientpulse/internal/entity"
	"github.com/xavierca1/clientpulse/internal/logging"
)

const (
	DefaultFeedInterval = 10 * time.Second
	feedPageSize        = maxPageLimit
)

type SyncStatus string

const (
	SyncSynced  SyncStatus = "synced"
	SyncSyncing SyncStatus = "syncing"
	SyncOffline SyncStatus = "offline"
)

// FeedEvent replaces the whole board. Opportunities are sorted by score,
// highest first. On a failed poll Opportunities keeps the last good list.
type FeedEvent struct {
	Opportunities []*entity.Opportunity
	Total         int
	Status        SyncStatus
	Err           error
	At            time.Time
}

// OpportunityFeed keeps a board up to date by polling the opportunity list.
type OpportunityFeed struct {
	lister    OpportunityLister
	scheduler Scheduler
	interval  time.Duration
	logger    logging.Logger
	now       Clock

	mu          sync.Mutex
	subscribers map[int]func(FeedEvent)
	nextID      int
	last        FeedEvent
	task        Task
	polling     bool
}

func NewOpportunityFeed(lister OpportunityLister, scheduler Scheduler, interval time.Duration, logger logging.Logger) *OpportunityFeed {
	if scheduler == nil {
		scheduler = NewScheduler()
	}
	if interval <= 0 {
		interval = DefaultFeedInterval
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	return &OpportunityFeed{
		lister:      lister,
		scheduler:   scheduler,
		interval:    interval,
		logger:      logger,
		now:         time.Now,
		subscribers: map[int]func(FeedEvent){},
		last:        FeedEvent{Opportunities: []*entity.Opportunity{}, Status: SyncSyncing},
	}
}

// Subscribe registers fn and returns the function that removes it.
func (f *OpportunityFeed) Subscribe(fn func(FeedEvent)) (unsubscribe func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subscribers[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subscribers, id)
		f.mu.Unlock()
	}
}

func (f *OpportunityFeed) Last() FeedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// Start polls once right away, then every interval until Stop or ctx ends.
func (f *OpportunityFeed) Start(ctx context.Context) {
	f.mu.Lock()
	if f.task != nil {
		f.mu.Unlock()
		return
	}
	f.task = f.scheduler.Every(f.interval, func() {
		if ctx.Err() != nil {
			f.Stop()
			return
		}
		f.Refresh(ctx)
	})
	f.mu.Unlock()

	go f.Refresh(ctx)
}

func (f *OpportunityFeed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.task != nil {
		f.task.Cancel()
		f.task = nil
	}
}

// Refresh fetches the list and publishes it. Overlapping refreshes are
// skipped.
func (f *OpportunityFeed) Refresh(ctx context.Context) {
	f.mu.Lock()
	if f.polling {
		f.mu.Unlock()
		return
	}
	f.polling = true
	f.mu.Unlock()

	out, err := f.lister.List(ctx, feedPageSize, 0)

	f.mu.Lock()
	f.polling = false
	event := FeedEvent{At: f.now()}
	if err != nil {
		f.logger.Warn("opportunity feed poll failed", "error", err)
		event.Opportunities = f.last.Opportunities
		event.Total = f.last.Total
		event.Status = SyncOffline
		event.Err = err
	} else {
		event.Opportunities = SortByScore(out.Opportunities)
		event.Total = out.Total
		event.Status = SyncSynced
	}
	f.last = event
	subscribers := make([]func(FeedEvent), 0, len(f.subscribers))
	for _, fn := range f.subscribers {
		subscribers = append(subscribers, fn)
	}
	f.mu.Unlock()

	for _, fn := range subscribers {
		fn(event)
	}
}

// SortByScore returns a copy ordered by score descending, ties by newest.
func SortByScore(opps []*entity.Opportunity) []*entity.Opportunity {
	sorted := make([]*entity.Opportunity, len(opps))
	copy(sorted, opps)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}
