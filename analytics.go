package main

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event types for analytics tracking
const (
	EvtJoin          = "join"
	EvtLeave         = "leave"
	EvtThrow         = "throw"
	EvtHit           = "hit"
	EvtDeath         = "death"
	EvtRespawn       = "respawn"
	EvtWallDestroyed = "wall_destroyed"
	EvtRegenerate    = "regenerate"
)

const (
	analyticsQueueSize = 1024
	analyticsBatchSize = 50
	analyticsFlushRate = 5 * time.Second
)

// Analytics handles event tracking with batched background writes
type Analytics struct {
	db     *DB
	log    *zap.Logger
	events chan EventRow
	stop   chan struct{}
	wg     sync.WaitGroup

	stopOnce sync.Once
	mu       sync.Mutex
	dropped  int
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB, log *zap.Logger) *Analytics {
	a := &Analytics{
		db:     db,
		log:    log.Named("analytics"),
		events: make(chan EventRow, analyticsQueueSize),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking). It is called
// from the simulation while the world lock is held, so a full queue drops.
func (a *Analytics) Track(evtType, clientID, data string) {
	select {
	case a.events <- EventRow{
		Type:      evtType,
		ClientID:  clientID,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}:
	default:
		a.mu.Lock()
		a.dropped++
		a.mu.Unlock()
	}
}

// Dropped returns how many events were discarded on a full queue
func (a *Analytics) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Stop flushes pending events and shuts down the writer
func (a *Analytics) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]EventRow, 0, 64)
	ticker := time.NewTicker(analyticsFlushRate)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= analyticsBatchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				default:
					a.flush(batch)
					return
				}
			}
		}
	}
}

func (a *Analytics) flush(events []EventRow) {
	if a.db == nil || len(events) == 0 {
		return
	}
	if err := a.db.InsertEvents(events); err != nil {
		a.log.Warn("flush failed", zap.Int("events", len(events)), zap.Error(err))
	}
}

// EventCounts returns counts of each event type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	return a.db.EventCounts(days)
}

// Recent returns the newest persisted events
func (a *Analytics) Recent(limit int) ([]EventRow, error) {
	if a.db == nil {
		return nil, nil
	}
	return a.db.RecentEvents(limit)
}
