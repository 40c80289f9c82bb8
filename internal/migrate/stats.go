package migrate

import (
	"sync"
	"time"
)

// RunStats aggregates in-memory counters for one run. It observes the event
// stream, so it counts exactly what was reported, including dry-run
// simulations. All methods are thread-safe.
type RunStats struct {
	mu        sync.RWMutex
	startTime time.Time
	counts    map[EventType]int64
}

// StatsSnapshot is a point-in-time view of the run counters.
type StatsSnapshot struct {
	Elapsed       time.Duration
	TopicsCreated int64
	PostsCreated  int64
	Skipped       int64
	Failed        int64
	Anomalies     int64
	TopicsDeleted int64
	Simulated     int64
}

// NewRunStats creates an empty stats collector.
func NewRunStats() *RunStats {
	return &RunStats{
		startTime: time.Now(),
		counts:    make(map[EventType]int64),
	}
}

// Publish implements Observer.
func (s *RunStats) Publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[e.Type]++
}

// Snapshot returns the current counters.
func (s *RunStats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StatsSnapshot{
		Elapsed:       time.Since(s.startTime),
		TopicsCreated: s.counts[EventTopicCreated],
		PostsCreated:  s.counts[EventPostCreated],
		Skipped:       s.counts[EventSkipped],
		Failed:        s.counts[EventItemFailed],
		Anomalies:     s.counts[EventAnomaly],
		TopicsDeleted: s.counts[EventTopicDeleted],
		Simulated:     s.counts[EventDryRun],
	}
}
