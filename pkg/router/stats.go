package router

import "sync/atomic"

// Stats is a lock-free counter set for routing decisions. A snapshot is
// cheap enough to take per-request for tracing attributes.
type Stats struct {
	total     atomic.Int64
	matched   atomic.Int64
	unmatched atomic.Int64
}

// Snapshot is an immutable point-in-time read of Stats.
type Snapshot struct {
	Total     int64
	Matched   int64
	Unmatched int64
}

func newStats() *Stats { return &Stats{} }

func (s *Stats) recordMatch()   { s.total.Add(1); s.matched.Add(1) }
func (s *Stats) recordNoMatch() { s.total.Add(1); s.unmatched.Add(1) }

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Total:     s.total.Load(),
		Matched:   s.matched.Load(),
		Unmatched: s.unmatched.Load(),
	}
}
