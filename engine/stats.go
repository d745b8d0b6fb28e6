package engine

import (
	"sync"
	"time"
)

const statsCapacity = 1000

// QueryStats is one entry of the query-stats ring buffer: the SQL text,
// how long it took, and whether it succeeded.
type QueryStats struct {
	SQL       string
	Duration  time.Duration
	Success   bool
	Timestamp time.Time
}

// StatsBuffer is a fixed-capacity ring buffer of the most recent
// QueryStats entries; once full, the oldest entry is overwritten.
type StatsBuffer struct {
	mu     sync.Mutex
	buf    []QueryStats
	next   int
	filled bool
}

// NewStatsBuffer creates a StatsBuffer with the documented capacity
// (1000 entries).
func NewStatsBuffer() *StatsBuffer {
	return &StatsBuffer{buf: make([]QueryStats, statsCapacity)}
}

// Append records one QueryStats entry, overwriting the oldest once the
// buffer is at capacity.
func (s *StatsBuffer) Append(entry QueryStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf[s.next] = entry
	s.next = (s.next + 1) % len(s.buf)
	if s.next == 0 {
		s.filled = true
	}
}

// Recent returns every entry currently in the buffer, oldest first.
func (s *StatsBuffer) Recent() []QueryStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.filled {
		out := make([]QueryStats, s.next)
		copy(out, s.buf[:s.next])
		return out
	}
	out := make([]QueryStats, len(s.buf))
	copy(out, s.buf[s.next:])
	copy(out[len(s.buf)-s.next:], s.buf[:s.next])
	return out
}
