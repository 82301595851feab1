package transport

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// one sustained sample per interval, with burst room for the offline
	// queue flushing a short backlog
	sampleInterval = 2 * time.Second
	sampleBurst    = 5
)

// EngineerLimiter throttles location ingest per engineer. Entries live for
// the process lifetime; the engineer set is small.
type EngineerLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewEngineerLimiter creates a limiter with the default ingest rate.
func NewEngineerLimiter() *EngineerLimiter {
	return &EngineerLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(sampleInterval),
		burst:    sampleBurst,
	}
}

// Allow reports whether the engineer may record a sample now.
func (l *EngineerLimiter) Allow(engineerID string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[engineerID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[engineerID] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}
