package handler

import (
	"sync"

	"golang.org/x/time/rate"
)

const (
	defaultBidsPerSecond = 5
	defaultBidBurst      = 10
)

// bidLimiter ограничивает частоту ставок отдельно для каждого участника.
type bidLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newBidLimiter(perSecond float64, burst int) *bidLimiter {
	return &bidLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *bidLimiter) Allow(participantID string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[participantID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[participantID] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}
