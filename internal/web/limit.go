package web

import (
	"sync"

	"golang.org/x/time/rate"
)

// claimLimiter throttles claims per player id. A nil limiter allows
// everything.
type claimLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	players map[string]*rate.Limiter
}

func newClaimLimiter(perSecond float64, burst int) *claimLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &claimLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		players: make(map[string]*rate.Limiter),
	}
}

func (l *claimLimiter) allow(player string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	lim, ok := l.players[player]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.players[player] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
