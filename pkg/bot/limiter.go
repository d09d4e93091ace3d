package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// inviteLimiter throttles invite code guesses per chat user.
type inviteLimiter struct {
	mu        sync.Mutex
	perMinute int
	limiters  map[int64]*rate.Limiter
}

func newInviteLimiter(perMinute int) *inviteLimiter {
	return &inviteLimiter{perMinute: perMinute, limiters: make(map[int64]*rate.Limiter)}
}

// allow is always true when perMinute is not positive.
func (l *inviteLimiter) allow(userID int64) bool {
	if l.perMinute <= 0 {
		return true
	}
	l.mu.Lock()
	lim, ok := l.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
		l.limiters[userID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// forget drops the limiter once a user is registered.
func (l *inviteLimiter) forget(userID int64) {
	l.mu.Lock()
	delete(l.limiters, userID)
	l.mu.Unlock()
}
