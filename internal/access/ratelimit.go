package access

import (
	"sync"
	"time"
)

const (
	minuteWindow  = time.Minute
	dayWindow     = 24 * time.Hour
	sweepInterval = 5 * time.Minute
)

// Window names the limiter window that rejected a request.
type Window string

const (
	WindowMinute Window = "minute"
	WindowDay    Window = "day"
)

// Decision is the outcome of one CheckRateLimit call.
//
// Limit is the budget of the window that decided the request. RetryAfter is
// set only on rejections and is the time left in that window.
type Decision struct {
	Allowed    bool
	Remaining  int
	Limit      int
	RetryAfter time.Duration
	Window     Window
}

type window struct {
	count int
	start time.Time
}

// RateLimiter counts requests per caller key in a minute window and a day
// window. Each window starts at the first request after the previous one
// expired. Rejected requests are not counted.
//
// This type is safe for concurrent use.
type RateLimiter struct {
	mu        sync.Mutex
	limits    map[Tier]RateLimit
	minute    map[string]*window
	day       map[string]*window
	lastSweep time.Time
	now       func() time.Time
}

// LimiterOption configures a RateLimiter.
type LimiterOption func(*RateLimiter)

// WithLimits overrides the per-tier budgets. Tiers missing from m keep
// their defaults.
func WithLimits(m map[Tier]RateLimit) LimiterOption {
	return func(rl *RateLimiter) {
		for t, l := range m {
			rl.limits[t] = l
		}
	}
}

// WithLimiterClock replaces time.Now.
func WithLimiterClock(now func() time.Time) LimiterOption {
	return func(rl *RateLimiter) { rl.now = now }
}

// NewRateLimiter returns a limiter using DefaultRateLimits.
func NewRateLimiter(opts ...LimiterOption) *RateLimiter {
	rl := &RateLimiter{
		limits: make(map[Tier]RateLimit, len(DefaultRateLimits)),
		minute: make(map[string]*window),
		day:    make(map[string]*window),
		now:    time.Now,
	}
	for t, l := range DefaultRateLimits {
		rl.limits[t] = l
	}
	for _, o := range opts {
		o(rl)
	}
	rl.lastSweep = rl.now()
	return rl
}

// Limits returns the budget applied to tier t.
func (rl *RateLimiter) Limits(t Tier) RateLimit {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.limitFor(t)
}

func (rl *RateLimiter) limitFor(t Tier) RateLimit {
	if l, ok := rl.limits[t]; ok {
		return l
	}
	return rl.limits[TierFree]
}

// CheckRateLimit records one request for key at tier t and reports whether
// it is allowed.
func (rl *RateLimiter) CheckRateLimit(key string, t Tier) Decision {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	lim := rl.limitFor(t)
	if now.Sub(rl.lastSweep) > sweepInterval {
		rl.sweep(now)
	}

	mw := current(rl.minute, key, now, minuteWindow)
	if mw.count >= lim.PerMinute {
		return Decision{
			Limit:      lim.PerMinute,
			RetryAfter: minuteWindow - now.Sub(mw.start),
			Window:     WindowMinute,
		}
	}

	var dw *window
	if lim.PerDay >= 0 {
		dw = current(rl.day, key, now, dayWindow)
		if dw.count >= lim.PerDay {
			return Decision{
				Limit:      lim.PerDay,
				RetryAfter: dayWindow - now.Sub(dw.start),
				Window:     WindowDay,
			}
		}
	}

	if dw != nil {
		dw.count++
	}
	mw.count++
	return Decision{
		Allowed:   true,
		Remaining: lim.PerMinute - mw.count,
		Limit:     lim.PerMinute,
		Window:    WindowMinute,
	}
}

// current returns the live window under key, starting a new one when the
// previous has run its full length.
func current(m map[string]*window, key string, now time.Time, length time.Duration) *window {
	w, ok := m[key]
	if !ok || now.Sub(w.start) > length {
		w = &window{start: now}
		m[key] = w
	}
	return w
}

// sweep drops windows that have expired. Caller holds rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for k, w := range rl.minute {
		if now.Sub(w.start) > minuteWindow {
			delete(rl.minute, k)
		}
	}
	for k, w := range rl.day {
		if now.Sub(w.start) > dayWindow {
			delete(rl.day, k)
		}
	}
	rl.lastSweep = now
}

// Tracked returns how many minute and day windows are held.
func (rl *RateLimiter) Tracked() (minute, day int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.minute), len(rl.day)
}
