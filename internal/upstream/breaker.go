package upstream

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/civics-backend/internal/observability"
)

// BreakerState is the externally visible state of one host's circuit.
type BreakerState string

const (
	StateClosed   BreakerState = "closed"
	StateOpen     BreakerState = "open"
	StateHalfOpen BreakerState = "half_open"
)

type hostCircuit struct {
	failures  int
	openUntil time.Time
	probing   bool // a half-open trial call is in flight
}

// Breakers tracks one circuit per hostname. A host with no entry is closed.
// All methods are safe for concurrent use.
type Breakers struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	now       func() time.Time
	hosts     map[string]*hostCircuit
}

// NewBreakers returns a breaker table that opens a host after threshold
// consecutive failures and keeps it open for cooldown.
func NewBreakers(threshold int, cooldown time.Duration, now func() time.Time) *Breakers {
	if threshold < 1 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &Breakers{
		threshold: threshold,
		cooldown:  cooldown,
		now:       now,
		hosts:     make(map[string]*hostCircuit),
	}
}

// Allow reports whether a call to host may proceed. Once the cool-down has
// elapsed exactly one trial call is let through; concurrent callers keep
// failing fast until that trial settles.
func (b *Breakers) Allow(host string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	hc, ok := b.hosts[host]
	if !ok || hc.failures < b.threshold {
		return nil
	}
	if b.now().Before(hc.openUntil) || hc.probing {
		return &CircuitOpenError{Host: host, Until: hc.openUntil}
	}
	hc.probing = true
	return nil
}

// Success closes host's circuit and forgets its failure history.
func (b *Breakers) Success(host string) {
	b.mu.Lock()
	hc, ok := b.hosts[host]
	delete(b.hosts, host)
	b.mu.Unlock()

	if ok && hc.failures >= b.threshold {
		observability.SetCircuitOpen(host, false)
		log.Info().Str("host", host).Msg("circuit closed")
	}
}

// Failure records one failure. Reaching the threshold, or failing a
// half-open trial, (re)opens the circuit for the cool-down period.
func (b *Breakers) Failure(host string) {
	b.mu.Lock()
	hc, ok := b.hosts[host]
	if !ok {
		hc = &hostCircuit{}
		b.hosts[host] = hc
	}
	hc.failures++
	hc.probing = false
	opened := false
	if hc.failures >= b.threshold {
		hc.openUntil = b.now().Add(b.cooldown)
		opened = true
	}
	failures, until := hc.failures, hc.openUntil
	b.mu.Unlock()

	if opened {
		observability.SetCircuitOpen(host, true)
		log.Warn().Str("host", host).Int("failures", failures).Time("open_until", until).Msg("circuit open")
	}
}

// Release ends a half-open trial that was abandoned without an outcome
// (for example when the caller's context was cancelled).
func (b *Breakers) Release(host string) {
	b.mu.Lock()
	if hc, ok := b.hosts[host]; ok {
		hc.probing = false
	}
	b.mu.Unlock()
}

// State reports host's current circuit state.
func (b *Breakers) State(host string) BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	hc, ok := b.hosts[host]
	switch {
	case !ok || hc.failures < b.threshold:
		return StateClosed
	case b.now().Before(hc.openUntil):
		return StateOpen
	default:
		return StateHalfOpen
	}
}
