package cache

import (
	"sync"
	"time"

	"github.com/tbourn/civics-backend/internal/observability"
)

// Category groups cached API responses that share a freshness policy.
type Category string

const (
	CategoryFinance    Category = "finance"
	CategoryVotes      Category = "votes"
	CategoryCommittees Category = "committees"
	CategoryNews       Category = "news"
	CategoryMetrics    Category = "metrics"
	CategoryCompare    Category = "compare"
	CategoryIssues     Category = "issues"
)

// DefaultTTL applies to categories missing from the TTL table.
const DefaultTTL = 30 * time.Minute

var categoryTTL = map[Category]time.Duration{
	CategoryFinance:    6 * time.Hour,
	CategoryVotes:      30 * time.Minute,
	CategoryCommittees: 24 * time.Hour,
	CategoryNews:       30 * time.Minute,
	CategoryMetrics:    time.Hour,
	CategoryCompare:    30 * time.Minute,
	CategoryIssues:     time.Hour,
}

// TTLFor returns the freshness window of a category.
func TTLFor(c Category) time.Duration {
	if d, ok := categoryTTL[c]; ok {
		return d
	}
	return DefaultTTL
}

// Store is the category-keyed response cache used by the API boundary.
// It has no capacity bound; instead every Set that leaves the store above
// the sweep threshold removes all expired entries.
type Store struct {
	mu        sync.Mutex
	items     map[string]entry[any]
	threshold int
	now       func() time.Time
}

// NewStore returns a Store that sweeps once it holds more than threshold entries.
func NewStore(threshold int) *Store {
	if threshold < 1 {
		threshold = 500
	}
	return &Store{items: make(map[string]entry[any]), threshold: threshold, now: time.Now}
}

// Get returns the live value under key.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	e, ok := s.items[key]
	if ok && !s.now().Before(e.expiresAt) {
		delete(s.items, key)
		ok = false
	}
	s.mu.Unlock()
	observability.CacheLookup("category", ok)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the category's TTL.
func (s *Store) Set(key string, value any, c Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.items[key] = entry[any]{value: value, expiresAt: now.Add(TTLFor(c))}
	if len(s.items) > s.threshold {
		for k, e := range s.items {
			if !now.Before(e.expiresAt) {
				delete(s.items, k)
			}
		}
	}
}

// Len counts stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// GetAs is a typed Get; a stored value of another type counts as a miss.
func GetAs[T any](s *Store, key string) (T, bool) {
	v, ok := s.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
