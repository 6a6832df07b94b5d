package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedCache[V any](size int, ttl time.Duration) (*TTLCache[V], *clock) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	c := NewTTLCache[V]("test", size, ttl)
	c.now = clk.now
	return c, clk
}

func TestTTLCache_LiveUntilTTL(t *testing.T) {
	c, clk := newClockedCache[string](10, time.Minute)
	c.Set("k", "v")

	clk.advance(time.Minute - time.Nanosecond)
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("entry should be live just before expiry, got %q %v", v, ok)
	}

	clk.advance(time.Nanosecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("entry must be absent once elapsed >= ttl")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be removed lazily on Get, len=%d", c.Len())
	}
}

func TestTTLCache_PerEntryTTLOverride(t *testing.T) {
	c, clk := newClockedCache[int](10, time.Hour)
	c.Set("short", 1, time.Second)
	c.Set("long", 2)

	clk.advance(2 * time.Second)
	if _, ok := c.Get("short"); ok {
		t.Fatalf("short entry should have expired")
	}
	if v, ok := c.Get("long"); !ok || v != 2 {
		t.Fatalf("long entry should be live")
	}
}

func TestTTLCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newClockedCache[int](3, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch "a" so "b" becomes the least recently used.
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a should be present")
	}
	c.Set("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("%s should still be present", k)
		}
	}
	if c.Len() != 3 {
		t.Fatalf("len=%d; want 3", c.Len())
	}
}

func TestTTLCache_DeleteAndPurge(t *testing.T) {
	c, _ := newClockedCache[int](5, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should be deleted")
	}
	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("purge should empty the cache")
	}
}

func TestTTLCache_Defaults(t *testing.T) {
	c := NewTTLCache[int]("d", 0, 0)
	if c.defaultTTL != 30*time.Minute {
		t.Fatalf("default ttl = %v", c.defaultTTL)
	}
	for i := 0; i < 600; i++ {
		c.Set(fmt.Sprint(i), i)
	}
	if c.Len() != 500 {
		t.Fatalf("default capacity should be 500, len=%d", c.Len())
	}
}

func TestTTLCache_ConcurrentAccess(t *testing.T) {
	c := NewTTLCache[int]("conc", 64, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := fmt.Sprintf("%d-%d", g, i%10)
				c.Set(k, i)
				c.Get(k)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 64 {
		t.Fatalf("capacity exceeded: %d", c.Len())
	}
}

func TestTTLCache_ExpiryRemovalKeepsRacingSet(t *testing.T) {
	c := NewTTLCache[string]("race", 8, time.Minute)
	var (
		mu    sync.Mutex
		now   = time.Unix(1_700_000_000, 0)
		armed bool
		done  = make(chan struct{})
	)
	c.now = func() time.Time {
		mu.Lock()
		fire, t0 := armed, now
		armed = false
		mu.Unlock()
		if fire {
			// A writer lands while Get is deciding the entry is stale.
			go func() {
				c.Set("k", "fresh")
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(20 * time.Millisecond):
			}
		}
		return t0
	}

	c.Set("k", "stale")
	mu.Lock()
	now = now.Add(2 * time.Minute)
	armed = true
	mu.Unlock()

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expired entry returned")
	}
	<-done
	if v, ok := c.Get("k"); !ok || v != "fresh" {
		t.Fatalf("concurrent Set lost: %q %v", v, ok)
	}
}
