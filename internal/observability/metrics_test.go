package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveUpstream_CountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(upstreamReqs.WithLabelValues("api.example.test", OutcomeOK))
	ObserveUpstream("api.example.test", OutcomeOK, 20*time.Millisecond)
	ObserveUpstream("api.example.test", OutcomeOK, 30*time.Millisecond)
	ObserveUpstream("api.example.test", OutcomeCircuitOpen, 0)

	if got := testutil.ToFloat64(upstreamReqs.WithLabelValues("api.example.test", OutcomeOK)); got != before+2 {
		t.Fatalf("ok count = %v; want %v", got, before+2)
	}
	if got := testutil.ToFloat64(upstreamReqs.WithLabelValues("api.example.test", OutcomeCircuitOpen)); got < 1 {
		t.Fatalf("circuit_open count = %v; want >= 1", got)
	}
}

func TestSetCircuitOpen_Gauge(t *testing.T) {
	SetCircuitOpen("h.test", true)
	if v := testutil.ToFloat64(circuitOpen.WithLabelValues("h.test")); v != 1 {
		t.Fatalf("gauge = %v; want 1", v)
	}
	SetCircuitOpen("h.test", false)
	if v := testutil.ToFloat64(circuitOpen.WithLabelValues("h.test")); v != 0 {
		t.Fatalf("gauge = %v; want 0", v)
	}
}

func TestCacheLookup_HitMiss(t *testing.T) {
	hit0 := testutil.ToFloat64(cacheLookups.WithLabelValues("unit", "hit"))
	miss0 := testutil.ToFloat64(cacheLookups.WithLabelValues("unit", "miss"))
	CacheLookup("unit", true)
	CacheLookup("unit", false)
	CacheLookup("unit", false)
	if testutil.ToFloat64(cacheLookups.WithLabelValues("unit", "hit")) != hit0+1 {
		t.Fatalf("hit counter did not advance by 1")
	}
	if testutil.ToFloat64(cacheLookups.WithLabelValues("unit", "miss")) != miss0+2 {
		t.Fatalf("miss counter did not advance by 2")
	}
}
