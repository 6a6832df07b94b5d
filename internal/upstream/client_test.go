package upstream

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

func newTestClient(t *testing.T, opts Options, extra ...ClientOption) (*Client, *sleepRecorder) {
	t.Helper()
	rec := &sleepRecorder{}
	all := append([]ClientOption{WithSleep(rec.Sleep)}, extra...)
	return NewClient(opts, all...), rec
}

// scripted serves the given status codes in order, repeating the last one.
func scripted(t *testing.T, hits *int32, codes []int, header http.Header) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(hits, 1)) - 1
		if n >= len(codes) {
			n = len(codes) - 1
		}
		for k, vs := range header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(codes[n])
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type okBody struct {
	OK bool `json:"ok"`
}

func TestFetchJSON_SuccessDecodes(t *testing.T) {
	var hits int32
	srv := scripted(t, &hits, []int{200}, nil)
	c, rec := newTestClient(t, Options{})

	var out okBody
	if err := c.FetchJSON(context.Background(), Get(srv.URL+"/x"), &out); err != nil {
		t.Fatalf("FetchJSON: %v", err)
	}
	if !out.OK || hits != 1 || len(rec.Waits()) != 0 {
		t.Fatalf("unexpected: out=%+v hits=%d waits=%v", out, hits, rec.Waits())
	}
}

func TestFetchJSON_SendsHeaders(t *testing.T) {
	var gotKey, gotAccept, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey, gotAccept, gotUA = r.Header.Get("X-Api-Key"), r.Header.Get("Accept"), r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, Options{UserAgent: "civics-test"})
	if err := c.FetchJSON(context.Background(), Get(srv.URL).WithHeader("X-Api-Key", "k1"), nil); err != nil {
		t.Fatalf("FetchJSON: %v", err)
	}
	if gotKey != "k1" || gotAccept != "application/json" || gotUA != "civics-test" {
		t.Fatalf("headers not forwarded: key=%q accept=%q ua=%q", gotKey, gotAccept, gotUA)
	}
}

func TestFetchJSON_ServerErrorRetriesWithExponentialBackoff(t *testing.T) {
	var hits int32
	srv := scripted(t, &hits, []int{503, 502, 200}, nil)
	c, rec := newTestClient(t, Options{})

	var out okBody
	if err := c.FetchJSON(context.Background(), Get(srv.URL), &out); err != nil {
		t.Fatalf("expected recovery after 5xx, got %v", err)
	}
	waits := rec.Waits()
	if hits != 3 || len(waits) != 2 || waits[0] != time.Second || waits[1] != 2*time.Second {
		t.Fatalf("hits=%d waits=%v; want 3 hits and [1s 2s]", hits, waits)
	}
}

func TestFetchJSON_ServerErrorExhaustsRetries(t *testing.T) {
	var hits int32
	srv := scripted(t, &hits, []int{500}, nil)
	c, rec := newTestClient(t, Options{MaxRetries: 3})

	err := c.FetchJSON(context.Background(), Get(srv.URL), nil)
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Status != 500 {
		t.Fatalf("expected UpstreamError 500, got %v", err)
	}
	if hits != 3 || len(rec.Waits()) != 2 {
		t.Fatalf("hits=%d waits=%v; want 3 attempts, 2 sleeps", hits, rec.Waits())
	}
}

func TestFetchJSON_429HonoursRetryAfterAndSkipsBreaker(t *testing.T) {
	var hits int32
	srv := scripted(t, &hits, []int{429, 200}, http.Header{"Retry-After": []string{"7"}})
	c, rec := newTestClient(t, Options{BreakerThreshold: 1})

	if err := c.FetchJSON(context.Background(), Get(srv.URL), nil); err != nil {
		t.Fatalf("FetchJSON: %v", err)
	}
	if w := rec.Waits(); len(w) != 1 || w[0] != 7*time.Second {
		t.Fatalf("waits=%v; want [7s]", w)
	}
	if st := c.Breakers().State("127.0.0.1"); st != StateClosed {
		t.Fatalf("429 must not trip the breaker, state=%s", st)
	}
}

func TestFetchJSON_429DefaultRetryAfter(t *testing.T) {
	var hits int32
	srv := scripted(t, &hits, []int{429, 200}, nil)
	c, rec := newTestClient(t, Options{})

	if err := c.FetchJSON(context.Background(), Get(srv.URL), nil); err != nil {
		t.Fatalf("FetchJSON: %v", err)
	}
	if w := rec.Waits(); len(w) != 1 || w[0] != 2*time.Second {
		t.Fatalf("waits=%v; want [2s]", w)
	}
}

func TestFetchJSON_ClientErrorIsNotRetried(t *testing.T) {
	var hits int32
	srv := scripted(t, &hits, []int{404}, nil)
	c, rec := newTestClient(t, Options{})

	err := c.FetchJSON(context.Background(), Get(srv.URL), nil)
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Status != 404 {
		t.Fatalf("expected UpstreamError 404, got %v", err)
	}
	if hits != 1 || len(rec.Waits()) != 0 {
		t.Fatalf("4xx must not retry: hits=%d waits=%v", hits, rec.Waits())
	}
}

func TestFetchJSON_InvalidJSONIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()
	c, _ := newTestClient(t, Options{})

	var out okBody
	err := c.FetchJSON(context.Background(), Get(srv.URL), &out)
	var ue *UpstreamError
	if !errors.As(err, &ue) || !strings.Contains(ue.Message, "invalid JSON") {
		t.Fatalf("expected invalid JSON UpstreamError, got %v", err)
	}
}

func TestFetchJSON_CircuitOpensAndFailsFast(t *testing.T) {
	var hits int32
	srv := scripted(t, &hits, []int{400}, nil)
	clk := newFakeClock()
	c, _ := newTestClient(t, Options{}, WithBreakers(NewBreakers(3, time.Minute, clk.Now)))

	for i := 0; i < 3; i++ {
		_ = c.FetchJSON(context.Background(), Get(srv.URL), nil)
	}
	if hits != 3 {
		t.Fatalf("hits=%d; want 3", hits)
	}

	start := time.Now()
	err := c.FetchJSON(context.Background(), Get(srv.URL), nil)
	var coe *CircuitOpenError
	if !errors.As(err, &coe) {
		t.Fatalf("expected CircuitOpenError, got %v", err)
	}
	if hits != 3 {
		t.Fatalf("open circuit must not hit the network; hits=%d", hits)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Fatalf("open circuit should fail fast")
	}

	// After the cool-down one trial call goes through.
	clk.Advance(time.Minute)
	_ = c.FetchJSON(context.Background(), Get(srv.URL), nil)
	if hits != 4 {
		t.Fatalf("expected one trial call after cool-down; hits=%d", hits)
	}
}

func TestFetchJSON_TimeoutRetriesThenFails(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, rec := newTestClient(t, Options{Timeout: 30 * time.Millisecond, MaxRetries: 2})
	err := c.FetchJSON(context.Background(), Get(srv.URL), nil)
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 2 || len(rec.Waits()) != 1 {
		t.Fatalf("hits=%d waits=%v; want 2 attempts and 1 backoff", hits, rec.Waits())
	}
}

func TestFetchJSON_CallerCancellationReleasesBreaker(t *testing.T) {
	var hits int32
	srv := scripted(t, &hits, []int{503}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient(Options{}, WithSleep(func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}))

	err := c.FetchJSON(ctx, Get(srv.URL), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if c.Breakers().State("127.0.0.1") != StateClosed {
		t.Fatalf("cancellation must not count as a failure")
	}
}

func TestFetchJSON_InvalidURL(t *testing.T) {
	c, _ := newTestClient(t, Options{})
	var ue *UpstreamError
	if err := c.FetchJSON(context.Background(), Get("::not a url"), nil); !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError for invalid url, got %v", err)
	}
}

func TestPostJSON_SendsBody(t *testing.T) {
	var gotBody, gotCT, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := new(bytes.Buffer)
		_, _ = b.ReadFrom(r.Body)
		gotBody, gotCT, gotMethod = b.String(), r.Header.Get("Content-Type"), r.Method
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	req, err := PostJSON(srv.URL, map[string]int{"n": 1})
	if err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	c, _ := newTestClient(t, Options{})
	if err := c.FetchJSON(context.Background(), req, nil); err != nil {
		t.Fatalf("FetchJSON: %v", err)
	}
	if gotMethod != http.MethodPost || gotCT != "application/json" || gotBody != `{"n":1}` {
		t.Fatalf("method=%s ct=%s body=%s", gotMethod, gotCT, gotBody)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter("", 2*time.Second); d != 2*time.Second {
		t.Fatalf("empty -> default, got %v", d)
	}
	if d := parseRetryAfter("5", 0); d != 5*time.Second {
		t.Fatalf("seconds form, got %v", d)
	}
	if d := parseRetryAfter("garbage", time.Second); d != time.Second {
		t.Fatalf("garbage -> default, got %v", d)
	}
	past := time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)
	if d := parseRetryAfter(past, time.Second); d != 0 {
		t.Fatalf("past date -> 0, got %v", d)
	}
}
