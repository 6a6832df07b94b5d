package adapters

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"testing"

	"github.com/tbourn/civics-backend/internal/upstream"
)

// fakeFetcher answers by URL path with canned JSON or an error and records
// every request it sees.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	reqs   []upstream.Request
	hook   func(path string) // optional, runs before answering
}

func newFake() *fakeFetcher {
	return &fakeFetcher{bodies: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeFetcher) on(path, body string) *fakeFetcher {
	f.bodies[path] = body
	return f
}

func (f *fakeFetcher) fail(path string, err error) *fakeFetcher {
	f.errs[path] = err
	return f
}

func (f *fakeFetcher) FetchJSON(_ context.Context, req upstream.Request, out any) error {
	u, err := url.Parse(req.URL)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	hook := f.hook
	body, okBody := f.bodies[u.Path]
	ferr, okErr := f.errs[u.Path]
	f.mu.Unlock()

	if hook != nil {
		hook(u.Path)
	}
	if okErr {
		return ferr
	}
	if !okBody {
		return &upstream.UpstreamError{Host: u.Host, Status: 404, Message: "no route " + u.Path}
	}
	return json.Unmarshal([]byte(body), out)
}

func (f *fakeFetcher) requests() []upstream.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]upstream.Request(nil), f.reqs...)
}

// query returns the parsed query of the first request whose path is p.
func (f *fakeFetcher) query(t *testing.T, p string) url.Values {
	t.Helper()
	for _, r := range f.requests() {
		u, _ := url.Parse(r.URL)
		if u.Path == p {
			return u.Query()
		}
	}
	t.Fatalf("no request for %s", p)
	return nil
}
