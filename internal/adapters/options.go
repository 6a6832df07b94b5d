package adapters

import "strings"

// Option overrides adapter defaults, mostly so tests can point an adapter
// at an httptest server.
type Option func(*endpoint)

type endpoint struct {
	baseURL string
	extra   string // second host, used by adapters that talk to two services
}

// WithBaseURL replaces the provider's base URL.
func WithBaseURL(u string) Option {
	return func(e *endpoint) { e.baseURL = strings.TrimRight(u, "/") }
}

// WithSecondaryURL replaces the second endpoint of a two-host provider
// (the SPARQL endpoint for Wikidata).
func WithSecondaryURL(u string) Option {
	return func(e *endpoint) { e.extra = strings.TrimRight(u, "/") }
}

func newEndpoint(base, extra string, opts []Option) endpoint {
	e := endpoint{baseURL: base, extra: extra}
	for _, o := range opts {
		o(&e)
	}
	return e
}
