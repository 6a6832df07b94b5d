package adapters

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/tbourn/civics-backend/internal/domain"
	"github.com/tbourn/civics-backend/internal/upstream"
)

const wikipediaBaseURL = "https://en.wikipedia.org/api/rest_v1"

// Suffixes tried, in order, when a bare name misses or lands on a
// disambiguation page.
var disambiguationSuffixes = []string{"(politician)", "(American politician)", "(U.S. politician)"}

// Wikipedia fetches page summaries. It needs no API key.
type Wikipedia struct {
	fetch upstream.Fetcher
	ep    endpoint
}

// NewWikipedia returns a Wikipedia adapter.
func NewWikipedia(f upstream.Fetcher, opts ...Option) *Wikipedia {
	return &Wikipedia{fetch: f, ep: newEndpoint(wikipediaBaseURL, "", opts)}
}

type wikiSummary struct {
	Type        string `json:"type"`
	Title       string `json:"title" validate:"required"`
	Extract     string `json:"extract"`
	Description string `json:"description"`
	Thumbnail   struct {
		Source string `json:"source" validate:"omitempty,url"`
	} `json:"thumbnail"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// GetBiography returns the page summary for name, retrying with the
// politician disambiguation suffixes. (nil, nil) means no usable page.
// Upstream failures other than 404 are returned as errors.
func (w *Wikipedia) GetBiography(ctx context.Context, name string) (*domain.WikipediaBio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	candidates := make([]string, 0, 1+len(disambiguationSuffixes))
	candidates = append(candidates, name)
	for _, s := range disambiguationSuffixes {
		candidates = append(candidates, name+" "+s)
	}

	for _, c := range candidates {
		bio, err := w.summary(ctx, titleFor(c))
		if err != nil {
			var ue *upstream.UpstreamError
			if errors.As(err, &ue) && ue.Status == http.StatusNotFound {
				continue
			}
			return nil, err
		}
		if bio != nil {
			return bio, nil
		}
	}
	return nil, nil
}

func (w *Wikipedia) summary(ctx context.Context, title string) (*domain.WikipediaBio, error) {
	var s wikiSummary
	if err := w.fetch.FetchJSON(ctx, upstream.Get(w.ep.baseURL+"/page/summary/"+url.PathEscape(title)), &s); err != nil {
		return nil, err
	}
	if s.Type == "disambiguation" {
		return nil, nil
	}
	if err := checkShape(ctx, "wikipedia.summary", &s); err != nil {
		return nil, nil
	}
	page := s.ContentURLs.Desktop.Page
	if page == "" {
		page = "https://en.wikipedia.org/wiki/" + title
	}
	return &domain.WikipediaBio{
		Title:       s.Title,
		Extract:     s.Extract,
		Description: s.Description,
		Thumbnail:   s.Thumbnail.Source,
		PageURL:     page,
	}, nil
}

// titleFor turns a display name into a page title: whitespace runs become
// a single underscore.
func titleFor(name string) string {
	return strings.Join(strings.Fields(name), "_")
}
