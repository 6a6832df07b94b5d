package adapters

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tbourn/civics-backend/internal/domain"
	"github.com/tbourn/civics-backend/internal/upstream"
)

const newsBaseURL = "https://newsapi.org/v2"

// News searches recent articles mentioning an official. News is optional:
// without a key every search returns an empty list.
type News struct {
	fetch  upstream.Fetcher
	apiKey string
	ep     endpoint
}

// NewNews returns a News adapter.
func NewNews(f upstream.Fetcher, apiKey string, opts ...Option) *News {
	return &News{fetch: f, apiKey: apiKey, ep: newEndpoint(newsBaseURL, "", opts)}
}

// Configured reports whether a key is present.
func (n *News) Configured() bool { return n.apiKey != "" }

type rawArticle struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	URL         string `json:"url" validate:"required,url"`
	URLToImage  string `json:"urlToImage" validate:"omitempty,url"`
	PublishedAt string `json:"publishedAt" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

// GetArticlesAbout returns up to limit articles matching the quoted name,
// newest first. limit <= 0 means 5.
func (n *News) GetArticlesAbout(ctx context.Context, name string, limit int) ([]domain.NewsArticle, error) {
	if !n.Configured() {
		return []domain.NewsArticle{}, nil
	}
	if limit <= 0 {
		limit = 5
	}
	q := url.Values{
		"q":        {`"` + name + `"`},
		"language": {"en"},
		"sortBy":   {"publishedAt"},
		"pageSize": {strconv.Itoa(limit)},
	}
	req := upstream.Get(n.ep.baseURL+"/everything?"+q.Encode()).WithHeader("X-Api-Key", n.apiKey)

	var resp struct {
		Articles []rawArticle `json:"articles"`
	}
	if err := n.fetch.FetchJSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.NewsArticle, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if checkShape(ctx, "news.article", &a) != nil {
			continue
		}
		out = append(out, domain.NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
			ImageURL:    a.URLToImage,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
