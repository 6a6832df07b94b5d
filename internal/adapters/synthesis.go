package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tbourn/civics-backend/internal/domain"
	"github.com/tbourn/civics-backend/internal/upstream"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"

	// DefaultSynthesisModel is used when no model is configured.
	DefaultSynthesisModel = "claude-haiku-4-5-20251001"

	synthesisMaxTokens = 300
)

// Synthesis writes short plain-language summaries with a hosted language
// model. Every method degrades to passing the raw text through; none of
// them return an error.
type Synthesis struct {
	fetch  upstream.Fetcher
	apiKey string
	model  string
	ep     endpoint
}

// NewSynthesis returns a Synthesis engine. An empty model selects
// DefaultSynthesisModel.
func NewSynthesis(f upstream.Fetcher, apiKey, model string, opts ...Option) *Synthesis {
	if model == "" {
		model = DefaultSynthesisModel
	}
	return &Synthesis{fetch: f, apiKey: apiKey, model: model, ep: newEndpoint(anthropicBaseURL, "", opts)}
}

// Available reports whether a key is configured.
func (s *Synthesis) Available() bool { return s.apiKey != "" }

// SummarizeBill returns a one or two sentence summary of bill, or its title
// when synthesis is unavailable or fails.
func (s *Synthesis) SummarizeBill(ctx context.Context, bill domain.BillSummary) string {
	if !s.Available() {
		return bill.Title
	}
	prompt := fmt.Sprintf(`Summarize this congressional bill in 1-2 plain-English sentences for a general audience. Be factual and neutral.

Title: %s
Latest Action: %s
Policy Area: %s`, bill.Title, bill.LatestAction, orNA(bill.PolicyArea))

	if out := s.generate(ctx, prompt); out != "" {
		return out
	}
	return bill.Title
}

// BiographyInput carries what is known about an official for a biography
// overview.
type BiographyInput struct {
	Name      string
	Party     string
	State     string
	Chamber   string
	Wikipedia string
	Education []string
	Career    []string
}

// GenerateBiographyContext returns a short neutral overview, or the raw
// encyclopedia excerpt when synthesis is unavailable or fails.
func (s *Synthesis) GenerateBiographyContext(ctx context.Context, in BiographyInput) string {
	if !s.Available() {
		return in.Wikipedia
	}
	prompt := fmt.Sprintf(`Write a brief, neutral 2-3 sentence biographical overview of this elected official for a civic information platform. Focus on facts, not opinions.

Name: %s
Party: %s
State: %s
Chamber: %s
Wikipedia excerpt: %s
Education: %s
Career before Congress: %s`,
		in.Name, in.Party, in.State, in.Chamber,
		orNA(in.Wikipedia), orNA(strings.Join(in.Education, ", ")), orNA(strings.Join(in.Career, ", ")))

	if out := s.generate(ctx, prompt); out != "" {
		return out
	}
	return in.Wikipedia
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (s *Synthesis) generate(ctx context.Context, prompt string) string {
	req, err := upstream.PostJSON(s.ep.baseURL+"/messages", messagesRequest{
		Model:     s.model,
		MaxTokens: synthesisMaxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return ""
	}
	req = req.WithHeader("x-api-key", s.apiKey).WithHeader("anthropic-version", anthropicVersion)

	var resp messagesResponse
	if err := s.fetch.FetchJSON(ctx, req, &resp); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("synthesis unavailable, passing text through")
		return ""
	}
	for _, c := range resp.Content {
		if c.Text != "" {
			return strings.TrimSpace(c.Text)
		}
	}
	return ""
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
