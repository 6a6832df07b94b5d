package search

import (
	"strconv"
	"strings"

	"github.com/tbourn/civics-backend/internal/domain"
)

// defaultStopwords are dropped from both documents and queries. Bill titles
// lean heavily on these, so leaving them in flattens every score.
func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "and", "act", "as", "at", "by", "for", "from", "in", "of",
		"on", "or", "the", "to", "with", "bill", "resolution", "other", "purposes",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// BillDocuments turns bills into indexable documents keyed by bill key
// (e.g. "HR1234"). The text joins the title, policy area and the
// "H.R. 1234" style designation so numbers can be searched too.
func BillDocuments(bills []domain.BillSummary) []Document {
	out := make([]Document, 0, len(bills))
	for _, b := range bills {
		parts := []string{b.Title}
		if b.PolicyArea != "" {
			parts = append(parts, b.PolicyArea)
		}
		parts = append(parts, b.Type+" "+strconv.Itoa(b.Number))
		out = append(out, Document{ID: b.Key(), Text: strings.Join(parts, " · ")})
	}
	return out
}

// NewBillIndex indexes bills with the default options.
func NewBillIndex(bills []domain.BillSummary, opts ...Option) *Index {
	return NewIndex(BillDocuments(bills), opts...)
}
