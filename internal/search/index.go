// Package search ranks short documents, such as bill titles, against a free
// text query. An Index is immutable after construction and safe for
// concurrent use.
//
// Scoring is the Jaccard index of the query and document term sets,
// |Q ∩ D| / |Q ∪ D|. Ties go to the shorter text, then the lower id.
package search

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Document is one indexed item.
type Document struct {
	ID   string
	Text string
}

// Result is a ranked document with its similarity score.
type Result struct {
	ID      string  `json:"id"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

type Option func(*Index)

// WithStopwords replaces the default stop-word list. An empty list
// disables stop-word removal.
func WithStopwords(words []string) Option {
	return func(ix *Index) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			if w = strings.TrimSpace(w); w != "" {
				m[fold(w)] = struct{}{}
			}
		}
		ix.stop = m
	}
}

type doc struct {
	id    string
	text  string
	runes int
	terms map[string]struct{}
}

type Index struct {
	stop map[string]struct{}
	docs []doc
}

// NewIndex indexes docs. Documents left with no terms after stop-word
// removal are skipped.
func NewIndex(docs []Document, opts ...Option) *Index {
	ix := &Index{stop: defaultStopwords()}
	for _, o := range opts {
		o(ix)
	}
	ix.docs = make([]doc, 0, len(docs))
	for _, d := range docs {
		text := strings.Join(strings.Fields(d.Text), " ")
		terms := ix.terms(text)
		if len(terms) == 0 {
			continue
		}
		ix.docs = append(ix.docs, doc{id: d.ID, text: text, runes: utf8.RuneCountInString(text), terms: terms})
	}
	return ix
}

func (ix *Index) Len() int { return len(ix.docs) }

// TopK returns up to k best-matching documents, best first. k <= 0 means 3.
// Documents sharing no term with the query are never returned.
func (ix *Index) TopK(query string, k int) []Result {
	if k <= 0 {
		k = 3
	}
	q := ix.terms(query)
	if len(q) == 0 {
		return nil
	}

	type hit struct {
		d     *doc
		score float64
	}
	var hits []hit
	for i := range ix.docs {
		d := &ix.docs[i]
		shared := overlap(q, d.terms)
		if shared == 0 {
			continue
		}
		hits = append(hits, hit{d, float64(shared) / float64(len(q)+len(d.terms)-shared)})
	}
	slices.SortFunc(hits, func(a, b hit) int {
		return cmp.Or(
			cmp.Compare(b.score, a.score),
			cmp.Compare(a.d.runes, b.d.runes),
			cmp.Compare(a.d.id, b.d.id),
		)
	})

	out := make([]Result, 0, min(k, len(hits)))
	for _, h := range hits[:min(k, len(hits))] {
		out = append(out, Result{ID: h.d.id, Snippet: h.d.text, Score: h.score})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*|\p{N}+`)

// terms folds s, splits it into words, drops stop words and reduces simple
// plurals so "Veterans" and "veteran" meet.
func (ix *Index) terms(s string) map[string]struct{} {
	words := wordRE.FindAllString(fold(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := ix.stop[w]; skip {
			continue
		}
		out[singular(w)] = struct{}{}
	}
	return out
}

// fold lower-cases s and strips combining marks ("Peña" becomes "pena").
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	return strings.ToLower(s)
}

func singular(w string) string {
	if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && !strings.HasSuffix(w, "us") {
		return w[:len(w)-1]
	}
	return w
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for t := range a {
		if _, ok := b[t]; ok {
			n++
		}
	}
	return n
}
