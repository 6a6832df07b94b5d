package adapters

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/tbourn/civics-backend/internal/domain"
	"github.com/tbourn/civics-backend/internal/upstream"
)

const (
	wikidataAPIURL    = "https://www.wikidata.org/w/api.php"
	wikidataSPARQLURL = "https://query.wikidata.org/sparql"
)

var entityIDPattern = regexp.MustCompile(`^Q\d+$`)

// Descriptions that mark a search hit as an office-holder.
var politicalHints = []string{"politician", "senator", "representative", "member of"}

// Wikidata looks up structured biographical facts.
type Wikidata struct {
	fetch upstream.Fetcher
	ep    endpoint // baseURL is the action API, extra the SPARQL endpoint
}

// NewWikidata returns a Wikidata adapter. Use WithBaseURL for the search
// API and WithSecondaryURL for the SPARQL endpoint.
func NewWikidata(f upstream.Fetcher, opts ...Option) *Wikidata {
	return &Wikidata{fetch: f, ep: newEndpoint(wikidataAPIURL, wikidataSPARQLURL, opts)}
}

type entityHit struct {
	ID          string `json:"id" validate:"required"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// SearchEntity returns the best entity id for name: the first hit whose
// description suggests a political office-holder, else the first hit.
// An empty id means no hits.
func (w *Wikidata) SearchEntity(ctx context.Context, name string) (string, error) {
	q := url.Values{
		"action":   {"wbsearchentities"},
		"search":   {name},
		"language": {"en"},
		"type":     {"item"},
		"limit":    {"5"},
		"format":   {"json"},
	}
	var resp struct {
		Search []entityHit `json:"search"`
	}
	if err := w.fetch.FetchJSON(ctx, upstream.Get(w.ep.baseURL+"?"+q.Encode()), &resp); err != nil {
		return "", err
	}

	var first string
	for _, h := range resp.Search {
		if checkShape(ctx, "wikidata.search", &h) != nil {
			continue
		}
		if first == "" {
			first = h.ID
		}
		desc := strings.ToLower(h.Description)
		for _, hint := range politicalHints {
			if strings.Contains(desc, hint) {
				return h.ID, nil
			}
		}
	}
	return first, nil
}

// GetFacts searches for name and then queries the entity's attributes.
// (nil, nil) means no entity or no facts.
func (w *Wikidata) GetFacts(ctx context.Context, name string) (*domain.WikidataFacts, error) {
	id, err := w.SearchEntity(ctx, name)
	if err != nil || id == "" {
		return nil, err
	}
	return w.GetFactsByID(ctx, id)
}

type sparqlValue struct {
	Value string `json:"value"`
}

// GetFactsByID runs the attribute query for one entity id.
func (w *Wikidata) GetFactsByID(ctx context.Context, id string) (*domain.WikidataFacts, error) {
	if !entityIDPattern.MatchString(id) {
		return nil, fmt.Errorf("wikidata: invalid entity id %q", id)
	}
	q := url.Values{"query": {factsQuery(id)}, "format": {"json"}}
	req := upstream.Get(w.ep.extra + "?" + q.Encode())

	var resp struct {
		Results struct {
			Bindings []map[string]sparqlValue `json:"bindings"`
		} `json:"results"`
	}
	if err := w.fetch.FetchJSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results.Bindings) == 0 {
		return nil, nil
	}
	b := resp.Results.Bindings[0]

	birth, _, _ := strings.Cut(b["birthDate"].Value, "T")
	education := splitMulti(b["educations"].Value)
	for _, a := range splitMulti(b["almaMaters"].Value) {
		if !slices.Contains(education, a) {
			education = append(education, a)
		}
	}
	return &domain.WikidataFacts{
		EntityID:   id,
		BirthDate:  birth,
		BirthPlace: b["birthPlaceLabel"].Value,
		Spouse:     splitMulti(b["spouses"].Value),
		Religion:   b["religionLabel"].Value,
		Website:    b["websiteUrl"].Value,
		Education:  education,
		Occupation: splitMulti(b["occupations"].Value),
	}, nil
}

func factsQuery(id string) string {
	return strings.ReplaceAll(`SELECT ?birthDate ?birthPlaceLabel ?religionLabel ?websiteUrl
  (GROUP_CONCAT(DISTINCT ?spouseLabel; separator="|") AS ?spouses)
  (GROUP_CONCAT(DISTINCT ?educationLabel; separator="|") AS ?educations)
  (GROUP_CONCAT(DISTINCT ?almaMaterLabel; separator="|") AS ?almaMaters)
  (GROUP_CONCAT(DISTINCT ?occupationLabel; separator="|") AS ?occupations)
WHERE {
  OPTIONAL { wd:ENTITY wdt:P569 ?birthDate. }
  OPTIONAL { wd:ENTITY wdt:P19 ?birthPlace. }
  OPTIONAL { wd:ENTITY wdt:P26 ?spouse. ?spouse rdfs:label ?spouseLabel. FILTER(LANG(?spouseLabel)="en") }
  OPTIONAL { wd:ENTITY wdt:P140 ?religion. }
  OPTIONAL { wd:ENTITY wdt:P856 ?websiteUrl. }
  OPTIONAL { wd:ENTITY wdt:P69 ?almaMater. ?almaMater rdfs:label ?almaMaterLabel. FILTER(LANG(?almaMaterLabel)="en") }
  OPTIONAL { wd:ENTITY wdt:P512 ?education. ?education rdfs:label ?educationLabel. FILTER(LANG(?educationLabel)="en") }
  OPTIONAL { wd:ENTITY wdt:P106 ?occupation. ?occupation rdfs:label ?occupationLabel. FILTER(LANG(?occupationLabel)="en") }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}
GROUP BY ?birthDate ?birthPlaceLabel ?religionLabel ?websiteUrl
LIMIT 1`, "ENTITY", id)
}

func splitMulti(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "|") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
