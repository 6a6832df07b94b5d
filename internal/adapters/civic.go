package adapters

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/tbourn/civics-backend/internal/domain"
	"github.com/tbourn/civics-backend/internal/upstream"
)

const civicBaseURL = "https://www.googleapis.com/civicinfo/v2"

// Congressional photo URLs end in the member's bioguide id, e.g.
// .../photo/X/X000123.jpg.
var photoBioguide = regexp.MustCompile(`/([A-Z]\d{6})\.`)

// CivicInfo resolves a postal code to its federal legislators.
type CivicInfo struct {
	fetch  upstream.Fetcher
	apiKey string
	ep     endpoint
}

// NewCivicInfo returns a CivicInfo adapter.
func NewCivicInfo(f upstream.Fetcher, apiKey string, opts ...Option) *CivicInfo {
	return &CivicInfo{fetch: f, apiKey: apiKey, ep: newEndpoint(civicBaseURL, "", opts)}
}

type civicResponse struct {
	NormalizedInput struct {
		City  string `json:"city"`
		State string `json:"state" validate:"omitempty,len=2"`
	} `json:"normalizedInput"`
	Offices []struct {
		Name            string `json:"name"`
		OfficialIndices []int  `json:"officialIndices"`
	} `json:"offices"`
	Officials []struct {
		Name     string   `json:"name"`
		Party    string   `json:"party"`
		PhotoURL string   `json:"photoUrl" validate:"omitempty,url"`
		Phones   []string `json:"phones"`
		URLs     []string `json:"urls"`
		Channels []struct {
			Type string `json:"type"`
			ID   string `json:"id"`
		} `json:"channels"`
	} `json:"officials"`
}

// LookupByZip returns the senators and representative(s) for zip.
func (c *CivicInfo) LookupByZip(ctx context.Context, zip string) (domain.ZipLookupResult, error) {
	if c.apiKey == "" {
		return domain.ZipLookupResult{}, missingKey("civicinfo", "GOOGLE_CIVIC_API_KEY")
	}
	q := url.Values{
		"key":     {c.apiKey},
		"address": {zip},
		"levels":  {"country"},
		"roles":   {"legislatorUpperBody", "legislatorLowerBody"},
	}
	var resp civicResponse
	if err := c.fetch.FetchJSON(ctx, upstream.Get(c.ep.baseURL+"/representatives?"+q.Encode()), &resp); err != nil {
		return domain.ZipLookupResult{}, err
	}
	_ = checkShape(ctx, "civicinfo.representatives", &resp)

	out := domain.ZipLookupResult{
		ZipCode:   zip,
		State:     resp.NormalizedInput.State,
		City:      resp.NormalizedInput.City,
		Officials: []domain.RepresentativeInfo{},
	}
	for _, office := range resp.Offices {
		for _, idx := range office.OfficialIndices {
			if idx < 0 || idx >= len(resp.Officials) {
				continue
			}
			o := resp.Officials[idx]
			rep := domain.RepresentativeInfo{
				Name:     o.Name,
				Title:    office.Name,
				Party:    o.Party,
				Chamber:  chamberFromOffice(office.Name),
				PhotoURL: o.PhotoURL,
				Phones:   nonNil(o.Phones),
				URLs:     nonNil(o.URLs),
				Channels: make([]domain.Channel, 0, len(o.Channels)),
			}
			if m := photoBioguide.FindStringSubmatch(o.PhotoURL); m != nil {
				rep.BioguideID = m[1]
			}
			for _, ch := range o.Channels {
				rep.Channels = append(rep.Channels, domain.Channel{Type: ch.Type, ID: ch.ID})
			}
			out.Officials = append(out.Officials, rep)
		}
	}
	return out, nil
}

func chamberFromOffice(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "senator"):
		return string(domain.ChamberSenate)
	case strings.Contains(n, "representative"):
		return string(domain.ChamberHouse)
	default:
		return "unknown"
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
