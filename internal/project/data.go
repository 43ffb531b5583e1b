package project

import (
	"net/url"
	"strings"

	"github.com/rohmanhakim/pinned-repos/pkg/urlutil"
)

// Record is one pinned project as served to clients.
// Optional fields are nil when the upstream card did not carry them.
type Record struct {
	Owner         string  `json:"owner"`
	Repo          string  `json:"repo"`
	Link          string  `json:"link"`
	Description   *string `json:"description,omitempty"`
	Website       *string `json:"website,omitempty"`
	Image         *string `json:"image,omitempty"`
	Language      *string `json:"language,omitempty"`
	LanguageColor *string `json:"languageColor,omitempty"`
	Stars         int     `json:"stars"`
	Forks         int     `json:"forks"`
}

// Fields gathered from a single card before a Record is assembled.
// A zero-length string means the field was absent.
type Fields struct {
	Owner         string
	Repo          string
	Description   string
	Language      string
	LanguageColor string
	Stars         int
	Forks         int
}

// NewRecord assembles a Record, defaulting the owner to identifier and
// deriving the link from baseURL. It reports false when the repo name is
// missing or is not a single path segment; such cards are never emitted.
func NewRecord(baseURL url.URL, identifier string, f Fields) (Record, bool) {
	if !isPathSegment(f.Repo) {
		return Record{}, false
	}

	owner := f.Owner
	if !isPathSegment(owner) {
		owner = identifier
	}

	link := urlutil.JoinPath(baseURL, owner, f.Repo)

	return Record{
		Owner:         owner,
		Repo:          f.Repo,
		Link:          link.String(),
		Description:   optional(f.Description),
		Language:      optional(f.Language),
		LanguageColor: optional(f.LanguageColor),
		Stars:         nonNegative(f.Stars),
		Forks:         nonNegative(f.Forks),
	}, true
}

// WithEnrichment returns a copy of r carrying the secondary fields.
// Empty values leave the field absent.
func (r Record) WithEnrichment(website string, image string) Record {
	r.Website = optional(website)
	r.Image = optional(image)
	return r
}

// Clone returns a deep copy so cached records cannot be mutated through
// a returned slice.
func (r Record) Clone() Record {
	r.Description = clonePtr(r.Description)
	r.Website = clonePtr(r.Website)
	r.Image = clonePtr(r.Image)
	r.Language = clonePtr(r.Language)
	r.LanguageColor = clonePtr(r.LanguageColor)
	return r
}

// CloneAll deep-copies records, keeping order. A nil input yields an empty
// slice so callers always serialize "[]".
func CloneAll(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// isPathSegment reports whether name joins onto a URL path as exactly one
// segment, unchanged.
func isPathSegment(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, "/\\")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
