package model

import "time"

// Source is a web page returned by claim enrichment
type Source struct {
	Title       string        `json:"title"`
	URL         string        `json:"url"`
	Snippet     string        `json:"snippet,omitempty"`
	Score       float64       `json:"score,omitempty"`        // Search relevance score
	PublishedAt string        `json:"published_at,omitempty"` // As reported by the search API
	Authority   AuthorityTier `json:"authority"`
	Accessible  *bool         `json:"accessible,omitempty"` // Nil when sources were not validated
}

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Fact-checkers, wire services, journals, official documents
	TierSecondary AuthorityTier = 2 // Encyclopedias, major publishers, reputable media
	TierTertiary  AuthorityTier = 3 // Blogs, personal websites, forums
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// MarshalText renders the tier by name in JSON and YAML output
func (t AuthorityTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ValidationResult contains the result of checking a source URL
type ValidationResult struct {
	URL          string        `json:"url"`
	IsAccessible bool          `json:"is_accessible"`
	StatusCode   int           `json:"status_code,omitempty"`
	LastModified *time.Time    `json:"last_modified,omitempty"`
	IsDead       bool          `json:"is_dead"`                // 404, 410, or request failure
	Disallowed   bool          `json:"disallowed,omitempty"`   // robots.txt forbids fetching
	RedirectURL  string        `json:"redirect_url,omitempty"` // If redirected
	Authority    AuthorityTier `json:"authority"`
	Error        string        `json:"error,omitempty"`
}

// UnmarshalText parses a tier name written by MarshalText
func (t *AuthorityTier) UnmarshalText(text []byte) error {
	switch string(text) {
	case "primary":
		*t = TierPrimary
	case "secondary":
		*t = TierSecondary
	case "tertiary":
		*t = TierTertiary
	default:
		*t = TierUnknown
	}
	return nil
}
