package validate

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
)

// AuthorityClassifier classifies sources into authority tiers
type AuthorityClassifier struct {
	primaryMap   map[string]bool
	secondaryMap map[string]bool
	pathPatterns []*regexp.Regexp
}

// NewAuthorityClassifier creates a new authority classifier; nil uses the defaults.
// Invalid path patterns are ignored.
func NewAuthorityClassifier(config *model.AuthorityConfig) *AuthorityClassifier {
	if config == nil {
		config = &model.DefaultConfig().Authority
	}

	classifier := &AuthorityClassifier{
		primaryMap:   make(map[string]bool),
		secondaryMap: make(map[string]bool),
	}

	for _, domain := range config.PrimaryDomains {
		classifier.primaryMap[strings.ToLower(domain)] = true
	}
	for _, domain := range config.SecondaryDomains {
		classifier.secondaryMap[strings.ToLower(domain)] = true
	}

	for _, pattern := range config.PathPatterns {
		if re, err := regexp.Compile(pattern); err == nil {
			classifier.pathPatterns = append(classifier.pathPatterns, re)
		}
	}

	return classifier
}

// Classify classifies a URL into an authority tier.
// Domains match exactly or as a parent domain (www.reuters.com matches reuters.com);
// path patterns are matched against host+path and mark primary documents.
func (a *AuthorityClassifier) Classify(rawURL string) model.AuthorityTier {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return model.TierUnknown
	}

	host := strings.ToLower(parsed.Hostname())

	if matchDomain(a.primaryMap, host) {
		return model.TierPrimary
	}
	if matchDomain(a.secondaryMap, host) {
		return model.TierSecondary
	}

	target := host + parsed.EscapedPath()
	for _, re := range a.pathPatterns {
		if re.MatchString(target) {
			return model.TierPrimary
		}
	}

	// Government and academic hosts outside the configured lists
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".ac.uk") {
		return model.TierPrimary
	}

	return model.TierTertiary
}

func matchDomain(domains map[string]bool, host string) bool {
	if domains[host] {
		return true
	}
	for domain := range domains {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
