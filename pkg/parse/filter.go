package parse

import (
	"net/url"
	"regexp"
	"strings"

	"sitetext/pkg/utils"
)

// VisitedView reports whether a normalized key has already been visited or
// claimed. Implementations are expected to be safe for concurrent use.
type VisitedView interface {
	Seen(key string) bool
}

// VisitedFunc adapts a plain function to the VisitedView interface.
type VisitedFunc func(key string) bool

// Seen implements VisitedView.
func (f VisitedFunc) Seen(key string) bool { return f(key) }

// Filter decides whether a candidate URL is admissible for crawling.
// Built once at crawl start; the exclusion rule set is immutable afterward.
type Filter struct {
	baseDomain string
	rules      []*regexp.Regexp
}

// NewFilter compiles the exclusion patterns and returns a Filter scoped to the
// given domain. Hostname comparison is case-insensitive.
func NewFilter(baseDomain string, exclusionPatterns []string) (*Filter, error) {
	rules, err := utils.CompileRegexPatterns(exclusionPatterns)
	if err != nil {
		return nil, err
	}
	return &Filter{
		baseDomain: strings.ToLower(baseDomain),
		rules:      rules,
	}, nil
}

// BaseDomain returns the domain this filter admits.
func (f *Filter) BaseDomain() string { return f.baseDomain }

// Admissible reports whether rawURL may be crawled: the scheme must be
// http/https, the host must match the base domain, the normalized key must
// not match any exclusion rule (regexp search semantics, not full match), and
// the key must not already be in the visited set.
// The four checks are independent; they run cheapest-first.
func (f *Filter) Admissible(rawURL string, visited VisitedView) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return f.AdmissibleURL(u, visited)
}

// AdmissibleURL is Admissible for an already-parsed URL.
func (f *Filter) AdmissibleURL(u *url.URL, visited VisitedView) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if strings.ToLower(u.Hostname()) != f.baseDomain {
		return false
	}

	key := NormalizeKey(u)
	for _, rule := range f.rules {
		if rule.MatchString(key) {
			return false
		}
	}
	if visited != nil && visited.Seen(key) {
		return false
	}
	return true
}
