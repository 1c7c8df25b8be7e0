package process

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"sitetext/pkg/models"
	"sitetext/pkg/parse"
)

// LinkExtractor pulls candidate URLs out of a parsed document.
type LinkExtractor struct {
	filter *parse.Filter
	log    *logrus.Logger
}

// NewLinkExtractor creates a LinkExtractor scoped by the given filter.
func NewLinkExtractor(filter *parse.Filter, log *logrus.Logger) *LinkExtractor {
	return &LinkExtractor{filter: filter, log: log}
}

// Extract scans every anchor with an href, resolves it against base (relative
// paths, protocol-relative and absolute URLs all follow standard resolution),
// strips any fragment, and keeps only URLs that currently pass admissibility.
// Duplicate resolved URLs collapse; Depth on the returned candidates is left
// for the caller to assign.
func (le *LinkExtractor) Extract(doc *goquery.Document, base *url.URL, visited parse.VisitedView) []models.Candidate {
	seen := make(map[string]struct{})
	var out []models.Candidate

	doc.Find("a[href]").Each(func(_ int, element *goquery.Selection) {
		href, exists := element.Attr("href")
		if !exists || href == "" {
			return
		}

		linkURL, parseErr := base.Parse(href)
		if parseErr != nil {
			le.log.WithField("href", href).Debugf("Skipping unparseable link: %v", parseErr)
			return
		}
		linkURL.Fragment = ""

		absolute := linkURL.String()
		if _, dup := seen[absolute]; dup {
			return
		}
		seen[absolute] = struct{}{}

		if !le.filter.AdmissibleURL(linkURL, visited) {
			return
		}
		out = append(out, models.Candidate{URL: absolute, Base: base.String()})
	})

	return out
}
