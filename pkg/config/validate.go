package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"sitetext/pkg/utils"
)

// DefaultMaxPages is the page budget applied when none is configured. An
// explicit 0 requests an unbounded crawl.
const DefaultMaxPages = 100

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// RootURL
	if c.RootURL == "" {
		return warnings, fmt.Errorf("%w: root_url is required", utils.ErrConfigValidation)
	}
	parsed, parseErr := url.ParseRequestURI(c.RootURL)
	if parseErr != nil {
		return warnings, fmt.Errorf("%w: invalid root_url '%s': %v", utils.ErrConfigValidation, c.RootURL, parseErr)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return warnings, fmt.Errorf("%w: root_url scheme must be http or https, got '%s'", utils.ErrConfigValidation, parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return warnings, fmt.Errorf("%w: root_url '%s' has no host", utils.ErrConfigValidation, c.RootURL)
	}

	// ExcludePatterns (fail fast on bad patterns, before the crawl starts)
	if _, compileErr := utils.CompileRegexPatterns(c.ExcludePatterns); compileErr != nil {
		return warnings, compileErr
	}

	// OutputDir: default derived from the root host, dots replaced
	if c.OutputDir == "" {
		c.OutputDir = DeriveOutputDir(parsed.Hostname())
		warnings = append(warnings, fmt.Sprintf("output_dir is empty, defaulting to '%s'", c.OutputDir))
	}

	// MaxPages
	if c.MaxPages < 0 {
		warnings = append(warnings, fmt.Sprintf("max_pages cannot be negative, defaulting to %d", DefaultMaxPages))
		c.MaxPages = DefaultMaxPages
	}

	// UserAgent
	if c.UserAgent == "" {
		c.UserAgent = "sitetext/1.0"
	}

	// NumWorkers
	if c.NumWorkers <= 0 {
		c.NumWorkers = 1
	}

	// MaxFetches
	if c.MaxFetches <= 0 {
		c.MaxFetches = c.NumWorkers
	}

	// RequestTimeout
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}

	// DelayPerHost
	if c.DelayPerHost < 0 {
		warnings = append(warnings, "delay_per_host cannot be negative, disabling delay")
		c.DelayPerHost = 0
	}

	// MaxPageSizeBytes
	if c.MaxPageSizeBytes <= 0 {
		c.MaxPageSizeBytes = 10 << 20 // 10 MiB
	}

	// Output artifact filenames
	if c.MappingFilename == "" {
		c.MappingFilename = "url_to_file_map.tsv"
	}
	if c.MetadataFilename == "" {
		c.MetadataFilename = "crawl_metadata.yaml"
	}

	return warnings, nil
}

// DeriveOutputDir maps a hostname to the default output directory name,
// replacing dots with underscores (e.g. "docs.example.com" -> "docs_example_com").
func DeriveOutputDir(host string) string {
	return strings.ReplaceAll(host, ".", "_")
}
