package models

import "time"

// Candidate is a URL awaiting processing, together with the page it was
// discovered on (the root seed carries an empty Base)
type Candidate struct {
	URL   string
	Base  string
	Depth int
}

// PageArtifact associates a crawled URL with the file its converted text was
// written to
type PageArtifact struct {
	URL      string
	FilePath string
}

// CrawlMetadata holds all metadata for a single crawl run
type CrawlMetadata struct {
	RunID          string         `yaml:"run_id"`
	RootURL        string         `yaml:"root_url"`
	Domain         string         `yaml:"domain"`
	CrawlStartTime time.Time      `yaml:"crawl_start_time"`
	CrawlEndTime   time.Time      `yaml:"crawl_end_time"`
	TotalPages     int            `yaml:"total_pages_saved"`
	Pages          []PageMetadata `yaml:"pages"`
}

// PageMetadata holds metadata for a single saved page
type PageMetadata struct {
	URL           string `yaml:"url"`
	NormalizedKey string `yaml:"normalized_key"`
	LocalFilePath string `yaml:"local_file_path"` // Relative to the output dir
	Title         string `yaml:"title,omitempty"`
	Depth         int    `yaml:"depth"`
	SizeBytes     int    `yaml:"size_bytes"`
}
