package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"sitetext/pkg/models"
	"sitetext/pkg/utils"
)

var pathSeparators = strings.NewReplacer("/", "_", `\`, "_")

// ArtifactWriter persists converted page text, one .md file per page, under a
// single output directory. Saves are serialized internally so collision
// probing stays correct when multiple workers write concurrently.
type ArtifactWriter struct {
	log       *logrus.Logger
	outputDir string
	mu        sync.Mutex
}

// NewArtifactWriter creates an ArtifactWriter rooted at outputDir. The
// directory must already exist.
func NewArtifactWriter(outputDir string, log *logrus.Logger) *ArtifactWriter {
	return &ArtifactWriter{log: log, outputDir: outputDir}
}

// Save derives a filename from the URL's path (slashes and backslashes become
// underscores, an empty path becomes "index"), appends ".md", and resolves
// collisions by suffixing an incrementing counter before the extension. The
// file content fully replaces anything at the chosen path.
// Returns the path written.
func (w *ArtifactWriter) Save(u *url.URL, text string) (string, error) {
	rel := strings.Trim(u.Path, "/")
	if rel == "" {
		rel = "index"
	}
	safe := utils.SanitizeFilename(pathSeparators.Replace(rel))

	w.mu.Lock()
	defer w.mu.Unlock()

	path := filepath.Join(w.outputDir, safe+".md")
	for counter := 1; ; counter++ {
		_, statErr := os.Stat(path)
		if errors.Is(statErr, os.ErrNotExist) {
			break
		}
		if statErr != nil {
			return "", fmt.Errorf("%w: probing '%s': %w", utils.ErrFilesystem, path, statErr)
		}
		path = filepath.Join(w.outputDir, fmt.Sprintf("%s_%d.md", safe, counter))
	}

	if writeErr := os.WriteFile(path, []byte(text), 0644); writeErr != nil {
		return "", fmt.Errorf("%w: saving '%s': %w", utils.ErrFilesystem, path, writeErr)
	}
	w.log.Debugf("Saved page text (%d bytes): %s", len(text), path)
	return path, nil
}

// CrawlOutputs owns the per-crawl artifacts beyond the page files: the
// URL-to-file TSV mapping and the YAML crawl metadata. Either can be disabled
// by leaving its path empty.
type CrawlOutputs struct {
	log          *logrus.Entry
	mappingPath  string
	metadataPath string

	mappingFile *os.File
	mappingMu   sync.Mutex

	meta   models.CrawlMetadata
	metaMu sync.Mutex
}

// NewCrawlOutputs creates a CrawlOutputs collecting into the given metadata
// shell. Call Open once the output directory exists.
func NewCrawlOutputs(mappingPath, metadataPath string, meta models.CrawlMetadata, log *logrus.Entry) *CrawlOutputs {
	meta.Pages = make([]models.PageMetadata, 0)
	return &CrawlOutputs{
		log:          log,
		mappingPath:  mappingPath,
		metadataPath: metadataPath,
		meta:         meta,
	}
}

// Open opens the mapping file. A failed open disables the mapping output
// rather than failing the crawl.
func (co *CrawlOutputs) Open() {
	co.meta.CrawlStartTime = time.Now()
	if co.mappingPath == "" {
		co.log.Debug("URL-to-file mapping output is disabled")
		return
	}
	file, err := os.OpenFile(co.mappingPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		co.log.Errorf("Failed to open mapping file '%s': %v. Mapping output disabled.", co.mappingPath, err)
		return
	}
	co.mappingFile = file
}

// RecordPage records one saved page in every enabled output.
func (co *CrawlOutputs) RecordPage(artifact models.PageArtifact, page models.PageMetadata) {
	if co.mappingFile != nil {
		co.mappingMu.Lock()
		if _, err := fmt.Fprintf(co.mappingFile, "%s\t%s\n", artifact.URL, artifact.FilePath); err != nil {
			co.log.Errorf("Failed to write mapping entry for '%s': %v", artifact.URL, err)
		}
		co.mappingMu.Unlock()
	}

	if co.metadataPath != "" {
		co.metaMu.Lock()
		co.meta.Pages = append(co.meta.Pages, page)
		co.metaMu.Unlock()
	}
}

// PagesSaved returns the number of pages recorded so far.
func (co *CrawlOutputs) PagesSaved() int {
	co.metaMu.Lock()
	defer co.metaMu.Unlock()
	return len(co.meta.Pages)
}

// Close closes the mapping file and writes the metadata YAML.
func (co *CrawlOutputs) Close() error {
	if co.mappingFile != nil {
		if err := co.mappingFile.Close(); err != nil {
			co.log.Errorf("Failed to close mapping file: %v", err)
		}
		co.mappingFile = nil
	}

	if co.metadataPath == "" {
		return nil
	}

	co.metaMu.Lock()
	co.meta.CrawlEndTime = time.Now()
	co.meta.TotalPages = len(co.meta.Pages)
	data, marshalErr := yaml.Marshal(&co.meta)
	co.metaMu.Unlock()
	if marshalErr != nil {
		return fmt.Errorf("marshalling crawl metadata: %w", marshalErr)
	}

	if writeErr := os.WriteFile(co.metadataPath, data, 0644); writeErr != nil {
		return fmt.Errorf("%w: writing crawl metadata '%s': %w", utils.ErrFilesystem, co.metadataPath, writeErr)
	}
	co.log.Debugf("Wrote crawl metadata: %s", co.metadataPath)
	return nil
}
