package crawler

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"sitetext/pkg/config"
	"sitetext/pkg/fetch"
	"sitetext/pkg/models"
	"sitetext/pkg/parse"
	"sitetext/pkg/process"
	"sitetext/pkg/queue"
	"sitetext/pkg/utils"
)

// Crawler drives a single-site crawl: it pops candidates from the frontier,
// fetches and converts each page, persists the text, and enqueues the page's
// admissible links until the frontier drains or the page budget is reached.
type Crawler struct {
	log   *logrus.Entry
	cfg   *config.AppConfig
	runID string

	rootURL     *url.URL
	filter      *parse.Filter
	fetcher     *fetch.Fetcher
	rateLimiter *fetch.RateLimiter
	converter   *process.Converter
	links       *process.LinkExtractor
	writer      *ArtifactWriter
	outputs     *CrawlOutputs

	frontier *queue.Frontier
	fetchSem *semaphore.Weighted
	wg       sync.WaitGroup

	// visited holds normalized keys of every claimed page. Claiming, the
	// visited check and the budget check happen atomically under visitedMu
	// so a page is fetched at most once and the budget is never exceeded.
	visitedMu       sync.Mutex
	visited         map[string]struct{}
	budgetExhausted bool

	attemptedCounter atomic.Int64
	savedCounter     atomic.Int64
	failedCounter    atomic.Int64

	crawlCtx context.Context
}

// New builds a Crawler from a validated configuration. The context bounds the
// whole crawl; cancelling it stops fetching and unblocks the workers.
func New(ctx context.Context, cfg *config.AppConfig, baseLogger *logrus.Logger) (*Crawler, error) {
	rootURL, err := url.Parse(cfg.RootURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing root URL '%s': %w", utils.ErrConfigValidation, cfg.RootURL, err)
	}

	filter, err := parse.NewFilter(rootURL.Hostname(), cfg.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := baseLogger.WithField("run_id", runID)

	client := fetch.NewClient(cfg.HTTPClientSettings, cfg.RequestTimeout, baseLogger)
	fetcher := fetch.NewFetcher(client, cfg.UserAgent, cfg.MaxPageSizeBytes, baseLogger)

	meta := models.CrawlMetadata{
		RunID:   runID,
		RootURL: cfg.RootURL,
		Domain:  rootURL.Hostname(),
	}
	var mappingPath, metadataPath string
	if cfg.EnableOutputMapping {
		mappingPath = filepath.Join(cfg.OutputDir, cfg.MappingFilename)
	}
	if cfg.EnableMetadataYAML {
		metadataPath = filepath.Join(cfg.OutputDir, cfg.MetadataFilename)
	}

	return &Crawler{
		log:         log,
		cfg:         cfg,
		runID:       runID,
		rootURL:     rootURL,
		filter:      filter,
		fetcher:     fetcher,
		rateLimiter: fetch.NewRateLimiter(cfg.DelayPerHost, baseLogger),
		converter:   process.NewConverter(baseLogger),
		links:       process.NewLinkExtractor(filter, baseLogger),
		writer:      NewArtifactWriter(cfg.OutputDir, baseLogger),
		outputs:     NewCrawlOutputs(mappingPath, metadataPath, meta, log),
		frontier:    queue.NewFrontier(baseLogger),
		fetchSem:    semaphore.NewWeighted(int64(cfg.MaxFetches)),
		visited:     make(map[string]struct{}),
		crawlCtx:    ctx,
	}, nil
}

// RunID returns the unique identifier assigned to this crawl.
func (c *Crawler) RunID() string { return c.runID }

// VisitedCount returns the number of pages claimed for processing.
func (c *Crawler) VisitedCount() int {
	c.visitedMu.Lock()
	defer c.visitedMu.Unlock()
	return len(c.visited)
}

// SavedCount returns the number of page files written so far.
func (c *Crawler) SavedCount() int64 { return c.savedCounter.Load() }

// FailedCount returns the number of pages that failed processing.
func (c *Crawler) FailedCount() int64 { return c.failedCounter.Load() }

// Run executes the crawl and blocks until it finishes. It returns a non-nil
// error only for setup failures or context cancellation; individual page
// failures are logged and counted but do not abort the crawl.
func (c *Crawler) Run() error {
	startTime := time.Now()
	c.log.WithFields(logrus.Fields{
		"root_url":  c.cfg.RootURL,
		"domain":    c.rootURL.Hostname(),
		"max_pages": c.cfg.MaxPages,
		"workers":   c.cfg.NumWorkers,
		"output":    c.cfg.OutputDir,
	}).Info("Starting crawl")

	if err := os.MkdirAll(c.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("%w: creating output directory '%s': %w", utils.ErrFilesystem, c.cfg.OutputDir, err)
	}
	c.outputs.Open()

	c.wg.Add(1)
	c.frontier.Add(&models.Candidate{URL: c.rootURL.String(), Base: c.rootURL.String(), Depth: 0})

	for i := 1; i <= c.cfg.NumWorkers; i++ {
		go c.worker(c.log.WithField("worker_id", i))
	}

	// Close the frontier once every queued task finished, or the context is
	// cancelled; either way the workers unblock and drain out.
	waiterDone := make(chan struct{})
	go func() {
		defer close(waiterDone)
		tasksDone := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(tasksDone)
		}()
		select {
		case <-tasksDone:
			c.log.Debug("All queued tasks completed")
		case <-c.crawlCtx.Done():
			c.log.Warnf("Crawl context cancelled: %v", c.crawlCtx.Err())
		}
		c.frontier.Close()
		// Discard anything still queued so every wg.Add is balanced and
		// the task wait settles even after cancellation.
		for {
			if _, popped := c.frontier.Pop(); !popped {
				break
			}
			c.wg.Done()
		}
	}()
	<-waiterDone

	if err := c.outputs.Close(); err != nil {
		c.log.Errorf("Failed to finalize crawl outputs: %v", err)
	}

	duration := time.Since(startTime)
	c.log.WithFields(logrus.Fields{
		"duration":        duration.Round(time.Millisecond).String(),
		"pages_attempted": c.attemptedCounter.Load(),
		"pages_saved":     c.savedCounter.Load(),
		"pages_failed":    c.failedCounter.Load(),
	}).Info("Crawl finished")

	return c.crawlCtx.Err()
}

func (c *Crawler) worker(workerLog *logrus.Entry) {
	workerLog.Debug("Worker starting")
	defer workerLog.Debug("Worker finished")
	for {
		select {
		case <-c.crawlCtx.Done():
			return
		default:
		}

		candidate, ok := c.frontier.Pop()
		if !ok {
			return
		}
		c.processCandidate(candidate, workerLog)
	}
}

// claim marks key visited if it is new and the page budget allows another
// page. Marking happens on dequeue, before the fetch, so a page that fails
// later is not retried.
func (c *Crawler) claim(key string) bool {
	c.visitedMu.Lock()
	defer c.visitedMu.Unlock()

	if _, seen := c.visited[key]; seen {
		return false
	}
	if c.cfg.MaxPages > 0 && len(c.visited) >= c.cfg.MaxPages {
		if !c.budgetExhausted {
			c.budgetExhausted = true
			c.log.Infof("Page budget (%d) reached, draining remaining frontier", c.cfg.MaxPages)
		}
		return false
	}
	c.visited[key] = struct{}{}
	return true
}

func (c *Crawler) visitedView() parse.VisitedView {
	return parse.VisitedFunc(func(key string) bool {
		c.visitedMu.Lock()
		defer c.visitedMu.Unlock()
		_, seen := c.visited[key]
		return seen
	})
}

func (c *Crawler) processCandidate(candidate *models.Candidate, workerLog *logrus.Entry) {
	taskLog := workerLog.WithFields(logrus.Fields{"url": candidate.URL, "depth": candidate.Depth})
	taskStart := time.Now()

	var taskErr error
	var skipped bool
	var savedPath string

	defer func() {
		if r := recover(); r != nil {
			taskErr = fmt.Errorf("panic processing page: %v", r)
			taskLog.WithFields(logrus.Fields{
				"panic_info":  r,
				"stack_trace": string(debug.Stack()),
			}).Error("PANIC recovered while processing page")
		}
		fields := logrus.Fields{"duration": time.Since(taskStart).Round(time.Millisecond).String()}
		switch {
		case taskErr != nil:
			c.failedCounter.Add(1)
			fields["error_category"] = utils.CategorizeError(taskErr)
			taskLog.WithFields(fields).Warnf("Page failed: %v", taskErr)
		case skipped:
			taskLog.WithFields(fields).Debug("Candidate skipped")
		default:
			if savedPath != "" {
				fields["saved_path"] = savedPath
			}
			taskLog.WithFields(fields).Info("Page processed")
		}
		c.wg.Done()
	}()

	key, parsedURL, err := parse.NormalizeKeyString(candidate.URL)
	if err != nil {
		taskErr = fmt.Errorf("%w: URL '%s': %w", utils.ErrParsing, candidate.URL, err)
		return
	}

	if !c.claim(key) {
		skipped = true
		return
	}
	c.attemptedCounter.Add(1)
	taskLog.Info("Extracting text from page")

	if acquireErr := c.fetchSem.Acquire(c.crawlCtx, 1); acquireErr != nil {
		taskErr = acquireErr
		return
	}
	c.rateLimiter.ApplyDelay(parsedURL.Hostname())
	result, fetchErr := c.fetcher.Fetch(c.crawlCtx, candidate.URL)
	c.rateLimiter.UpdateLastRequestTime(parsedURL.Hostname())
	c.fetchSem.Release(1)
	if fetchErr != nil {
		taskErr = fetchErr
		return
	}

	doc, parseErr := goquery.NewDocumentFromReader(strings.NewReader(result.Body))
	if parseErr != nil {
		taskErr = fmt.Errorf("%w: parsing HTML from '%s': %w", utils.ErrParsing, candidate.URL, parseErr)
		return
	}

	text := c.converter.Convert(doc)
	if text == "" {
		taskLog.Debug("Converted text below content threshold, nothing to save")
	} else if savePath, saveErr := c.writer.Save(result.FinalURL, text); saveErr != nil {
		taskErr = saveErr
	} else {
		savedPath = savePath
		c.savedCounter.Add(1)
		relPath, relErr := filepath.Rel(c.cfg.OutputDir, savePath)
		if relErr != nil {
			relPath = savePath
		}
		c.outputs.RecordPage(
			models.PageArtifact{URL: result.FinalURL.String(), FilePath: relPath},
			models.PageMetadata{
				URL:           result.FinalURL.String(),
				NormalizedKey: key,
				LocalFilePath: relPath,
				Title:         process.Title(doc),
				Depth:         candidate.Depth,
				SizeBytes:     len(text),
			},
		)
	}

	// Link expansion is independent of persistence, so a failed save still
	// lets the crawl continue outward from this page.
	queued := 0
	for _, next := range c.links.Extract(doc, result.FinalURL, c.visitedView()) {
		next.Depth = candidate.Depth + 1
		c.wg.Add(1)
		if !c.frontier.Add(&next) {
			c.wg.Done()
			break
		}
		queued++
	}
	if queued > 0 {
		taskLog.Debugf("Queued %d new candidate links", queued)
	}
}
