package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"sitetext/pkg/config"
	"sitetext/pkg/crawler"
)

const version = "1.0.0"

// stringListFlag collects repeated occurrences of a flag.
type stringListFlag []string

func (s *stringListFlag) String() string { return strings.Join(*s, ",") }

func (s *stringListFlag) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("sitetext", flag.ExitOnError)
	rootURL := fs.String("url", "", "Root URL to crawl (required unless set in the config file)")
	maxPages := fs.Int("max-pages", config.DefaultMaxPages, "Maximum number of pages to crawl (0 = unbounded)")
	outputDir := fs.String("o", "", "Output directory (default: derived from the root host)")
	var excludePatterns stringListFlag
	fs.Var(&excludePatterns, "exclude", "Regex excluding matching URL paths (repeatable)")
	workers := fs.Int("workers", 1, "Number of concurrent workers")
	configFile := fs.String("config", "", "Optional YAML config file")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	timeout := fs.Duration("timeout", 10*time.Second, "Per-request HTTP timeout")
	delay := fs.Duration("delay", 0, "Minimum delay between requests to the host (0 disables)")
	showVersion := fs.Bool("version", false, "Print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "sitetext - single-site text crawler\n\nUsage:\n  sitetext -url <root-url> [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  sitetext -url https://docs.example.com\n")
		fmt.Fprintf(os.Stderr, "  sitetext -url https://example.com -max-pages 50 -exclude '^blog' -exclude '^archive'\n")
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *showVersion {
		fmt.Printf("sitetext %s\n", version)
		return 0
	}

	log := setupLogger(*logLevel)

	cfg := config.Default()
	cfg.MaxPages = config.DefaultMaxPages
	if *configFile != "" {
		log.Infof("Loading configuration from %s", *configFile)
		if err := loadConfigFile(*configFile, &cfg); err != nil {
			log.Errorf("Config error: %v", err)
			return 1
		}
	}

	// Flags passed explicitly override config file values.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			cfg.RootURL = *rootURL
		case "max-pages":
			cfg.MaxPages = *maxPages
		case "o":
			cfg.OutputDir = *outputDir
		case "workers":
			cfg.NumWorkers = *workers
		case "timeout":
			cfg.RequestTimeout = *timeout
		case "delay":
			cfg.DelayPerHost = *delay
		}
	})
	cfg.ExcludePatterns = append(cfg.ExcludePatterns, excludePatterns...)

	if cfg.RootURL == "" {
		fmt.Fprintln(os.Stderr, "Error: -url is required")
		fs.Usage()
		return 1
	}

	warnings, err := cfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Errorf("Configuration error: %v", err)
		return 1
	}

	crawlCtx, cancelCrawl := context.WithCancel(context.Background())
	defer cancelCrawl()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
		cancelCrawl()

		sig = <-sigChan
		log.Warnf("Received second signal: %v. Forcing exit.", sig)
		os.Exit(1)
	}()

	c, err := crawler.New(crawlCtx, &cfg, log)
	if err != nil {
		log.Errorf("Setup error: %v", err)
		return 1
	}

	if runErr := c.Run(); runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			log.Warnf("Crawl interrupted: %d pages saved", c.SavedCount())
			return 1
		}
		log.Errorf("Crawl failed: %v", runErr)
		return 1
	}

	if c.FailedCount() > 0 {
		log.Warnf("Crawl completed with %d failed pages", c.FailedCount())
	}
	return 0
}

// setupLogger creates a configured logrus.Logger with the given log level.
func setupLogger(logLevelStr string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", logLevelStr, err)
	} else {
		log.SetLevel(level)
	}

	return log
}

// loadConfigFile reads a YAML config file over the defaults in cfg.
func loadConfigFile(path string, cfg *config.AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
