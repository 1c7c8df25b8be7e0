package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"sitetext/pkg/utils"
)

// Result is a successfully fetched page. FinalURL reflects any redirects the
// client followed.
type Result struct {
	Body       string
	FinalURL   *url.URL
	StatusCode int
}

// Fetcher retrieves raw page content over HTTP. Every fetch is a single
// attempt bounded by the client timeout; failures are classified and reported
// to the caller, never retried.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	log         *logrus.Logger
}

// NewFetcher creates a Fetcher around the given client.
func NewFetcher(client *http.Client, userAgent string, maxBodySize int64, log *logrus.Logger) *Fetcher {
	return &Fetcher{
		client:      client,
		userAgent:   userAgent,
		maxBodySize: maxBodySize,
		log:         log,
	}
}

// Fetch performs a single GET for rawURL. Transport failures, non-2xx statuses
// and oversized bodies all return a sentinel-wrapped error; the caller decides
// whether the crawl continues.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	reqLog := f.log.WithField("url", rawURL)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if reqErr != nil {
		return nil, fmt.Errorf("%w: creating request for '%s': %w", utils.ErrRequestCreation, rawURL, reqErr)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		// Network-level failure (DNS, TCP, TLS, timeout)
		return nil, fmt.Errorf("%w: fetching '%s': %w", utils.ErrTransport, rawURL, doErr)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	statusCode := resp.StatusCode
	resLog := reqLog.WithFields(logrus.Fields{"status_code": statusCode, "status": resp.Status})

	switch {
	case statusCode >= 200 && statusCode < 300:
		resLog.Debug("Successfully fetched")
	case statusCode >= 500:
		return nil, fmt.Errorf("%w: status %d %s for '%s'", utils.ErrServerHTTPError, statusCode, resp.Status, rawURL)
	case statusCode >= 400:
		return nil, fmt.Errorf("%w: status %d %s for '%s'", utils.ErrClientHTTPError, statusCode, resp.Status, rawURL)
	default:
		return nil, fmt.Errorf("%w: status %d %s for '%s'", utils.ErrOtherHTTPError, statusCode, resp.Status, rawURL)
	}

	// Read with a size cap to guard against oversized pages
	limitedReader := io.LimitReader(resp.Body, f.maxBodySize+1) // +1 to detect exceeding the limit
	bodyBytes, readErr := io.ReadAll(limitedReader)
	if readErr != nil {
		return nil, fmt.Errorf("%w: reading body from '%s': %w", utils.ErrResponseBodyRead, rawURL, readErr)
	}
	if int64(len(bodyBytes)) > f.maxBodySize {
		return nil, fmt.Errorf("%w: page '%s' exceeds max size (%d bytes)", utils.ErrResponseBodyRead, rawURL, f.maxBodySize)
	}

	finalURL := resp.Request.URL // URL after any redirects followed by the client
	if finalURL.String() != rawURL {
		resLog.WithField("final_url", finalURL.String()).Debug("URL redirected")
	}

	return &Result{
		Body:       string(bodyBytes),
		FinalURL:   finalURL,
		StatusCode: statusCode,
	}, nil
}
