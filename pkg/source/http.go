package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/coolbeans/billtrace/pkg/config"
	"github.com/coolbeans/billtrace/pkg/logger"
)

// HTTPOptions configures an HTTPSource.
type HTTPOptions struct {
	// URLTemplate contains one %s, replaced by the escaped document id.
	URLTemplate string

	UserAgent string

	// RateLimit is the minimum interval between requests to one host.
	RateLimit time.Duration

	// MaxRetries bounds retries of transient failures (network errors,
	// 429 and 5xx responses).
	MaxRetries int

	// RetryInterval is the first backoff interval.
	RetryInterval time.Duration

	// MaxBodyBytes rejects larger responses.
	MaxBodyBytes int64
}

// HTTPOptionsFromConfig converts the http section of the source config.
func HTTPOptionsFromConfig(httpConfig config.HTTPSourceConfig) HTTPOptions {
	return HTTPOptions{
		URLTemplate:   httpConfig.URLTemplate,
		UserAgent:     httpConfig.UserAgent,
		RateLimit:     httpConfig.RateLimit,
		MaxRetries:    httpConfig.MaxRetries,
		RetryInterval: 500 * time.Millisecond,
		MaxBodyBytes:  httpConfig.MaxBodyBytes,
	}
}

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (statusError *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", statusError.StatusCode, statusError.URL)
}

// HTTPSource fetches documents by substituting their id into a URL
// template, with per-host rate limiting and retries.
type HTTPSource struct {
	httpClient *http.Client
	options    HTTPOptions
	hostTimers map[string]time.Time
	timerMu    sync.Mutex
}

// NewHTTPSource creates an HTTPSource. httpClient carries authentication
// (see NewOAuthClient); nil means http.DefaultClient.
func NewHTTPSource(options HTTPOptions, httpClient *http.Client) *HTTPSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if options.URLTemplate == "" {
		options.URLTemplate = config.DefaultGoogleDocsExportURL
	}
	if options.MaxBodyBytes <= 0 {
		options.MaxBodyBytes = 10 * 1024 * 1024
	}
	if options.RetryInterval <= 0 {
		options.RetryInterval = 500 * time.Millisecond
	}
	return &HTTPSource{
		httpClient: httpClient,
		options:    options,
		hostTimers: make(map[string]time.Time),
	}
}

// NewHTTPSourceFromConfig builds the HTTP client (OAuth2 when credentials
// are configured) and the source.
func NewHTTPSourceFromConfig(ctx context.Context, httpConfig config.HTTPSourceConfig) (*HTTPSource, error) {
	baseClient := &http.Client{
		Timeout: httpConfig.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	httpClient := baseClient
	if httpConfig.CredentialsFile != "" {
		oauthClient, err := NewOAuthClient(ctx, httpConfig.CredentialsFile, httpConfig.TokenFile, baseClient)
		if err != nil {
			return nil, err
		}
		httpClient = oauthClient
	}

	return NewHTTPSource(HTTPOptionsFromConfig(httpConfig), httpClient), nil
}

// URLFor returns the URL a document id is fetched from.
func (httpSource *HTTPSource) URLFor(documentID string) string {
	return fmt.Sprintf(httpSource.options.URLTemplate, url.PathEscape(documentID))
}

// Fetch retrieves and converts one document. 404 and 410 map to ErrNotFound;
// other 4xx responses fail immediately, while network errors, 429 and 5xx
// are retried with exponential backoff.
func (httpSource *HTTPSource) Fetch(ctx context.Context, documentID string) (*Document, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, fmt.Errorf("empty document id")
	}

	targetURL := httpSource.URLFor(documentID)
	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", targetURL, err)
	}

	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = httpSource.options.RetryInterval
	exponential.MaxElapsedTime = 0
	retryPolicy := backoff.WithContext(
		backoff.WithMaxRetries(exponential, uint64(max(httpSource.options.MaxRetries, 0))),
		ctx,
	)

	log := logger.FromContext(ctx).With("component", "source", "url", targetURL)

	var document *Document
	operation := func() error {
		if err := httpSource.waitForHost(ctx, parsedURL.Host); err != nil {
			return backoff.Permanent(err)
		}
		fetched, err := httpSource.fetchOnce(ctx, documentID, targetURL)
		if err != nil {
			return err
		}
		document = fetched
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("fetch failed, retrying", "error", err, "wait", wait)
	}

	if err := backoff.RetryNotify(operation, retryPolicy, notify); err != nil {
		return nil, err
	}
	log.Debug("fetched document", "bytes", len(document.Text))
	return document, nil
}

func (httpSource *HTTPSource) fetchOnce(ctx context.Context, documentID, targetURL string) (*Document, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request for %s: %w", targetURL, err))
	}
	if httpSource.options.UserAgent != "" {
		request.Header.Set("User-Agent", httpSource.options.UserAgent)
	}
	request.Header.Set("Accept", "text/html, text/plain, application/xhtml+xml")

	response, err := httpSource.httpClient.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", targetURL, err)
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusNotFound || response.StatusCode == http.StatusGone:
		return nil, backoff.Permanent(fmt.Errorf("%w: %s (HTTP %d)", ErrNotFound, documentID, response.StatusCode))
	case response.StatusCode == http.StatusTooManyRequests || response.StatusCode >= 500:
		return nil, &StatusError{StatusCode: response.StatusCode, URL: targetURL}
	case response.StatusCode >= 400:
		return nil, backoff.Permanent(&StatusError{StatusCode: response.StatusCode, URL: targetURL})
	}

	limitedReader := io.LimitReader(response.Body, httpSource.options.MaxBodyBytes+1)
	rawBody, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read body from %s: %w", targetURL, err)
	}
	if int64(len(rawBody)) > httpSource.options.MaxBodyBytes {
		return nil, backoff.Permanent(fmt.Errorf("body from %s exceeds %d bytes", targetURL, httpSource.options.MaxBodyBytes))
	}

	contentType := response.Header.Get("Content-Type")
	return &Document{
		ID:          documentID,
		Text:        textFromBody(rawBody, contentType),
		ContentType: contentType,
		FetchedAt:   time.Now(),
	}, nil
}

// waitForHost enforces the per-host rate limit.
func (httpSource *HTTPSource) waitForHost(ctx context.Context, host string) error {
	httpSource.timerMu.Lock()
	defer httpSource.timerMu.Unlock()

	if lastRequestTime, hasLastRequest := httpSource.hostTimers[host]; hasLastRequest {
		if waitDuration := httpSource.options.RateLimit - time.Since(lastRequestTime); waitDuration > 0 {
			timer := time.NewTimer(waitDuration)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}

	httpSource.hostTimers[host] = time.Now()
	return nil
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
