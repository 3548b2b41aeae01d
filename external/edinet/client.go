package edinet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	"github.com/kaiseki-dev/edinet-insight/internal/platform/logging"
	"github.com/kaiseki-dev/edinet-insight/internal/platform/resilience"
)

const (
	defaultBaseURL = "https://api.edinet-fsa.go.jp/api/v2"

	// Query discriminators owned by the API contract.
	documentListType = "2" // list including result rows
	archiveTypeCSV   = "5" // CSV tabular package

	listBodyLimit    = 6 << 20
	archiveBodyLimit = 64 << 20
)

var subscriptionKeyParamRegex = regexp.MustCompile(`(?i)subscription-key=[^&\s"']+`)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxAttempts    int
	BackoffBase    time.Duration
	RateLimit      float64 // requests per second, 0 disables client-side limiting
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxAttempts    int
	backoffBase    time.Duration
	limiter        *rate.Limiter
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = 500 * time.Millisecond
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxAttempts:    maxAttempts,
		backoffBase:    backoffBase,
		limiter:        limiter,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// ListFilings fetches the document list for one date and returns the entries
// matching the criteria. A date the API knows nothing about yields an empty
// slice, not an error.
func (c *Client) ListFilings(ctx context.Context, date time.Time, criteria filing.SearchCriteria) ([]filing.Metadata, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "edinet circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: document list temporarily suspended", ErrTransientNetwork)
		}
	}

	values := url.Values{}
	values.Set("date", date.Format("2006-01-02"))
	values.Set("type", documentListType)
	values.Set("Subscription-Key", c.apiKey)
	fullURL := c.baseURL + "/documents.json?" + values.Encode()

	flightKey := "documents:" + date.Format("2006-01-02")
	out, err, _ := c.flight.Do(flightKey, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL, listBodyLimit)
		if c.circuitEnabled {
			if isCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	var envelope documentListEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode document list: %v", ErrMalformedResponse, err)
	}

	// The payload carries its own status: "404" marks a date with nothing
	// published yet.
	switch envelope.Metadata.Status {
	case "", "200":
	case "404":
		return nil, nil
	case "401", "403":
		return nil, fmt.Errorf("%w: api status=%s message=%s", ErrAuth, envelope.Metadata.Status, envelope.Metadata.Message)
	default:
		return nil, fmt.Errorf("%w: api status=%s message=%s", ErrMalformedResponse, envelope.Metadata.Status, envelope.Metadata.Message)
	}

	filings := make([]filing.Metadata, 0, len(envelope.Results))
	for _, item := range envelope.Results {
		meta := item.toMetadata(date)
		if meta.DocID == "" {
			continue
		}
		if !criteria.Matches(meta) {
			continue
		}
		filings = append(filings, meta)
	}

	return filings, nil
}

// DownloadArchive fetches the CSV package for one document ID.
func (c *Client) DownloadArchive(ctx context.Context, docID string) (filing.ArchivePayload, error) {
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return filing.ArchivePayload{}, fmt.Errorf("document id is required")
	}

	values := url.Values{}
	values.Set("type", archiveTypeCSV)
	values.Set("Subscription-Key", c.apiKey)
	fullURL := c.baseURL + "/documents/" + url.PathEscape(docID) + "?" + values.Encode()

	raw, err := c.executeRequest(ctx, fullURL, archiveBodyLimit)
	if err != nil {
		return filing.ArchivePayload{}, err
	}

	// A JSON body on the archive endpoint is the API reporting a problem in
	// band despite the 2xx.
	if payloadLooksJSON(raw) {
		return filing.ArchivePayload{}, classifyJSONArchiveBody(raw, docID)
	}

	return filing.ArchivePayload{DocID: docID, Data: raw}, nil
}

func classifyJSONArchiveBody(raw []byte, docID string) error {
	var envelope documentListEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err == nil {
		switch envelope.Metadata.Status {
		case "404":
			return fmt.Errorf("%w: doc_id=%s", ErrNotFound, docID)
		case "401", "403":
			return fmt.Errorf("%w: api status=%s message=%s", ErrAuth, envelope.Metadata.Status, envelope.Metadata.Message)
		}
	}
	return fmt.Errorf("%w: expected archive bytes, got JSON body: %s", ErrMalformedResponse, abbreviateBody(raw))
}

// executeRequest runs the retry machine for one logical request. Attempting
// issues the HTTP call; Backoff waits with exponential delay and jitter;
// Succeeded, Exhausted and FailedFatal exit the loop.
func (c *Client) executeRequest(ctx context.Context, fullURL string, bodyLimit int64) ([]byte, error) {
	machine := newRetryMachine(c.maxAttempts, c.backoffBase)

	for {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		raw, attemptErr := c.attemptOnce(ctx, fullURL, bodyLimit)
		if attemptErr != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		switch machine.Observe(attemptErr) {
		case retrySucceeded:
			return raw, nil

		case retryFailedFatal:
			c.logger.WarnContext(ctx, "edinet request failed",
				"url", redactAPIURL(fullURL),
				"attempt", machine.Attempt(),
				"error", attemptErr,
			)
			return nil, attemptErr

		case retryExhausted:
			c.logger.WarnContext(ctx, "edinet request exhausted retries",
				"url", redactAPIURL(fullURL),
				"attempts", machine.Attempt(),
				"error", machine.LastErr(),
			)
			return nil, fmt.Errorf("%w: attempts=%d: %w", ErrRetriesExhausted, machine.Attempt(), machine.LastErr())

		case retryBackoff:
			delay := machine.BackoffDelay()
			c.logger.WarnContext(ctx, "edinet request retrying",
				"url", redactAPIURL(fullURL),
				"attempt", machine.Attempt(),
				"delay", delay,
				"error", attemptErr,
			)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
			machine.Resume()
		}
	}
}

func (c *Client) attemptOnce(ctx context.Context, fullURL string, bodyLimit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %s", ErrTransientNetwork, sanitizeSensitiveText(err.Error(), c.apiKey))
	}

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, bodyLimit))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrTransientNetwork, readErr)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}

	return nil, statusError(resp.StatusCode, raw)
}

func statusError(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status=%d body=%s", ErrAuth, status, abbreviateBody(body))
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: status=%d", ErrNotFound, status)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status=%d body=%s", ErrRateLimit, status, abbreviateBody(body))
	case status == http.StatusRequestTimeout || status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status=%d body=%s", ErrTransientNetwork, status, abbreviateBody(body))
	default:
		return fmt.Errorf("%w: unexpected status=%d body=%s", ErrMalformedResponse, status, abbreviateBody(body))
	}
}

func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	switch Classify(err) {
	case KindTransientNetwork, KindRateLimit, KindRetriesExhausted:
		return true
	default:
		return false
	}
}

func payloadLooksJSON(raw []byte) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func sanitizeSensitiveText(value, key string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if key != "" {
		value = strings.ReplaceAll(value, key, "REDACTED")
	}
	value = subscriptionKeyParamRegex.ReplaceAllString(value, "Subscription-Key=REDACTED")
	return value
}

func redactAPIURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return subscriptionKeyParamRegex.ReplaceAllString(rawURL, "Subscription-Key=REDACTED")
	}
	query := parsed.Query()
	if query.Has("Subscription-Key") {
		query.Set("Subscription-Key", "REDACTED")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
