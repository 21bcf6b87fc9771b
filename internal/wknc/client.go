// Package wknc provides a client for the WKNC spin-history API.
package wknc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/wkncstats/spinstats/internal/spin"
)

const (
	defaultBaseURL = "https://wknc.org/wp-json/wknc/v1/spins"
	userAgent      = "spinstats/1.0"

	// stationID selects WKNC's primary stream.
	stationID = 1

	// pageCap is the API's maximum records per response. A full page means
	// more data may exist in the requested window.
	pageCap = 100

	// apiTimeLayout is the local-time format of the start/end query params.
	apiTimeLayout = "2006-01-02 15:04"
	apiTimeZone   = "America/New_York"
)

// DefaultPageDelay is the wait between paginated requests, a courtesy to the
// station's rate limits.
const DefaultPageDelay = 3 * time.Second

// Sentinel errors.
var (
	// ErrUnexpectedResponse is returned when the top-level response is not
	// the expected JSON array.
	ErrUnexpectedResponse = errors.New("unexpected response shape")

	// ErrUpstream is returned when the API request fails after all retries.
	ErrUpstream = errors.New("upstream request failed")
)

// RetryPolicy bounds retries for a single page request.
type RetryPolicy struct {
	// MaxAttempts is the total attempt budget, first try included.
	MaxAttempts int
	// Backoff is the base delay; attempt n waits Backoff * 2^(n-1).
	Backoff time.Duration
	// RetryableStatus lists the HTTP statuses worth retrying.
	RetryableStatus map[int]bool
}

// DefaultRetryPolicy matches the station API's observed failure modes:
// five attempts, exponential backoff from one second, retrying rate limits
// and upstream 5xx errors.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		Backoff:     time.Second,
		RetryableStatus: map[int]bool{
			http.StatusTooManyRequests:     true,
			http.StatusInternalServerError: true,
			http.StatusBadGateway:          true,
			http.StatusServiceUnavailable:  true,
			http.StatusGatewayTimeout:      true,
		},
	}
}

// delay returns the wait before retry n (1-based).
func (p RetryPolicy) delay(n int) time.Duration {
	return p.Backoff << (n - 1)
}

// Client fetches spins from the WKNC API, paging around the response cap.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
	pageDelay  time.Duration
	loc        *time.Location
	sleep      func(context.Context, time.Duration) error
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetryPolicy overrides the per-page retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// WithPageDelay sets the wait between paginated requests.
func WithPageDelay(d time.Duration) Option {
	return func(c *Client) {
		c.pageDelay = d
	}
}

// New creates a WKNC API client.
func New(log zerolog.Logger, opts ...Option) (*Client, error) {
	loc, err := time.LoadLocation(apiTimeZone)
	if err != nil {
		return nil, fmt.Errorf("loading %s timezone: %w", apiTimeZone, err)
	}

	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry:     DefaultRetryPolicy(),
		pageDelay: DefaultPageDelay,
		loc:       loc,
		sleep:     ctxSleep,
		log:       log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchSpins retrieves all spins whose start falls within [start, end),
// issuing follow-up requests for earlier windows while pages come back full.
func (c *Client) FetchSpins(ctx context.Context, start, end time.Time) ([]spin.Spin, error) {
	spins, err := c.fetchPage(ctx, start, end)
	if err != nil {
		return nil, err
	}

	// A full page signals the window may hold more records than the cap.
	// Shrink the window to everything before the earliest spin seen so far
	// and request again until a page comes back short.
	pageSize := len(spins)
	for pageSize == pageCap {
		if err := c.sleep(ctx, c.pageDelay); err != nil {
			return nil, err
		}
		earliest := earliestStart(spins)
		next, err := c.fetchPage(ctx, start, earliest)
		if err != nil {
			return nil, err
		}
		pageSize = len(next)
		spins = append(spins, next...)
	}
	return spins, nil
}

func earliestStart(spins []spin.Spin) time.Time {
	earliest := spins[0].Start
	for _, s := range spins[1:] {
		if s.Start.Before(earliest) {
			earliest = s.Start
		}
	}
	return earliest
}

// fetchPage requests a single page, retrying transient failures per the
// client's retry policy.
func (c *Client) fetchPage(ctx context.Context, start, end time.Time) ([]spin.Spin, error) {
	c.log.Info().
		Time("start", start).
		Time("end", end).
		Msg("fetching spins")

	params := url.Values{
		"station": {strconv.Itoa(stationID)},
		"start":   {c.formatLocal(start)},
		"end":     {c.formatLocal(end)},
	}
	reqURL := c.baseURL + "?" + params.Encode()

	var (
		lastStatus int
		lastErr    error
	)
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.retry.delay(attempt-1)); err != nil {
				return nil, err
			}
		}

		body, status, err := c.doRequest(ctx, reqURL)
		if err != nil {
			lastErr = err
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("spin request failed")
			continue
		}
		if status == http.StatusOK {
			spins, err := c.parsePage(body)
			if err != nil {
				return nil, err
			}
			c.log.Info().
				Int("count", len(spins)).
				Time("start", start).
				Time("end", end).
				Msg("fetched spins")
			return spins, nil
		}
		if c.retry.RetryableStatus[status] {
			lastStatus = status
			lastErr = nil
			c.log.Warn().Int("status", status).Int("attempt", attempt).Msg("retryable spin response")
			continue
		}
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, status)
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrUpstream, c.retry.MaxAttempts, lastErr)
	}
	return nil, fmt.Errorf("%w: status %d after %d attempts", ErrUpstream, lastStatus, c.retry.MaxAttempts)
}

// doRequest performs one HTTP GET and returns the body and status code.
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// parsePage decodes a response body. The top level must be a JSON array;
// individual records that fail validation are skipped with a warning.
func (c *Client) parsePage(body []byte) ([]spin.Spin, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	spins := make([]spin.Spin, 0, len(raw))
	for _, msg := range raw {
		var wire wireSpin
		if err := json.Unmarshal(msg, &wire); err != nil {
			c.log.Warn().Err(err).Msg("skipping malformed spin record")
			continue
		}
		s, err := wire.toSpin()
		if err != nil {
			c.log.Warn().Err(err).Str("id", string(wire.ID)).Msg("skipping invalid spin record")
			continue
		}
		spins = append(spins, s)
	}
	return spins, nil
}

// formatLocal renders a UTC time in the station's local timezone, the format
// the API requires for its start/end params.
func (c *Client) formatLocal(t time.Time) string {
	return t.In(c.loc).Format(apiTimeLayout)
}

// ctxSleep waits for d or until ctx is cancelled.
func ctxSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
