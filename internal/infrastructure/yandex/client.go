package yandex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/foodcart/backend/internal/domain"
	"golang.org/x/time/rate"
)

const (
	maxAttempts      = 3
	maxResponseBytes = 1 << 20 // 1 MiB
	maxErrorBodySize = 512
)

// Client talks to the Yandex HTTP geocoder
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *slog.Logger
	debug       bool
}

// NewClient creates a geocoder client bound to an API key
func NewClient(apiKey, baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(5), 10),
		logger:      logger.With("component", "yandex"),
	}
}

// SetDebug toggles verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// SetRateLimit replaces the client-side limiter
func (c *Client) SetRateLimit(perSecond float64, burst int) {
	if perSecond <= 0 {
		c.rateLimiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	if burst < 1 {
		burst = 1
	}
	c.rateLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (c *Client) debugLog(format string, args ...any) {
	if c.debug {
		c.logger.Debug(fmt.Sprintf(format, args...))
	}
}

// exponentialBackoff returns the wait before retrying after the given attempt: 500ms, 1s, 2s...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", domain.ErrGeocoderUnavailable, err)
	}
	req.Header.Set("User-Agent", "FoodCart/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeocoderUnavailable, err)
	}

	return resp, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// Geocode returns placemarks for address, most relevant first.
// An empty slice means the geocoder has no match.
func (c *Client) Geocode(ctx context.Context, address string) ([]domain.Placemark, error) {
	params := url.Values{}
	params.Add("geocode", address)
	params.Add("apikey", c.apiKey)
	params.Add("format", "json")

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())
	c.debugLog("geocode request for %q", address)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrGeocoderUnavailable, err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, err
			}
			c.logger.Warn("geocode request failed", "attempt", attempt, "error", err)
			if !c.backoff(ctx, attempt) {
				break
			}
			continue
		}

		body, readErr := readLimitedBody(resp.Body, maxResponseBytes)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("%w: read body: %v", domain.ErrGeocoderUnavailable, readErr)
		}

		if resp.StatusCode != http.StatusOK {
			snippet := body
			if len(snippet) > maxErrorBodySize {
				snippet = snippet[:maxErrorBodySize]
			}
			lastErr = fmt.Errorf("%w: status %d", domain.ErrGeocoderUnavailable, resp.StatusCode)
			c.logger.Warn("geocoder returned error status",
				"attempt", attempt, "status", resp.StatusCode, "body", string(snippet))
			if !retryable(resp.StatusCode) {
				return nil, lastErr
			}
			if !c.backoff(ctx, attempt) {
				break
			}
			continue
		}

		var geocodeResp geocodeResponse
		if err := json.Unmarshal(body, &geocodeResp); err != nil {
			return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrGeocoderUnavailable, err)
		}

		placemarks, err := toPlacemarks(&geocodeResp)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed response: %v", domain.ErrGeocoderUnavailable, err)
		}
		c.debugLog("geocoder found %d placemarks for %q", len(placemarks), address)
		return placemarks, nil
	}

	c.logger.Error("all geocode attempts failed", "address", address, "error", lastErr)
	return nil, lastErr
}

// backoff waits before the next attempt; false means give up
func (c *Client) backoff(ctx context.Context, attempt int) bool {
	if attempt >= maxAttempts {
		return false
	}
	timer := time.NewTimer(exponentialBackoff(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
