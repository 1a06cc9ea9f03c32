// Package commerce retrieves authoritative order data from the ecommerce
// API and normalizes it into metadata records. One call per order; failures
// stay per-order so a bad fetch never aborts a batch.
package commerce

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/grayfield/photodex/internal/models"
)

// ErrOrderNotFound indicates the upstream response carried no order section
// for the requested number.
var ErrOrderNotFound = errors.New("order not found upstream")

// DefaultMinInterval is the conservative pacing delay between upstream
// calls. A blocking delay, not a token bucket.
const DefaultMinInterval = 200 * time.Millisecond

// Config configures the upstream client.
type Config struct {
	// BaseURL of the order-detail endpoint.
	BaseURL string
	// APIKey is the credential passed as an encrypted query parameter.
	APIKey string
	// MinInterval between calls; DefaultMinInterval when zero.
	MinInterval time.Duration
	// Timeout for one request; 30s when zero.
	Timeout time.Duration
}

// Fetcher calls the ecommerce order-detail endpoint.
type Fetcher struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	minInterval time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// NewFetcher creates a fetcher for the configured endpoint.
func NewFetcher(cfg Config) *Fetcher {
	minInterval := cfg.MinInterval
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		minInterval: minInterval,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves and normalizes one order. Network errors, non-2xx
// responses, an absent order section and unparsable markup all return
// errors; callers log and skip the order, continuing the batch.
func (f *Fetcher) Fetch(ctx context.Context, orderNumber string) (*models.MetadataRecord, error) {
	if err := f.pace(ctx); err != nil {
		return nil, err
	}

	reqURL, err := f.buildURL(orderNumber)
	if err != nil {
		return nil, fmt.Errorf("build request url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch order %s: %w", orderNumber, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch order %s: upstream status %d", orderNumber, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response for order %s: %w", orderNumber, err)
	}

	record, err := parseOrderDetail(orderNumber, body)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// pace blocks until the minimum inter-call delay has elapsed since the
// previous upstream call. The first call goes through immediately; the
// stamp records when this call is allowed to fire so concurrent callers
// queue behind each other.
func (f *Fetcher) pace(ctx context.Context) error {
	f.mu.Lock()
	now := time.Now()
	wait := f.minInterval - now.Sub(f.lastCall)
	if wait > 0 {
		f.lastCall = now.Add(wait)
	} else {
		f.lastCall = now
	}
	f.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fetcher) buildURL(orderNumber string) (string, error) {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("ordernumber", orderNumber)
	q.Set("privatekey", f.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
