package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"barcatalog-backend/internal/config"
	"barcatalog-backend/internal/domains/catalog"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// partitionKeys are the name prefixes the source is queried by.
// There is no bulk export endpoint; one request per key.
const partitionKeys = "abcdefghijklmnopqrstuvwxyz"

// Client fetches the full external catalog partition by partition,
// pacing requests to respect the source's implicit rate limit.
// Safe to re-run: the only side effect is outbound HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	interval   time.Duration
	maxRetries int
	limiter    *rate.Limiter
}

func NewClient(cfg config.SourceConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    cfg.BaseURL,
		interval:   cfg.RequestInterval,
		maxRetries: cfg.MaxRetries,
		// burst 1: strictly one request per interval
		limiter: rate.NewLimiter(rate.Every(cfg.RequestInterval), 1),
	}
}

// searchResponse is the per-partition body. A null or absent drink
// list means the partition is empty, not that the request failed.
type searchResponse struct {
	Drinks []map[string]any `json:"drinks"`
}

// attemptError is the outcome of one failed request. The retry
// driver inspects the variant instead of matching error types.
type attemptError struct {
	err        error
	retryable  bool
	retryAfter time.Duration // rate-limit hint from the source, 0 if none
}

func (e *attemptError) Error() string { return e.err.Error() }

// FetchCatalog pulls every partition sequentially and concatenates
// the normalized records. Fails with catalog.ErrFetchExhausted when
// any partition runs out of retry budget.
func (c *Client) FetchCatalog(ctx context.Context) ([]catalog.Drink, error) {
	var drinks []catalog.Drink
	for _, key := range partitionKeys {
		partition, err := c.fetchPartition(ctx, string(key))
		if err != nil {
			return nil, err
		}
		drinks = append(drinks, partition...)
	}

	log.Info().Int("drinks", len(drinks)).Msg("Fetched full catalog")
	return drinks, nil
}

func (c *Client) fetchPartition(ctx context.Context, key string) ([]catalog.Drink, error) {
	var lastErr *attemptError

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.backoff(lastErr, attempt)); err != nil {
				return nil, err
			}
			log.Warn().
				Str("partition", key).
				Int("attempt", attempt).
				Err(lastErr.err).
				Msg("Retrying partition fetch")
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		records, aerr := c.request(ctx, key)
		if aerr == nil {
			return records, nil
		}
		if !aerr.retryable {
			return nil, aerr.err
		}
		lastErr = aerr
	}

	return nil, fmt.Errorf("%w: partition %q failed after %d retries: %v",
		catalog.ErrFetchExhausted, key, c.maxRetries, lastErr.err)
}

// backoff returns how long to wait before the given retry attempt.
// Rate-limit responses wait at least the source's hint; everything
// else backs off linearly on the configured interval.
func (c *Client) backoff(last *attemptError, attempt int) time.Duration {
	if last.retryAfter > 0 {
		if last.retryAfter > c.interval {
			return last.retryAfter
		}
		return c.interval
	}
	return c.interval * time.Duration(attempt)
}

func (c *Client) request(ctx context.Context, key string) ([]catalog.Drink, *attemptError) {
	url := fmt.Sprintf("%s/search.php?f=%s", c.baseURL, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &attemptError{err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &attemptError{err: ctx.Err()}
		}
		return nil, &attemptError{err: fmt.Errorf("request %s: %w", url, err), retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &attemptError{
			err:        fmt.Errorf("source rate limited request %s", url),
			retryable:  true,
			retryAfter: retryAfterHint(resp),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &attemptError{
			err:       fmt.Errorf("request %s: unexpected status %d", url, resp.StatusCode),
			retryable: true,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &attemptError{err: fmt.Errorf("read body of %s: %w", url, err), retryable: true}
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &attemptError{err: fmt.Errorf("malformed body from %s: %w", url, err), retryable: true}
	}

	var drinks []catalog.Drink
	for _, raw := range parsed.Drinks {
		drink, err := catalog.Normalize(raw)
		if err != nil {
			log.Warn().Str("partition", key).Err(err).Msg("Skipping unnormalizable record")
			continue
		}
		drinks = append(drinks, drink)
	}
	return drinks, nil
}

// retryAfterHint parses the Retry-After header, seconds form only
func retryAfterHint(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
