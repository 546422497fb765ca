package lookup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/productscan/backend/internal/domain"
	"github.com/productscan/backend/internal/logger"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds one remote lookup, including the rate limiter wait
	DefaultTimeout = 5 * time.Second

	// maxResponseBytes caps how much of a response body is read
	maxResponseBytes = 1 << 20

	productsPath = "/v1/products"
)

// ClientConfig holds the remote lookup service settings
type ClientConfig struct {
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second
	RateBurst int
}

// Client handles communication with the remote product lookup service
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	timeout     time.Duration
	rateLimiter *rate.Limiter
}

// NewClient creates a new lookup client. A client without an API key is
// valid but disabled: Enabled reports false and lookups are refused.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		timeout:     timeout,
		rateLimiter: rate.NewLimiter(limit, burst),
	}
}

// Enabled reports whether a credential is configured
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// LookupBarcode fetches the product for a normalized barcode.
// Transport errors, non-200 statuses and unparseable bodies wrap
// domain.ErrSourceUnavailable; a parseable body with no recognizable product
// returns domain.ErrProductNotFound.
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	if !c.Enabled() {
		return nil, domain.ErrLookupDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	log := logger.WithFields(logrus.Fields{"component": "lookup", "barcode": barcode})

	if err := c.rateLimiter.Wait(ctx); err != nil {
		log.WithError(err).Warn("rate limiter refused lookup")
		return nil, fmt.Errorf("%w: %w: %v", domain.ErrSourceUnavailable, domain.ErrRateLimited, err)
	}

	body, err := c.get(ctx, c.buildURL(barcode))
	if err != nil {
		log.WithError(err).Warn("remote lookup failed")
		return nil, err
	}

	root, err := ParseNode(body)
	if err != nil {
		log.WithError(err).Warn("remote lookup returned malformed body")
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	node, shape, ok := LocateProduct(root)
	if !ok {
		log.Debug("no product located in remote response")
		return nil, domain.ErrProductNotFound
	}

	record := recordFrom(node)
	log.WithField("shape", shape).Debug("product located in remote response")
	return record, nil
}

func (c *Client) buildURL(barcode string) string {
	params := url.Values{}
	params.Add("api_key", c.apiKey)
	params.Add("barcode", barcode)
	params.Add("mode", "barcode")
	params.Add("limit", "1")

	return fmt.Sprintf("%s%s?%s", c.baseURL, productsPath, params.Encode())
}

// get executes the GET request and returns the body of a 200 response
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", domain.ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", "ProductScan/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %v", domain.ErrSourceUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	return body, nil
}
