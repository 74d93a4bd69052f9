// Package skaupat fetches raw product pages from the S-kaupat storefront.
package skaupat

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/eaninfo/backend/internal/domain"
)

// EANPlaceholder is replaced with the EAN code in the product path
const EANPlaceholder = "{EAN}"

// Options configures the product page client
type Options struct {
	BaseURL          string
	ProductPath      string
	UserAgent        string
	Timeout          time.Duration
	RetryCount       int
	RetryWait        time.Duration
	RequestsPerSec   float64
	Burst            int
	CloudflareBypass bool
}

// Client handles communication with the product page host
type Client struct {
	http        *resty.Client
	productPath string
	rateLimiter *rate.Limiter
}

// NewClient creates a new product page client
func NewClient(opts Options) *Client {
	if opts.ProductPath == "" {
		opts.ProductPath = "/tuote/" + EANPlaceholder
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 500 * time.Millisecond
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 2
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(opts.BaseURL, "/"))
	client.SetTimeout(opts.Timeout)
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	client.SetHeader("Accept", "text/html,application/xhtml+xml")
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	// RetryCount is the number of extra attempts after the first one
	client.SetRetryCount(opts.RetryCount)
	client.SetRetryWaitTime(opts.RetryWait)
	client.SetRetryMaxWaitTime(4 * opts.RetryWait)
	client.AddRetryCondition(shouldRetry)

	c := &Client{
		http:        client,
		productPath: opts.ProductPath,
		rateLimiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.Burst),
	}
	client.OnBeforeRequest(c.waitForLimiter)
	return c
}

// waitForLimiter runs before every attempt, retries included
func (c *Client) waitForLimiter(_ *resty.Client, req *resty.Request) error {
	if err := c.rateLimiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}
	return nil
}

func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	status := resp.StatusCode()
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// ProductURL returns the request path for an EAN code. The code is
// path-escaped so it can never add path segments or a query string.
func (c *Client) ProductURL(ean string) string {
	return strings.ReplaceAll(c.productPath, EANPlaceholder, url.PathEscape(ean))
}

// FetchRawContent downloads the product page for an EAN code.
// A missing page yields domain.ErrProductNotFound, every other failure
// domain.ErrNetwork.
func (c *Client) FetchRawContent(ctx context.Context, ean string) (string, error) {
	path := c.ProductURL(ean)
	slog.Debug("[skaupat] fetching product page", "ean", ean, "path", path)

	resp, err := c.http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		slog.Warn("[skaupat] request failed", "ean", ean, "error", err)
		return "", fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}

	switch status := resp.StatusCode(); {
	case status == http.StatusNotFound:
		slog.Info("[skaupat] product page not found", "ean", ean)
		return "", fmt.Errorf("%w: %s", domain.ErrProductNotFound, ean)
	case status < 200 || status >= 300:
		slog.Warn("[skaupat] unexpected status",
			"ean", ean,
			"status", status,
			"attempts", resp.Request.Attempt)
		return "", fmt.Errorf("%w: status %d", domain.ErrNetwork, status)
	}

	body := resp.String()
	slog.Debug("[skaupat] fetched product page", "ean", ean, "bytes", len(body), "elapsed", resp.Time())
	return body, nil
}
