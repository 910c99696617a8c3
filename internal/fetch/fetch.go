// internal/fetch/fetch.go
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Defaults mirror the probe the original audit sends: a crawler user agent
// tends to get the vanilla session cookie treatment, and the low-security
// marker keeps intentionally-vulnerable training targets in their default
// mode.
const (
	DefaultUserAgent   = "Googlebot-News"
	DefaultProbeCookie = "security=low;"
	DefaultTimeout     = 30 * time.Second
)

// Cookie is one name/value pair from the target's Set-Cookie headers,
// already stripped of attributes.
type Cookie struct {
	Name  string
	Value string
}

// Options configures a Client.
type Options struct {
	Timeout            time.Duration
	UserAgent          string
	ProbeCookie        string
	InsecureSkipVerify bool
	// RateLimit caps outbound probes per second across targets. Zero
	// disables limiting.
	RateLimit float64
}

// Client fetches session cookies from audit targets. It deliberately does
// not follow the cookie jar abstraction: the audit wants exactly what the
// server set on this response, not an accumulated session.
type Client struct {
	http    *http.Client
	opts    Options
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient builds a cookie-fetching client.
func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.ProbeCookie == "" {
		opts.ProbeCookie = DefaultProbeCookie
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:    opts,
		limiter: limiter,
		logger:  logger.Named("CookieFetcher"),
	}
}

// Cookies issues a single GET against the target and returns every cookie
// the response set, in header order. The target must be an absolute http or
// https URL; a bare host is not guessed at.
func (c *Client) Cookies(ctx context.Context, target string) ([]Cookie, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid target url %q", target)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q in target %q", u.Scheme, target)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Cookie", c.opts.ProbeCookie)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	cookies := make([]Cookie, 0, len(resp.Cookies()))
	for _, ck := range resp.Cookies() {
		cookies = append(cookies, Cookie{Name: ck.Name, Value: ck.Value})
	}

	c.logger.Debug("Fetched target cookies",
		zap.String("target", u.String()),
		zap.Int("status", resp.StatusCode),
		zap.Int("cookies", len(cookies)))
	return cookies, nil
}
