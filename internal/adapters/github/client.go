// Package github provides the GitHub web and REST v3 lookups a harvest worker needs
package github

import (
	"context"
	"io"
	"net/http"
	"time"

	perr "verifiedorgs/internal/platform/errors"
	"verifiedorgs/internal/platform/logger"
)

const (
	webURLDefault  = "https://github.com"
	apiURLDefault  = "https://api.github.com"
	defaultTimeout = 30 * time.Second
	defaultUA      = "verifiedorgs-harvester"

	// bodyTailLimit caps how much of an error payload is kept for diagnostics
	bodyTailLimit = 4096
	// bodyLimit caps a successful organization document
	bodyLimit = 1 << 20
)

// Options configures the Client
type Options struct {
	// WebBaseURL is the public site used for the existence check
	WebBaseURL string
	// APIBaseURL is the REST host used for organization detail
	APIBaseURL string
	UserAgent  string
	Timeout    time.Duration

	// Token is sent as "Authorization: token <Token>" on API calls only
	Token string

	// HTTPClient overrides the transport, mostly for tests
	HTTPClient *http.Client
}

// Client is a minimal GitHub client bound to at most one credential.
// It never retries and never rotates tokens; callers decide what a failure means
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
	now  func() time.Time
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.WebBaseURL == "" {
		o.WebBaseURL = webURLDefault
	}
	if o.APIBaseURL == "" {
		o.APIBaseURL = apiURLDefault
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	return &Client{
		http: hc,
		opts: o,
		log:  *logger.Named("github"),
		now:  time.Now,
	}
}

// WithToken returns a copy of c that authenticates API calls with tok.
// The copy shares the underlying http client and its connection pool
func (c *Client) WithToken(tok string) *Client {
	cp := *c
	cp.opts.Token = tok
	return &cp
}

// do issues one request. Transport failures come back as ErrorCodeUnavailable;
// any response, whatever its status, is returned to the caller to classify
func (c *Client) do(ctx context.Context, method, url string, auth bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "github new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if auth {
		req.Header.Set("Accept", "application/vnd.github+json")
		if c.opts.Token != "" {
			req.Header.Set("Authorization", "token "+c.opts.Token)
		}
	}

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github %s %s failed", method, url)
	}

	evt := c.log.Debug().
		Str("method", method).
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("latency", lat)
	if auth {
		rem, reset := parseRateHeaders(resp.Header)
		evt = evt.Int("rate_remaining", rem).Time("rate_reset", reset)
	}
	evt.Msg("github http response")

	return resp, nil
}

// readBody reads at most limit bytes and closes the body
func (c *Client) readBody(resp *http.Response, limit int64) ([]byte, error) {
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Msg("github close body failed")
		}
	}()
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}
