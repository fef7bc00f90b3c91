package github

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// Exists reports whether a public profile page answers for handle on the web host.
// The request is unauthenticated. 2xx means present, 404 means absent, anything
// else is returned as an error with the status attached
func (c *Client) Exists(ctx context.Context, handle string) (bool, error) {
	u := c.opts.WebBaseURL + "/" + url.PathEscape(handle)
	resp, err := c.do(ctx, http.MethodGet, u, false)
	if err != nil {
		return false, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		_ = drainAndClose(resp.Body)
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		_ = drainAndClose(resp.Body)
		return false, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, bodyTailLimit))
		_ = resp.Body.Close()
		return false, newStatusError(resp.StatusCode, u, body)
	}
}
