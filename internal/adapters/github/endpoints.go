package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	perr "verifiedorgs/internal/platform/errors"
)

// Organization performs GET /orgs/{login} with the client's credential.
// A 404 returns an ErrorCodeNotFound error; any other non-2xx carries a StatusError.
// The raw document is kept on the result so schema drift can be logged verbatim
func (c *Client) Organization(ctx context.Context, login string) (Organization, error) {
	u := c.opts.APIBaseURL + "/orgs/" + url.PathEscape(login)
	resp, err := c.do(ctx, http.MethodGet, u, true)
	if err != nil {
		return Organization{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := c.readBody(resp, bodyTailLimit)
		return Organization{}, newStatusError(resp.StatusCode, u, body)
	}

	b, err := c.readBody(resp, bodyLimit)
	if err != nil {
		return Organization{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github read %s failed", u)
	}

	var out Organization
	if err := json.Unmarshal(b, &out); err != nil {
		return Organization{Raw: b}, perr.Wrapf(err, perr.ErrorCodeJSON, "github decode %s failed", u)
	}
	out.Raw = b
	return out, nil
}
