package github

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	perr "verifiedorgs/internal/platform/errors"
)

// StatusError wraps a non-2xx response from GitHub.
// Body is a bounded tail of the payload so the worker can log it before it stops
type StatusError struct {
	Status int
	URL    string
	Body   string
}

// Error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("github %s returned %d", e.URL, e.Status)
}

// HTTPStatus interface
func (e *StatusError) HTTPStatus() int { return e.Status }

// statusCode classifies a GitHub status into a project error code
func statusCode(status int) perr.ErrorCode {
	switch {
	case status == http.StatusNotFound:
		return perr.ErrorCodeNotFound
	case status == http.StatusUnauthorized:
		return perr.ErrorCodeUnauthorized
	case status == http.StatusForbidden, status == http.StatusTooManyRequests:
		return perr.ErrorCodeTooManyRequests
	case status >= 500:
		return perr.ErrorCodeUnavailable
	default:
		return perr.ErrorCodeUnknown
	}
}

// newStatusError builds a coded error around a StatusError
func newStatusError(status int, url string, body []byte) error {
	se := &StatusError{Status: status, URL: url, Body: string(body)}
	return perr.Wrap(se, statusCode(status), "github unexpected status")
}

// AsStatusError extracts the StatusError from err, if any
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsNotFound reports whether err is a 404 from either host
func IsNotFound(err error) bool { return perr.IsCode(err, perr.ErrorCodeNotFound) }

func parseRateHeaders(h http.Header) (remaining int, reset time.Time) {
	remaining = atoi(h.Get("X-RateLimit-Remaining"))
	if sec := atoi(h.Get("X-RateLimit-Reset")); sec > 0 {
		reset = time.Unix(int64(sec), 0).UTC()
	}
	return remaining, reset
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	i, _ := strconv.Atoi(s)
	return i
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
