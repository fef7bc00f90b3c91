// Package time contains time related helpers
package time

import "time"

// Ptr returns a pointer to t, or nil for the zero time so JSON omits it
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
