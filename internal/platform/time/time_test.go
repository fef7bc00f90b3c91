package time

import (
	"testing"
	"time"
)

func TestPtr(t *testing.T) {
	if Ptr(time.Time{}) != nil {
		t.Fatalf("zero time should map to nil")
	}
	at := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	p := Ptr(at)
	if p == nil || !p.Equal(at) {
		t.Fatalf("Ptr(%v) = %v", at, p)
	}
}
