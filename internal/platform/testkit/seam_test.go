package testkit

import (
	"sync"
	"testing"
	"time"
)

var (
	sleepFn  = time.Sleep
	cooldown = 600 * time.Second
)

func TestSwap_FunctionAndRestore(t *testing.T) {
	var slept time.Duration
	t.Run("swap-in-subtest", func(t *testing.T) {
		Swap(t, &sleepFn, func(d time.Duration) { slept = d })
		sleepFn(720 * time.Millisecond)
	})
	if slept != 720*time.Millisecond {
		t.Fatalf("swapped sleeper not called, slept=%s", slept)
	}
	// restored: calling the real sleeper with zero returns immediately
	sleepFn(0)
}

func TestSwap_ValueAndRestore(t *testing.T) {
	t.Run("value", func(t *testing.T) {
		Swap(t, &cooldown, time.Millisecond)
		if cooldown != time.Millisecond {
			t.Fatalf("swap failed, got %s", cooldown)
		}
	})
	if cooldown != 600*time.Second {
		t.Fatalf("swap did not restore original, got %s", cooldown)
	}
}

func TestSerial_GuardsConcurrentSubtests(t *testing.T) {
	var mu sync.Mutex
	active, maxActive := 0, 0

	enter := func() {
		mu.Lock()
		active++
		maxActive = max(maxActive, active)
		mu.Unlock()
	}
	leave := func() {
		mu.Lock()
		active--
		mu.Unlock()
	}

	t.Run("group", func(t *testing.T) {
		for _, name := range []string{"A", "B", "C"} {
			t.Run(name, func(t *testing.T) {
				t.Parallel()
				Serial(t)
				enter()
				time.Sleep(20 * time.Millisecond)
				leave()
			})
		}
	})

	if maxActive != 1 {
		t.Fatalf("expected serialized subtests, saw %d concurrently", maxActive)
	}
}
