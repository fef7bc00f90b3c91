package service

import (
	"math"
	"slices"
	"sync"
	"time"

	ptime "verifiedorgs/internal/platform/time"
	"verifiedorgs/internal/services/harvest/domain"
)

// DefaultProgressTotal approximates the largest GitHub account id when the seed was built
const DefaultProgressTotal int64 = 104219624

// Percent is id as a share of total, in percent
func Percent(id, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(id) / float64(total) * 100
}

// Tracker aggregates per-worker progress for logs and the status endpoint
type Tracker struct {
	mu      sync.Mutex
	total   int64
	snap    domain.Progress
	workers map[int]*domain.WorkerProgress
	now     func() time.Time
}

var _ domain.ProgressPort = (*Tracker)(nil)

// NewTracker builds a tracker reporting percentages against total
func NewTracker(total int64) *Tracker {
	if total <= 0 {
		total = DefaultProgressTotal
	}
	return &Tracker{total: total, workers: map[int]*domain.WorkerProgress{}, now: time.Now}
}

// Begin resets counters for a new pass
func (t *Tracker) Begin(runID string, attempt int, checkpoint int64, workers int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap = domain.Progress{
		RunID:      runID,
		Attempt:    attempt,
		StartedAt:  t.now().UTC(),
		Checkpoint: checkpoint,
		LastID:     checkpoint,
		Percent:    round5(Percent(checkpoint, t.total)),
	}
	t.workers = make(map[int]*domain.WorkerProgress, workers)
	for i := range workers {
		t.workers[i] = &domain.WorkerProgress{Worker: i, State: domain.WorkerRunning}
	}
}

func (t *Tracker) worker(id int) *domain.WorkerProgress {
	w, ok := t.workers[id]
	if !ok {
		w = &domain.WorkerProgress{Worker: id, State: domain.WorkerRunning}
		t.workers[id] = w
	}
	return w
}

// Checked counts a candidate that reached the existence check
func (t *Tracker) Checked(worker int, c domain.Candidate) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Checked++
	w := t.worker(worker)
	w.LastLogin, w.LastID = c.Handle, c.ID
}

// NotFound counts a 404 on either host
func (t *Tracker) NotFound() {
	t.mu.Lock()
	t.snap.NotFound++
	t.mu.Unlock()
}

// Unverified counts an organization that exists but is not verified
func (t *Tracker) Unverified() {
	t.mu.Lock()
	t.snap.Unverified++
	t.mu.Unlock()
}

// Wrote records a durable append and returns the completion percentage for id
func (t *Tracker) Wrote(worker int, login string, id int64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Written++
	t.snap.LastID = max(t.snap.LastID, id)
	t.snap.Percent = round5(Percent(t.snap.LastID, t.total))
	w := t.worker(worker)
	w.Written++
	w.LastLogin, w.LastID = login, id
	return Percent(id, t.total)
}

// End records why a worker stopped
func (t *Tracker) End(worker int, state domain.WorkerState, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w := t.worker(worker)
	w.State, w.Reason = state, reason
}

// Finish stamps the end of the current pass
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.FinishedAt = ptime.Ptr(t.now().UTC())
}

// Snapshot returns a copy safe to serialize
func (t *Tracker) Snapshot() domain.Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.snap
	out.Workers = make([]domain.WorkerProgress, 0, len(t.workers))
	for _, w := range t.workers {
		out.Workers = append(out.Workers, *w)
	}
	slices.SortFunc(out.Workers, func(a, b domain.WorkerProgress) int { return a.Worker - b.Worker })
	return out
}

func round5(f float64) float64 { return math.Round(f*1e5) / 1e5 }
