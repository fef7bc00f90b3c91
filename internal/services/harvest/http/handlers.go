// Package http provides the harvest status endpoints
package http

import (
	stdctx "context"
	"net/http"
	"time"

	"verifiedorgs/internal/core/version"
	phttp "verifiedorgs/internal/platform/net/http"
	"verifiedorgs/internal/platform/store"
	"verifiedorgs/internal/services/harvest/domain"
)

// Deps are the handler dependencies
type Deps struct {
	Progress   domain.ProgressPort
	Checkpoint domain.CheckpointPort
	StartedAt  time.Time
	// PG is pinged by /ready when the mirror is enabled
	PG any
}

type handlers struct {
	deps Deps
	now  func() time.Time
}

// RegisterHealth mounts liveness and readiness at the router root
func RegisterHealth(r phttp.Router, d Deps) {
	h := &handlers{deps: d, now: time.Now}

	r.Get("/healthz", phttp.Handle(h.health))
	r.Head("/healthz", phttp.Handle(h.health))
	r.Get("/ready", phttp.Handle(h.ready))
}

// Register mounts the status routes
func Register(r phttp.Router, d Deps) {
	h := &handlers{deps: d, now: time.Now}

	r.Get("/version", phttp.Handle(h.version))
	r.Get("/progress", phttp.Handle(h.progress))
	r.Get("/checkpoint", phttp.Handle(h.checkpoint))
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok fail skipped
	Error  string `json:"error,omitempty"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status"` // ok fail
	Checks []ReadyCheck `json:"checks"`
}

// CheckpointResponse is the durable resume point
type CheckpointResponse struct {
	Checkpoint int64 `json:"checkpoint"`
}

func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(h.now().Sub(h.deps.StartedAt) / time.Second),
	}, nil
}

func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := stdctx.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	pg := ReadyCheck{Name: "pg", Status: "skipped"}
	if p, ok := h.deps.PG.(store.Pinger); ok {
		pg.Status = "ok"
		if err := p.Ping(ctx); err != nil {
			pg.Status, pg.Error = "fail", err.Error()
		}
	}

	overall := "ok"
	if pg.Status == "fail" {
		overall = "fail"
	}
	return ReadyResponse{Status: overall, Checks: []ReadyCheck{pg}}, nil
}

func (h *handlers) version(_ *http.Request) (any, error) { return version.Info(), nil }

func (h *handlers) progress(_ *http.Request) (any, error) {
	return h.deps.Progress.Snapshot(), nil
}

func (h *handlers) checkpoint(r *http.Request) (any, error) {
	cp, err := h.deps.Checkpoint.Checkpoint(r.Context())
	if err != nil {
		return nil, err
	}
	return CheckpointResponse{Checkpoint: cp}, nil
}
