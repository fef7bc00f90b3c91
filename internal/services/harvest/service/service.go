// Package service contains the harvest workflows: supervisor, pass and workers
package service

import (
	"context"
	"sync"
	"time"

	gh "verifiedorgs/internal/adapters/github"
	"verifiedorgs/internal/modkit"
	perr "verifiedorgs/internal/platform/errors"
	"verifiedorgs/internal/platform/store"
	"verifiedorgs/internal/services/harvest/checkpoint"
	"verifiedorgs/internal/services/harvest/domain"
)

// Config carries runtime knobs and the collaborators a pass is built from
type Config struct {
	SeedPath    string
	OutputPath  string
	Workers     int
	Cooldown    time.Duration
	MaxRestarts int

	ProgressTotal int64

	Credentials  domain.CredentialSource
	Checkpoints  domain.CheckpointReader
	NewDirectory func(domain.Credential) Directory
	NewPacer     func() domain.Pacer

	// OpenMirror connects the database mirror at the start of every pass.
	// Ignored when deps.PG is already set
	OpenMirror func(context.Context) (*store.Store, error)
}

// Svc implements the harvest service
type Svc struct {
	deps     modkit.Deps
	cfg      Config
	progress *Tracker

	mu   sync.Mutex
	live *store.Store
}

var (
	_ domain.SupervisorPort = (*Svc)(nil)
	_ domain.CheckpointPort = (*Svc)(nil)
	_ domain.ProgressPort   = (*Svc)(nil)
	_ store.Pinger          = (*Svc)(nil)
)

// New constructs a harvest service; Credentials is required
func New(deps modkit.Deps, cfg Config) *Svc {
	if cfg.Credentials == nil {
		panic("harvest.Service requires a CredentialSource")
	}
	if cfg.Checkpoints == nil {
		cfg.Checkpoints = checkpoint.Reader{}
	}
	if cfg.NewPacer == nil {
		cfg.NewPacer = PacerFactory(PacingFixed, DefaultPaceInterval, 1)
	}
	if cfg.NewDirectory == nil {
		base := gh.NewClient(gh.Options{})
		cfg.NewDirectory = func(c domain.Credential) Directory { return base.WithToken(string(c)) }
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	return &Svc{
		deps:     deps,
		cfg:      cfg,
		progress: NewTracker(cfg.ProgressTotal),
	}
}

// Checkpoint reads the resume point from the dataset without starting a run
func (s *Svc) Checkpoint(_ context.Context) (int64, error) {
	return s.cfg.Checkpoints.Read(s.cfg.OutputPath)
}

// Snapshot returns live progress for the status endpoint
func (s *Svc) Snapshot() domain.Progress { return s.progress.Snapshot() }

// Ping checks the mirror the running pass connected; between passes there is none
func (s *Svc) Ping(ctx context.Context) error {
	s.mu.Lock()
	st := s.live
	s.mu.Unlock()
	if st == nil {
		return perr.Unavailablef("mirror not connected")
	}
	return st.Guard(ctx)
}
