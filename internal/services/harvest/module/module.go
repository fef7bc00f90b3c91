// Package module wires the harvest service, its adapters and status routes
package module

import (
	"context"
	"net/http"
	"time"

	"verifiedorgs/internal/adapters/github"
	"verifiedorgs/internal/modkit"
	phttp "verifiedorgs/internal/platform/net/http"
	"verifiedorgs/internal/platform/store"
	"verifiedorgs/internal/services/harvest/credentials"
	"verifiedorgs/internal/services/harvest/domain"
	harvesthttp "verifiedorgs/internal/services/harvest/http"
	"verifiedorgs/internal/services/harvest/service"
)

// Module implements the harvest module
type Module struct {
	deps      modkit.Deps
	name      string
	prefix    string
	mws       []func(http.Handler) http.Handler
	opts      Options
	ports     Ports
	readiness any
	startedAt time.Time
}

var (
	_ modkit.Module  = (*Module)(nil)
	_ modkit.Builder = New
)

// New constructs the harvest module from HARVEST_* config in deps.Cfg
func New(deps modkit.Deps, opts ...modkit.Option) (modkit.Module, error) {
	return NewWithOptions(deps, FromConfig(deps.Cfg), opts...)
}

// NewWithOptions constructs the harvest module from explicit options
func NewWithOptions(deps modkit.Deps, o Options, opts ...modkit.Option) (*Module, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	b := modkit.Build("harvest", "/v1", opts...)

	client := github.NewClient(github.Options{
		WebBaseURL: o.WebBaseURL,
		APIBaseURL: o.APIBaseURL,
		Timeout:    o.HTTPTimeout,
	})

	cfg := service.Config{
		SeedPath:      o.SeedPath,
		OutputPath:    o.OutputPath,
		Workers:       o.Workers,
		Cooldown:      o.Cooldown,
		MaxRestarts:   o.MaxRestarts,
		ProgressTotal: o.ProgressTotal,
		Credentials: credentials.Loader{
			Path:   o.SecretsPath,
			Prefix: o.SecretPrefix,
			Inline: o.Tokens,
		},
		NewDirectory: func(c domain.Credential) service.Directory { return client.WithToken(string(c)) },
		NewPacer:     service.PacerFactory(o.Pacing, o.PaceInterval, o.PaceBurst),
	}
	var readiness any = deps.PG
	if o.PGDSN != "" && deps.PG == nil {
		cfg.OpenMirror = mirrorOpener(deps, o)
	}
	svc := service.New(deps, cfg)
	if cfg.OpenMirror != nil {
		readiness = svc
	}

	return &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		opts:      o,
		ports:     Ports{Supervisor: svc, Checkpoint: svc, Progress: svc},
		readiness: readiness,
		startedAt: time.Now(),
	}, nil
}

// mirrorOpener connects the Postgres mirror named by o; the service calls it once per pass
func mirrorOpener(deps modkit.Deps, o Options) func(context.Context) (*store.Store, error) {
	return func(ctx context.Context) (*store.Store, error) {
		return store.Open(ctx, store.Config{
			AppName: "verifiedorgs",
			PG: store.PGConfig{
				Enabled:     true,
				URL:         o.PGDSN,
				MaxConns:    o.PGMaxConns,
				LogSQL:      o.PGLogSQL,
				SlowQueryMs: 500,
			},
		}, store.WithLogger(deps.Log))
	}
}

// MountRoutes mounts health checks at the root and status routes under the module prefix
func (m *Module) MountRoutes(r phttp.Router) {
	d := harvesthttp.Deps{
		Progress:   m.ports.Progress,
		Checkpoint: m.ports.Checkpoint,
		StartedAt:  m.startedAt,
		PG:         m.readiness,
	}
	harvesthttp.RegisterHealth(r, d)
	r.Route(m.prefix, func(rr phttp.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		harvesthttp.Register(rr, d)
	})
}

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Options returns the validated options the module was built from
func (m *Module) Options() Options { return m.opts }
