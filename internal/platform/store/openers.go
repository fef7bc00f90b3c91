package store

import (
	"context"
	"time"

	perr "verifiedorgs/internal/platform/errors"
	"verifiedorgs/internal/platform/store/pg"
)

var (
	openPool = pg.Open
	adapt    = newPGAdapter
	sleep    = time.Sleep
)

// openPG opens pg and wraps it with our sql adapter once the pool answers a ping
func openPG(ctx context.Context, cfg Config, s *Store) (*pgAdapter, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := openPool(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
		AppName:  cfg.AppName,
	}, tracer, nil)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "open postgres pool")
	}
	a := adapt(p)

	attempts := cfg.PG.ConnectAttempts
	if attempts <= 0 {
		attempts = 20
	}
	pingTimeout := cfg.PG.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}
	const (
		backoffStart   = 150 * time.Millisecond
		backoffCeiling = 2 * time.Second
	)

	var lastErr error
	backoff := backoffStart
	for range attempts {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = a.pool.Ping(toCtx)
		cancel()

		if lastErr == nil {
			return a, nil
		}
		if ctx.Err() != nil {
			a.pool.Close()
			return nil, ctx.Err()
		}
		sleep(backoff)
		backoff = min(backoff*2, backoffCeiling)
	}

	a.pool.Close()
	return nil, perr.Wrapf(lastErr, perr.ErrorCodeUnavailable, "postgres ping failed after %d attempts", attempts)
}
