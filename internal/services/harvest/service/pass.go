package service

import (
	"context"

	perr "verifiedorgs/internal/platform/errors"
	"verifiedorgs/internal/platform/logger"
	"verifiedorgs/internal/platform/store"
	"verifiedorgs/internal/services/harvest/domain"
	"verifiedorgs/internal/services/harvest/seed"
	"verifiedorgs/internal/services/harvest/sink"

	"golang.org/x/sync/errgroup"
)

// pass runs one full pipeline: credentials, checkpoint, cursor, sink, workers.
// Worker-level failures end only that worker; an error here means the pass itself failed
func (s *Svc) pass(ctx context.Context, runID string, attempt int) error {
	log := logger.NamedC(ctx, "harvest")

	creds, err := s.cfg.Credentials.Load()
	if err != nil {
		return err
	}
	n := len(creds)
	if s.cfg.Workers > 0 && s.cfg.Workers < n {
		n = s.cfg.Workers
	} else if s.cfg.Workers > n {
		log.Warn().Int("requested", s.cfg.Workers).Int("credentials", n).Msg("fewer credentials than workers; one worker per credential")
	}

	cp, err := s.cfg.Checkpoints.Read(s.cfg.OutputPath)
	if err != nil {
		return err
	}

	cur, err := seed.Open(s.cfg.SeedPath, cp)
	if err != nil {
		return err
	}
	defer func() { _ = cur.Close() }()

	out, release, err := s.openSink(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("close sink failed")
		}
		release()
	}()

	s.progress.Begin(runID, attempt, cp, n)
	log.Info().
		Int("workers", n).
		Int64("checkpoint", cp).
		Str("seed", s.cfg.SeedPath).
		Str("output", s.cfg.OutputPath).
		Msg("harvest pass started")

	var g errgroup.Group
	for i := range n {
		w := &worker{
			id:       i,
			cursor:   cur,
			dir:      s.cfg.NewDirectory(creds[i]),
			pacer:    s.cfg.NewPacer(),
			sink:     out,
			progress: s.progress,
		}
		g.Go(func() error { return w.run(ctx) })
	}
	err = g.Wait()
	s.progress.Finish()

	st := cur.Stats()
	snap := s.progress.Snapshot()
	log.Info().
		Int64("dispensed", st.Dispensed).
		Int64("skipped", st.Skipped).
		Int64("malformed", st.Malformed).
		Int64("written", snap.Written).
		Int64("not_found", snap.NotFound).
		Int64("unverified", snap.Unverified).
		Msg("harvest pass finished")
	return err
}

// openSink opens the dataset and, when a mirror database is configured, the mirror behind it.
// release hands back a store the pass opened itself and runs after the sink is closed
func (s *Svc) openSink(ctx context.Context) (domain.Sink, func(), error) {
	csv, err := sink.OpenCSV(s.cfg.OutputPath)
	if err != nil {
		return nil, nil, err
	}
	q, release, err := s.mirrorQuerier(ctx)
	if err != nil {
		_ = csv.Close()
		return nil, nil, perr.WithOp(err, "mirror")
	}
	if q == nil {
		return csv, release, nil
	}
	mirror := sink.NewPostgres(q)
	if err := mirror.Ensure(ctx); err != nil {
		_ = csv.Close()
		release()
		return nil, nil, perr.WithOp(err, "mirror")
	}
	return sink.Multi{csv, mirror}, release, nil
}

// mirrorQuerier returns the injected querier, or connects a fresh store for this pass
// so an unreachable database fails the pass and goes through cooldown like any other fault
func (s *Svc) mirrorQuerier(ctx context.Context) (store.Querier, func(), error) {
	noop := func() {}
	if s.deps.PG != nil {
		return s.deps.PG, noop, nil
	}
	if s.cfg.OpenMirror == nil {
		return nil, noop, nil
	}

	st, err := s.cfg.OpenMirror(ctx)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if err := st.Close(context.Background()); err != nil {
			logger.NamedC(ctx, "harvest").Error().Err(err).Msg("close mirror store failed")
		}
	}
	if st.PG == nil {
		closeStore()
		return nil, nil, perr.Unavailablef("mirror store has no postgres client")
	}
	if err := st.Guard(ctx); err != nil {
		closeStore()
		return nil, nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "mirror not reachable")
	}

	s.mu.Lock()
	s.live = st
	s.mu.Unlock()
	return st.PG, func() {
		s.mu.Lock()
		s.live = nil
		s.mu.Unlock()
		closeStore()
	}, nil
}
