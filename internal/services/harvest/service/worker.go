package service

import (
	"context"
	"errors"
	"runtime/debug"
	"strconv"

	gh "verifiedorgs/internal/adapters/github"
	perr "verifiedorgs/internal/platform/errors"
	"verifiedorgs/internal/platform/logger"
	"verifiedorgs/internal/services/harvest/domain"
)

// Directory is the lookup surface one worker drives with its own credential
type Directory interface {
	Exists(ctx context.Context, handle string) (bool, error)
	Organization(ctx context.Context, login string) (gh.Organization, error)
}

// worker turns candidates into records until the cursor runs dry or something fatal happens
type worker struct {
	id       int
	cursor   domain.Cursor
	dir      Directory
	pacer    domain.Pacer
	sink     domain.Sink
	progress *Tracker
}

// run only returns an error for a recovered panic; every other stop is logged and
// reported as nil so siblings keep going
func (w *worker) run(ctx context.Context) (err error) {
	log := logger.NamedC(ctx, "harvest-worker").With().Int("worker", w.id).Logger()

	defer func() {
		if v := recover(); v != nil {
			log.Error().Interface("panic", v).Bytes("stack", debug.Stack()).Msg("worker panicked")
			w.progress.End(w.id, domain.WorkerFailed, "panic")
			err = perr.PanicErrf("worker %d panicked: %v", w.id, v)
		}
	}()

	log.Info().Msg("worker started")
	for {
		if ctx.Err() != nil {
			log.Warn().Msg("worker interrupted")
			w.progress.End(w.id, domain.WorkerStopped, "interrupted")
			return nil
		}

		cand, ok, err := w.cursor.Next()
		if err != nil {
			log.Error().Err(err).Msg("seed read failed; worker exiting")
			w.progress.End(w.id, domain.WorkerFailed, err.Error())
			return nil
		}
		if !ok {
			log.Info().Msg("seed exhausted; worker done")
			w.progress.End(w.id, domain.WorkerExhausted, "")
			return nil
		}

		if err := w.handle(ctx, &log, cand); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Warn().Str("login", cand.Handle).Int64("id", cand.ID).Msg("worker interrupted")
				w.progress.End(w.id, domain.WorkerStopped, "interrupted")
				return nil
			}
			log.Error().
				Err(err).
				Str("code", perr.CodeOf(err).String()).
				Str("login", cand.Handle).
				Int64("id", cand.ID).
				Msg("worker exiting")
			w.progress.End(w.id, domain.WorkerFailed, err.Error())
			return nil
		}
	}
}

// handle runs the per-candidate protocol; a non-nil error ends the worker
func (w *worker) handle(ctx context.Context, log *logger.Logger, cand domain.Candidate) error {
	exists, err := w.dir.Exists(ctx, cand.Handle)
	if err != nil {
		if se, ok := gh.AsStatusError(err); ok {
			log.Error().Int("status", se.Status).Str("payload", se.Body).Str("login", cand.Handle).Msg("existence check failed")
		}
		return perr.WithOp(err, "exists")
	}
	w.progress.Checked(w.id, cand)
	if !exists {
		w.progress.NotFound()
		log.Debug().Str("login", cand.Handle).Int64("id", cand.ID).Msg("no profile; skipping")
		return nil
	}

	org, fetchErr := w.dir.Organization(ctx, cand.Handle)
	if err := w.pacer.Pace(ctx); err != nil {
		return err
	}

	if fetchErr != nil {
		if gh.IsNotFound(fetchErr) {
			w.progress.NotFound()
			log.Debug().Str("login", cand.Handle).Int64("id", cand.ID).Msg("no organization; skipping")
			return nil
		}
		evt := log.Error().Str("login", cand.Handle)
		if se, ok := gh.AsStatusError(fetchErr); ok {
			evt = evt.Int("status", se.Status).Str("payload", se.Body)
		} else if len(org.Raw) > 0 {
			evt = evt.Bytes("payload", org.Raw)
		}
		evt.Msg("organization fetch failed")
		return perr.WithOp(fetchErr, "organization")
	}

	if org.IsVerified == nil {
		log.Error().Str("login", cand.Handle).Bytes("payload", org.Raw).Msg("response has no is_verified field")
		return perr.Schemaf("is_verified missing for %s", cand.Handle)
	}
	if !*org.IsVerified {
		w.progress.Unverified()
		return nil
	}

	rec := recordFrom(org)
	if err := w.sink.Append(ctx, rec); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return perr.WithOp(err, "append")
	}

	pct := w.progress.Wrote(w.id, rec.Login, rec.ID)
	log.Info().
		Str("login", rec.Login).
		Int64("id", rec.ID).
		Str("percent", strconv.FormatFloat(pct, 'f', 5, 64)).
		Msg("organization recorded")
	return nil
}
