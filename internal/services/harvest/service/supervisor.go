package service

import (
	"context"
	"time"

	perr "verifiedorgs/internal/platform/errors"
	"verifiedorgs/internal/platform/logger"

	"github.com/google/uuid"
)

// DefaultCooldown is the pause between a failed pass and the next attempt
const DefaultCooldown = 600 * time.Second

var newRunID = uuid.NewString

// Run drives passes until one completes or ctx ends. A failed pass is logged,
// followed by a cooldown and a fresh pass that re-derives the checkpoint
func (s *Svc) Run(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		runID := newRunID()
		rctx := logger.WithRun(ctx, runID, attempt)
		log := logger.NamedC(rctx, "supervisor")

		log.Info().Msg("starting harvest")
		err := s.safePass(rctx, runID, attempt)

		if ctx.Err() != nil {
			log.Warn().Msg("harvest interrupted; not restarting")
			return ctx.Err()
		}
		if err == nil {
			log.Info().Msg("harvest complete")
			return nil
		}

		if s.cfg.MaxRestarts > 0 && attempt > s.cfg.MaxRestarts {
			log.Error().Err(err).Int("max_restarts", s.cfg.MaxRestarts).Msg("harvest failed; restart budget spent")
			return perr.Wrapf(err, perr.CodeOf(err), "harvest failed after %d attempts", attempt)
		}

		log.Error().
			Err(err).
			Str("code", perr.CodeOf(err).String()).
			Dur("cooldown", s.cfg.Cooldown).
			Msg("harvest pass failed; cooling down")
		if err := sleep(ctx, s.cfg.Cooldown); err != nil {
			log.Warn().Msg("interrupted during cooldown")
			return err
		}
		log.Info().Msg("restarting harvest")
	}
}

// safePass turns a panic anywhere in the pass into an error
func (s *Svc) safePass(ctx context.Context, runID string, attempt int) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = perr.PanicErrf("harvest pass panicked: %v", v)
		}
	}()
	return s.pass(ctx, runID, attempt)
}
