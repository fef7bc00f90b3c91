package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"verifiedorgs/internal/modkit"
	"verifiedorgs/internal/modkit/module"
	"verifiedorgs/internal/platform/config"
	"verifiedorgs/internal/platform/logger"
	phttp "verifiedorgs/internal/platform/net/http"
	"verifiedorgs/internal/platform/net/middleware"
	"verifiedorgs/internal/services/harvest/domain"
	harvestmod "verifiedorgs/internal/services/harvest/module"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the harvest until the seed is exhausted",
	Long: `Runs workers against the seed list, one per credential, resuming after the last id
already present in the output dataset. A failed pass cools down and restarts.

Every flag has a HARVEST_* env counterpart; flags win when both are set.`,
	RunE: runHarvestCmd,
}

var (
	runSeed         string
	runOutput       string
	runSecrets      string
	runSecretPrefix string
	runTokens       []string
	runWorkers      int
	runPacing       string
	runPaceInterval time.Duration
	runCooldown     time.Duration
	runMaxRestarts  int
	runStatusAddr   string
	runPGDSN        string
)

func init() {
	f := runCommand.Flags()
	f.StringVarP(&runSeed, "seed", "s", "", "seed CSV of handle,id rows (HARVEST_SEED_PATH)")
	f.StringVarP(&runOutput, "output", "o", "", "result dataset and checkpoint (HARVEST_OUTPUT_PATH)")
	f.StringVar(&runSecrets, "secrets", "", "dotenv secret store with API tokens (HARVEST_SECRETS_PATH)")
	f.StringVar(&runSecretPrefix, "secret-prefix", "", "only use secret keys with this prefix (HARVEST_SECRET_PREFIX)")
	f.StringSliceVar(&runTokens, "token", nil, "extra API token, repeatable (HARVEST_GH_TOKENS)")
	f.IntVarP(&runWorkers, "workers", "w", 0, "cap on workers; 0 means one per credential (HARVEST_WORKERS)")
	f.StringVar(&runPacing, "pacing", "", "fixed | limiter (HARVEST_PACING)")
	f.DurationVar(&runPaceInterval, "pace-interval", 0, "pause per detail fetch per worker (HARVEST_PACE_INTERVAL)")
	f.DurationVar(&runCooldown, "cooldown", 0, "pause before restarting a failed pass (HARVEST_COOLDOWN)")
	f.IntVar(&runMaxRestarts, "max-restarts", 0, "give up after this many restarts; 0 means never (HARVEST_MAX_RESTARTS)")
	f.StringVar(&runStatusAddr, "status-addr", "", "serve /healthz and /v1/progress on this address (HARVEST_STATUS_ADDR)")
	f.StringVar(&runPGDSN, "pg-dsn", "", "mirror records into this postgres database (HARVEST_PG_DSN)")

	rootCmd.AddCommand(runCommand)
}

// applyRunFlags surfaces changed flags as env so the module reads one source
func applyRunFlags(cmd *cobra.Command) {
	changed := cmd.Flags().Changed
	mustSetEnv("HARVEST_SEED_PATH", runSeed)
	mustSetEnv("HARVEST_OUTPUT_PATH", runOutput)
	mustSetEnv("HARVEST_SECRETS_PATH", runSecrets)
	mustSetEnv("HARVEST_SECRET_PREFIX", runSecretPrefix)
	mustSetEnv("HARVEST_GH_TOKENS", strings.Join(runTokens, ","))
	mustSetEnv("HARVEST_PACING", runPacing)
	mustSetEnv("HARVEST_STATUS_ADDR", runStatusAddr)
	mustSetEnv("HARVEST_PG_DSN", runPGDSN)
	if changed("workers") {
		mustSetEnv("HARVEST_WORKERS", strconv.Itoa(runWorkers))
	}
	if changed("max-restarts") {
		mustSetEnv("HARVEST_MAX_RESTARTS", strconv.Itoa(runMaxRestarts))
	}
	if changed("pace-interval") {
		mustSetEnv("HARVEST_PACE_INTERVAL", runPaceInterval.String())
	}
	if changed("cooldown") {
		mustSetEnv("HARVEST_COOLDOWN", runCooldown.String())
	}
}

func runHarvestCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	applyRunFlags(cmd)

	root := config.New()
	l := logger.Get()
	opts := harvestmod.FromConfig(root)

	deps := modkit.Deps{Cfg: root, Log: *l}
	if opts.PGDSN != "" {
		l.Info().Msg("postgres mirror enabled; connecting on each pass")
	}

	m, err := harvestmod.New(deps)
	if err != nil {
		return err
	}

	if opts.StatusAddr != "" {
		srv := phttp.NewServer(opts.StatusAddr, func(mux *chi.Mux) {
			mux.Use(middleware.Defaults()...)
			mux.Use(middleware.CORS(middleware.CORSOptions{}))
		})
		m.MountRoutes(srv.Router())
		go func() {
			if err := srv.Run(ctx); err != nil {
				l.Error().Err(err).Str("addr", srv.Addr()).Msg("status server stopped")
			}
		}()
	}

	sup := module.MustPortsOf[domain.SupervisorPort](m)
	if err := sup.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			l.Warn().Msg("harvest interrupted")
			return nil
		}
		return err
	}
	return nil
}
