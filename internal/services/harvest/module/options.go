package module

import (
	"time"

	"verifiedorgs/internal/platform/config"
	"verifiedorgs/internal/platform/validate"
	"verifiedorgs/internal/services/harvest/service"
)

// Options holds configuration for the harvest module, read from HARVEST_* env
type Options struct {
	SeedPath     string   `env:"HARVEST_SEED_PATH"     validate:"required"`
	OutputPath   string   `env:"HARVEST_OUTPUT_PATH"   validate:"required,nefield=SeedPath"`
	SecretsPath  string   `env:"HARVEST_SECRETS_PATH"`
	SecretPrefix string   `env:"HARVEST_SECRET_PREFIX"`
	Tokens       []string `env:"HARVEST_GH_TOKENS"`
	Workers      int      `env:"HARVEST_WORKERS"       validate:"gte=0,max=64"`

	WebBaseURL  string        `env:"HARVEST_WEB_BASE_URL" validate:"required,url"`
	APIBaseURL  string        `env:"HARVEST_API_BASE_URL" validate:"required,url"`
	HTTPTimeout time.Duration `env:"HARVEST_HTTP_TIMEOUT" validate:"gt=0s"`

	Pacing       string        `env:"HARVEST_PACING"        validate:"oneof=fixed limiter"`
	PaceInterval time.Duration `env:"HARVEST_PACE_INTERVAL" validate:"gt=0s"`
	PaceBurst    int           `env:"HARVEST_PACE_BURST"    validate:"gte=1"`

	Cooldown      time.Duration `env:"HARVEST_COOLDOWN"       validate:"gt=0s"`
	MaxRestarts   int           `env:"HARVEST_MAX_RESTARTS"   validate:"gte=0"`
	ProgressTotal int64         `env:"HARVEST_PROGRESS_TOTAL" validate:"gt=0"`

	StatusAddr string `env:"HARVEST_STATUS_ADDR"`

	// Postgres mirror, enabled when PGDSN is set
	PGDSN      string `env:"HARVEST_PG_DSN"`
	PGMaxConns int32  `env:"HARVEST_PG_MAX_CONNS" validate:"gte=1"`
	PGLogSQL   bool   `env:"HARVEST_PG_LOG_SQL"`
}

// FromConfig reads the harvest options from config with HARVEST_ prefix
func FromConfig(cfg config.Conf) Options {
	h := cfg.Prefix("HARVEST_")
	return Options{
		SeedPath:     h.MayString("SEED_PATH", "organizations.csv"),
		OutputPath:   h.MayString("OUTPUT_PATH", "verified_organizations.csv"),
		SecretsPath:  h.MayString("SECRETS_PATH", ".env"),
		SecretPrefix: h.MayString("SECRET_PREFIX", ""),
		Tokens:       h.MayCSV("GH_TOKENS", nil),
		Workers:      h.MayInt("WORKERS", 0),

		WebBaseURL:  h.MayURL("WEB_BASE_URL", "https://github.com"),
		APIBaseURL:  h.MayURL("API_BASE_URL", "https://api.github.com"),
		HTTPTimeout: h.MayDuration("HTTP_TIMEOUT", 30*time.Second),

		Pacing:       h.MayEnum("PACING", service.PacingFixed, service.PacingFixed, service.PacingLimiter),
		PaceInterval: h.MayDuration("PACE_INTERVAL", service.DefaultPaceInterval),
		PaceBurst:    h.MayInt("PACE_BURST", 1),

		Cooldown:      h.MayDuration("COOLDOWN", service.DefaultCooldown),
		MaxRestarts:   h.MayInt("MAX_RESTARTS", 0),
		ProgressTotal: h.MayInt64("PROGRESS_TOTAL", service.DefaultProgressTotal),

		StatusAddr: h.MayString("STATUS_ADDR", ""),

		PGDSN:      h.MayString("PG_DSN", ""),
		PGMaxConns: int32(h.MayInt("PG_MAX_CONNS", 2)),
		PGLogSQL:   h.MayBool("PG_LOG_SQL", false),
	}
}

// Validate checks the options and names the offending env var on failure
func (o Options) Validate() error { return validate.Struct(o) }
