package module

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"verifiedorgs/internal/modkit"
	modpkg "verifiedorgs/internal/modkit/module"
	"verifiedorgs/internal/platform/config"
	perr "verifiedorgs/internal/platform/errors"
	phttp "verifiedorgs/internal/platform/net/http"
	kit "verifiedorgs/internal/platform/testkit"
	"verifiedorgs/internal/services/harvest/domain"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromConfig_Defaults(t *testing.T) {
	o := FromConfig(config.New().Prefix("UNSET_"))
	assert.Equal(t, "organizations.csv", o.SeedPath)
	assert.Equal(t, "verified_organizations.csv", o.OutputPath)
	assert.Equal(t, ".env", o.SecretsPath)
	assert.Equal(t, "https://github.com", o.WebBaseURL)
	assert.Equal(t, "https://api.github.com", o.APIBaseURL)
	assert.Equal(t, "fixed", o.Pacing)
	assert.Equal(t, 720*time.Millisecond, o.PaceInterval)
	assert.Equal(t, 600*time.Second, o.Cooldown)
	assert.Equal(t, int64(104219624), o.ProgressTotal)
	assert.Equal(t, int32(2), o.PGMaxConns)
	assert.NoError(t, o.Validate())
}

func TestFromConfig_Env(t *testing.T) {
	t.Setenv("HARVEST_SEED_PATH", "/data/seed.csv")
	t.Setenv("HARVEST_GH_TOKENS", "a, b")
	t.Setenv("HARVEST_WORKERS", "3")
	t.Setenv("HARVEST_PACING", "Limiter")
	t.Setenv("HARVEST_PACE_BURST", "4")
	t.Setenv("HARVEST_COOLDOWN", "90s")
	t.Setenv("HARVEST_API_BASE_URL", "http://127.0.0.1:8080/")

	o := FromConfig(config.New())
	assert.Equal(t, "/data/seed.csv", o.SeedPath)
	assert.Equal(t, []string{"a", "b"}, o.Tokens)
	assert.Equal(t, 3, o.Workers)
	assert.Equal(t, "limiter", o.Pacing)
	assert.Equal(t, 4, o.PaceBurst)
	assert.Equal(t, 90*time.Second, o.Cooldown)
	assert.Equal(t, "http://127.0.0.1:8080", o.APIBaseURL)
	assert.NoError(t, o.Validate())
}

func TestOptions_Validate(t *testing.T) {
	base := FromConfig(config.New().Prefix("UNSET_"))
	cases := []struct {
		name  string
		mut   func(*Options)
		field string
	}{
		{"seed required", func(o *Options) { o.SeedPath = "" }, "HARVEST_SEED_PATH"},
		{"output differs from seed", func(o *Options) { o.OutputPath = o.SeedPath }, "HARVEST_OUTPUT_PATH"},
		{"workers bounded", func(o *Options) { o.Workers = 65 }, "HARVEST_WORKERS"},
		{"pacing enum", func(o *Options) { o.Pacing = "adaptive" }, "HARVEST_PACING"},
		{"burst positive", func(o *Options) { o.PaceBurst = 0 }, "HARVEST_PACE_BURST"},
		{"cooldown positive", func(o *Options) { o.Cooldown = 0 }, "HARVEST_COOLDOWN"},
		{"api url", func(o *Options) { o.APIBaseURL = "nope" }, "HARVEST_API_BASE_URL"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			o := base
			c.mut(&o)
			err := o.Validate()
			require.Error(t, err)
			assert.True(t, perr.IsCode(err, perr.ErrorCodeValidation))
			e, _ := perr.As(err)
			assert.Equal(t, c.field, e.Op())
		})
	}
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	t.Setenv("HARVEST_WORKERS", "-1")
	_, err := New(modkit.Deps{Cfg: config.New()})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeValidation))
}

func TestNew_PortsAndRoutes(t *testing.T) {
	dir := t.TempDir()
	o := FromConfig(config.New().Prefix("UNSET_"))
	o.SeedPath = dir + "/seed.csv"
	o.OutputPath = kit.WriteFile(t, "out.csv", "login,id\nacme,77\n")
	o.Tokens = []string{"t"}

	m, err := NewWithOptions(modkit.Deps{}, o)
	require.NoError(t, err)
	assert.Equal(t, "harvest", m.Name())
	assert.Equal(t, o, m.Options())

	sup, ok := modpkg.PortsOf[domain.SupervisorPort](m)
	require.True(t, ok)
	assert.NotNil(t, sup)
	cp := modpkg.MustPortsOf[domain.CheckpointPort](m)
	got, err := cp.Checkpoint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(77), got)

	r := phttp.AdaptChi(chi.NewRouter())
	m.MountRoutes(r)
	for _, path := range []string{"/healthz", "/ready", "/v1/progress", "/v1/checkpoint", "/v1/version"} {
		rec := httptest.NewRecorder()
		r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/checkpoint", nil))
	var env struct {
		Data struct {
			Checkpoint int64 `json:"checkpoint"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, int64(77), env.Data.Checkpoint)
}

func TestNew_CustomPrefixAndMiddleware(t *testing.T) {
	o := FromConfig(config.New().Prefix("UNSET_"))
	hit := false
	m, err := NewWithOptions(modkit.Deps{}, o,
		modkit.WithPrefix("/status"),
		modkit.WithMiddlewares(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hit = true
				next.ServeHTTP(w, r)
			})
		}),
	)
	require.NoError(t, err)

	r := phttp.AdaptChi(chi.NewRouter())
	m.MountRoutes(r)
	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/progress", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, hit)
}

func TestNew_MirrorDSNReportsReadinessPerPass(t *testing.T) {
	o := FromConfig(config.New().Prefix("UNSET_"))
	o.PGDSN = "postgres://harvest@127.0.0.1:1/none"

	m, err := NewWithOptions(modkit.Deps{}, o)
	require.NoError(t, err)

	r := phttp.AdaptChi(chi.NewRouter())
	m.MountRoutes(r)
	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data struct {
			Status string `json:"status"`
			Checks []struct {
				Name   string `json:"name"`
				Status string `json:"status"`
				Error  string `json:"error"`
			} `json:"checks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "fail", env.Data.Status)
	require.Len(t, env.Data.Checks, 1)
	assert.Equal(t, "pg", env.Data.Checks[0].Name)
	assert.Contains(t, env.Data.Checks[0].Error, "mirror not connected")
}
