package sink

import (
	"context"

	perr "verifiedorgs/internal/platform/errors"
	"verifiedorgs/internal/platform/store"
	pstrings "verifiedorgs/internal/platform/strings"
	"verifiedorgs/internal/services/harvest/domain"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS verified_organizations (
  id                        BIGINT PRIMARY KEY,
  login                     TEXT NOT NULL,
  name                      TEXT,
  company                   TEXT,
  blog                      TEXT,
  email                     TEXT,
  twitter_username          TEXT,
  is_verified               BOOLEAN NOT NULL,
  has_organization_projects BOOLEAN NOT NULL,
  has_repository_projects   BOOLEAN NOT NULL,
  public_repos              INTEGER NOT NULL,
  public_gists              INTEGER NOT NULL,
  html_url                  TEXT NOT NULL,
  created_at                TEXT NOT NULL,
  updated_at                TEXT NOT NULL,
  type                      TEXT NOT NULL,
  harvested_at              TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const insertSQL = `
INSERT INTO verified_organizations (
  login, id, name, company, blog, email, twitter_username, is_verified,
  has_organization_projects, has_repository_projects, public_repos, public_gists,
  html_url, created_at, updated_at, type
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
ON CONFLICT (id) DO NOTHING`

// Postgres mirrors records into verified_organizations.
// Re-inserting a known id is a no-op so restarts stay idempotent
type Postgres struct {
	q store.Querier
}

var _ domain.Sink = (*Postgres)(nil)

// NewPostgres wraps an open querier
func NewPostgres(q store.Querier) *Postgres { return &Postgres{q: q} }

// Ensure creates the mirror table when missing
func (p *Postgres) Ensure(ctx context.Context) error {
	if _, err := p.q.Exec(ctx, createTableSQL); err != nil {
		return perr.FromPostgres(err, "create verified_organizations")
	}
	return nil
}

// Append inserts rec, ignoring an id that is already mirrored
func (p *Postgres) Append(ctx context.Context, rec domain.OrganizationRecord) error {
	_, err := p.q.Exec(ctx, insertSQL,
		rec.Login,
		rec.ID,
		pstrings.SQLNullPtr(rec.Name),
		pstrings.SQLNullPtr(rec.Company),
		pstrings.SQLNullPtr(rec.Blog),
		pstrings.SQLNullPtr(rec.Email),
		pstrings.SQLNullPtr(rec.TwitterUsername),
		rec.IsVerified,
		rec.HasOrganizationProjects,
		rec.HasRepositoryProjects,
		rec.PublicRepos,
		rec.PublicGists,
		rec.HTMLURL,
		rec.CreatedAt,
		rec.UpdatedAt,
		rec.Type,
	)
	if err != nil {
		return perr.FromPostgres(err, "mirror verified organization")
	}
	return nil
}

// Close is a no-op; the pool belongs to the store
func (p *Postgres) Close() error { return nil }
