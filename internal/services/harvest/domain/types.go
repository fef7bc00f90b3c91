package domain

import (
	"strconv"
	"time"

	pstrings "verifiedorgs/internal/platform/strings"
)

// Candidate is one seed entry: the ordinal id and the organization handle
type Candidate struct {
	ID     int64
	Handle string
}

// Credential is an opaque bearer token owned by exactly one worker
type Credential string

// String keeps tokens out of logs
func (c Credential) String() string {
	if len(c) <= 4 {
		return "****"
	}
	return "****" + string(c[len(c)-4:])
}

// Columns is the result dataset header, in write order
var Columns = []string{
	"login",
	"id",
	"name",
	"company",
	"blog",
	"email",
	"twitter_username",
	"is_verified",
	"has_organization_projects",
	"has_repository_projects",
	"public_repos",
	"public_gists",
	"html_url",
	"created_at",
	"updated_at",
	"type",
}

// IDColumn is the index of the numeric id in Columns
const IDColumn = 1

// OrganizationRecord is the persisted subset of a verified organization document.
// Nullable strings stay nil when the document had null; timestamps are kept as sent
type OrganizationRecord struct {
	Login                   string
	ID                      int64
	Name                    *string
	Company                 *string
	Blog                    *string
	Email                   *string
	TwitterUsername         *string
	IsVerified              bool
	HasOrganizationProjects bool
	HasRepositoryProjects   bool
	PublicRepos             int
	PublicGists             int
	HTMLURL                 string
	CreatedAt               string
	UpdatedAt               string
	Type                    string
}

// Row renders the record as CSV cells matching Columns
func (r OrganizationRecord) Row() []string {
	return []string{
		r.Login,
		strconv.FormatInt(r.ID, 10),
		pstrings.Deref(r.Name),
		pstrings.Deref(r.Company),
		pstrings.Deref(r.Blog),
		pstrings.Deref(r.Email),
		pstrings.Deref(r.TwitterUsername),
		strconv.FormatBool(r.IsVerified),
		strconv.FormatBool(r.HasOrganizationProjects),
		strconv.FormatBool(r.HasRepositoryProjects),
		strconv.Itoa(r.PublicRepos),
		strconv.Itoa(r.PublicGists),
		r.HTMLURL,
		r.CreatedAt,
		r.UpdatedAt,
		r.Type,
	}
}

// WorkerState is the lifecycle of one harvest worker within a pass
type WorkerState string

const (
	WorkerRunning   WorkerState = "running"
	WorkerExhausted WorkerState = "exhausted"
	WorkerStopped   WorkerState = "stopped"
	WorkerFailed    WorkerState = "failed"
)

// WorkerProgress is a point in time view of one worker
type WorkerProgress struct {
	Worker    int         `json:"worker"`
	State     WorkerState `json:"state"`
	Reason    string      `json:"reason,omitempty"`
	LastLogin string      `json:"last_login,omitempty"`
	LastID    int64       `json:"last_id,omitempty"`
	Written   int64       `json:"written"`
}

// Progress is the snapshot served by the status endpoint
type Progress struct {
	RunID      string           `json:"run_id,omitempty"`
	Attempt    int              `json:"attempt"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	Checkpoint int64            `json:"checkpoint"`
	Checked    int64            `json:"checked"`
	NotFound   int64            `json:"not_found"`
	Unverified int64            `json:"unverified"`
	Written    int64            `json:"written"`
	LastID     int64            `json:"last_id"`
	Percent    float64          `json:"percent"`
	Workers    []WorkerProgress `json:"workers"`
}
