// Package domain defines the types and ports of the harvest service
package domain

import "context"

// Cursor hands out candidates in seed order; safe for concurrent callers.
// ok=false signals exhaustion
type Cursor interface {
	Next() (c Candidate, ok bool, err error)
}

// Sink appends one record durably; safe for concurrent callers
type Sink interface {
	Append(ctx context.Context, rec OrganizationRecord) error
	Close() error
}

// Pacer throttles detail fetches; Pace blocks until the next fetch may start
type Pacer interface {
	Pace(ctx context.Context) error
}

// CheckpointReader derives the resume point from the result dataset
type CheckpointReader interface {
	Read(path string) (int64, error)
}

// CredentialSource loads the worker credentials for one pass
type CredentialSource interface {
	Load() ([]Credential, error)
}

// SupervisorPort runs the harvest until the seed is exhausted or ctx ends
type SupervisorPort interface {
	Run(ctx context.Context) error
}

// CheckpointPort exposes the resume point without starting a run
type CheckpointPort interface {
	Checkpoint(ctx context.Context) (int64, error)
}

// ProgressPort exposes the live progress snapshot
type ProgressPort interface {
	Snapshot() Progress
}
