// Package modkit provides module wiring and core deps
package modkit

import (
	"verifiedorgs/internal/platform/config"
	"verifiedorgs/internal/platform/logger"
	"verifiedorgs/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	// PG is the optional mirror database, nil unless a DSN is configured
	PG store.Querier
}
