package sink

import (
	"context"
	"errors"

	"verifiedorgs/internal/services/harvest/domain"
)

// Multi fans a record out to several sinks in order and stops at the first failure.
// The CSV dataset goes first since it is the checkpoint source of truth
type Multi []domain.Sink

var _ domain.Sink = Multi(nil)

// Append writes rec to each sink in order
func (m Multi) Append(ctx context.Context, rec domain.OrganizationRecord) error {
	for _, s := range m {
		if err := s.Append(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins the errors
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
