package application

import (
	"errors"
	"fmt"

	"github.com/medisupply/restock/internal/domains/inventory/ports"
)

// mapStoreError folds arbitrary query failures into the store-unavailable
// sentinel so callers can distinguish "cycle failed to run" from a report
// with partial failures.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ports.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ports.ErrStoreUnavailable, err)
}
