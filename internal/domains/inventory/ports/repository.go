package ports

import (
	"context"
	"errors"

	invtypes "github.com/medisupply/restock/internal/domains/inventory/application/types"
	"github.com/medisupply/restock/internal/domains/inventory/domain"
)

var (
	// ErrNotFound signals the item does not exist in the store.
	ErrNotFound = errors.New("inventory item not found")
	// ErrStoreUnavailable signals the eligibility query itself failed; a
	// whole cycle aborts on it.
	ErrStoreUnavailable = errors.New("inventory store unavailable")
	// ErrStaleStock signals the conditional restock update matched no row
	// because the stored quantity moved underneath the cycle.
	ErrStaleStock = errors.New("stock level changed concurrently")
)

// Repository is the outbound port to the inventory record store.
type Repository interface {
	Save(ctx context.Context, item *domain.Item) (*invtypes.ItemProjection, error)
	GetByID(ctx context.Context, id string) (*invtypes.ItemProjection, error)
	List(ctx context.Context) ([]*invtypes.ItemProjection, error)
	// FindLowStockEligible returns items with auto-restock enabled, a
	// positive unit price, and quantity at or below the minimum stock
	// level, optionally narrowed to the given IDs.
	FindLowStockEligible(ctx context.Context, filterIDs []string) ([]*invtypes.ItemProjection, error)
	// ApplyRestock performs the single conditional update for one item:
	// quantity, policy bookkeeping, and the appended history entry move
	// together or not at all.
	ApplyRestock(ctx context.Context, id string, update invtypes.RestockUpdate) (*invtypes.ItemProjection, error)
}
