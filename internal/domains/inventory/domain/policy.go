package domain

import "errors"

// ErrInvalidRestockValue guards against corrupt price or quantity data
// reaching persistence.
var ErrInvalidRestockValue = errors.New("computed restock value must be greater than zero")

// replenishmentFloor is the minimum quantity handed to degenerate
// configurations (zero min and max stock levels).
const replenishmentFloor = 10

// RestockPlan is the pure computation result for one low-stock item.
type RestockPlan struct {
	RestockQuantity      int
	RestockValueCents    int64
	FinalStock           int
	FinalTotalValueCents int64
}

// PlanRestock computes the replenishment for an item under its configured
// policy. It has no side effects and performs no I/O.
//
// The caller is expected to have filtered for eligibility already; the one
// guarded error path re-validates the unit price and fails fast on corrupt
// data. When honorManualQuantity is false, a configured fixed quantity is
// ignored and the auto-fill formula applies.
func PlanRestock(item *Item, honorManualQuantity bool) (RestockPlan, error) {
	if item.UnitPriceCents <= 0 {
		return RestockPlan{}, ErrInvalidPrice
	}

	quantity := 0
	if honorManualQuantity &&
		item.AutoRestock.Method == MethodFixedQuantity &&
		item.AutoRestock.ReorderQuantity > 0 {
		quantity = item.AutoRestock.ReorderQuantity
	} else {
		quantity = item.AutoRestock.MaxStockLevel - item.Quantity
		if quantity < item.MinStockLevel {
			quantity = item.MinStockLevel
		}
	}
	if quantity <= 0 {
		// Degenerate thresholds still earn a non-trivial replenishment.
		quantity = item.MinStockLevel * 2
		if quantity < replenishmentFloor {
			quantity = replenishmentFloor
		}
	}

	value := int64(quantity) * item.UnitPriceCents
	if value <= 0 {
		return RestockPlan{}, ErrInvalidRestockValue
	}

	finalStock := item.Quantity + quantity
	return RestockPlan{
		RestockQuantity:      quantity,
		RestockValueCents:    value,
		FinalStock:           finalStock,
		FinalTotalValueCents: int64(finalStock) * item.UnitPriceCents,
	}, nil
}
