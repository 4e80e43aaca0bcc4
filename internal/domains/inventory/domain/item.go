package domain

import (
	"errors"
	"strings"
	"time"
)

// RestockMethod selects how the replenishment quantity is derived.
type RestockMethod string

const (
	// MethodFixedQuantity reorders the configured quantity on every cycle.
	MethodFixedQuantity RestockMethod = "fixed_quantity"
	// MethodAutoFill tops the item back up to its maximum stock level.
	MethodAutoFill RestockMethod = "auto_fill"
)

// Urgency classifies how pressing a supplier order is.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
)

var (
	ErrEmptyID          = errors.New("item id is required")
	ErrEmptyName        = errors.New("item name is required")
	ErrNegativeStock    = errors.New("quantity must be greater or equal to zero")
	ErrNegativeMinStock = errors.New("minimum stock level must be greater or equal to zero")
	ErrInvalidPrice     = errors.New("unit price must be greater than zero")
	ErrThresholdOrder   = errors.New("maximum stock level must be greater or equal to the minimum stock level")
	ErrInvalidAmount    = errors.New("restock amount must be greater than zero")
)

// AutoRestockPolicy is the per-item replenishment configuration.
// ReorderQuantity of zero means no manual quantity is configured.
type AutoRestockPolicy struct {
	Enabled         bool
	MaxStockLevel   int
	ReorderQuantity int
	Method          RestockMethod
	LastRun         *time.Time
	RunCount        int
}

// Supplier identifies who receives purchase orders for an item.
type Supplier struct {
	Name   string
	Emails []string
}

// RestockEntry is one append-only audit record of a completed restock.
type RestockEntry struct {
	Amount          int
	ValueCents      int64
	Date            time.Time
	PreviousStock   int
	NewStock        int
	UnitPriceCents  int64
	SupplierOrderID string
	EmailSent       bool
}

// Item represents the surgical inventory aggregate tracked for auto-restock.
// Prices are stored in cents to keep currency math exact.
type Item struct {
	ID             string
	Name           string
	Category       string
	Quantity       int
	MinStockLevel  int
	UnitPriceCents int64
	Supplier       Supplier
	AutoRestock    AutoRestockPolicy
	History        []RestockEntry
}

// NewItem validates the invariants and builds a new Item aggregate.
func NewItem(id, name, category string, quantity, minStockLevel int, unitPriceCents int64) (*Item, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyID
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if quantity < 0 {
		return nil, ErrNegativeStock
	}
	if minStockLevel < 0 {
		return nil, ErrNegativeMinStock
	}
	return &Item{
		ID:             id,
		Name:           name,
		Category:       category,
		Quantity:       quantity,
		MinStockLevel:  minStockLevel,
		UnitPriceCents: unitPriceCents,
	}, nil
}

// ConfigureAutoRestock validates and installs the replenishment policy.
// The threshold ordering is enforced here, not inside the orchestration loop.
func (i *Item) ConfigureAutoRestock(policy AutoRestockPolicy) error {
	if policy.Method == "" {
		policy.Method = MethodAutoFill
	}
	if policy.Method != MethodFixedQuantity && policy.Method != MethodAutoFill {
		policy.Method = MethodAutoFill
	}
	if policy.MaxStockLevel < i.MinStockLevel {
		return ErrThresholdOrder
	}
	if policy.ReorderQuantity < 0 {
		policy.ReorderQuantity = 0
	}
	i.AutoRestock = policy
	return nil
}

// IsLowStock reports whether the item sits at or below its reorder threshold.
func (i *Item) IsLowStock() bool {
	return i.Quantity <= i.MinStockLevel
}

// EligibleForAutoRestock mirrors the repository eligibility filter.
func (i *Item) EligibleForAutoRestock() bool {
	return i.AutoRestock.Enabled && i.UnitPriceCents > 0 && i.IsLowStock()
}

// OrderUrgency classifies the supplier order for the current stock level.
func (i *Item) OrderUrgency() Urgency {
	if i.Quantity == 0 {
		return UrgencyCritical
	}
	return UrgencyHigh
}

// RecordRestock applies a completed replenishment: stock goes up, the policy
// bookkeeping advances, and an audit entry is appended. History entries are
// never mutated after append.
func (i *Item) RecordRestock(amount int, orderID string, emailSent bool, at time.Time) (RestockEntry, error) {
	if amount <= 0 {
		return RestockEntry{}, ErrInvalidAmount
	}
	entry := RestockEntry{
		Amount:          amount,
		ValueCents:      int64(amount) * i.UnitPriceCents,
		Date:            at,
		PreviousStock:   i.Quantity,
		NewStock:        i.Quantity + amount,
		UnitPriceCents:  i.UnitPriceCents,
		SupplierOrderID: orderID,
		EmailSent:       emailSent,
	}
	i.Quantity = entry.NewStock
	runAt := at
	i.AutoRestock.LastRun = &runAt
	i.AutoRestock.RunCount++
	i.History = append(i.History, entry)
	return entry, nil
}

// TotalValueCents is the on-hand stock valued at the current unit price.
func (i *Item) TotalValueCents() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}
