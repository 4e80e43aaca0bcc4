package mapper

import (
	"time"

	invtypes "github.com/medisupply/restock/internal/domains/inventory/application/types"
	"github.com/medisupply/restock/internal/domains/inventory/domain"
)

// Supplier is the HTTP representation of an item's supplier contact.
type Supplier struct {
	Name   string   `json:"name,omitempty"`
	Emails []string `json:"emails,omitempty"`
}

// AutoRestockPolicy is the HTTP representation of an item's restock policy.
type AutoRestockPolicy struct {
	Enabled         bool       `json:"enabled"`
	MaxStockLevel   int        `json:"maxStockLevel"`
	ReorderQuantity int        `json:"reorderQuantity,omitempty"`
	Method          string     `json:"method"`
	LastRun         *time.Time `json:"lastRun,omitempty"`
	RunCount        int        `json:"runCount"`
}

// RestockEntry is the HTTP representation of one restock history record.
type RestockEntry struct {
	Amount          int       `json:"amount"`
	ValueCents      int64     `json:"valueCents"`
	Date            time.Time `json:"date"`
	PreviousStock   int       `json:"previousStock"`
	NewStock        int       `json:"newStock"`
	UnitPriceCents  int64     `json:"unitPriceCents"`
	SupplierOrderID string    `json:"supplierOrderId,omitempty"`
	EmailSent       bool      `json:"emailSent"`
}

// Item is the HTTP representation of an inventory item.
type Item struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Quantity       int               `json:"quantity"`
	MinStockLevel  int               `json:"minStockLevel"`
	UnitPriceCents int64             `json:"unitPriceCents"`
	Supplier       *Supplier         `json:"supplier,omitempty"`
	AutoRestock    AutoRestockPolicy `json:"autoRestock"`
	LowStock       bool              `json:"lowStock"`
	CreatedAt      time.Time         `json:"createdAt,omitempty"`
	UpdatedAt      time.Time         `json:"updatedAt,omitempty"`
}

// FromDomainItem maps a domain aggregate into a transport Item.
func FromDomainItem(item *domain.Item) Item {
	var supplier *Supplier
	if item.Supplier.Name != "" || len(item.Supplier.Emails) > 0 {
		supplier = &Supplier{
			Name:   item.Supplier.Name,
			Emails: append([]string{}, item.Supplier.Emails...),
		}
	}
	var lastRun *time.Time
	if item.AutoRestock.LastRun != nil {
		copy := *item.AutoRestock.LastRun
		lastRun = &copy
	}
	return Item{
		ID:             item.ID,
		Name:           item.Name,
		Quantity:       item.Quantity,
		MinStockLevel:  item.MinStockLevel,
		UnitPriceCents: item.UnitPriceCents,
		Supplier:       supplier,
		AutoRestock: AutoRestockPolicy{
			Enabled:         item.AutoRestock.Enabled,
			MaxStockLevel:   item.AutoRestock.MaxStockLevel,
			ReorderQuantity: item.AutoRestock.ReorderQuantity,
			Method:          string(item.AutoRestock.Method),
			LastRun:         lastRun,
			RunCount:        item.AutoRestock.RunCount,
		},
		LowStock: item.IsLowStock(),
	}
}

// FromProjection maps a projection into a transport item enriched with metadata.
func FromProjection(projection *invtypes.ItemProjection) Item {
	item := FromDomainItem(projection.Item)
	item.CreatedAt = projection.Metadata.CreatedAt
	item.UpdatedAt = projection.Metadata.UpdatedAt
	return item
}

// FromProjectionList maps a slice of projections into transport items with metadata.
func FromProjectionList(list []*invtypes.ItemProjection) []Item {
	result := make([]Item, 0, len(list))
	for _, projection := range list {
		result = append(result, FromProjection(projection))
	}
	return result
}

// FromRestockHistory maps a domain restock history into transport entries.
func FromRestockHistory(history []domain.RestockEntry) []RestockEntry {
	result := make([]RestockEntry, 0, len(history))
	for _, entry := range history {
		result = append(result, RestockEntry{
			Amount:          entry.Amount,
			ValueCents:      entry.ValueCents,
			Date:            entry.Date,
			PreviousStock:   entry.PreviousStock,
			NewStock:        entry.NewStock,
			UnitPriceCents:  entry.UnitPriceCents,
			SupplierOrderID: entry.SupplierOrderID,
			EmailSent:       entry.EmailSent,
		})
	}
	return result
}
