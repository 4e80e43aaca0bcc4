package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for the inventory bounded context. Intended to
// replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&itemRecord{},
	)
}

// Item schema mirrors the inventory Postgres adapter.
type itemRecord struct {
	ID               string           `gorm:"primaryKey;column:id"`
	Name             string           `gorm:"column:name"`
	Category         string           `gorm:"column:category;type:varchar(64);index"`
	Quantity         int              `gorm:"column:quantity"`
	MinStockLevel    int              `gorm:"column:min_stock_level"`
	UnitPriceCents   int64            `gorm:"column:unit_price_cents"`
	SupplierName     string           `gorm:"column:supplier_name"`
	SupplierEmails   pq.StringArray   `gorm:"column:supplier_emails;type:text[]"`
	RestockEnabled   bool             `gorm:"column:restock_enabled;index"`
	MaxStockLevel    int              `gorm:"column:max_stock_level"`
	ReorderQuantity  int              `gorm:"column:reorder_quantity"`
	RestockMethod    string           `gorm:"column:restock_method;type:varchar(32)"`
	LastAutoRestock  *time.Time       `gorm:"column:last_auto_restock"`
	AutoRestockCount int              `gorm:"column:auto_restock_count"`
	RestockHistory   []map[string]any `gorm:"column:restock_history;serializer:json"`
	CreatedAt        time.Time        `gorm:"column:created_at"`
	UpdatedAt        time.Time        `gorm:"column:updated_at"`
}

func (itemRecord) TableName() string { return "inventory_items" }
