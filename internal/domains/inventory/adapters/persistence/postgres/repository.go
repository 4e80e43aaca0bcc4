package postgres

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	invtypes "github.com/medisupply/restock/internal/domains/inventory/application/types"
	"github.com/medisupply/restock/internal/domains/inventory/domain"
	"github.com/medisupply/restock/internal/domains/inventory/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists inventory items in PostgreSQL using GORM-mapped columns.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. The caller owns the DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		if err := db.AutoMigrate(&itemRecord{}); err != nil {
			log.Printf("postgres repository migration failed: %v", err)
		}
	}
	return repo
}

type historyEntry struct {
	Amount          int       `json:"amount"`
	ValueCents      int64     `json:"valueCents"`
	Date            time.Time `json:"date"`
	PreviousStock   int       `json:"previousStock"`
	NewStock        int       `json:"newStock"`
	UnitPriceCents  int64     `json:"unitPriceCents"`
	SupplierOrderID string    `json:"supplierOrderId"`
	EmailSent       bool      `json:"emailSent"`
}

type itemRecord struct {
	ID               string         `gorm:"primaryKey;column:id"`
	Name             string         `gorm:"column:name"`
	Category         string         `gorm:"column:category;type:varchar(64);index"`
	Quantity         int            `gorm:"column:quantity"`
	MinStockLevel    int            `gorm:"column:min_stock_level"`
	UnitPriceCents   int64          `gorm:"column:unit_price_cents"`
	SupplierName     string         `gorm:"column:supplier_name"`
	SupplierEmails   pq.StringArray `gorm:"column:supplier_emails;type:text[]"`
	RestockEnabled   bool           `gorm:"column:restock_enabled;index"`
	MaxStockLevel    int            `gorm:"column:max_stock_level"`
	ReorderQuantity  int            `gorm:"column:reorder_quantity"`
	RestockMethod    string         `gorm:"column:restock_method;type:varchar(32)"`
	LastAutoRestock  *time.Time     `gorm:"column:last_auto_restock"`
	AutoRestockCount int            `gorm:"column:auto_restock_count"`
	RestockHistory   []historyEntry `gorm:"column:restock_history;serializer:json"`
	CreatedAt        time.Time      `gorm:"column:created_at"`
	UpdatedAt        time.Time      `gorm:"column:updated_at"`
}

func (itemRecord) TableName() string { return "inventory_items" }

func newItemRecord(item *domain.Item) itemRecord {
	rec := itemRecord{
		ID:               item.ID,
		Name:             item.Name,
		Category:         item.Category,
		Quantity:         item.Quantity,
		MinStockLevel:    item.MinStockLevel,
		UnitPriceCents:   item.UnitPriceCents,
		SupplierName:     item.Supplier.Name,
		SupplierEmails:   copyStringArray(item.Supplier.Emails),
		RestockEnabled:   item.AutoRestock.Enabled,
		MaxStockLevel:    item.AutoRestock.MaxStockLevel,
		ReorderQuantity:  item.AutoRestock.ReorderQuantity,
		RestockMethod:    string(item.AutoRestock.Method),
		AutoRestockCount: item.AutoRestock.RunCount,
		RestockHistory:   toHistoryEntries(item.History),
	}
	if item.AutoRestock.LastRun != nil {
		lastRun := *item.AutoRestock.LastRun
		rec.LastAutoRestock = &lastRun
	}
	return rec
}

func (r *itemRecord) toProjection() *invtypes.ItemProjection {
	item := &domain.Item{
		ID:             r.ID,
		Name:           r.Name,
		Category:       r.Category,
		Quantity:       r.Quantity,
		MinStockLevel:  r.MinStockLevel,
		UnitPriceCents: r.UnitPriceCents,
		Supplier: domain.Supplier{
			Name:   r.SupplierName,
			Emails: append([]string{}, r.SupplierEmails...),
		},
		AutoRestock: domain.AutoRestockPolicy{
			Enabled:         r.RestockEnabled,
			MaxStockLevel:   r.MaxStockLevel,
			ReorderQuantity: r.ReorderQuantity,
			Method:          domain.RestockMethod(r.RestockMethod),
			RunCount:        r.AutoRestockCount,
		},
		History: fromHistoryEntries(r.RestockHistory),
	}
	if r.LastAutoRestock != nil {
		lastRun := *r.LastAutoRestock
		item.AutoRestock.LastRun = &lastRun
	}
	return invtypes.NewItemProjection(item, r.CreatedAt, r.UpdatedAt)
}

// Save inserts or updates an item aggregate.
func (r *Repository) Save(ctx context.Context, item *domain.Item) (*invtypes.ItemProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.New("cannot save nil item")
	}
	record := newItemRecord(item)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":               record.Name,
				"category":           record.Category,
				"quantity":           record.Quantity,
				"min_stock_level":    record.MinStockLevel,
				"unit_price_cents":   record.UnitPriceCents,
				"supplier_name":      record.SupplierName,
				"supplier_emails":    record.SupplierEmails,
				"restock_enabled":    record.RestockEnabled,
				"max_stock_level":    record.MaxStockLevel,
				"reorder_quantity":   record.ReorderQuantity,
				"restock_method":     record.RestockMethod,
				"last_auto_restock":  record.LastAutoRestock,
				"auto_restock_count": record.AutoRestockCount,
				"restock_history":    record.RestockHistory,
				"updated_at":         gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, item.ID)
}

// GetByID fetches an item by identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (*invtypes.ItemProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record itemRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toProjection(), nil
}

// List returns every item ordered by identifier.
func (r *Repository) List(ctx context.Context) ([]*invtypes.ItemProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []itemRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	return toProjections(records), nil
}

// FindLowStockEligible returns items with auto-restock enabled, a positive
// unit price, and quantity at or below the minimum stock level.
func (r *Repository) FindLowStockEligible(ctx context.Context, filterIDs []string) ([]*invtypes.ItemProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).
		Where("restock_enabled = ? AND unit_price_cents > 0 AND quantity <= min_stock_level", true)
	if len(filterIDs) > 0 {
		query = query.Where("id IN ?", filterIDs)
	}
	var records []itemRecord
	if err := query.Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	return toProjections(records), nil
}

// ApplyRestock performs the conditional update for one item inside a single
// transaction: the row is locked, the expected stock is re-checked, and the
// quantity, policy bookkeeping, and history entry move together. A stock
// level moved by another flow yields ErrStaleStock and no write.
func (r *Repository) ApplyRestock(ctx context.Context, id string, update invtypes.RestockUpdate) (*invtypes.ItemProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record itemRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return err
		}
		if record.Quantity != update.ExpectedStock {
			return ports.ErrStaleStock
		}
		lastRun := update.LastRun
		record.Quantity = update.NewQuantity
		record.LastAutoRestock = &lastRun
		record.AutoRestockCount++
		record.RestockHistory = append(record.RestockHistory, toHistoryEntry(update.Entry))
		record.UpdatedAt = time.Now()
		return tx.Model(&itemRecord{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"quantity":           record.Quantity,
				"last_auto_restock":  record.LastAutoRestock,
				"auto_restock_count": record.AutoRestockCount,
				"restock_history":    record.RestockHistory,
				"updated_at":         record.UpdatedAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return record.toProjection(), nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres repository not configured")
	}
	return nil
}

func toProjections(records []itemRecord) []*invtypes.ItemProjection {
	list := make([]*invtypes.ItemProjection, 0, len(records))
	for i := range records {
		list = append(list, records[i].toProjection())
	}
	return list
}

func toHistoryEntry(entry domain.RestockEntry) historyEntry {
	return historyEntry{
		Amount:          entry.Amount,
		ValueCents:      entry.ValueCents,
		Date:            entry.Date,
		PreviousStock:   entry.PreviousStock,
		NewStock:        entry.NewStock,
		UnitPriceCents:  entry.UnitPriceCents,
		SupplierOrderID: entry.SupplierOrderID,
		EmailSent:       entry.EmailSent,
	}
}

func toHistoryEntries(entries []domain.RestockEntry) []historyEntry {
	if len(entries) == 0 {
		return nil
	}
	list := make([]historyEntry, 0, len(entries))
	for _, entry := range entries {
		list = append(list, toHistoryEntry(entry))
	}
	return list
}

func fromHistoryEntries(entries []historyEntry) []domain.RestockEntry {
	if len(entries) == 0 {
		return nil
	}
	list := make([]domain.RestockEntry, 0, len(entries))
	for _, entry := range entries {
		list = append(list, domain.RestockEntry{
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
	return list
}

func copyStringArray(values []string) pq.StringArray {
	if len(values) == 0 {
		return nil
	}
	return pq.StringArray(append([]string{}, values...))
}
