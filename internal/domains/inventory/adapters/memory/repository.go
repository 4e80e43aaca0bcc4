package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	invtypes "github.com/medisupply/restock/internal/domains/inventory/application/types"
	"github.com/medisupply/restock/internal/domains/inventory/domain"
	"github.com/medisupply/restock/internal/domains/inventory/ports"
)

var _ ports.Repository = (*Repository)(nil)

type record struct {
	item      *domain.Item
	createdAt time.Time
	updatedAt time.Time
}

// Repository is an in-memory inventory store used by tests and as the
// DSN-less fallback.
type Repository struct {
	mu    sync.RWMutex
	items map[string]*record
	clock func() time.Time

	// failQuery makes FindLowStockEligible fail, simulating an unavailable
	// store in tests.
	failQuery error
}

func NewRepository() *Repository {
	return &Repository{
		items: map[string]*record{},
		clock: time.Now,
	}
}

// WithClock overrides the metadata time source.
func (r *Repository) WithClock(clock func() time.Time) {
	if clock != nil {
		r.clock = clock
	}
}

// FailQueriesWith forces eligibility queries to return err until reset with nil.
func (r *Repository) FailQueriesWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failQuery = err
}

func (r *Repository) Save(_ context.Context, item *domain.Item) (*invtypes.ItemProjection, error) {
	if item == nil {
		return nil, errors.New("item is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock()
	existing, ok := r.items[item.ID]
	createdAt := now
	if ok {
		createdAt = existing.createdAt
	}
	clone := cloneItem(item)
	r.items[item.ID] = &record{item: clone, createdAt: createdAt, updatedAt: now}
	return invtypes.NewItemProjection(cloneItem(clone), createdAt, now), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*invtypes.ItemProjection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.items[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return invtypes.NewItemProjection(cloneItem(rec.item), rec.createdAt, rec.updatedAt), nil
}

func (r *Repository) List(_ context.Context) ([]*invtypes.ItemProjection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*invtypes.ItemProjection, 0, len(r.items))
	for _, rec := range r.items {
		list = append(list, invtypes.NewItemProjection(cloneItem(rec.item), rec.createdAt, rec.updatedAt))
	}
	sortProjections(list)
	return list, nil
}

func (r *Repository) FindLowStockEligible(_ context.Context, filterIDs []string) ([]*invtypes.ItemProjection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failQuery != nil {
		return nil, r.failQuery
	}
	var filter map[string]bool
	if len(filterIDs) > 0 {
		filter = make(map[string]bool, len(filterIDs))
		for _, id := range filterIDs {
			filter[id] = true
		}
	}
	var list []*invtypes.ItemProjection
	for _, rec := range r.items {
		if filter != nil && !filter[rec.item.ID] {
			continue
		}
		if !rec.item.EligibleForAutoRestock() {
			continue
		}
		list = append(list, invtypes.NewItemProjection(cloneItem(rec.item), rec.createdAt, rec.updatedAt))
	}
	sortProjections(list)
	return list, nil
}

func (r *Repository) ApplyRestock(_ context.Context, id string, update invtypes.RestockUpdate) (*invtypes.ItemProjection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.items[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	// Conditional write: refuse when another flow moved the stock.
	if rec.item.Quantity != update.ExpectedStock {
		return nil, ports.ErrStaleStock
	}
	rec.item.Quantity = update.NewQuantity
	lastRun := update.LastRun
	rec.item.AutoRestock.LastRun = &lastRun
	rec.item.AutoRestock.RunCount++
	rec.item.History = append(rec.item.History, update.Entry)
	rec.updatedAt = r.clock()
	return invtypes.NewItemProjection(cloneItem(rec.item), rec.createdAt, rec.updatedAt), nil
}

func cloneItem(item *domain.Item) *domain.Item {
	clone := *item
	clone.Supplier.Emails = append([]string{}, item.Supplier.Emails...)
	clone.History = append([]domain.RestockEntry{}, item.History...)
	if item.AutoRestock.LastRun != nil {
		lastRun := *item.AutoRestock.LastRun
		clone.AutoRestock.LastRun = &lastRun
	}
	return &clone
}

func sortProjections(list []*invtypes.ItemProjection) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].Item.ID < list[j].Item.ID
	})
}
