package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	invmemory "github.com/medisupply/restock/internal/domains/inventory/adapters/memory"
	invtypes "github.com/medisupply/restock/internal/domains/inventory/application/types"
	"github.com/medisupply/restock/internal/domains/inventory/domain"
	"github.com/medisupply/restock/internal/domains/inventory/ports"
)

type fakeNotifier struct {
	mu           sync.Mutex
	supplierReqs []ports.SupplierOrderRequest
	adminReqs    []ports.AdminConfirmationRequest
	failSupplier bool
	failAdmin    bool
	nextOrder    int

	// gate, when set, blocks SendSupplierOrder until released. entered is
	// closed once the first send is in flight.
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeNotifier) SendSupplierOrder(_ context.Context, req ports.SupplierOrderRequest) ports.SupplierOrderResult {
	f.mu.Lock()
	f.supplierReqs = append(f.supplierReqs, req)
	entered := f.entered
	gate := f.gate
	f.mu.Unlock()
	if entered != nil {
		close(entered)
		f.mu.Lock()
		f.entered = nil
		f.mu.Unlock()
	}
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSupplier {
		return ports.SupplierOrderResult{Success: false, Error: "smtp relay refused connection"}
	}
	f.nextOrder++
	return ports.SupplierOrderResult{Success: true, OrderID: fmt.Sprintf("PO-%04d", f.nextOrder)}
}

func (f *fakeNotifier) SendAdminConfirmation(_ context.Context, req ports.AdminConfirmationRequest) ports.AdminConfirmationResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adminReqs = append(f.adminReqs, req)
	if f.failAdmin {
		return ports.AdminConfirmationResult{Success: false, Error: "admin mailbox unavailable"}
	}
	return ports.AdminConfirmationResult{Success: true}
}

func seedItem(t *testing.T, repo *invmemory.Repository, id string, quantity, minStock int, price int64, policy domain.AutoRestockPolicy) {
	t.Helper()
	item, err := domain.NewItem(id, "Item "+id, "consumables", quantity, minStock, price)
	require.NoError(t, err)
	item.Supplier = domain.Supplier{Name: "MedSupply Co", Emails: []string{"orders@medsupply.test"}}
	policy.Enabled = true
	require.NoError(t, item.ConfigureAutoRestock(policy))
	_, err = repo.Save(context.Background(), item)
	require.NoError(t, err)
}

func TestCheckAndRestock_HappyBatch(t *testing.T) {
	repo := invmemory.NewRepository()
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier)

	seedItem(t, repo, "itm-a", 5, 20, 250, domain.AutoRestockPolicy{MaxStockLevel: 100, Method: domain.MethodAutoFill})
	seedItem(t, repo, "itm-b", 0, 10, 100, domain.AutoRestockPolicy{MaxStockLevel: 10, ReorderQuantity: 50, Method: domain.MethodFixedQuantity})

	report, err := svc.CheckAndRestock(context.Background(), invtypes.RestockOptions{})
	require.NoError(t, err)
	require.False(t, report.Skipped)
	require.Equal(t, 2, report.ItemsEligible)
	require.Equal(t, 2, report.ItemsProcessed)
	require.Len(t, report.Results, 2)
	// 95 * 250 + 50 * 100
	require.Equal(t, int64(23750+5000), report.TotalRestockValueCents)

	for _, res := range report.Results {
		require.True(t, res.Success, res.ErrorMessage)
		require.True(t, res.EmailSent)
		require.True(t, strings.HasPrefix(res.OrderID, "PO-"))
		require.Equal(t, res.CurrentStock+res.RestockQuantity, res.FinalStock)
	}

	proj, err := repo.GetByID(context.Background(), "itm-a")
	require.NoError(t, err)
	require.Equal(t, 100, proj.Item.Quantity)
	require.Len(t, proj.Item.History, 1)
	require.Equal(t, 1, proj.Item.AutoRestock.RunCount)
	require.NotNil(t, proj.Item.AutoRestock.LastRun)

	require.Len(t, notifier.supplierReqs, 2)
	require.Len(t, notifier.adminReqs, 2)
}

func TestCheckAndRestock_UrgencySelection(t *testing.T) {
	repo := invmemory.NewRepository()
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier)

	seedItem(t, repo, "itm-out", 0, 10, 100, domain.AutoRestockPolicy{MaxStockLevel: 50, Method: domain.MethodAutoFill})
	seedItem(t, repo, "itm-low", 3, 10, 100, domain.AutoRestockPolicy{MaxStockLevel: 50, Method: domain.MethodAutoFill})

	report, err := svc.CheckAndRestock(context.Background(), invtypes.RestockOptions{})
	require.NoError(t, err)

	byID := map[string]invtypes.RestockResult{}
	for _, res := range report.Results {
		byID[res.ItemID] = res
	}
	require.Equal(t, domain.UrgencyCritical, byID["itm-out"].Urgency)
	require.Equal(t, domain.UrgencyHigh, byID["itm-low"].Urgency)
}

func TestCheckAndRestock_NotificationFailureDoesNotBlockUpdate(t *testing.T) {
	repo := invmemory.NewRepository()
	notifier := &fakeNotifier{failSupplier: true}
	svc := NewService(repo, notifier)

	seedItem(t, repo, "itm-a", 5, 20, 250, domain.AutoRestockPolicy{MaxStockLevel: 100, Method: domain.MethodAutoFill})

	report, err := svc.CheckAndRestock(context.Background(), invtypes.RestockOptions{})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	res := report.Results[0]
	require.True(t, res.Success)
	require.False(t, res.EmailSent)
	require.True(t, strings.HasPrefix(res.OrderID, "local-"))

	proj, err := repo.GetByID(context.Background(), "itm-a")
	require.NoError(t, err)
	require.Equal(t, 100, proj.Item.Quantity)
	require.Len(t, proj.Item.History, 1)
	require.False(t, proj.Item.History[0].EmailSent)
}

// corruptRepo injects an item that bypassed the eligibility filter with a
// non-positive price, so the policy engine has to fail it in-loop.
type corruptRepo struct {
	*invmemory.Repository
}

func (r *corruptRepo) FindLowStockEligible(ctx context.Context, filterIDs []string) ([]*invtypes.ItemProjection, error) {
	list, err := r.Repository.FindLowStockEligible(ctx, filterIDs)
	if err != nil {
		return nil, err
	}
	corrupt := &domain.Item{
		ID:            "itm-corrupt",
		Name:          "Corrupt Item",
		Quantity:      1,
		MinStockLevel: 5,
		AutoRestock:   domain.AutoRestockPolicy{Enabled: true, MaxStockLevel: 10, Method: domain.MethodAutoFill},
	}
	return append([]*invtypes.ItemProjection{invtypes.NewItemProjection(corrupt, time.Now(), time.Now())}, list...), nil
}

func TestCheckAndRestock_OneBadItemNeverAbortsBatch(t *testing.T) {
	inner := invmemory.NewRepository()
	repo := &corruptRepo{Repository: inner}
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier)

	seedItem(t, inner, "itm-good", 5, 20, 250, domain.AutoRestockPolicy{MaxStockLevel: 100, Method: domain.MethodAutoFill})

	report, err := svc.CheckAndRestock(context.Background(), invtypes.RestockOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, report.ItemsProcessed)

	require.False(t, report.Results[0].Success)
	require.Equal(t, "itm-corrupt", report.Results[0].ItemID)
	require.Contains(t, report.Results[0].ErrorMessage, "unit price")

	require.True(t, report.Results[1].Success)
	require.Equal(t, int64(23750), report.TotalRestockValueCents)
}

func TestCheckAndRestock_ConcurrentCallSkips(t *testing.T) {
	repo := invmemory.NewRepository()
	notifier := &fakeNotifier{gate: make(chan struct{}), entered: make(chan struct{})}
	svc := NewService(repo, notifier)

	seedItem(t, repo, "itm-a", 5, 20, 250, domain.AutoRestockPolicy{MaxStockLevel: 100, Method: domain.MethodAutoFill})

	entered := notifier.entered
	gate := notifier.gate
	done := make(chan *invtypes.BatchReport, 1)
	go func() {
		report, err := svc.CheckAndRestock(context.Background(), invtypes.RestockOptions{})
		require.NoError(t, err)
		done <- report
	}()

	<-entered
	skipped, err := svc.CheckAndRestock(context.Background(), invtypes.RestockOptions{})
	require.NoError(t, err)
	require.True(t, skipped.Skipped)
	require.Equal(t, 0, skipped.ItemsProcessed)
	require.Empty(t, skipped.Results)
	require.NotEmpty(t, skipped.Message)

	close(gate)
	report := <-done
	require.False(t, report.Skipped)
	require.Equal(t, 1, report.ItemsProcessed)
}

func TestCheckAndRestock_SecondCycleIsEmpty(t *testing.T) {
	repo := invmemory.NewRepository()
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier)

	seedItem(t, repo, "itm-a", 5, 20, 250, domain.AutoRestockPolicy{MaxStockLevel: 100, Method: domain.MethodAutoFill})
	seedItem(t, repo, "itm-b", 0, 10, 100, domain.AutoRestockPolicy{MaxStockLevel: 40, Method: domain.MethodAutoFill})

	first, err := svc.CheckAndRestock(context.Background(), invtypes.RestockOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, first.ItemsProcessed)

	second, err := svc.CheckAndRestock(context.Background(), invtypes.RestockOptions{})
	require.NoError(t, err)
	require.Equal(t, 0, second.ItemsProcessed)
	require.Equal(t, emptyCycleMessage, second.Message)
}

func TestCheckAndRestock_FilterNarrowsTheCycle(t *testing.T) {
	repo := invmemory.NewRepository()
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier)

	seedItem(t, repo, "itm-a", 5, 20, 250, domain.AutoRestockPolicy{MaxStockLevel: 100, Method: domain.MethodAutoFill})
	seedItem(t, repo, "itm-b", 0, 10, 100, domain.AutoRestockPolicy{MaxStockLevel: 40, Method: domain.MethodAutoFill})

	report, err := svc.CheckAndRestock(context.Background(), invtypes.RestockOptions{FilterItems: []string{"itm-b"}})
	require.NoError(t, err)
	require.Equal(t, 1, report.ItemsProcessed)
	require.Equal(t, "itm-b", report.Results[0].ItemID)

	proj, err := repo.GetByID(context.Background(), "itm-a")
	require.NoError(t, err)
	require.Equal(t, 5, proj.Item.Quantity)
}

func TestCheckAndRestock_StoreFailureReleasesGuard(t *testing.T) {
	repo := invmemory.NewRepository()
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier)

	seedItem(t, repo, "itm-a", 5, 20, 250, domain.AutoRestockPolicy{MaxStockLevel: 100, Method: domain.MethodAutoFill})
	repo.FailQueriesWith(errors.New("connection refused"))

	_, err := svc.CheckAndRestock(context.Background(), invtypes.RestockOptions{})
	require.ErrorIs(t, err, ports.ErrStoreUnavailable)

	repo.FailQueriesWith(nil)
	report, err := svc.CheckAndRestock(context.Background(), invtypes.RestockOptions{})
	require.NoError(t, err)
	require.False(t, report.Skipped)
	require.Equal(t, 1, report.ItemsProcessed)
}

func TestCheckAndRestock_ManualQuantitiesCanBeDisabled(t *testing.T) {
	repo := invmemory.NewRepository()
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier)

	seedItem(t, repo, "itm-a", 5, 20, 250, domain.AutoRestockPolicy{MaxStockLevel: 100, ReorderQuantity: 7, Method: domain.MethodFixedQuantity})

	respect := false
	report, err := svc.CheckAndRestock(context.Background(), invtypes.RestockOptions{RespectManualQuantities: &respect})
	require.NoError(t, err)
	require.Equal(t, 95, report.Results[0].RestockQuantity)
}
