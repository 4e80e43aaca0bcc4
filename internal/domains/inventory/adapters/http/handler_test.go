package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invtypes "github.com/medisupply/restock/internal/domains/inventory/application/types"
	"github.com/medisupply/restock/internal/domains/inventory/domain"
	"github.com/medisupply/restock/internal/domains/inventory/ports"
)

type stubService struct {
	report      *invtypes.BatchReport
	projections []*invtypes.ItemProjection
	err         error
}

func (s *stubService) CheckAndRestock(ctx context.Context, options invtypes.RestockOptions) (*invtypes.BatchReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubService) LowStockEligible(ctx context.Context, filterIDs []string) ([]*invtypes.ItemProjection, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.projections, nil
}

func (s *stubService) GetItem(ctx context.Context, id string) (*invtypes.ItemProjection, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.projections {
		if p.Item.ID == id {
			return p, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (s *stubService) ListItems(ctx context.Context) ([]*invtypes.ItemProjection, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.projections, nil
}

type stubScheduler struct {
	running bool
	starts  int
	stops   int
}

func (s *stubScheduler) Start() { s.running = true; s.starts++ }
func (s *stubScheduler) Stop()  { s.running = false; s.stops++ }
func (s *stubScheduler) Status() invtypes.ScheduleStatus {
	return invtypes.ScheduleStatus{Running: s.running, SchedulePeriod: time.Hour}
}
func (s *stubScheduler) Trigger(ctx context.Context, options invtypes.RestockOptions) (*invtypes.BatchReport, error) {
	return &invtypes.BatchReport{}, nil
}

type serviceBackedWorkflows struct {
	service ports.Service
	lastOpt invtypes.RestockOptions
}

func (w *serviceBackedWorkflows) RunRestockCycle(ctx context.Context, options invtypes.RestockOptions) (*invtypes.BatchReport, error) {
	w.lastOpt = options
	return w.service.CheckAndRestock(ctx, options)
}

func newTestRouter(t *testing.T, service ports.Service, scheduler ports.Scheduler) (*gin.Engine, *serviceBackedWorkflows) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	workflows := &serviceBackedWorkflows{service: service}
	router := gin.New()
	NewHandler(service, scheduler, workflows).RegisterRoutes(router)
	return router, workflows
}

func testProjection(t *testing.T, id string, quantity int) *invtypes.ItemProjection {
	t.Helper()
	item, err := domain.NewItem(id, "Saline 0.9% 500ml", "fluids", quantity, 30, 450)
	require.NoError(t, err)
	require.NoError(t, item.ConfigureAutoRestock(domain.AutoRestockPolicy{
		Enabled:       true,
		MaxStockLevel: 120,
		Method:        domain.MethodAutoFill,
	}))
	now := time.Now().UTC()
	return invtypes.NewItemProjection(item, now, now)
}

func TestRunRestockCycleReturnsReport(t *testing.T) {
	report := &invtypes.BatchReport{
		BatchID:                "batch-123",
		StartedAt:              time.Now().UTC(),
		ItemsEligible:          2,
		ItemsProcessed:         2,
		TotalRestockValueCents: 54000,
		Results: []invtypes.RestockResult{
			{ItemID: "a", Success: true, RestockQuantity: 60, Urgency: domain.UrgencyHigh},
			{ItemID: "b", Success: true, RestockQuantity: 60, Urgency: domain.UrgencyCritical},
		},
	}
	router, workflows := newTestRouter(t, &stubService{report: report}, &stubScheduler{})

	body := `{"items":["a","b"],"respectManualQuantities":false}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/restock/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "batch-123", resp["batchId"])
	assert.Equal(t, float64(54000), resp["totalRestockValueCents"])
	assert.Len(t, resp["results"], 2)

	assert.Equal(t, []string{"a", "b"}, workflows.lastOpt.FilterItems)
	require.NotNil(t, workflows.lastOpt.RespectManualQuantities)
	assert.False(t, *workflows.lastOpt.RespectManualQuantities)
}

func TestRunRestockCycleWithoutBodyUsesDefaults(t *testing.T) {
	router, workflows := newTestRouter(t, &stubService{report: &invtypes.BatchReport{}}, &stubScheduler{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/restock/run", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, workflows.lastOpt.RespectManualQuantities)
	assert.Empty(t, workflows.lastOpt.FilterItems)
}

func TestRunRestockCycleSkippedIsStillOK(t *testing.T) {
	report := &invtypes.BatchReport{
		StartedAt: time.Now().UTC(),
		Skipped:   true,
		Message:   "restock cycle already in progress; skipping",
	}
	router, _ := newTestRouter(t, &stubService{report: report}, &stubScheduler{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/restock/run", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["skipped"])
	assert.Contains(t, resp["message"], "already in progress")
}

func TestStoreUnavailableMapsTo503Problem(t *testing.T) {
	router, _ := newTestRouter(t, &stubService{err: ports.ErrStoreUnavailable}, &stubScheduler{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/low-stock", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "/problems/store-unavailable", problem["type"])
}

func TestGetItemNotFound(t *testing.T) {
	router, _ := newTestRouter(t, &stubService{}, &stubScheduler{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/items/ghost", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "/problems/not-found", problem["type"])
}

func TestGetItemAndHistory(t *testing.T) {
	projection := testProjection(t, "med-1", 10)
	entry, err := projection.Item.RecordRestock(110, "PO-0001", true, time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, 110, entry.Amount)

	router, _ := newTestRouter(t, &stubService{projections: []*invtypes.ItemProjection{projection}}, &stubScheduler{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/items/med-1", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var item map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, "med-1", item["id"])
	assert.Equal(t, float64(120), item["quantity"])

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/inventory/items/med-1/history", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var history map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	entries, ok := history["history"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 1)
	first, ok := entries[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "PO-0001", first["supplierOrderId"])
}

func TestScheduleLifecycleEndpoints(t *testing.T) {
	scheduler := &stubScheduler{}
	router, _ := newTestRouter(t, &stubService{}, scheduler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/restock/schedule/start", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, scheduler.starts)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/restock/schedule", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, true, status["running"])
	assert.Equal(t, "1h0m0s", status["schedulePeriod"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/restock/schedule/stop", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, scheduler.stops)
}
