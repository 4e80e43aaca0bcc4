// Package http exposes the restock subsystem over a gin REST surface.
package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medisupply/restock/internal/domains/inventory/adapters/http/mapper"
	invtypes "github.com/medisupply/restock/internal/domains/inventory/application/types"
	"github.com/medisupply/restock/internal/domains/inventory/ports"
	sharederrors "github.com/medisupply/restock/internal/shared/errors"
)

// Handler serves the restock and inventory read endpoints.
type Handler struct {
	service   ports.Service
	scheduler ports.Scheduler
	workflows ports.WorkflowOrchestrator
	responder *sharederrors.ChainedResponder
}

// NewHandler builds the HTTP handler over the inbound ports.
func NewHandler(service ports.Service, scheduler ports.Scheduler, workflows ports.WorkflowOrchestrator) *Handler {
	return &Handler{
		service:   service,
		scheduler: scheduler,
		workflows: workflows,
		responder: sharederrors.NewChainedResponder("", inventoryProblemMapper),
	}
}

// RegisterRoutes attaches the restock API under /api/v1.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	v1.POST("/restock/run", h.runRestockCycle)
	v1.POST("/restock/schedule/start", h.startSchedule)
	v1.POST("/restock/schedule/stop", h.stopSchedule)
	v1.GET("/restock/schedule", h.scheduleStatus)
	v1.GET("/inventory/low-stock", h.listLowStock)
	v1.GET("/inventory/items", h.listItems)
	v1.GET("/inventory/items/:id", h.getItem)
	v1.GET("/inventory/items/:id/history", h.getItemHistory)
}

// runCycleRequest is the inbound payload for an on-demand cycle.
type runCycleRequest struct {
	Items                   []string `json:"items,omitempty"`
	RespectManualQuantities *bool    `json:"respectManualQuantities,omitempty"`
	PreserveValue           bool     `json:"preserveValue,omitempty"`
}

// batchReportResponse is the transport shape of a cycle report.
type batchReportResponse struct {
	BatchID                string               `json:"batchId,omitempty"`
	StartedAt              time.Time            `json:"startedAt"`
	Skipped                bool                 `json:"skipped"`
	Message                string               `json:"message,omitempty"`
	ItemsEligible          int                  `json:"itemsEligible"`
	ItemsProcessed         int                  `json:"itemsProcessed"`
	TotalRestockValueCents int64                `json:"totalRestockValueCents"`
	Results                []itemResultResponse `json:"results"`
}

type itemResultResponse struct {
	ItemID               string `json:"itemId"`
	ItemName             string `json:"itemName"`
	Success              bool   `json:"success"`
	CurrentStock         int    `json:"currentStock"`
	RestockQuantity      int    `json:"restockQuantity"`
	RestockValueCents    int64  `json:"restockValueCents"`
	FinalStock           int    `json:"finalStock"`
	FinalTotalValueCents int64  `json:"finalTotalValueCents"`
	Urgency              string `json:"urgency,omitempty"`
	EmailSent            bool   `json:"emailSent"`
	OrderID              string `json:"orderId,omitempty"`
	Error                string `json:"error,omitempty"`
}

type scheduleStatusResponse struct {
	Running          bool       `json:"running"`
	SchedulePeriod   string     `json:"schedulePeriod"`
	NextRunEstimate  *time.Time `json:"nextRunEstimate,omitempty"`
	LastRunStartedAt *time.Time `json:"lastRunStartedAt,omitempty"`
}

// runRestockCycle triggers one orchestration cycle and returns its report.
// A cycle skipped because another one is in flight is still a 200: the
// caller asked "check and restock if needed" and got an answer.
func (h *Handler) runRestockCycle(c *gin.Context) {
	var req runCycleRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.responder.BadRequest(c, "invalid restock request payload: "+err.Error())
			return
		}
	}
	options := invtypes.RestockOptions{
		FilterItems:             req.Items,
		RespectManualQuantities: req.RespectManualQuantities,
		PreserveValue:           req.PreserveValue,
	}
	report, err := h.workflows.RunRestockCycle(c.Request.Context(), options)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBatchReportResponse(report))
}

func (h *Handler) startSchedule(c *gin.Context) {
	h.scheduler.Start()
	c.JSON(http.StatusOK, toScheduleStatusResponse(h.scheduler.Status()))
}

func (h *Handler) stopSchedule(c *gin.Context) {
	h.scheduler.Stop()
	c.JSON(http.StatusOK, toScheduleStatusResponse(h.scheduler.Status()))
}

func (h *Handler) scheduleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, toScheduleStatusResponse(h.scheduler.Status()))
}

// listLowStock reports the items a cycle would consider, without running one.
func (h *Handler) listLowStock(c *gin.Context) {
	filter := c.QueryArray("id")
	projections, err := h.service.LowStockEligible(c.Request.Context(), filter)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(projections),
		"items": mapper.FromProjectionList(projections),
	})
}

func (h *Handler) listItems(c *gin.Context) {
	projections, err := h.service.ListItems(c.Request.Context())
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromProjectionList(projections))
}

func (h *Handler) getItem(c *gin.Context) {
	projection, err := h.service.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			h.responder.NotFound(c, "inventory item", c.Param("id"))
			return
		}
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromProjection(projection))
}

func (h *Handler) getItemHistory(c *gin.Context) {
	projection, err := h.service.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			h.responder.NotFound(c, "inventory item", c.Param("id"))
			return
		}
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"itemId":  projection.Item.ID,
		"history": mapper.FromRestockHistory(projection.Item.History),
	})
}

func toBatchReportResponse(report *invtypes.BatchReport) batchReportResponse {
	results := make([]itemResultResponse, 0, len(report.Results))
	for _, r := range report.Results {
		results = append(results, itemResultResponse{
			ItemID:               r.ItemID,
			ItemName:             r.ItemName,
			Success:              r.Success,
			CurrentStock:         r.CurrentStock,
			RestockQuantity:      r.RestockQuantity,
			RestockValueCents:    r.RestockValueCents,
			FinalStock:           r.FinalStock,
			FinalTotalValueCents: r.FinalTotalValueCents,
			Urgency:              string(r.Urgency),
			EmailSent:            r.EmailSent,
			OrderID:              r.OrderID,
			Error:                r.ErrorMessage,
		})
	}
	return batchReportResponse{
		BatchID:                report.BatchID,
		StartedAt:              report.StartedAt,
		Skipped:                report.Skipped,
		Message:                report.Message,
		ItemsEligible:          report.ItemsEligible,
		ItemsProcessed:         report.ItemsProcessed,
		TotalRestockValueCents: report.TotalRestockValueCents,
		Results:                results,
	}
}

func toScheduleStatusResponse(status invtypes.ScheduleStatus) scheduleStatusResponse {
	return scheduleStatusResponse{
		Running:          status.Running,
		SchedulePeriod:   status.SchedulePeriod.String(),
		NextRunEstimate:  status.NextRunEstimate,
		LastRunStartedAt: status.LastRunStartedAt,
	}
}

// inventoryProblemMapper translates port errors into problem details.
func inventoryProblemMapper(err error) (sharederrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ports.ErrStoreUnavailable):
		return sharederrors.ErrStoreUnavailable.WithDetail(err.Error()), true
	case errors.Is(err, ports.ErrStaleStock):
		return sharederrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, ports.ErrNotFound):
		return sharederrors.NewNotFoundProblem("inventory item", "unknown"), true
	default:
		return sharederrors.ProblemDetail{}, false
	}
}
