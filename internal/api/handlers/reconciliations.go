package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/bankrec/internal/api/dto"
	"github.com/eshaffer321/bankrec/internal/application/service"
)

// ReconciliationsHandler handles reconciliation runs.
type ReconciliationsHandler struct {
	*Base
}

// NewReconciliationsHandler creates a new reconciliations handler.
func NewReconciliationsHandler(base *Base) *ReconciliationsHandler {
	return &ReconciliationsHandler{Base: base}
}

// Create handles POST /api/reconciliations. The run is synchronous.
func (h *ReconciliationsHandler) Create(c *gin.Context) {
	var req dto.ReconcileRequest
	if !h.BindJSON(c, &req) {
		return
	}

	run := service.ReconcileRequest{StatementID: req.StatementID}
	if req.Settings != nil {
		defaults, err := h.svc.DefaultSettings()
		if err != nil {
			h.HandleError(c, err)
			return
		}
		settings := req.Settings.ApplyTo(defaults)
		run.Settings = &settings
	}

	rec, err := h.svc.Reconcile(c.Request.Context(), run)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// List handles GET /api/reconciliations.
func (h *ReconciliationsHandler) List(c *gin.Context) {
	limit := ParseIntParam(c, "limit", 20)

	recs, err := h.svc.ListReconciliations(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ReconciliationListResponse{
		Reconciliations: recs,
		Count:           len(recs),
	})
}

// Get handles GET /api/reconciliations/:id.
func (h *ReconciliationsHandler) Get(c *gin.Context) {
	rec, err := h.svc.GetReconciliation(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
