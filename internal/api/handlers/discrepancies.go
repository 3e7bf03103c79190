package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/bankrec/internal/api/dto"
	"github.com/eshaffer321/bankrec/internal/application/service"
	"github.com/eshaffer321/bankrec/internal/domain/model"
)

// DiscrepanciesHandler handles the discrepancy review workflow.
type DiscrepanciesHandler struct {
	*Base
}

// NewDiscrepanciesHandler creates a new discrepancies handler.
func NewDiscrepanciesHandler(base *Base) *DiscrepanciesHandler {
	return &DiscrepanciesHandler{Base: base}
}

// Update handles PATCH /api/discrepancies/:id.
func (h *DiscrepanciesHandler) Update(c *gin.Context) {
	var req dto.UpdateDiscrepancyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.svc.UpdateDiscrepancyStatus(c.Request.Context(), c.Param("id"), service.DiscrepancyUpdate{
		Status: model.DiscrepancyStatus(req.Status),
		Note:   req.Note,
		UserID: UserID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, d)
}
