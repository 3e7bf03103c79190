package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/bankrec/internal/api/dto"
	"github.com/eshaffer321/bankrec/internal/application/service"
)

// MatchesHandler handles the manual match workflow.
type MatchesHandler struct {
	*Base
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(base *Base) *MatchesHandler {
	return &MatchesHandler{Base: base}
}

// Create handles POST /api/matches.
func (h *MatchesHandler) Create(c *gin.Context) {
	var req dto.CreateMatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	match, err := h.svc.CreateManualMatch(c.Request.Context(), service.ManualMatchRequest{
		ReconciliationID: req.ReconciliationID,
		BankLineID:       req.BankLineID,
		TransactionID:    req.TransactionID,
		UserID:           UserID(c),
		Reason:           req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, match)
}

// Delete handles DELETE /api/matches/:id.
func (h *MatchesHandler) Delete(c *gin.Context) {
	if err := h.svc.UndoMatch(c.Request.Context(), c.Param("id"), UserID(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Approve handles POST /api/matches/:id/approve.
func (h *MatchesHandler) Approve(c *gin.Context) {
	match, err := h.svc.ApproveMatch(c.Request.Context(), c.Param("id"), UserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

// Audit handles GET /api/audit/:id.
func (h *MatchesHandler) Audit(c *gin.Context) {
	entityID := c.Param("id")

	entries, err := h.svc.AuditTrail(c.Request.Context(), entityID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuditListResponse{
		EntityID: entityID,
		Entries:  entries,
		Count:    len(entries),
	})
}
