package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/bankrec/internal/api/dto"
)

// StatementsHandler handles bank statement import and lookup.
type StatementsHandler struct {
	*Base
}

// NewStatementsHandler creates a new statements handler.
func NewStatementsHandler(base *Base) *StatementsHandler {
	return &StatementsHandler{Base: base}
}

// Create handles POST /api/statements.
func (h *StatementsHandler) Create(c *gin.Context) {
	var req dto.CreateStatementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	stmt, err := req.ToModel()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.svc.ImportStatement(c.Request.Context(), stmt); err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, stmt)
}

// Get handles GET /api/statements/:id.
func (h *StatementsHandler) Get(c *gin.Context) {
	stmt, err := h.svc.GetStatement(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stmt)
}

// BalanceCheck handles GET /api/statements/:id/balance-check.
func (h *StatementsHandler) BalanceCheck(c *gin.Context) {
	check, err := h.svc.CheckStatementBalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceCheckResponse{
		StatementID:     c.Param("id"),
		Valid:           check.Valid,
		ComputedClosing: check.ComputedClosing,
		DeclaredClosing: check.DeclaredClosing,
		Difference:      check.Difference,
		Reason:          check.Reason,
	})
}

// Suggestions handles GET /api/statement-lines/:id/suggestions.
func (h *StatementsHandler) Suggestions(c *gin.Context) {
	lineID := c.Param("id")
	limit := ParseIntParam(c, "limit", 0)

	suggestions, err := h.svc.SuggestMatches(c.Request.Context(), lineID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuggestionListResponse{
		BankLineID:  lineID,
		Suggestions: suggestions,
		Count:       len(suggestions),
	})
}
