package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/bankrec/internal/api/dto"
)

// TransactionsHandler handles internal ledger imports.
type TransactionsHandler struct {
	*Base
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(base *Base) *TransactionsHandler {
	return &TransactionsHandler{Base: base}
}

// Create handles POST /api/transactions.
func (h *TransactionsHandler) Create(c *gin.Context) {
	var req dto.CreateTransactionsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	txs, err := req.ToModel()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.svc.ImportTransactions(c.Request.Context(), txs); err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.TransactionsImportedResponse{
		Transactions: txs,
		Count:        len(txs),
	})
}
