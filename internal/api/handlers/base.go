package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/bankrec/internal/api/dto"
	"github.com/eshaffer321/bankrec/internal/application/service"
	"github.com/eshaffer321/bankrec/internal/domain/model"
)

// UserHeader carries the acting user for manual workflow actions.
const UserHeader = "X-User-ID"

// Base provides shared functionality for all handlers.
type Base struct {
	svc    *service.ReconciliationService
	logger *slog.Logger
}

// NewBase creates a new base handler backed by the reconciliation service.
func NewBase(svc *service.ReconciliationService, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{svc: svc, logger: logger}
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(c *gin.Context, status int, err dto.APIError) {
	c.AbortWithStatusJSON(status, err)
}

// HandleError maps domain errors onto HTTP status codes.
func (b *Base) HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		b.WriteError(c, http.StatusNotFound, dto.NotFoundError(err.Error()))
	case errors.Is(err, model.ErrInvalidInput):
		b.WriteError(c, http.StatusBadRequest, dto.ValidationError(err.Error()))
	case errors.Is(err, model.ErrAlreadyMatched), errors.Is(err, service.ErrReconciliationRunning):
		b.WriteError(c, http.StatusConflict, dto.ConflictError(err.Error()))
	default:
		b.logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err)
		b.WriteError(c, http.StatusInternalServerError, dto.InternalError())
	}
}

// BindJSON decodes the body into req, writing a 400 on failure.
func (b *Base) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		b.WriteError(c, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return false
	}
	return true
}

// UserID returns the acting user from the request header.
func UserID(c *gin.Context) string {
	return c.GetHeader(UserHeader)
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(c *gin.Context, name string, defaultVal int) int {
	val := c.Query(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
