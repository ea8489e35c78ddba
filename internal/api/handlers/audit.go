package handlers

import (
	"net/http"
	"strconv"

	"github.com/bhandras/agbridge/internal/journal"
	"github.com/bhandras/agbridge/pkg/types"
	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	journal *journal.Journal
}

// NewAuditHandler returns a handler over j. A nil journal answers 503.
func NewAuditHandler(j *journal.Journal) *AuditHandler {
	return &AuditHandler{journal: j}
}

// ListAudit handles GET /audit
func (h *AuditHandler) ListAudit(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: "journal_disabled"})
		return
	}

	limit := journal.DefaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= journal.MaxLimit {
			limit = l
		}
	}

	entries, err := h.journal.List(c.Request.Context(), limit, c.Query("event"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to read journal"})
		return
	}
	c.JSON(http.StatusOK, types.AuditResponse{OK: true, Entries: entries})
}
