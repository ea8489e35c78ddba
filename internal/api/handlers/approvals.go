package handlers

import (
	"net/http"

	"github.com/bhandras/agbridge/internal/models"
	"github.com/bhandras/agbridge/internal/state"
	"github.com/bhandras/agbridge/pkg/types"
	"github.com/gin-gonic/gin"
)

type ApprovalHandler struct {
	state *state.Manager
}

func NewApprovalHandler(s *state.Manager) *ApprovalHandler {
	return &ApprovalHandler{state: s}
}

// Status handles GET /status
func (h *ApprovalHandler) Status(c *gin.Context) {
	counts := h.state.Summary()
	c.JSON(http.StatusOK, types.StatusResponse{
		OK:               true,
		TS:               h.state.Now().UTC(),
		PendingApprovals: counts.Pending,
		TotalApprovals:   counts.Total,
		StrictMode:       h.state.StrictMode(),
	})
}

// ListApprovals handles GET /approvals
func (h *ApprovalHandler) ListApprovals(c *gin.Context) {
	c.JSON(http.StatusOK, types.ApprovalsResponse{Approvals: h.state.Approvals()})
}

// RequestApproval handles POST /approvals/request
func (h *ApprovalHandler) RequestApproval(c *gin.Context) {
	var req types.ApprovalRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: state.CodeInvalidInput})
		return
	}

	approval, err := h.state.RequestApproval(state.ApprovalInput{
		Kind:      req.Kind,
		Details:   req.Details,
		Risk:      req.Risk,
		ClientTag: req.ClientTag,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ApprovalResponse{OK: true, Approval: approval})
}

// GetApproval handles GET /approvals/:id
func (h *ApprovalHandler) GetApproval(c *gin.Context) {
	approval, err := h.state.Approval(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ApprovalResponse{OK: true, Approval: approval})
}

// Approve handles POST /approvals/:id/approve
func (h *ApprovalHandler) Approve(c *gin.Context) {
	h.decide(c, models.ApprovalApproved)
}

// Deny handles POST /approvals/:id/deny
func (h *ApprovalHandler) Deny(c *gin.Context) {
	h.decide(c, models.ApprovalDenied)
}

func (h *ApprovalHandler) decide(c *gin.Context, outcome models.ApprovalStatus) {
	approval, err := h.state.Decide(c.Param("id"), outcome)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ApprovalResponse{OK: true, Approval: approval})
}

// Summary handles GET /approvals/stream/summary
func (h *ApprovalHandler) Summary(c *gin.Context) {
	counts := h.state.Summary()
	c.JSON(http.StatusOK, types.SummaryResponse{
		OK:       true,
		TS:       h.state.Now().UTC(),
		Pending:  counts.Pending,
		Approved: counts.Approved,
		Denied:   counts.Denied,
		Total:    counts.Total,
	})
}

// DebugCreateApproval handles POST /debug/create-approval
func (h *ApprovalHandler) DebugCreateApproval(c *gin.Context) {
	var req types.DebugApprovalRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: state.CodeInvalidInput})
		return
	}
	c.JSON(http.StatusOK, h.state.CreateDebugApproval(req.Kind, req.Details))
}
