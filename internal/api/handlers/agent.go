package handlers

import (
	"net/http"

	"github.com/bhandras/agbridge/internal/state"
	"github.com/bhandras/agbridge/pkg/types"
	"github.com/gin-gonic/gin"
)

type AgentHandler struct {
	state *state.Manager
}

func NewAgentHandler(s *state.Manager) *AgentHandler {
	return &AgentHandler{state: s}
}

// Heartbeat handles POST /agent/heartbeat
func (h *AgentHandler) Heartbeat(c *gin.Context) {
	var req types.HeartbeatRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, types.OKErrorResponse{Error: state.CodeInvalidInput})
		return
	}

	agent, err := h.state.Heartbeat(state.HeartbeatInput{
		State: req.State,
		Task:  req.Task,
		Note:  req.Note,
	})
	if err != nil {
		writeOKError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.AgentResponse{OK: true, Agent: agent})
}

// Status handles GET /agent/status
func (h *AgentHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, types.AgentResponse{OK: true, Agent: h.state.Agent()})
}

// Checkpoint handles POST /checkpoint
func (h *AgentHandler) Checkpoint(c *gin.Context) {
	fields := map[string]any{}
	if err := bindOptionalJSON(c, &fields); err != nil {
		c.JSON(http.StatusBadRequest, types.OKErrorResponse{Error: state.CodeInvalidInput})
		return
	}
	c.JSON(http.StatusOK, types.CheckpointResponse{OK: true, Checkpoint: h.state.AddCheckpoint(fields)})
}
