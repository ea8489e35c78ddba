package handlers

import (
	"net/http"

	"github.com/bhandras/agbridge/internal/state"
	"github.com/bhandras/agbridge/pkg/types"
	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	state *state.Manager
}

func NewSettingsHandler(s *state.Manager) *SettingsHandler {
	return &SettingsHandler{state: s}
}

// GetConfig handles GET /config
func (h *SettingsHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, types.ConfigResponse{
		OK:         true,
		StrictMode: h.state.StrictMode(),
		TS:         h.state.Now().UTC(),
	})
}

// SetStrictMode handles POST /config/strict-mode
func (h *SettingsHandler) SetStrictMode(c *gin.Context) {
	var req types.StrictModeRequest
	if err := bindOptionalJSON(c, &req); err != nil || req.StrictMode == nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: state.CodeInvalidInput})
		return
	}

	h.state.SetStrictMode(*req.StrictMode)
	c.JSON(http.StatusOK, types.ConfigResponse{
		OK:         true,
		StrictMode: *req.StrictMode,
		TS:         h.state.Now().UTC(),
	})
}
