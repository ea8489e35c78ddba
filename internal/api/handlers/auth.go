package handlers

import (
	"net/http"

	"github.com/bhandras/agbridge/internal/state"
	"github.com/bhandras/agbridge/pkg/types"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	state *state.Manager
}

func NewAuthHandler(s *state.Manager) *AuthHandler {
	return &AuthHandler{state: s}
}

// Health handles GET /health
func (h *AuthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, types.HealthResponse{OK: true, TS: h.state.Now().UTC()})
}

// ClaimPairing handles POST /pair/claim
func (h *AuthHandler) ClaimPairing(c *gin.Context) {
	var req types.PairClaimRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: state.CodeInvalidInput})
		return
	}

	code, _ := req.Code.(string)
	token, err := h.state.ClaimPairing(code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.PairClaimResponse{Token: token})
}
