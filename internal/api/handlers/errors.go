package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/bhandras/agbridge/internal/logger"
	"github.com/bhandras/agbridge/internal/state"
	"github.com/bhandras/agbridge/pkg/types"
	"github.com/gin-gonic/gin"
)

func statusForKind(kind state.Kind) int {
	switch kind {
	case state.KindValidation:
		return http.StatusBadRequest
	case state.KindNotFound:
		return http.StatusNotFound
	case state.KindConflict:
		return http.StatusConflict
	case state.KindPolicy, state.KindAuth:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// writeError answers with {error}. Conflicts also carry the current approval.
func writeError(c *gin.Context, err error) {
	e, ok := state.AsError(err)
	if !ok {
		logger.Errorf("[%s] %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "internal_error"})
		return
	}
	if e.Kind == state.KindConflict && e.Approval != nil {
		c.JSON(http.StatusConflict, types.ApprovalConflictResponse{Error: e.Code, Approval: *e.Approval})
		return
	}
	c.JSON(statusForKind(e.Kind), types.ErrorResponse{Error: e.Code})
}

// writeOKError answers with {ok:false, error}, the shape used by the message
// and agent endpoints.
func writeOKError(c *gin.Context, err error) {
	e, ok := state.AsError(err)
	if !ok {
		logger.Errorf("[%s] %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, types.OKErrorResponse{Error: "internal_error"})
		return
	}
	c.JSON(statusForKind(e.Kind), types.OKErrorResponse{Error: e.Code})
}

// bindOptionalJSON binds the request body into dst. An empty body leaves
// dst untouched.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.Body == nil {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
