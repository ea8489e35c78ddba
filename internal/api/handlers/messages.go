package handlers

import (
	"net/http"
	"strconv"

	"github.com/bhandras/agbridge/internal/state"
	"github.com/bhandras/agbridge/pkg/types"
	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	state *state.Manager
}

func NewMessageHandler(s *state.Manager) *MessageHandler {
	return &MessageHandler{state: s}
}

// Send handles POST /messages/send
func (h *MessageHandler) Send(c *gin.Context) {
	var req types.SendMessageRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, types.OKErrorResponse{Error: state.CodeInvalidInput})
		return
	}

	msg, err := h.state.SendMessage(state.MessageInput{
		To:      req.To,
		From:    req.From,
		Channel: req.Channel,
		Text:    req.Text,
	})
	if err != nil {
		writeOKError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.MessageResponse{OK: true, Message: msg})
}

// Inbox handles GET /messages/inbox
func (h *MessageHandler) Inbox(c *gin.Context) {
	filter := state.InboxFilter{
		To:     c.Query("to"),
		Status: c.Query("status"),
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l >= 0 {
			filter.Limit = &l
		}
	}
	c.JSON(http.StatusOK, types.InboxResponse{OK: true, Messages: h.state.Inbox(filter)})
}

// Ack handles POST /messages/:id/ack
func (h *MessageHandler) Ack(c *gin.Context) {
	var req types.AckRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, types.OKErrorResponse{Error: state.CodeInvalidInput})
		return
	}

	msg, err := h.state.Ack(c.Param("id"), req.Status)
	if err != nil {
		writeOKError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.MessageResponse{OK: true, Message: msg})
}
