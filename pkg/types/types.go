package types

import (
	"strings"
	"time"

	"github.com/bhandras/agbridge/internal/crypto"
	"github.com/bhandras/agbridge/internal/models"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ID constructors. Approval ids are short so they read well on a phone;
// message ids sort by creation time.

func NewApprovalID() string {
	suffix, err := crypto.RandHex(4)
	if err != nil {
		suffix = strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	return "appr_" + suffix
}

func NewMessageID() string {
	return "msg_" + strings.ToLower(ulid.Make().String())
}

func NewCheckpointID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "cp_" + uuid.NewString()
	}
	return "cp_" + id.String()
}

// Common response types

type ErrorResponse struct {
	Error string `json:"error"`
}

type OKErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type HealthResponse struct {
	OK bool      `json:"ok"`
	TS time.Time `json:"ts"`
}

// Pairing

// PairClaimRequest.Code is left untyped so a non-string code is refused as a
// wrong code rather than as malformed input.
type PairClaimRequest struct {
	Code any `json:"code"`
}

type PairClaimResponse struct {
	Token string `json:"token"`
}

// Config

type ConfigResponse struct {
	OK         bool      `json:"ok"`
	StrictMode bool      `json:"strictMode"`
	TS         time.Time `json:"ts"`
}

type StrictModeRequest struct {
	StrictMode *bool `json:"strictMode"`
}

// Approvals

type StatusResponse struct {
	OK               bool      `json:"ok"`
	TS               time.Time `json:"ts"`
	PendingApprovals int       `json:"pendingApprovals"`
	TotalApprovals   int       `json:"totalApprovals"`
	StrictMode       bool      `json:"strictMode"`
}

type ApprovalsResponse struct {
	Approvals []models.Approval `json:"approvals"`
}

type ApprovalResponse struct {
	OK       bool            `json:"ok"`
	Approval models.Approval `json:"approval"`
}

type ApprovalConflictResponse struct {
	Error    string          `json:"error"`
	Approval models.Approval `json:"approval"`
}

type ApprovalRequest struct {
	Kind      string         `json:"kind"`
	Details   map[string]any `json:"details"`
	Risk      string         `json:"risk"`
	ClientTag *string        `json:"clientTag"`
}

type DebugApprovalRequest struct {
	Kind    string         `json:"kind"`
	Details map[string]any `json:"details"`
}

type SummaryResponse struct {
	OK       bool      `json:"ok"`
	TS       time.Time `json:"ts"`
	Pending  int       `json:"pending"`
	Approved int       `json:"approved"`
	Denied   int       `json:"denied"`
	Total    int       `json:"total"`
}

// Messages

type SendMessageRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type MessageResponse struct {
	OK      bool           `json:"ok"`
	Message models.Message `json:"message"`
}

type InboxResponse struct {
	OK       bool             `json:"ok"`
	Messages []models.Message `json:"messages"`
}

type AckRequest struct {
	Status string `json:"status"`
}

// Agent

type HeartbeatRequest struct {
	State *string `json:"state"`
	Task  *string `json:"task"`
	Note  *string `json:"note"`
}

type AgentResponse struct {
	OK    bool               `json:"ok"`
	Agent models.AgentStatus `json:"agent"`
}

type CheckpointResponse struct {
	OK         bool              `json:"ok"`
	Checkpoint models.Checkpoint `json:"checkpoint"`
}

// Audit journal

type AuditEntry struct {
	ID      int64     `json:"id"`
	Event   string    `json:"event"`
	Payload any       `json:"payload"`
	TS      time.Time `json:"ts"`
}

type AuditResponse struct {
	OK      bool         `json:"ok"`
	Entries []AuditEntry `json:"entries"`
}
