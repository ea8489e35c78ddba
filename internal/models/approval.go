package models

import (
	"maps"
	"time"
)

// ApprovalStatus is the lifecycle state of an approval request.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalDenied   ApprovalStatus = "denied"
)

// Valid reports whether s is a known status.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalDenied:
		return true
	}
	return false
}

// ApprovalMeta carries requester-supplied metadata.
type ApprovalMeta struct {
	Risk      string  `json:"risk"`
	ClientTag *string `json:"clientTag"`
}

// Approval is a request for the operator to allow or refuse an agent action.
//
// DecidedAt is non-nil exactly when Status is not pending; a decided approval
// never changes again.
type Approval struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	Kind      string         `json:"kind"`
	Details   map[string]any `json:"details"`
	Status    ApprovalStatus `json:"status"`
	DecidedAt *time.Time     `json:"decidedAt"`
	Meta      *ApprovalMeta  `json:"meta,omitempty"`
}

// IsPending reports whether the approval is still awaiting a decision.
func (a *Approval) IsPending() bool { return a.Status == ApprovalPending }

// Command returns details.cmd when it is a non-empty string.
func (a *Approval) Command() string {
	cmd, _ := a.Details["cmd"].(string)
	return cmd
}

// Clone returns a copy that shares no mutable top-level state with a.
func (a *Approval) Clone() Approval {
	out := *a
	out.Details = maps.Clone(a.Details)
	if out.Details == nil {
		out.Details = map[string]any{}
	}
	if a.DecidedAt != nil {
		t := *a.DecidedAt
		out.DecidedAt = &t
	}
	if a.Meta != nil {
		m := *a.Meta
		if a.Meta.ClientTag != nil {
			tag := *a.Meta.ClientTag
			m.ClientTag = &tag
		}
		out.Meta = &m
	}
	return out
}
