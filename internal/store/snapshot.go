// Package store persists the bridge state as a single JSON snapshot file.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/bhandras/agbridge/internal/logger"
	"github.com/bhandras/agbridge/internal/models"
)

// SnapshotVersion is the schema version written by this build.
const SnapshotVersion = 1

// Snapshot is the serializable projection of all mutable bridge state.
type Snapshot struct {
	Version     int                 `json:"version"`
	StrictMode  bool                `json:"strictMode"`
	Approvals   []models.Approval   `json:"approvals"`
	Messages    []models.Message    `json:"messages"`
	Agent       models.AgentStatus  `json:"agent"`
	Checkpoints []models.Checkpoint `json:"checkpoints"`
	Tokens      []string            `json:"tokens"`
}

// Default returns the state of a bridge that has never run.
func Default(strictMode bool) Snapshot {
	return Snapshot{
		Version:     SnapshotVersion,
		StrictMode:  strictMode,
		Approvals:   []models.Approval{},
		Messages:    []models.Message{},
		Agent:       models.DefaultAgentStatus(),
		Checkpoints: []models.Checkpoint{},
		Tokens:      []string{},
	}
}

// merge decodes raw over base. The document must be a JSON object; each
// recognized field that decodes replaces the default, anything else is kept
// from base. Unknown fields are ignored.
func merge(base Snapshot, raw []byte) (Snapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return base, fmt.Errorf("decode snapshot: %w", err)
	}
	if fields == nil {
		return base, fmt.Errorf("decode snapshot: not an object")
	}

	out := base
	decodeField(fields, "version", &out.Version)
	decodeField(fields, "strictMode", &out.StrictMode)
	decodeField(fields, "approvals", &out.Approvals)
	decodeField(fields, "messages", &out.Messages)
	decodeField(fields, "agent", &out.Agent)
	decodeField(fields, "checkpoints", &out.Checkpoints)
	decodeField(fields, "tokens", &out.Tokens)

	// A literal null decodes to a nil slice; keep lists non-nil.
	if out.Approvals == nil {
		out.Approvals = []models.Approval{}
	}
	if out.Messages == nil {
		out.Messages = []models.Message{}
	}
	if out.Checkpoints == nil {
		out.Checkpoints = []models.Checkpoint{}
	}
	if out.Tokens == nil {
		out.Tokens = []string{}
	}
	if out.Agent.State == "" {
		out.Agent.State = models.AgentIdle
	}
	return out, nil
}

func decodeField[T any](fields map[string]json.RawMessage, key string, dst *T) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		logger.Warnf("[PERSIST] Ignoring unreadable %q in snapshot: %v", key, err)
		return
	}
	*dst = v
}
