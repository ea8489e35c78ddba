package state

import (
	"github.com/bhandras/agbridge/internal/events"
	"github.com/bhandras/agbridge/internal/models"
	"github.com/bhandras/agbridge/pkg/types"
)

// HeartbeatInput is a partial agent status. Nil fields keep the previous
// value; an empty State also keeps it.
type HeartbeatInput struct {
	State *string
	Task  *string
	Note  *string
}

// Heartbeat merges in into the agent status and stamps LastSeen.
func (m *Manager) Heartbeat(in HeartbeatInput) (models.AgentStatus, error) {
	var st models.AgentState
	if in.State != nil && *in.State != "" {
		st = models.AgentState(*in.State)
		if !st.Valid() {
			return models.AgentStatus{}, validationError(CodeInvalidState)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now().UTC()
	m.agent.LastSeen = &now
	if st != "" {
		m.agent.State = st
	}
	if in.Task != nil {
		m.agent.Task = *in.Task
	}
	if in.Note != nil {
		m.agent.Note = *in.Note
	}

	m.persister.Schedule()
	m.publishLocked(events.AgentStatus, m.agent.Clone())
	return m.agent.Clone(), nil
}

// Agent returns the current agent status.
func (m *Manager) Agent() models.AgentStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.agent.Clone()
}

// AddCheckpoint appends a free-form checkpoint. Client-supplied id and ts
// fields are replaced by the assigned envelope, so ids stay unique and
// timestamps come from the bridge clock.
func (m *Manager) AddCheckpoint(fields map[string]any) models.Checkpoint {
	cp := models.Checkpoint{
		ID:     types.NewCheckpointID(),
		Fields: make(map[string]any, len(fields)),
	}
	for k, v := range fields {
		if k == "id" || k == "ts" {
			continue
		}
		cp.Fields[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp.TS = m.clock.Now().UTC()
	m.checkpoints = append(m.checkpoints, cp)
	m.persister.Schedule()
	m.publishLocked(events.CheckpointNew, cp.Clone())
	return cp.Clone()
}

// Checkpoints returns the checkpoint log in insertion order.
func (m *Manager) Checkpoints() []models.Checkpoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Checkpoint, 0, len(m.checkpoints))
	for _, cp := range m.checkpoints {
		out = append(out, cp.Clone())
	}
	return out
}
