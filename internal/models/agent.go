package models

import "time"

// AgentState is the self-reported activity of the agent.
type AgentState string

const (
	AgentIdle    AgentState = "idle"
	AgentWorking AgentState = "working"
	AgentWaiting AgentState = "waiting"
	AgentError   AgentState = "error"
)

// Valid reports whether s is a known state.
func (s AgentState) Valid() bool {
	switch s {
	case AgentIdle, AgentWorking, AgentWaiting, AgentError:
		return true
	}
	return false
}

// AgentStatus is the last heartbeat received from the agent.
type AgentStatus struct {
	State    AgentState `json:"state"`
	LastSeen *time.Time `json:"lastSeen"`
	Task     string     `json:"task"`
	Note     string     `json:"note"`
}

// DefaultAgentStatus is the status before any heartbeat arrives.
func DefaultAgentStatus() AgentStatus {
	return AgentStatus{State: AgentIdle}
}

// Clone returns a copy with its own LastSeen.
func (s AgentStatus) Clone() AgentStatus {
	if s.LastSeen != nil {
		t := *s.LastSeen
		s.LastSeen = &t
	}
	return s
}
