// Package events defines the real-time event envelope and the publisher
// contract shared by the state manager, the broadcast hub and the journal.
package events

import "time"

// Event names.
const (
	Hello             = "hello"
	ApprovalRequested = "approval_requested"
	ApprovalDecided   = "approval_decided"
	ConfigChanged     = "config_changed"
	MessageNew        = "message_new"
	MessageAck        = "message_ack"
	AgentStatus       = "agent_status"
	CheckpointNew     = "checkpoint_new"
)

// Envelope is the wire shape of every real-time event.
type Envelope struct {
	Event   string    `json:"event"`
	Payload any       `json:"payload"`
	TS      time.Time `json:"ts"`
}

// New stamps an envelope with ts.
func New(event string, payload any, ts time.Time) Envelope {
	return Envelope{Event: event, Payload: payload, TS: ts.UTC()}
}

// Publisher accepts events for delivery. Publish must not block on slow
// consumers.
type Publisher interface {
	Publish(Envelope)
}

// Fanout forwards every event to each publisher in order.
type Fanout []Publisher

// Publish implements Publisher.
func (f Fanout) Publish(e Envelope) {
	for _, p := range f {
		if p != nil {
			p.Publish(e)
		}
	}
}

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Envelope) {}
