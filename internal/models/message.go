package models

import "time"

// Party identifies one side of the bridge.
type Party string

const (
	PartyAgent Party = "agent"
	PartyUser  Party = "user"
)

// Valid reports whether p is a known party.
func (p Party) Valid() bool { return p == PartyAgent || p == PartyUser }

// MessageStatus tracks how far a recipient has processed a message.
type MessageStatus string

const (
	MessageNew  MessageStatus = "new"
	MessageRead MessageStatus = "read"
	MessageDone MessageStatus = "done"
)

// Valid reports whether s is a known status.
func (s MessageStatus) Valid() bool {
	switch s {
	case MessageNew, MessageRead, MessageDone:
		return true
	}
	return false
}

// Message is a short note between the operator and the agent.
type Message struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"createdAt"`
	From      Party         `json:"from"`
	To        Party         `json:"to"`
	Channel   string        `json:"channel"`
	Text      string        `json:"text"`
	Status    MessageStatus `json:"status"`
}
