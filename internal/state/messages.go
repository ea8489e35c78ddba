package state

import (
	"sort"

	"github.com/bhandras/agbridge/internal/events"
	"github.com/bhandras/agbridge/internal/logger"
	"github.com/bhandras/agbridge/internal/metrics"
	"github.com/bhandras/agbridge/internal/models"
	"github.com/bhandras/agbridge/pkg/types"
)

const (
	defaultChannel = "general"

	// StatusAll disables the inbox status filter.
	StatusAll = "all"
)

// MessageInput describes a message to send. Empty From and Channel take
// defaults.
type MessageInput struct {
	To      string
	From    string
	Channel string
	Text    string
}

// InboxFilter selects messages from the history. Empty fields match all; a
// nil Limit returns every match.
type InboxFilter struct {
	To     string
	Status string
	Limit  *int
}

// SendMessage appends a message to the history, evicting the oldest entries
// beyond MaxMessages. A message to the agent signals the wake trigger.
func (m *Manager) SendMessage(in MessageInput) (models.Message, error) {
	if in.To == "" || in.Text == "" {
		return models.Message{}, validationError(CodeMissingFields)
	}
	to := models.Party(in.To)
	if !to.Valid() {
		return models.Message{}, validationError(CodeInvalidRecipient)
	}
	from := models.PartyUser
	if in.From != "" {
		from = models.Party(in.From)
		if !from.Valid() {
			return models.Message{}, validationError(CodeInvalidSender)
		}
	}
	channel := in.Channel
	if channel == "" {
		channel = defaultChannel
	}

	msg := m.appendMessage(models.Message{
		ID:      types.NewMessageID(),
		From:    from,
		To:      to,
		Channel: channel,
		Text:    in.Text,
		Status:  models.MessageNew,
	})

	if to == models.PartyAgent {
		m.waker.Trigger()
	}
	return msg, nil
}

func (m *Manager) appendMessage(msg models.Message) models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg.CreatedAt = m.clock.Now().UTC()
	m.messages = append(m.messages, msg)
	if over := len(m.messages) - MaxMessages; over > 0 {
		m.messages = append(m.messages[:0:0], m.messages[over:]...)
	}

	metrics.MessagesSent.WithLabelValues(string(msg.To)).Inc()
	m.persister.Schedule()
	m.publishLocked(events.MessageNew, msg)
	logger.Debugf("[MSG] %s -> %s on %s (%s)", msg.From, msg.To, msg.Channel, msg.ID)
	return msg
}

// Inbox returns matching messages, newest first. It never mutates state.
func (m *Manager) Inbox(f InboxFilter) []models.Message {
	m.mu.Lock()
	out := make([]models.Message, 0, len(m.messages))
	for i := len(m.messages) - 1; i >= 0; i-- {
		msg := m.messages[i]
		if f.To != "" && string(msg.To) != f.To {
			continue
		}
		if f.Status != "" && f.Status != StatusAll && string(msg.Status) != f.Status {
			continue
		}
		out = append(out, msg)
	}
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit != nil && *f.Limit >= 0 && len(out) > *f.Limit {
		out = out[:*f.Limit]
	}
	return out
}

// Ack sets a message's status to read (the default) or done.
func (m *Manager) Ack(id, status string) (models.Message, error) {
	st := models.MessageRead
	if status != "" {
		st = models.MessageStatus(status)
	}
	if st != models.MessageRead && st != models.MessageDone {
		return models.Message{}, validationError(CodeInvalidStatus)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.messages {
		if m.messages[i].ID != id {
			continue
		}
		m.messages[i].Status = st
		m.persister.Schedule()
		m.publishLocked(events.MessageAck, map[string]any{"id": id, "status": st})
		return m.messages[i], nil
	}
	return models.Message{}, notFoundError()
}
