// Package state owns all mutable bridge state: issued credentials, approvals,
// the message history, the agent status and the checkpoint log.
//
// Every mutation runs inside one critical section together with its
// persistence scheduling and event publication, so observers and the
// snapshot see per-entity changes in the order they were applied.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/bhandras/agbridge/internal/clock"
	"github.com/bhandras/agbridge/internal/crypto"
	"github.com/bhandras/agbridge/internal/events"
	"github.com/bhandras/agbridge/internal/logger"
	"github.com/bhandras/agbridge/internal/models"
	"github.com/bhandras/agbridge/internal/policy"
	"github.com/bhandras/agbridge/internal/store"
)

// MaxMessages bounds the message history.
const MaxMessages = 200

// Persister is notified after every mutation.
type Persister interface {
	Schedule()
}

// WakeTrigger is signalled when a message is addressed to the agent.
type WakeTrigger interface {
	Trigger()
}

// Options configures a Manager. Nil collaborators are replaced with no-ops.
type Options struct {
	Gate        *policy.Gate
	Publisher   events.Publisher
	Persister   Persister
	Waker       WakeTrigger
	Clock       clock.Clock
	PairingCode string
}

type nopPersister struct{}

func (nopPersister) Schedule() {}

type nopWaker struct{}

func (nopWaker) Trigger() {}

// Manager is the single owner of bridge state. It is safe for concurrent use.
type Manager struct {
	mu sync.Mutex

	clock       clock.Clock
	gate        *policy.Gate
	publisher   events.Publisher
	persister   Persister
	waker       WakeTrigger
	pairingCode string

	version     int
	strictMode  bool
	approvals   []*models.Approval
	approvalIdx map[string]*models.Approval
	messages    []models.Message
	agent       models.AgentStatus
	checkpoints []models.Checkpoint
	tokens      map[string]struct{}
	tokenOrder  []string
}

// NewManager restores a Manager from snap.
func NewManager(snap store.Snapshot, opts Options) (*Manager, error) {
	m := &Manager{
		clock:       opts.Clock,
		gate:        opts.Gate,
		publisher:   opts.Publisher,
		persister:   opts.Persister,
		waker:       opts.Waker,
		pairingCode: opts.PairingCode,
		approvalIdx: make(map[string]*models.Approval),
		tokens:      make(map[string]struct{}),
	}
	if m.clock == nil {
		m.clock = clock.Real()
	}
	if m.publisher == nil {
		m.publisher = events.Discard
	}
	if m.persister == nil {
		m.persister = nopPersister{}
	}
	if m.waker == nil {
		m.waker = nopWaker{}
	}
	if m.gate == nil {
		gate, err := policy.NewGate(policy.Policy{})
		if err != nil {
			return nil, err
		}
		m.gate = gate
	}
	if m.pairingCode == "" {
		code, err := crypto.NewPairingCode()
		if err != nil {
			return nil, fmt.Errorf("generate pairing code: %w", err)
		}
		m.pairingCode = code
	}

	m.restore(snap)
	return m, nil
}

func (m *Manager) restore(snap store.Snapshot) {
	m.version = snap.Version
	if m.version == 0 {
		m.version = store.SnapshotVersion
	}
	m.strictMode = snap.StrictMode

	for i := range snap.Approvals {
		a := snap.Approvals[i].Clone()
		if _, dup := m.approvalIdx[a.ID]; dup {
			continue
		}
		m.approvals = append(m.approvals, &a)
		m.approvalIdx[a.ID] = &a
	}

	msgs := snap.Messages
	if len(msgs) > MaxMessages {
		msgs = msgs[len(msgs)-MaxMessages:]
	}
	m.messages = append(make([]models.Message, 0, len(msgs)), msgs...)

	m.agent = snap.Agent.Clone()
	if !m.agent.State.Valid() {
		m.agent.State = models.AgentIdle
	}

	for _, cp := range snap.Checkpoints {
		m.checkpoints = append(m.checkpoints, cp.Clone())
	}

	for _, tok := range snap.Tokens {
		m.addTokenLocked(tok)
	}
}

// AttachPersister sets the persistence collaborator after construction; the
// flusher is built from the manager's Snapshot method.
func (m *Manager) AttachPersister(p Persister) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil {
		p = nopPersister{}
	}
	m.persister = p
}

// Snapshot returns a deep copy of the persistable state.
func (m *Manager) Snapshot() store.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := store.Snapshot{
		Version:     m.version,
		StrictMode:  m.strictMode,
		Approvals:   make([]models.Approval, 0, len(m.approvals)),
		Messages:    append(make([]models.Message, 0, len(m.messages)), m.messages...),
		Agent:       m.agent.Clone(),
		Checkpoints: make([]models.Checkpoint, 0, len(m.checkpoints)),
		Tokens:      append(make([]string, 0, len(m.tokenOrder)), m.tokenOrder...),
	}
	for _, a := range m.approvals {
		snap.Approvals = append(snap.Approvals, a.Clone())
	}
	for _, cp := range m.checkpoints {
		snap.Checkpoints = append(snap.Checkpoints, cp.Clone())
	}
	return snap
}

// StrictMode reports whether commands must match an allow pattern.
func (m *Manager) StrictMode() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.strictMode
}

// SetStrictMode toggles strict mode.
func (m *Manager) SetStrictMode(strict bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.strictMode = strict
	m.persister.Schedule()
	m.publishLocked(events.ConfigChanged, map[string]bool{"strictMode": strict})
	logger.Infof("[CONFIG] Strict Mode set to %t", strict)
}

// Now returns the manager clock's current time.
func (m *Manager) Now() time.Time { return m.clock.Now() }

func (m *Manager) publishLocked(event string, payload any) {
	m.publisher.Publish(events.New(event, payload, m.clock.Now()))
}
