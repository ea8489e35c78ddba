package state

import (
	"errors"
	"sort"

	"github.com/bhandras/agbridge/internal/events"
	"github.com/bhandras/agbridge/internal/logger"
	"github.com/bhandras/agbridge/internal/metrics"
	"github.com/bhandras/agbridge/internal/models"
	"github.com/bhandras/agbridge/internal/policy"
	"github.com/bhandras/agbridge/pkg/types"
)

const (
	defaultKind = "unknown"
	defaultRisk = "unknown"

	// KindCommand approvals are subject to the policy gate.
	KindCommand = "command"
)

// ApprovalInput describes a new approval request.
type ApprovalInput struct {
	Kind      string
	Details   map[string]any
	Risk      string
	ClientTag *string
}

// Counts summarizes approvals by status.
type Counts struct {
	Pending  int
	Approved int
	Denied   int
	Total    int
}

// RequestApproval creates a pending approval. Command approvals are checked
// against the policy gate first; a refusal leaves state untouched.
func (m *Manager) RequestApproval(in ApprovalInput) (models.Approval, error) {
	kind := in.Kind
	if kind == "" {
		kind = defaultKind
	}
	risk := in.Risk
	if risk == "" {
		risk = defaultRisk
	}
	var tag *string
	if in.ClientTag != nil && *in.ClientTag != "" {
		t := *in.ClientTag
		tag = &t
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if kind == KindCommand {
		cmd, _ := in.Details["cmd"].(string)
		if err := m.gate.Evaluate(cmd, m.strictMode); err != nil {
			code := policy.CodeCommandDenied
			var d *policy.Denial
			if errors.As(err, &d) {
				code = d.Code
			}
			metrics.PolicyDenials.WithLabelValues(code).Inc()
			logger.Warnf("[POLICY] Blocked command %q: %v", cmd, err)
			return models.Approval{}, &Error{Kind: KindPolicy, Code: code, Err: err}
		}
	}

	a := m.newApprovalLocked(kind, in.Details)
	a.Meta = &models.ApprovalMeta{Risk: risk, ClientTag: tag}
	logger.Infof("[REQUEST] Approval requested: %s (%s)", a.ID, kind)
	return m.insertApprovalLocked(a), nil
}

// CreateDebugApproval creates a pending approval without consulting the
// policy gate. Used by the debug endpoint.
func (m *Manager) CreateDebugApproval(kind string, details map[string]any) models.Approval {
	if kind == "" {
		kind = KindCommand
	}
	if details == nil {
		details = map[string]any{"cmd": `echo "Hello World"`, "risk": "low"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a := m.newApprovalLocked(kind, details)
	logger.Infof("[DEBUG] Created test approval %s", a.ID)
	return m.insertApprovalLocked(a)
}

func (m *Manager) newApprovalLocked(kind string, details map[string]any) *models.Approval {
	id := types.NewApprovalID()
	for m.approvalIdx[id] != nil {
		id = types.NewApprovalID()
	}
	a := &models.Approval{
		ID:        id,
		CreatedAt: m.clock.Now().UTC(),
		Kind:      kind,
		Details:   details,
		Status:    models.ApprovalPending,
	}
	// Detach from the caller's map.
	cp := a.Clone()
	return &cp
}

func (m *Manager) insertApprovalLocked(a *models.Approval) models.Approval {
	m.approvals = append(m.approvals, a)
	m.approvalIdx[a.ID] = a

	metrics.ApprovalsRequested.WithLabelValues(a.Kind).Inc()
	m.persister.Schedule()
	m.publishLocked(events.ApprovalRequested, a.Clone())
	return a.Clone()
}

// Decide moves a pending approval to approved or denied. Deciding an already
// decided approval is a conflict carrying the current record.
func (m *Manager) Decide(id string, outcome models.ApprovalStatus) (models.Approval, error) {
	if outcome != models.ApprovalApproved && outcome != models.ApprovalDenied {
		return models.Approval{}, validationError(CodeInvalidStatus)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a := m.approvalIdx[id]
	if a == nil {
		return models.Approval{}, notFoundError()
	}
	if !a.IsPending() {
		current := a.Clone()
		return models.Approval{}, &Error{Kind: KindConflict, Code: CodeAlreadyDecided, Approval: &current}
	}

	now := m.clock.Now().UTC()
	a.Status = outcome
	a.DecidedAt = &now

	metrics.ApprovalsDecided.WithLabelValues(string(outcome)).Inc()
	m.persister.Schedule()
	m.publishLocked(events.ApprovalDecided, map[string]any{"id": id, "status": outcome})
	logger.Infof("[APPROVAL] %s %s", id, outcome)
	return a.Clone(), nil
}

// Approval returns a copy of the approval with the given id.
func (m *Manager) Approval(id string) (models.Approval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a := m.approvalIdx[id]
	if a == nil {
		return models.Approval{}, notFoundError()
	}
	return a.Clone(), nil
}

// Approvals returns every approval, newest created first.
func (m *Manager) Approvals() []models.Approval {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Approval, 0, len(m.approvals))
	for i := len(m.approvals) - 1; i >= 0; i-- {
		out = append(out, m.approvals[i].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Summary counts approvals by status.
func (m *Manager) Summary() Counts {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := Counts{Total: len(m.approvals)}
	for _, a := range m.approvals {
		switch a.Status {
		case models.ApprovalPending:
			c.Pending++
		case models.ApprovalApproved:
			c.Approved++
		case models.ApprovalDenied:
			c.Denied++
		}
	}
	return c
}

// WithPending calls fn with the pending approvals in creation order while
// holding the state lock. No mutation, and therefore no event, can interleave
// with fn; the broadcast hub uses this to replay the backlog to a new observer
// before it receives live events.
func (m *Manager) WithPending(fn func(pending []models.Approval)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []models.Approval
	for _, a := range m.approvals {
		if a.IsPending() {
			pending = append(pending, a.Clone())
		}
	}
	fn(pending)
}
