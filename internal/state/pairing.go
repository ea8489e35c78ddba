package state

import (
	"crypto/subtle"
	"fmt"

	"github.com/bhandras/agbridge/internal/crypto"
	"github.com/bhandras/agbridge/internal/logger"
	"github.com/bhandras/agbridge/internal/metrics"
)

// PairingCode returns the code a device must present to obtain a token. It
// does not change for the lifetime of the process.
func (m *Manager) PairingCode() string {
	return m.pairingCode
}

// ClaimPairing exchanges a pairing code for a new bearer token.
func (m *Manager) ClaimPairing(code string) (string, error) {
	if code == "" || subtle.ConstantTimeCompare([]byte(code), []byte(m.pairingCode)) != 1 {
		metrics.AuthFailures.WithLabelValues("pair").Inc()
		logger.Warnf("[AUTH] Rejected pairing attempt")
		return "", &Error{Kind: KindAuth, Code: CodeInvalidCode}
	}

	token, err := crypto.NewToken()
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.addTokenLocked(token)
	m.persister.Schedule()
	logger.Infof("[AUTH] New device paired (%d tokens)", len(m.tokenOrder))
	return token, nil
}

// Authenticate reports whether token was issued by this bridge.
func (m *Manager) Authenticate(token string) bool {
	if token == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tokens[token]
	return ok
}

func (m *Manager) addTokenLocked(token string) {
	if token == "" {
		return
	}
	if _, ok := m.tokens[token]; ok {
		return
	}
	m.tokens[token] = struct{}{}
	m.tokenOrder = append(m.tokenOrder, token)
}
