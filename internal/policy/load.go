package policy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bhandras/agbridge/internal/logger"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Load reads and compiles the policy file at path. The format follows the
// extension: .yaml/.yml, .toml, anything else is JSON with comments allowed.
//
// A missing file yields an empty policy. A file that exists but does not
// parse, or holds an invalid pattern, is an error.
func Load(path string) (*Gate, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warnf("[POLICY] %s not found. Using empty policy.", path)
		return NewGate(Policy{})
	}
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	p, err := Parse(filepath.Ext(path), raw)
	if err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}

	gate, err := NewGate(p)
	if err != nil {
		return nil, fmt.Errorf("compile policy file %s: %w", path, err)
	}
	deny, allow := gate.Counts()
	logger.Infof("[POLICY] Loaded %s (%d deny, %d allow)", path, deny, allow)
	return gate, nil
}

// Parse decodes a policy document in the format named by ext.
func Parse(ext string, raw []byte) (Policy, error) {
	var p Policy
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &p); err != nil {
			return Policy{}, err
		}
	case ".toml":
		if err := toml.Unmarshal(raw, &p); err != nil {
			return Policy{}, err
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(raw), &p); err != nil {
			return Policy{}, err
		}
	}
	return p, nil
}
