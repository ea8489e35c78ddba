package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Checkpoint is a client-defined progress marker. Only the envelope (ID, TS)
// has a fixed shape; everything else is carried verbatim in Fields.
type Checkpoint struct {
	ID     string
	TS     time.Time
	Fields map[string]any
}

// MarshalJSON flattens Fields next to the envelope keys.
func (c Checkpoint) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Fields)+2)
	for k, v := range c.Fields {
		out[k] = v
	}
	out["id"] = c.ID
	out["ts"] = c.TS
	return json.Marshal(out)
}

// UnmarshalJSON splits the envelope keys from the free-form fields.
func (c *Checkpoint) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out Checkpoint
	if v, ok := raw["id"]; ok {
		if err := json.Unmarshal(v, &out.ID); err != nil {
			return fmt.Errorf("checkpoint id: %w", err)
		}
	}
	if v, ok := raw["ts"]; ok {
		if err := json.Unmarshal(v, &out.TS); err != nil {
			return fmt.Errorf("checkpoint ts: %w", err)
		}
	}
	delete(raw, "id")
	delete(raw, "ts")

	out.Fields = make(map[string]any, len(raw))
	for k, v := range raw {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("checkpoint field %q: %w", k, err)
		}
		out.Fields[k] = val
	}
	*c = out
	return nil
}

// Clone returns a copy with its own top-level Fields map.
func (c Checkpoint) Clone() Checkpoint {
	c.Fields = maps.Clone(c.Fields)
	return c
}
