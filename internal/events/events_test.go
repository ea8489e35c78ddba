package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type collector struct {
	got []Envelope
}

func (c *collector) Publish(e Envelope) { c.got = append(c.got, e) }

func TestFanoutDeliversToAll(t *testing.T) {
	a, b := &collector{}, &collector{}
	f := Fanout{a, nil, b}

	f.Publish(New(MessageAck, map[string]string{"id": "msg_1"}, time.UnixMilli(42)))

	require.Len(t, a.got, 1)
	require.Len(t, b.got, 1)
	require.Equal(t, int64(42), b.got[0].TS.UnixMilli())
}

func TestEnvelopeWireShape(t *testing.T) {
	raw, err := json.Marshal(New(ConfigChanged, map[string]bool{"strictMode": false}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
	require.NoError(t, err)
	require.JSONEq(t, `{"event":"config_changed","payload":{"strictMode":false},"ts":"2026-01-02T03:04:05Z"}`, string(raw))
}
