package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/bhandras/agbridge/internal/database"
	"github.com/bhandras/agbridge/internal/events"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestJournal_RecordsAndLists(t *testing.T) {
	db := openDB(t)
	j := New(db, Options{})

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	j.Publish(events.New(events.ApprovalRequested, map[string]string{"id": "appr_1"}, base))
	j.Publish(events.New(events.ApprovalDecided, map[string]string{"id": "appr_1", "status": "approved"}, base.Add(time.Second)))
	j.Publish(events.New(events.MessageNew, map[string]string{"id": "msg_1"}, base.Add(2*time.Second)))
	require.NoError(t, j.Close())

	entries, err := j.List(context.Background(), 0, "")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, events.MessageNew, entries[0].Event)
	require.Equal(t, events.ApprovalRequested, entries[2].Event)
	require.Equal(t, base, entries[2].TS)

	raw, err := json.Marshal(entries[1].Payload)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"appr_1","status":"approved"}`, string(raw))

	decided, err := j.List(context.Background(), 10, events.ApprovalDecided)
	require.NoError(t, err)
	require.Len(t, decided, 1)

	limited, err := j.List(context.Background(), 2, "")
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestJournal_PrunesToNewest(t *testing.T) {
	db := openDB(t)
	j := New(db, Options{Keep: 5, QueueSize: 64})

	for i := 0; i < 12; i++ {
		j.Publish(events.New(events.MessageNew, i, time.UnixMilli(int64(i))))
	}
	require.NoError(t, j.Close())

	entries, err := j.List(context.Background(), 100, "")
	require.NoError(t, err)
	require.Len(t, entries, 5)
	require.Equal(t, "11", fmt.Sprint(string(entries[0].Payload.(json.RawMessage))))
	require.Equal(t, "7", fmt.Sprint(string(entries[4].Payload.(json.RawMessage))))
}

func TestJournal_PublishAfterCloseIsIgnored(t *testing.T) {
	j := New(openDB(t), Options{})
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	j.Publish(events.New(events.Hello, nil, time.Now()))
	entries, err := j.List(context.Background(), 10, "")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestJournal_FullQueueDrops(t *testing.T) {
	j := &Journal{
		db:    nil,
		keep:  DefaultKeep,
		queue: make(chan events.Envelope, 1),
		done:  make(chan struct{}),
	}
	j.Publish(events.New(events.Hello, nil, time.Now()))
	j.Publish(events.New(events.Hello, nil, time.Now()))
	require.Len(t, j.queue, 1)
}
