package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bhandras/agbridge/internal/clock"
	"github.com/bhandras/agbridge/internal/models"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func TestFileStore_MissingFileCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	fs := NewFileStore(path, clock.NewFake(epoch))

	res, err := fs.Load(Default(true))
	require.NoError(t, err)
	require.Equal(t, CreatedFresh, res.Status)
	require.True(t, res.Snapshot.StrictMode)
	require.Empty(t, res.Snapshot.Approvals)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	require.Equal(t, true, onDisk["strictMode"])
	require.Equal(t, []any{}, onDisk["tokens"])
}

func TestFileStore_RoundTripKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	fs := NewFileStore(path, clock.NewFake(epoch))

	snap := Default(false)
	snap.Tokens = []string{"abc"}
	snap.Approvals = []models.Approval{{
		ID: "appr_1", CreatedAt: epoch, Kind: "command",
		Details: map[string]any{"cmd": "ls"}, Status: models.ApprovalPending,
	}}
	snap.Checkpoints = []models.Checkpoint{{ID: "cp_1", TS: epoch, Fields: map[string]any{"step": "lint"}}}
	require.NoError(t, fs.Save(snap))

	res, err := fs.Load(Default(true))
	require.NoError(t, err)
	require.Equal(t, LoadedExisting, res.Status)
	require.False(t, res.Snapshot.StrictMode)
	require.Equal(t, []string{"abc"}, res.Snapshot.Tokens)
	require.Len(t, res.Snapshot.Approvals, 1)
	require.Equal(t, "ls", res.Snapshot.Approvals[0].Command())
	require.Equal(t, "lint", res.Snapshot.Checkpoints[0].Fields["step"])

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_PartialDocumentFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tokens":["t1"],"messages":"oops"}`), 0o600))

	res, err := NewFileStore(path, clock.NewFake(epoch)).Load(Default(true))
	require.NoError(t, err)
	require.Equal(t, LoadedExisting, res.Status)
	require.Equal(t, []string{"t1"}, res.Snapshot.Tokens)
	require.Empty(t, res.Snapshot.Messages)
	require.True(t, res.Snapshot.StrictMode)
	require.Equal(t, models.AgentIdle, res.Snapshot.Agent.State)
}

func TestFileStore_CorruptFileIsQuarantined(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	res, err := NewFileStore(path, clock.NewFake(epoch)).Load(Default(true))
	require.NoError(t, err)
	require.Equal(t, Quarantined, res.Status)
	require.True(t, strings.HasPrefix(filepath.Base(res.QuarantinedTo), "state.json.bad."))

	_, err = os.Stat(res.QuarantinedTo)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

type recordingSaver struct {
	mu    sync.Mutex
	saves []Snapshot
	err   error
}

func (r *recordingSaver) Save(s Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, s)
	return r.err
}

func (r *recordingSaver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func TestFlusher_CoalescesBursts(t *testing.T) {
	clk := clock.NewFake(epoch)
	saver := &recordingSaver{}
	n := 0
	f := NewFlusher(saver, func() Snapshot {
		s := Default(true)
		s.Tokens = []string{strings.Repeat("x", n)}
		return s
	}, DefaultFlushDelay, clk)

	for i := 0; i < 10; i++ {
		n++
		f.Schedule()
		clk.Advance(100 * time.Millisecond)
	}
	require.Zero(t, saver.count())

	clk.Advance(DefaultFlushDelay)
	require.Equal(t, 1, saver.count())
	require.Equal(t, strings.Repeat("x", 10), saver.saves[0].Tokens[0])
	require.False(t, f.Pending())

	clk.Advance(time.Second)
	require.Equal(t, 1, saver.count())
}

func TestFlusher_FlushWritesPendingOnly(t *testing.T) {
	clk := clock.NewFake(epoch)
	saver := &recordingSaver{}
	f := NewFlusher(saver, func() Snapshot { return Default(true) }, 0, clk)

	require.NoError(t, f.Flush())
	require.Zero(t, saver.count())

	f.Schedule()
	require.NoError(t, f.Flush())
	require.Equal(t, 1, saver.count())

	// The stopped timer must not write again.
	clk.Advance(time.Second)
	require.Equal(t, 1, saver.count())
}

func TestFlusher_CloseFlushesAndStopsScheduling(t *testing.T) {
	clk := clock.NewFake(epoch)
	saver := &recordingSaver{}
	f := NewFlusher(saver, func() Snapshot { return Default(true) }, 0, clk)

	f.Schedule()
	require.NoError(t, f.Close())
	require.Equal(t, 1, saver.count())

	f.Schedule()
	clk.Advance(time.Second)
	require.Equal(t, 1, saver.count())
	require.Zero(t, clk.PendingCount())
}

func TestFlusher_SaveErrorIsReported(t *testing.T) {
	saver := &recordingSaver{err: errors.New("disk full")}
	f := NewFlusher(saver, func() Snapshot { return Default(true) }, 0, clock.NewFake(epoch))

	f.Schedule()
	require.EqualError(t, f.Flush(), "disk full")
}
