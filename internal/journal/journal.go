// Package journal records published events to SQLite as an operator audit
// trail. Writes happen on a background goroutine; the publish path never
// waits on the database.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bhandras/agbridge/internal/database"
	"github.com/bhandras/agbridge/internal/events"
	"github.com/bhandras/agbridge/internal/logger"
	"github.com/bhandras/agbridge/internal/metrics"
	"github.com/bhandras/agbridge/pkg/types"
)

const (
	DefaultQueueSize = 256
	DefaultKeep      = 2000
	DefaultLimit     = 100
	MaxLimit         = 1000

	pruneEvery = 100
)

// Options tunes a Journal. Zero values take the defaults.
type Options struct {
	QueueSize int
	Keep      int
}

// Journal is an events.Publisher that appends every event to the events
// table, keeping only the newest Keep rows.
type Journal struct {
	db   *database.DB
	keep int

	mu     sync.RWMutex
	queue  chan events.Envelope
	closed bool
	done   chan struct{}
}

// New starts a journal writing to db. The caller keeps ownership of db and
// must Close the journal before closing it.
func New(db *database.DB, opts Options) *Journal {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Keep <= 0 {
		opts.Keep = DefaultKeep
	}
	j := &Journal{
		db:    db,
		keep:  opts.Keep,
		queue: make(chan events.Envelope, opts.QueueSize),
		done:  make(chan struct{}),
	}
	go j.loop()
	return j
}

// Publish implements events.Publisher. Events arriving while the queue is
// full are dropped with a warning.
func (j *Journal) Publish(e events.Envelope) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return
	}
	select {
	case j.queue <- e:
	default:
		metrics.JournalDropped.Inc()
		logger.Warnf("[JOURNAL] Queue full; dropping %s event", e.Event)
	}
}

// Close drains queued events, prunes, and stops the writer.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		<-j.done
		return nil
	}
	j.closed = true
	close(j.queue)
	j.mu.Unlock()

	<-j.done
	return nil
}

func (j *Journal) loop() {
	defer close(j.done)

	ctx := context.Background()
	inserted := 0
	for e := range j.queue {
		if err := j.insert(ctx, e); err != nil {
			logger.Errorf("[JOURNAL] Failed to record %s: %v", e.Event, err)
			continue
		}
		inserted++
		if inserted%pruneEvery == 0 {
			j.prune(ctx)
		}
	}
	j.prune(ctx)
}

func (j *Journal) insert(ctx context.Context, e events.Envelope) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = j.db.ExecContext(ctx,
		`INSERT INTO events (event, payload, ts) VALUES (?, ?, ?)`,
		e.Event, string(payload), e.TS.UnixMilli(),
	)
	return err
}

func (j *Journal) prune(ctx context.Context) {
	_, err := j.db.ExecContext(ctx, `
		DELETE FROM events WHERE id <= (
			SELECT id FROM events ORDER BY id DESC LIMIT 1 OFFSET ?
		)`, j.keep)
	if err != nil {
		logger.Warnf("[JOURNAL] Prune failed: %v", err)
	}
}

// List returns up to limit entries, newest first, optionally restricted to
// one event name.
func (j *Journal) List(ctx context.Context, limit int, event string) ([]types.AuditEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	query := `SELECT id, event, payload, ts FROM events`
	args := []any{}
	if event != "" {
		query += ` WHERE event = ?`
		args = append(args, event)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []types.AuditEntry{}
	for rows.Next() {
		var (
			entry   types.AuditEntry
			payload string
			ts      int64
		)
		if err := rows.Scan(&entry.ID, &entry.Event, &payload, &ts); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		entry.Payload = json.RawMessage(payload)
		entry.TS = time.UnixMilli(ts).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}
