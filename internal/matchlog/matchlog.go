// Package matchlog persists match events to SQLite. Writes go through a
// buffered channel into a single writer goroutine so the simulation
// thread never touches the database.
package matchlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"run-and-gun/server/internal/sim"
	"run-and-gun/server/internal/telemetry"
)

const droppedMetricKey = "matchlog_dropped_total"

// queueSize absorbs bursty combat without stalling Record.
const queueSize = 4096

// Recorder appends match events to a local SQLite database.
type Recorder struct {
	db      *sql.DB
	metrics telemetry.Metrics

	ch     chan sim.Event
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool
}

// Open creates or opens the database at path and starts the writer.
func Open(path string, metrics telemetry.Metrics) (*Recorder, error) {
	if path == "" {
		return nil, fmt.Errorf("empty match log path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	r := &Recorder{
		db:      db,
		metrics: metrics,
		ch:      make(chan sim.Event, queueSize),
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop()
	}()
	return r, nil
}

func initSchema(db *sql.DB) error {
	// WAL suits the append-only write pattern.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("pragma failed: %w", err)
		}
	}
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS events (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    tick        INTEGER NOT NULL,
    kind        TEXT    NOT NULL,
    actor       INTEGER NOT NULL,
    target      INTEGER NOT NULL,
    amount      INTEGER NOT NULL,
    recorded_at TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);`)
	return err
}

// Record stages one event for persistence. Never blocks; events are
// dropped when the queue is full or the recorder is closed.
func (r *Recorder) Record(ev sim.Event) {
	if r == nil || r.closed.Load() {
		return
	}
	select {
	case r.ch <- ev:
	default:
		if r.metrics != nil {
			r.metrics.Add(droppedMetricKey, 1)
		}
	}
}

// Close flushes queued events and closes the database.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	var err error
	r.once.Do(func() {
		r.closed.Store(true)
		close(r.ch)
		r.wg.Wait()
		err = r.db.Close()
	})
	return err
}

func (r *Recorder) loop() {
	stmt, err := r.db.Prepare(
		"INSERT INTO events (tick, kind, actor, target, amount, recorded_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		for range r.ch {
			// Drain so Record never wedges on a broken recorder.
		}
		return
	}
	defer stmt.Close()

	for ev := range r.ch {
		_, err := stmt.Exec(
			int64(ev.Tick), string(ev.Kind), int64(ev.Actor), int64(ev.Target), int64(ev.Amount),
			time.Now().UTC().Format(time.RFC3339Nano),
		)
		if err != nil && r.metrics != nil {
			r.metrics.Add(droppedMetricKey, 1)
		}
	}
}

// EventsSince returns events at or after the given tick in insertion
// order, up to limit rows. Meant for post-match inspection, not the hot
// path.
func (r *Recorder) EventsSince(ctx context.Context, tick uint32, limit int) ([]sim.Event, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT tick, kind, actor, target, amount FROM events WHERE tick >= ? ORDER BY id LIMIT ?",
		int64(tick), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.Event
	for rows.Next() {
		var (
			evTick, actor, target, amount int64
			kind                          string
		)
		if err := rows.Scan(&evTick, &kind, &actor, &target, &amount); err != nil {
			return nil, err
		}
		out = append(out, sim.Event{
			Tick:   uint32(evTick),
			Kind:   sim.EventKind(kind),
			Actor:  sim.EntityID(actor),
			Target: sim.EntityID(target),
			Amount: int32(amount),
		})
	}
	return out, rows.Err()
}

// CountByKind tallies persisted events per kind.
func (r *Recorder) CountByKind(ctx context.Context) (map[sim.EventKind]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM events GROUP BY kind")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[sim.EventKind]int64)
	for rows.Next() {
		var (
			kind  string
			count int64
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		out[sim.EventKind(kind)] = count
	}
	return out, rows.Err()
}
