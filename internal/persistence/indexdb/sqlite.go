// Package indexdb keeps a secondary SQLite index of snapshots and
// stepper metrics. Writes go through a buffered single-writer
// goroutine so the sim loop never blocks on disk; the JSONL logs
// remain the source of truth.
package indexdb

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

	"thermovox.sim/internal/persistence/snapshot"
	"thermovox.sim/internal/sim/world"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqMetrics reqKind = iota + 1
	reqSnapshot
)

type req struct {
	kind reqKind

	metrics  world.MetricsSnapshot
	snapshot snapshotRow
}

type snapshotRow struct {
	Tick       uint64
	Path       string
	Seed       int64
	Chunks     int
	RecordedAt string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
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

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Buffer absorbs metric bursts without stalling the sim loop.
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS metrics (
			tick INTEGER PRIMARY KEY,
			chunks INTEGER NOT NULL,
			active_chunks INTEGER NOT NULL,
			stable_chunks INTEGER NOT NULL,
			heat_transfers INTEGER NOT NULL,
			mass_transfers INTEGER NOT NULL,
			phase_transitions INTEGER NOT NULL,
			combustion_events INTEGER NOT NULL,
			step_ms REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			seed INTEGER NOT NULL,
			chunks INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	_, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`)
	return err
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteMetrics queues one metrics row; drops it if the indexer is
// behind.
func (s *SQLiteIndex) WriteMetrics(m world.MetricsSnapshot) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqMetrics, metrics: m}:
	default:
	}
	return nil
}

// RecordSnapshot queues an index row for a snapshot file already
// written to disk.
func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:       snap.Header.Tick,
		Path:       path,
		Seed:       snap.Seed,
		Chunks:     len(snap.Chunks),
		RecordedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
	}
}

// LatestSnapshot reads back the newest indexed snapshot row.
func (s *SQLiteIndex) LatestSnapshot() (tick uint64, path string, ok bool, err error) {
	row := s.db.QueryRow(`SELECT tick, path FROM snapshots ORDER BY tick DESC LIMIT 1`)
	var t int64
	if err := row.Scan(&t, &path); err != nil {
		if err == sql.ErrNoRows {
			return 0, "", false, nil
		}
		return 0, "", false, err
	}
	return uint64(t), path, true, nil
}

// MetricsCount reports how many metrics rows landed; tests use it
// after Close has drained the queue.
func (s *SQLiteIndex) MetricsCount() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM metrics`).Scan(&n)
	return n, err
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertMetrics, _ := s.db.Prepare(`INSERT OR REPLACE INTO metrics(tick,chunks,active_chunks,stable_chunks,heat_transfers,mass_transfers,phase_transitions,combustion_events,step_ms) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,path,seed,chunks,recorded_at) VALUES(?,?,?,?,?)`)
	defer func() {
		if insertMetrics != nil {
			_ = insertMetrics.Close()
		}
		if insertSnapshot != nil {
			_ = insertSnapshot.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqMetrics:
			m := r.metrics
			if insertMetrics != nil {
				if _, err := tx.Stmt(insertMetrics).Exec(
					int64(m.Tick),
					m.Chunks,
					m.ActiveChunks,
					m.StableChunks,
					int64(m.Counters.HeatTransfers),
					int64(m.Counters.MassTransfers),
					int64(m.Counters.PhaseTransitions),
					int64(m.Counters.CombustionEvents),
					m.StepMS,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(
					int64(sn.Tick),
					sn.Path,
					sn.Seed,
					sn.Chunks,
					sn.RecordedAt,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}
