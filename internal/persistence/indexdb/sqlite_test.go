package indexdb

import (
	"path/filepath"
	"testing"

	"thermovox.sim/internal/persistence/snapshot"
	"thermovox.sim/internal/sim/world"
)

func TestSQLiteIndex_MetricsAndSnapshots(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "index.sqlite")

	idx, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for i := 1; i <= 5; i++ {
		m := world.MetricsSnapshot{
			Tick:         uint64(i * 60),
			Chunks:       8,
			ActiveChunks: i,
			StepMS:       0.5,
		}
		m.Counters.HeatTransfers = uint64(i * 100)
		if err := idx.WriteMetrics(m); err != nil {
			t.Fatalf("WriteMetrics: %v", err)
		}
	}
	idx.RecordSnapshot("/data/snap-120.snap.zst", snapshot.SnapshotV1{
		Header: snapshot.Header{Version: 1, Tick: 120},
		Seed:   7,
	})
	idx.RecordSnapshot("/data/snap-300.snap.zst", snapshot.SnapshotV1{
		Header: snapshot.Header{Version: 1, Tick: 300},
		Seed:   7,
	})
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopen and read back.
	idx2, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx2.Close()

	n, err := idx2.MetricsCount()
	if err != nil {
		t.Fatalf("MetricsCount: %v", err)
	}
	if n != 5 {
		t.Fatalf("metrics rows = %d, want 5", n)
	}
	tick, path, ok, err := idx2.LatestSnapshot()
	if err != nil || !ok {
		t.Fatalf("LatestSnapshot: ok=%v err=%v", ok, err)
	}
	if tick != 300 || path != "/data/snap-300.snap.zst" {
		t.Fatalf("latest = (%d, %q)", tick, path)
	}
}

func TestSQLiteIndex_EmptyDB(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()
	_, _, ok, err := idx.LatestSnapshot()
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if ok {
		t.Fatalf("empty index reported a snapshot")
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
