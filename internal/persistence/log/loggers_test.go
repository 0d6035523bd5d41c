package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"thermovox.sim/internal/sim/world"
)

func TestMetricsLogger_WritesReadableJSONL(t *testing.T) {
	dir := t.TempDir()
	l := NewMetricsLogger(dir)

	for i := 0; i < 3; i++ {
		err := l.WriteMetrics(world.MetricsSnapshot{
			Tick:         uint64(i * 60),
			Chunks:       4,
			ActiveChunks: i,
		})
		if err != nil {
			t.Fatalf("WriteMetrics: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "metrics", "*.jsonl.zst"))
	if err != nil || len(files) != 1 {
		t.Fatalf("expected one log file, got %v (%v)", files, err)
	}

	f, err := os.Open(files[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	lines := 0
	for sc.Scan() {
		var m world.MetricsSnapshot
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line %d: %v", lines, err)
		}
		if m.Tick != uint64(lines*60) {
			t.Fatalf("line %d: tick %d", lines, m.Tick)
		}
		lines++
	}
	if lines != 3 {
		t.Fatalf("read %d lines, want 3", lines)
	}
}
