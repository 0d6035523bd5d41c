package world

import (
	"math"
	"testing"

	"thermovox.sim/internal/sim/materials"
)

func newTestWorld() *World {
	return New(WorldConfig{ChunksPerAxis: 4})
}

func TestNew_AppliesDefaults(t *testing.T) {
	w := New(WorldConfig{})
	cfg := w.Config()
	if cfg.ChunksPerAxis <= 0 || cfg.CellSize <= 0 || cfg.FixedStepSeconds <= 0 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.HashBuckets&(cfg.HashBuckets-1) != 0 {
		t.Fatalf("hash buckets %d not a power of two", cfg.HashBuckets)
	}
	if cfg.SizeCells() != cfg.ChunksPerAxis*ChunkSize {
		t.Fatalf("size cells = %d", cfg.SizeCells())
	}
}

func TestChunkHash_LookupWithChaining(t *testing.T) {
	// Few buckets force chain collisions; every chunk must still be
	// found by coordinate.
	w := New(WorldConfig{ChunksPerAxis: 4, HashBuckets: 4})
	for cz := 0; cz < 4; cz++ {
		for cy := 0; cy < 4; cy++ {
			for cx := 0; cx < 4; cx++ {
				w.getOrCreateChunk(cx, cy, cz)
			}
		}
	}
	if w.ChunkCount() != 64 {
		t.Fatalf("chunk count = %d, want 64", w.ChunkCount())
	}
	for cz := 0; cz < 4; cz++ {
		for cy := 0; cy < 4; cy++ {
			for cx := 0; cx < 4; cx++ {
				ch := w.Chunk(cx, cy, cz)
				if ch == nil || ch.CX != cx || ch.CY != cy || ch.CZ != cz {
					t.Fatalf("lookup (%d,%d,%d) returned %+v", cx, cy, cz, ch)
				}
			}
		}
	}
	if w.Chunk(9, 9, 9) != nil {
		t.Fatalf("missing chunk must be nil")
	}
}

func TestGetOrCreateChunk_Idempotent(t *testing.T) {
	w := newTestWorld()
	a := w.getOrCreateChunk(1, 1, 1)
	b := w.getOrCreateChunk(1, 1, 1)
	if a != b {
		t.Fatalf("same coordinate must return the same chunk")
	}
	if w.ChunkCount() != 1 {
		t.Fatalf("chunk count = %d, want 1", w.ChunkCount())
	}
}

func TestGetOrCreateChunk_WiresNeighborsBothWays(t *testing.T) {
	w := newTestWorld()
	center := w.getOrCreateChunk(1, 1, 1)
	for d := Direction(0); d < DirCount; d++ {
		off := dirOffsets[d]
		n := w.getOrCreateChunk(1+off[0], 1+off[1], 1+off[2])
		if center.Neighbor(d) != n {
			t.Fatalf("dir %d: center link missing", d)
		}
		if n.Neighbor(d.Opposite()) != center {
			t.Fatalf("dir %d: back link missing", d)
		}
	}
}

func TestMarkCellActive_SingleListEntry(t *testing.T) {
	w := newTestWorld()
	w.MarkCellActive(5, 5, 5)
	w.MarkCellActive(6, 5, 5) // same chunk
	if w.ActiveCount() != 1 {
		t.Fatalf("active count = %d, want 1 (same chunk queued once)", w.ActiveCount())
	}
	w.MarkCellActive(ChunkSize+1, 5, 5) // second chunk
	if w.ActiveCount() != 2 {
		t.Fatalf("active count = %d, want 2", w.ActiveCount())
	}
	w.MarkCellActive(-1, 5, 5)
	w.MarkCellActive(5, w.Config().SizeCells(), 5)
	if w.ActiveCount() != 2 {
		t.Fatalf("out-of-bounds marks must be ignored")
	}
}

func TestSettle_ClearsActiveListAndDirtyRegions(t *testing.T) {
	w := newTestWorld()
	w.AddMaterialAtCell(5, 5, 5, materials.Water, 10)
	w.AddMaterialAtCell(ChunkSize+1, 5, 5, materials.Rock, 10)
	if w.ActiveCount() == 0 {
		t.Fatalf("writes must queue chunks before settling")
	}

	w.Settle()
	if w.ActiveCount() != 0 {
		t.Fatalf("active count = %d after settle, want 0", w.ActiveCount())
	}
	w.ForEachChunk(func(ch *Chunk) {
		if _, _, ok := ch.DirtyRegion(); ok {
			t.Fatalf("chunk (%d,%d,%d) still dirty after settle", ch.CX, ch.CY, ch.CZ)
		}
	})
	if got := w.TotalMoles(materials.Water); got != 10 {
		t.Fatalf("settle must not touch matter, water = %f", got)
	}

	// The list bookkeeping must survive a settle: re-marking requeues.
	w.MarkCellActive(5, 5, 5)
	if w.ActiveCount() != 1 {
		t.Fatalf("active count = %d after re-mark, want 1", w.ActiveCount())
	}
}

func TestCellAt_DoesNotAllocate(t *testing.T) {
	w := newTestWorld()
	if w.CellAt(5, 5, 5) != nil {
		t.Fatalf("read of an unallocated chunk must be nil")
	}
	if w.ChunkCount() != 0 {
		t.Fatalf("CellAt must not allocate chunks")
	}
	if w.CellForWrite(5, 5, 5) == nil {
		t.Fatalf("CellForWrite must allocate")
	}
	if w.CellAt(5, 5, 5) == nil {
		t.Fatalf("cell visible after write-side allocation")
	}
}

func TestWorldToCell_RoundTrip(t *testing.T) {
	w := New(WorldConfig{ChunksPerAxis: 4, CellSize: 2.5})
	coords := [][3]int{
		{0, 0, 0},
		{63, 127, 127},
		{64, 64, 64},
		{127, 0, 3},
	}
	for _, c := range coords {
		wx, wy, wz := w.CellToWorld(c[0], c[1], c[2])
		x, y, z, ok := w.WorldToCell(wx, wy, wz)
		if !ok || x != c[0] || y != c[1] || z != c[2] {
			t.Fatalf("round trip %v -> (%f,%f,%f) -> (%d,%d,%d) ok=%v", c, wx, wy, wz, x, y, z, ok)
		}
	}
	// Cell centers sit half a cell off the grid lines.
	wx, _, _ := w.CellToWorld(64, 0, 0)
	if math.Abs(wx-1.25) > 1e-12 {
		t.Fatalf("center of the first +X cell = %f, want 1.25", wx)
	}
}

func TestWorldToCell_OutsideExtent(t *testing.T) {
	w := New(WorldConfig{ChunksPerAxis: 4, CellSize: 2.5})
	half := float64(w.Config().SizeCells()/2) * 2.5
	if _, _, _, ok := w.WorldToCell(half+1, 0, 0); ok {
		t.Fatalf("position past the +X edge must be out of bounds")
	}
	if _, _, _, ok := w.WorldToCell(0, -half-1, 0); ok {
		t.Fatalf("position below the world must be out of bounds")
	}
}

func TestChecksum_OrderIndependent(t *testing.T) {
	build := func(order [][3]int) *World {
		w := newTestWorld()
		for _, c := range order {
			w.AddMaterialEnergyAtCell(c[0], c[1], c[2], materials.Rock, 10, 1000)
		}
		return w
	}
	cells := [][3]int{{1, 2, 3}, {40, 50, 60}, {100, 10, 70}}
	reversed := [][3]int{cells[2], cells[1], cells[0]}

	a, b := build(cells), build(reversed)
	if a.Checksum() != b.Checksum() {
		t.Fatalf("checksum depends on creation order")
	}
	b.AddMaterialEnergyAtCell(1, 2, 3, materials.Water, 1, 10)
	if a.Checksum() == b.Checksum() {
		t.Fatalf("checksum blind to a material change")
	}
}

func TestStateDigest_DiffersByTick(t *testing.T) {
	w := newTestWorld()
	w.AddMaterialEnergyAtCell(5, 5, 5, materials.Rock, 10, 1000)
	before := w.StateDigest()
	w.StepOnce(StepAll)
	if w.StateDigest() == before {
		t.Fatalf("digest must cover the tick counter")
	}
}
