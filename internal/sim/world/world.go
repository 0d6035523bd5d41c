package world

import "math"

// Spatial-hash primes (coordinate triple -> bucket). The bucket count
// is a power of two so the mix is masked, not modded.
const (
	hashP1 = 73856093
	hashP2 = 19349663
	hashP3 = 83492791
)

// World owns every chunk. Chunks live in a chained-bucket spatial hash
// and, while they have pending work, in the active list consumed by the
// stepper. All access is single-threaded: tool calls and stepping share
// the world loop goroutine.
type World struct {
	cfg WorldConfig

	buckets    []*Chunk
	bucketMask int
	chunkCount int

	// Chunks awaiting a stepper pass. Invariant: active[i].activeIdx == i,
	// each chunk appears at most once, absent chunks have activeIdx == -1.
	active  []*Chunk
	scratch []*Chunk // per-step snapshot of the active list

	tick  uint64
	accum float64
	flags StepFlags

	counters Counters
}

// New creates an empty world. The zero-value config is usable; missing
// fields are defaulted.
func New(cfg WorldConfig) *World {
	cfg.applyDefaults()
	return &World{
		cfg:        cfg,
		buckets:    make([]*Chunk, cfg.HashBuckets),
		bucketMask: cfg.HashBuckets - 1,
		active:     make([]*Chunk, 0, cfg.ActiveListCap),
		flags:      StepAll,
	}
}

func (w *World) Config() WorldConfig { return w.cfg }
func (w *World) Tick() uint64        { return w.tick }

// SetTick overrides the tick counter; snapshot restore uses it so a
// resumed world continues the original timeline.
func (w *World) SetTick(t uint64) { w.tick = t }
func (w *World) ChunkCount() int     { return w.chunkCount }
func (w *World) ActiveCount() int    { return len(w.active) }

func (w *World) bucketFor(cx, cy, cz int) int {
	h := cx*hashP1 ^ cy*hashP2 ^ cz*hashP3
	return h & w.bucketMask
}

// Chunk looks up an existing chunk; nil on miss.
func (w *World) Chunk(cx, cy, cz int) *Chunk {
	for ch := w.buckets[w.bucketFor(cx, cy, cz)]; ch != nil; ch = ch.next {
		if ch.CX == cx && ch.CY == cy && ch.CZ == cz {
			return ch
		}
	}
	return nil
}

// getOrCreateChunk allocates on miss and wires the six neighbor links
// in both directions.
func (w *World) getOrCreateChunk(cx, cy, cz int) *Chunk {
	if ch := w.Chunk(cx, cy, cz); ch != nil {
		return ch
	}
	ch := newChunk(cx, cy, cz)
	b := w.bucketFor(cx, cy, cz)
	ch.next = w.buckets[b]
	w.buckets[b] = ch
	w.chunkCount++

	for d := Direction(0); d < DirCount; d++ {
		off := dirOffsets[d]
		if n := w.Chunk(cx+off[0], cy+off[1], cz+off[2]); n != nil {
			ch.neighbors[d] = n
			n.neighbors[d.Opposite()] = ch
		}
	}
	return ch
}

// InBounds reports whether a cell coordinate is inside the world extent.
func (w *World) InBounds(x, y, z int) bool {
	size := w.cfg.SizeCells()
	return x >= 0 && x < size && y >= 0 && y < size && z >= 0 && z < size
}

// CellAt returns the cell at world-cell coordinates without creating
// its chunk; nil when out of bounds or the chunk does not exist.
func (w *World) CellAt(x, y, z int) *Cell {
	if !w.InBounds(x, y, z) {
		return nil
	}
	ch := w.Chunk(x>>ChunkShift, y>>ChunkShift, z>>ChunkShift)
	if ch == nil {
		return nil
	}
	return ch.Cell(x&ChunkMask, y&ChunkMask, z&ChunkMask)
}

// CellForWrite is CellAt with get-or-create chunk semantics.
func (w *World) CellForWrite(x, y, z int) *Cell {
	if !w.InBounds(x, y, z) {
		return nil
	}
	ch := w.getOrCreateChunk(x>>ChunkShift, y>>ChunkShift, z>>ChunkShift)
	return ch.Cell(x&ChunkMask, y&ChunkMask, z&ChunkMask)
}

// MarkCellActive dirties the local cell and queues its chunk for the
// next stepper pass. The back-index makes the membership check O(1).
func (w *World) MarkCellActive(x, y, z int) {
	if !w.InBounds(x, y, z) {
		return
	}
	ch := w.getOrCreateChunk(x>>ChunkShift, y>>ChunkShift, z>>ChunkShift)
	ch.MarkDirty(x&ChunkMask, y&ChunkMask, z&ChunkMask)
	w.pushActive(ch)
}

func (w *World) pushActive(ch *Chunk) {
	if ch.activeIdx >= 0 {
		return
	}
	ch.activeIdx = len(w.active)
	w.active = append(w.active, ch)
}

// WorldToCell maps world-space floats to cell coordinates: floor by the
// cell size, then shift so the world origin sits mid-grid horizontally
// and at the configured ground offset vertically.
func (w *World) WorldToCell(wx, wy, wz float64) (x, y, z int, ok bool) {
	half := w.cfg.SizeCells() / 2
	x = int(math.Floor(wx/w.cfg.CellSize)) + half
	y = int(math.Floor(wy/w.cfg.CellSize)) + w.cfg.GroundYCells
	z = int(math.Floor(wz/w.cfg.CellSize)) + half
	return x, y, z, w.InBounds(x, y, z)
}

// CellToWorld maps a cell coordinate to the world-space center of that
// cell.
func (w *World) CellToWorld(x, y, z int) (wx, wy, wz float64) {
	half := w.cfg.SizeCells() / 2
	wx = (float64(x-half) + 0.5) * w.cfg.CellSize
	wy = (float64(y-w.cfg.GroundYCells) + 0.5) * w.cfg.CellSize
	wz = (float64(z-half) + 0.5) * w.cfg.CellSize
	return wx, wy, wz
}

// Settle discards all pending work: every dirty region and the whole
// active list. Terrain seeding and snapshot restore call it so loaded
// state does not burn a first frame re-deriving equilibrium.
func (w *World) Settle() {
	for _, ch := range w.active {
		ch.active = false
		ch.activeIdx = -1
	}
	w.active = w.active[:0]
	w.ForEachChunk(func(ch *Chunk) { ch.clearDirty() })
}

// ForEachChunk visits every allocated chunk in bucket order.
func (w *World) ForEachChunk(fn func(*Chunk)) {
	for _, head := range w.buckets {
		for ch := head; ch != nil; ch = ch.next {
			fn(ch)
		}
	}
}
