package world

// Chunk geometry. ChunkSize is a power of two by contract: cell->chunk
// decomposition is shifts and masks only.
const (
	ChunkShift  = 5
	ChunkSize   = 1 << ChunkShift // 32
	ChunkMask   = ChunkSize - 1
	ChunkVolume = ChunkSize * ChunkSize * ChunkSize
)

// Direction indexes the six axis-aligned neighbors.
type Direction uint8

const (
	DirXNeg Direction = iota
	DirXPos
	DirYNeg
	DirYPos
	DirZNeg
	DirZPos
	DirCount
)

// dirOffsets[d] is the unit step for direction d in (dx, dy, dz).
var dirOffsets = [DirCount][3]int{
	DirXNeg: {-1, 0, 0},
	DirXPos: {+1, 0, 0},
	DirYNeg: {0, -1, 0},
	DirYPos: {0, +1, 0},
	DirZNeg: {0, 0, -1},
	DirZPos: {0, 0, +1},
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction { return d ^ 1 }

// Chunk is a dense 32^3 block of cells. Neighbor links are non-owning
// back-references maintained by the world on chunk creation; chunks are
// only freed at world teardown, so the links are stable for the
// lifetime of any stepper snapshot.
type Chunk struct {
	CX, CY, CZ int

	cells     [ChunkVolume]Cell
	neighbors [DirCount]*Chunk

	// Dirty region in local cell coordinates; empty iff min > max.
	dirtyMin [3]int
	dirtyMax [3]int

	active    bool
	stable    bool
	stability int
	activeIdx int // index into the world's active list, -1 if absent

	next *Chunk // bucket chain in the world's chunk hash
}

func newChunk(cx, cy, cz int) *Chunk {
	c := &Chunk{CX: cx, CY: cy, CZ: cz, activeIdx: -1}
	c.clearDirty()
	return c
}

func cellIndex(x, y, z int) int {
	return (z << (2 * ChunkShift)) | (y << ChunkShift) | x
}

// Cell returns the cell at local coordinates; no bounds check, callers
// stay within 0..31 by construction.
func (c *Chunk) Cell(x, y, z int) *Cell {
	return &c.cells[cellIndex(x, y, z)]
}

// CellConst is the read-only variant of Cell.
func (c *Chunk) CellConst(x, y, z int) *Cell {
	return &c.cells[cellIndex(x, y, z)]
}

// NeighborCell resolves the cell one step in dir from local (x, y, z).
// Inside the chunk this is a direct index; across a face it follows the
// cached neighbor link and wraps the local coordinate (31 -> 0 or
// 0 -> 31). Returns nil when the neighbor chunk does not exist.
func (c *Chunk) NeighborCell(x, y, z int, dir Direction) *Cell {
	off := dirOffsets[dir]
	nx, ny, nz := x+off[0], y+off[1], z+off[2]
	if nx >= 0 && nx < ChunkSize && ny >= 0 && ny < ChunkSize && nz >= 0 && nz < ChunkSize {
		return &c.cells[cellIndex(nx, ny, nz)]
	}
	n := c.neighbors[dir]
	if n == nil {
		return nil
	}
	return &n.cells[cellIndex(nx&ChunkMask, ny&ChunkMask, nz&ChunkMask)]
}

// Neighbor returns the cached adjacent chunk (may be nil).
func (c *Chunk) Neighbor(dir Direction) *Chunk { return c.neighbors[dir] }

// MarkDirty grows the dirty region to include the local cell and wakes
// the chunk: stability progress is discarded.
func (c *Chunk) MarkDirty(x, y, z int) {
	if c.dirtyEmpty() {
		c.dirtyMin = [3]int{x, y, z}
		c.dirtyMax = [3]int{x, y, z}
	} else {
		if x < c.dirtyMin[0] {
			c.dirtyMin[0] = x
		}
		if y < c.dirtyMin[1] {
			c.dirtyMin[1] = y
		}
		if z < c.dirtyMin[2] {
			c.dirtyMin[2] = z
		}
		if x > c.dirtyMax[0] {
			c.dirtyMax[0] = x
		}
		if y > c.dirtyMax[1] {
			c.dirtyMax[1] = y
		}
		if z > c.dirtyMax[2] {
			c.dirtyMax[2] = z
		}
	}
	c.active = true
	c.stable = false
	c.stability = 0
}

func (c *Chunk) dirtyEmpty() bool {
	return c.dirtyMin[0] > c.dirtyMax[0]
}

func (c *Chunk) clearDirty() {
	c.dirtyMin = [3]int{ChunkSize, ChunkSize, ChunkSize}
	c.dirtyMax = [3]int{-1, -1, -1}
}

// ResetDirty empties the dirty region; active/stable bookkeeping is the
// world's to manage.
func (c *Chunk) ResetDirty() { c.clearDirty() }

// DirtyRegion reports the dirty AABB; ok is false when empty.
func (c *Chunk) DirtyRegion() (min, max [3]int, ok bool) {
	if c.dirtyEmpty() {
		return min, max, false
	}
	return c.dirtyMin, c.dirtyMax, true
}

// processRegion is the dirty region expanded by one cell in every
// direction, clamped to chunk bounds, so neighbor interactions are
// computed even when only one side was dirty.
func (c *Chunk) processRegion() (min, max [3]int, ok bool) {
	if c.dirtyEmpty() {
		return min, max, false
	}
	for i := 0; i < 3; i++ {
		min[i] = c.dirtyMin[i] - 1
		if min[i] < 0 {
			min[i] = 0
		}
		max[i] = c.dirtyMax[i] + 1
		if max[i] > ChunkMask {
			max[i] = ChunkMask
		}
	}
	return min, max, true
}

// CheckEquilibrium advances the stability counter after a quiet frame;
// crossing the threshold marks the chunk stable so physics skips it.
func (c *Chunk) CheckEquilibrium(threshold int) {
	if c.active {
		return
	}
	c.stability++
	if c.stability >= threshold {
		c.stable = true
	}
}

func (c *Chunk) IsActive() bool { return c.active }
func (c *Chunk) IsStable() bool { return c.stable }

// StabilityFrames exposes the quiet-frame counter for tests.
func (c *Chunk) StabilityFrames() int { return c.stability }
