package water

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
)

// GridSize is the solver resolution per axis, independent of the voxel
// grid.
const GridSize = 160

// Config tunes the pipe model. Zero values take defaults.
type Config struct {
	FlowRate      Fixed   // fraction of head difference moved per edge per step
	EdgeDrainRate Fixed   // fraction of depth drained at the grid boundary
	HeadEpsilon   Fixed   // head differences below this don't flow (anti-jitter)
	MaxDepth      Fixed   // hard per-cell depth cap
	StepSeconds   float64 // fixed timestep
	MaxStepsPerUpdate int // catch-up cap per Update call

	CellSize         float64 // world units per water cell
	OriginX, OriginZ float64 // world position of cell (0, 0)
}

func (c *Config) applyDefaults() {
	if c.FlowRate <= 0 {
		c.FlowRate = FromFloat(0.12)
	}
	if c.EdgeDrainRate <= 0 {
		c.EdgeDrainRate = FromFloat(0.05)
	}
	if c.HeadEpsilon <= 0 {
		c.HeadEpsilon = One / 64
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = FromInt(100)
	}
	if c.StepSeconds <= 0 {
		c.StepSeconds = 1.0 / 60.0
	}
	if c.MaxStepsPerUpdate <= 0 {
		c.MaxStepsPerUpdate = 4
	}
	if c.CellSize <= 0 {
		c.CellSize = 2.5
	}
}

// State is the 2D height-field solver: water depth above a cached
// fixed-point terrain, advanced by a mass-conserving edge-based pipe
// model. The grid is zero-origin; it deliberately does not share the
// voxel grid's centered coordinate system.
type State struct {
	cfg Config

	depth   [GridSize * GridSize]Fixed
	terrain [GridSize * GridSize]Fixed

	// Per-step scratch: proposed transfer across each cell's east and
	// south edge (signed, positive = out of the lower-index cell), the
	// total proposed outflow per cell, and the resulting scale.
	flowE   [GridSize * GridSize]Fixed
	flowS   [GridSize * GridSize]Fixed
	outflow [GridSize * GridSize]Fixed
	scale   [GridSize * GridSize]Fixed

	tick    uint64
	accum   float64
	drained int64 // cumulative boundary drainage, 16.16 units
}

// New caches the terrain as fixed point and returns an empty grid. The
// heightmap must be GridSize*GridSize values in row-major (z*W+x)
// order.
func New(cfg Config, terrain []float64) (*State, error) {
	if len(terrain) != GridSize*GridSize {
		return nil, fmt.Errorf("terrain: want %d heights, got %d", GridSize*GridSize, len(terrain))
	}
	cfg.applyDefaults()
	s := &State{cfg: cfg}
	for i, h := range terrain {
		s.terrain[i] = FromFloat(h)
	}
	return s, nil
}

func (s *State) Config() Config { return s.cfg }
func (s *State) Tick() uint64   { return s.tick }

// Reset clears all depths and accounting; terrain stays.
func (s *State) Reset() {
	for i := range s.depth {
		s.depth[i] = 0
	}
	s.tick = 0
	s.accum = 0
	s.drained = 0
}

func idx(x, z int) int { return z*GridSize + x }

// CellValid reports whether (x, z) is inside the grid.
func CellValid(x, z int) bool {
	return x >= 0 && x < GridSize && z >= 0 && z < GridSize
}

// IsEdge reports whether (x, z) lies on the grid boundary.
func IsEdge(x, z int) bool {
	return x == 0 || z == 0 || x == GridSize-1 || z == GridSize-1
}

// Update accumulates dt and steps at the fixed rate, capped so a long
// frame cannot stall the caller catching up.
func (s *State) Update(dt float64) {
	if dt <= 0 || math.IsNaN(dt) {
		return
	}
	s.accum += dt
	for steps := 0; s.accum >= s.cfg.StepSeconds && steps < s.cfg.MaxStepsPerUpdate; steps++ {
		s.step()
		s.accum -= s.cfg.StepSeconds
	}
	if s.accum >= s.cfg.StepSeconds {
		s.accum = math.Mod(s.accum, s.cfg.StepSeconds)
	}
}

// StepOnce advances exactly one step; tests drive the solver with it.
func (s *State) StepOnce() { s.step() }

// step runs the two-phase pipe model.
//
// Phase 1 visits every internal edge once and computes the proposed
// transfer from the hydraulic-head difference, accumulating each cell's
// total proposed outflow. Phase 2 revisits the edges and applies the
// transfers, scaled per source cell by available/total when the
// proposals oversubscribe the cell. No cell can emit more water than it
// contains; conservation is exact up to fixed-point rounding.
func (s *State) step() {
	s.tick++

	// Phase 1: proposals.
	for z := 0; z < GridSize; z++ {
		for x := 0; x < GridSize; x++ {
			i := idx(x, z)
			s.outflow[i] = 0
		}
	}
	for z := 0; z < GridSize; z++ {
		for x := 0; x < GridSize; x++ {
			i := idx(x, z)
			if x+1 < GridSize {
				f := s.proposeEdge(i, idx(x+1, z))
				s.flowE[i] = f
				s.accumOutflow(i, idx(x+1, z), f)
			} else {
				s.flowE[i] = 0
			}
			if z+1 < GridSize {
				f := s.proposeEdge(i, idx(x, z+1))
				s.flowS[i] = f
				s.accumOutflow(i, idx(x, z+1), f)
			} else {
				s.flowS[i] = 0
			}
		}
	}

	// Per-cell scaling from pre-step depths.
	for i := range s.scale {
		total := s.outflow[i]
		if total > 0 && total > s.depth[i] {
			s.scale[i] = s.depth[i].Div(total)
		} else {
			s.scale[i] = One
		}
	}

	// Phase 2: apply.
	for z := 0; z < GridSize; z++ {
		for x := 0; x < GridSize; x++ {
			i := idx(x, z)
			if x+1 < GridSize {
				s.applyEdge(i, idx(x+1, z), s.flowE[i])
			}
			if z+1 < GridSize {
				s.applyEdge(i, idx(x, z+1), s.flowS[i])
			}
		}
	}

	s.drainBoundary()
}

// proposeEdge returns the signed transfer for one edge: positive moves
// water from the lower-index cell to the higher-index one.
func (s *State) proposeEdge(i, j int) Fixed {
	headI := s.terrain[i] + s.depth[i]
	headJ := s.terrain[j] + s.depth[j]
	diff := headI - headJ
	if diff.Abs() < s.cfg.HeadEpsilon {
		return 0
	}
	return diff.Mul(s.cfg.FlowRate)
}

func (s *State) accumOutflow(i, j int, f Fixed) {
	if f > 0 {
		s.outflow[i] += f
	} else if f < 0 {
		s.outflow[j] += -f
	}
}

func (s *State) applyEdge(i, j int, f Fixed) {
	if f == 0 {
		return
	}
	var t Fixed
	if f > 0 {
		t = f.Mul(s.scale[i])
	} else {
		t = -((-f).Mul(s.scale[j]))
	}
	s.depth[i] -= t
	s.depth[j] += t
	s.clampCell(i)
	s.clampCell(j)
}

// clampCell enforces 0 <= depth <= MaxDepth. Clipped overflow counts
// as drained so the conservation ledger still balances.
func (s *State) clampCell(i int) {
	if s.depth[i] < 0 {
		// Rounding residue only; the outflow scaling already prevents
		// real overdraw.
		s.drained += int64(s.depth[i])
		s.depth[i] = 0
	} else if s.depth[i] > s.cfg.MaxDepth {
		s.drained += int64(s.depth[i] - s.cfg.MaxDepth)
		s.depth[i] = s.cfg.MaxDepth
	}
}

// drainBoundary bleeds water off the four outer edges; without it the
// boundary piles up indefinitely.
func (s *State) drainBoundary() {
	drain := func(i int) {
		d := s.depth[i].Mul(s.cfg.EdgeDrainRate)
		d = fixedMin(d, s.depth[i])
		s.depth[i] -= d
		s.drained += int64(d)
	}
	for x := 0; x < GridSize; x++ {
		drain(idx(x, 0))
		drain(idx(x, GridSize-1))
	}
	for z := 1; z < GridSize-1; z++ {
		drain(idx(0, z))
		drain(idx(GridSize-1, z))
	}
}

// Add deposits water at a cell, up to the depth cap; returns the amount
// actually added.
func (s *State) Add(x, z int, amount Fixed) Fixed {
	if !CellValid(x, z) || amount <= 0 {
		return 0
	}
	i := idx(x, z)
	space := s.cfg.MaxDepth - s.depth[i]
	added := fixedMin(amount, space)
	s.depth[i] += added
	return added
}

// AddAtWorld maps a world-space position onto the grid and adds there.
func (s *State) AddAtWorld(wx, wz float64, amount Fixed) Fixed {
	x := int(math.Floor((wx - s.cfg.OriginX) / s.cfg.CellSize))
	z := int(math.Floor((wz - s.cfg.OriginZ) / s.cfg.CellSize))
	return s.Add(x, z, amount)
}

// Remove takes up to amount from a cell; returns the amount removed.
func (s *State) Remove(x, z int, amount Fixed) Fixed {
	if !CellValid(x, z) || amount <= 0 {
		return 0
	}
	i := idx(x, z)
	removed := fixedMin(amount, s.depth[i])
	s.depth[i] -= removed
	return removed
}

// Depth returns the water depth at a cell (0 outside the grid).
func (s *State) Depth(x, z int) Fixed {
	if !CellValid(x, z) {
		return 0
	}
	return s.depth[idx(x, z)]
}

// Surface returns terrain plus depth.
func (s *State) Surface(x, z int) Fixed {
	if !CellValid(x, z) {
		return 0
	}
	i := idx(x, z)
	return s.terrain[i] + s.depth[i]
}

// Terrain returns the cached fixed-point terrain height.
func (s *State) Terrain(x, z int) Fixed {
	if !CellValid(x, z) {
		return 0
	}
	return s.terrain[idx(x, z)]
}

// TotalWater sums all depths, in 16.16 units.
func (s *State) TotalWater() int64 {
	var total int64
	for i := range s.depth {
		total += int64(s.depth[i])
	}
	return total
}

// DrainedTotal is the cumulative boundary drainage in 16.16 units.
func (s *State) DrainedTotal() int64 { return s.drained }

// Snapshot copies the raw grids and accounting for persistence. Values
// are 16.16 units.
func (s *State) Snapshot() (depth, terrain []int32, tick uint64, drained int64) {
	depth = make([]int32, len(s.depth))
	terrain = make([]int32, len(s.terrain))
	for i := range s.depth {
		depth[i] = int32(s.depth[i])
		terrain[i] = int32(s.terrain[i])
	}
	return depth, terrain, s.tick, s.drained
}

// RestoreSnapshot replaces the grids and accounting with captured
// values. Terrain is replaced too so a restore is bit-exact regardless
// of the configured heightmap.
func (s *State) RestoreSnapshot(depth, terrain []int32, tick uint64, drained int64) error {
	if len(depth) != len(s.depth) || len(terrain) != len(s.terrain) {
		return fmt.Errorf("snapshot: want %d cells, got %d/%d", len(s.depth), len(depth), len(terrain))
	}
	for i := range depth {
		s.depth[i] = Fixed(depth[i])
		s.terrain[i] = Fixed(terrain[i])
	}
	s.tick = tick
	s.drained = drained
	s.accum = 0
	return nil
}

// Checksum is a CRC-32 (IEEE) over the depth grid and tick, for
// deterministic lockstep comparison across peers.
func (s *State) Checksum() uint32 {
	h := crc32.NewIEEE()
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(s.tick))
	h.Write(buf[:])
	for i := range s.depth {
		binary.LittleEndian.PutUint32(buf[:], uint32(s.depth[i]))
		h.Write(buf[:])
	}
	return h.Sum32()
}
