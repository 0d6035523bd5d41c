package world

import (
	"math"
	"time"

	"thermovox.sim/internal/sim/materials"
)

// StepFlags selects which passes an internal step runs. Tests use
// subsets; the convenience entry point runs everything.
type StepFlags uint32

const (
	StepEquilibrate StepFlags = 1 << iota
	StepConduction
	StepLiquidFlow
	StepGasDiffusion
	StepPhaseChange
	StepCombustion

	StepHeat   = StepEquilibrate | StepConduction | StepPhaseChange
	StepMatter = StepLiquidFlow | StepGasDiffusion
	StepAll    = StepHeat | StepMatter | StepCombustion
)

const (
	// TempEpsilonK: temperature differences below this are noise, not
	// gradients; equilibration and conduction skip them.
	TempEpsilonK = 0.1
	// transferEpsilonJ: transfers below this do not wake cells.
	transferEpsilonJ = 1e-9
)

// PhysicsStep accumulates wall-clock delta and runs as many fixed
// internal steps as the accumulator covers, capped so a stalled caller
// cannot wedge the loop. Non-positive or NaN dt is a no-op.
func (w *World) PhysicsStep(dt float64) {
	w.PhysicsStepFlags(dt, StepAll)
}

// PhysicsStepFlags is PhysicsStep restricted to the given pass subset.
func (w *World) PhysicsStepFlags(dt float64, flags StepFlags) {
	if dt <= 0 || math.IsNaN(dt) {
		return
	}
	w.accum += dt
	fixed := w.cfg.FixedStepSeconds
	for steps := 0; w.accum >= fixed && steps < w.cfg.MaxStepsPerUpdate; steps++ {
		w.step(fixed, flags)
		w.accum -= fixed
	}
	// Drop any backlog beyond the cap: better to slow down than stall.
	if w.accum >= fixed {
		w.accum = math.Mod(w.accum, fixed)
	}
}

// StepOnce advances exactly one fixed step regardless of the
// accumulator. Tests drive the world with this.
func (w *World) StepOnce(flags StepFlags) {
	w.step(w.cfg.FixedStepSeconds, flags)
}

func (w *World) step(dt float64, flags StepFlags) {
	start := time.Now()
	w.tick++
	w.counters.Steps++

	// Snapshot the active list and clear it. Cells marked active during
	// this step re-enter the fresh list for the next tick; the in-flight
	// snapshot is never mutated.
	snap := w.snapshotActive()

	for _, ch := range snap {
		if ch.stable {
			continue
		}
		min, max, ok := ch.processRegion()
		if !ok {
			continue
		}
		w.counters.ChunksProcessed++

		if flags&StepEquilibrate != 0 {
			w.equilibratePass(ch, min, max, dt)
		}
		if flags&StepConduction != 0 {
			w.conductionPass(ch, min, max, dt)
		}
		if flags&StepLiquidFlow != 0 {
			w.liquidFlowPass(ch, min, max, dt)
		}
		if flags&StepGasDiffusion != 0 {
			w.gasDiffusionPass(ch, min, max, dt)
		}
		if flags&(StepPhaseChange|StepCombustion) != 0 {
			w.reactionSweep(ch, min, max, dt, flags)
		}
	}

	for _, ch := range snap {
		ch.CheckEquilibrium(w.cfg.EquilibriumFrames)
		if !ch.active {
			// Quiet frame: the region produced nothing, stop reprocessing
			// it. An active chunk keeps its region so the same cells run
			// again next tick.
			ch.ResetDirty()
		}
	}

	w.counters.StepNanos += time.Since(start).Nanoseconds()
}

func (w *World) snapshotActive() []*Chunk {
	w.scratch = append(w.scratch[:0], w.active...)
	for _, ch := range w.scratch {
		ch.active = false
		ch.activeIdx = -1
	}
	w.active = w.active[:0]
	return w.scratch
}

// touch marks a cell dirty in its owning chunk and requeues the chunk.
func (w *World) touch(ch *Chunk, lx, ly, lz int) {
	ch.MarkDirty(lx, ly, lz)
	w.pushActive(ch)
}

// neighborAt resolves the owning chunk and local coordinates one step
// in dir; the chunk is nil when unallocated.
func (c *Chunk) neighborAt(x, y, z int, dir Direction) (*Chunk, int, int, int) {
	off := dirOffsets[dir]
	nx, ny, nz := x+off[0], y+off[1], z+off[2]
	if nx >= 0 && nx < ChunkSize && ny >= 0 && ny < ChunkSize && nz >= 0 && nz < ChunkSize {
		return c, nx, ny, nz
	}
	return c.neighbors[dir], nx & ChunkMask, ny & ChunkMask, nz & ChunkMask
}

// equilibratePass relaxes temperature differences between co-located
// materials. Transfer rate follows the geometric mean of the pair's
// conductivities; the harmonic-mean capacity cap guarantees no
// overshoot past equilibrium.
func (w *World) equilibratePass(ch *Chunk, min, max [3]int, dt float64) {
	rate := w.cfg.EquilibrationRate * dt
	for z := min[2]; z <= max[2]; z++ {
		for y := min[1]; y <= max[1]; y++ {
			for x := min[0]; x <= max[0]; x++ {
				cell := ch.Cell(x, y, z)
				if cell.MaterialCount() < 2 {
					continue
				}
				w.counters.CellsProcessed++
				w.equilibrateCell(ch, cell, x, y, z, rate)
			}
		}
	}
}

func (w *World) equilibrateCell(ch *Chunk, cell *Cell, x, y, z int, rate float64) {
	ids := cellMaterialIDs(cell)
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, _ := cell.Material(ids[i])
			b, _ := cell.Material(ids[j])
			ta := a.Temperature(ids[i])
			tb := b.Temperature(ids[j])
			dT := ta - tb
			if math.Abs(dT) < TempEpsilonK {
				continue
			}
			ka := materials.Get(ids[i]).Conductivity
			kb := materials.Get(ids[j]).Conductivity
			capA := materials.HeatCapacityJK(ids[i], a.Moles)
			capB := materials.HeatCapacityJK(ids[j], b.Moles)
			if capA <= 0 || capB <= 0 {
				continue
			}
			q := dT * math.Sqrt(ka*kb) * rate
			qMax := dT * (capA * capB) / (capA + capB)
			if math.Abs(q) > math.Abs(qMax) {
				q = qMax
			}
			a.AddEnergy(-q)
			b.AddEnergy(q)
			if math.Abs(q) > transferEpsilonJ {
				w.counters.HeatTransfers++
				w.touch(ch, x, y, z)
			}
		}
	}
}

// conductionPass moves thermal energy across cell faces. Inside the
// chunk each edge is visited once, from its negative endpoint in the
// positive directions; the expanded processing region covers edges
// adjacent to dirty cells from either side. Edges crossing the chunk's
// own negative faces have no positive-side visit in this chunk, so
// they are computed here too, unless the neighbor chunk's region
// reaches the far cell and computes the edge from its side.
func (w *World) conductionPass(ch *Chunk, min, max [3]int, dt float64) {
	rate := w.cfg.ConductionRate * dt
	dirs := [3]Direction{DirXPos, DirYPos, DirZPos}
	for z := min[2]; z <= max[2]; z++ {
		for y := min[1]; y <= max[1]; y++ {
			for x := min[0]; x <= max[0]; x++ {
				cell := ch.Cell(x, y, z)
				if cell.Empty() {
					continue
				}
				w.counters.CellsProcessed++
				for _, dir := range dirs {
					nch, nx, ny, nz := ch.neighborAt(x, y, z, dir)
					w.counters.NeighborLookups++
					if nch == nil {
						continue
					}
					nbr := nch.Cell(nx, ny, nz)
					if nbr.Empty() {
						continue
					}
					w.conductEdge(ch, cell, x, y, z, nch, nbr, nx, ny, nz, rate)
				}
				if x == 0 {
					w.conductChunkFace(ch, cell, x, y, z, DirXNeg, rate)
				}
				if y == 0 {
					w.conductChunkFace(ch, cell, x, y, z, DirYNeg, rate)
				}
				if z == 0 {
					w.conductChunkFace(ch, cell, x, y, z, DirZNeg, rate)
				}
			}
		}
	}
}

// conductChunkFace computes the edge crossing a negative chunk face.
// When the far cell sits inside the neighbor's own processing region
// the neighbor computes the edge in the positive direction instead,
// keeping one computation per edge per step.
func (w *World) conductChunkFace(ch *Chunk, cell *Cell, x, y, z int, dir Direction, rate float64) {
	nch, nx, ny, nz := ch.neighborAt(x, y, z, dir)
	w.counters.NeighborLookups++
	if nch == nil {
		return
	}
	if nmin, nmax, ok := nch.processRegion(); ok && regionContains(nmin, nmax, nx, ny, nz) {
		return
	}
	nbr := nch.Cell(nx, ny, nz)
	if nbr.Empty() {
		return
	}
	w.conductEdge(ch, cell, x, y, z, nch, nbr, nx, ny, nz, rate)
}

func regionContains(min, max [3]int, x, y, z int) bool {
	return x >= min[0] && x <= max[0] &&
		y >= min[1] && y <= max[1] &&
		z >= min[2] && z <= max[2]
}

func (w *World) conductEdge(ach *Chunk, a *Cell, ax, ay, az int, bch *Chunk, b *Cell, bx, by, bz int, rate float64) {
	ta, tb := a.Temperature(), b.Temperature()
	dT := ta - tb
	if math.Abs(dT) < TempEpsilonK {
		return
	}
	ka := cellAvgConductivity(a)
	kb := cellAvgConductivity(b)
	if ka <= 0 || kb <= 0 {
		return
	}
	kEff := 2 * ka * kb / (ka + kb)
	capA := a.TotalHeatCapacityJK()
	capB := b.TotalHeatCapacityJK()
	if capA <= 0 || capB <= 0 {
		return
	}
	q := dT * kEff * rate
	qMax := dT * (capA * capB) / (capA + capB)
	if math.Abs(q) > math.Abs(qMax) {
		q = qMax
	}
	// q > 0 flows a -> b; distribute by heat-capacity share on each side.
	addCellEnergy(a, -q)
	addCellEnergy(b, q)
	if math.Abs(q) > transferEpsilonJ {
		w.counters.HeatTransfers++
		w.touch(ach, ax, ay, az)
		w.touch(bch, bx, by, bz)
	}
}

// addCellEnergy spreads a signed energy delta across the cell's
// materials in proportion to each material's share of the cell's heat
// capacity, so the mixture's temperature shifts uniformly.
func addCellEnergy(c *Cell, deltaJ float64) {
	total := c.TotalHeatCapacityJK()
	if total <= 0 {
		return
	}
	c.ForEach(func(id materials.ID, s *MaterialState) {
		share := materials.HeatCapacityJK(id, s.Moles) / total
		s.AddEnergy(deltaJ * share)
	})
}

func cellAvgConductivity(c *Cell) float64 {
	var sum, moles float64
	c.ForEach(func(id materials.ID, s *MaterialState) {
		sum += materials.Get(id).Conductivity * s.Moles
		moles += s.Moles
	})
	if moles <= 0 {
		return 0
	}
	return sum / moles
}

// liquidFlowPass drains liquid-phase materials into the cell below
// unless that cell holds a solid. Flow keeps the 60 Hz-tuned dt*60
// scaling; re-tuning it would shift every dependent threshold.
func (w *World) liquidFlowPass(ch *Chunk, min, max [3]int, dt float64) {
	frac := w.cfg.LiquidFlowRate * dt * 60
	if frac > 1 {
		frac = 1
	}
	for z := min[2]; z <= max[2]; z++ {
		for y := min[1]; y <= max[1]; y++ {
			for x := min[0]; x <= max[0]; x++ {
				cell := ch.Cell(x, y, z)
				if !cell.HasPhase(materials.PhaseLiquid) {
					continue
				}
				w.counters.CellsProcessed++
				bch, bx, by, bz := ch.neighborAt(x, y, z, DirYNeg)
				w.counters.NeighborLookups++
				if bch == nil {
					continue
				}
				below := bch.Cell(bx, by, bz)
				if below.HasPhase(materials.PhaseSolid) {
					continue
				}
				w.flowLiquids(ch, cell, x, y, z, bch, below, bx, by, bz, frac)
			}
		}
	}
}

func (w *World) flowLiquids(ach *Chunk, src *Cell, ax, ay, az int, bch *Chunk, dst *Cell, bx, by, bz int, frac float64) {
	for _, id := range cellMaterialIDs(src) {
		if materials.Get(id).Phase != materials.PhaseLiquid {
			continue
		}
		s, _ := src.Material(id)
		amount := s.Moles * frac
		if amount > s.Moles {
			amount = s.Moles
		}
		if amount < MolesEpsilon {
			continue
		}
		// Energy rides with the mass to keep both conserved.
		energy := s.EnergyJ * (amount / s.Moles)
		s.Moles -= amount
		s.EnergyJ -= energy
		s.invalidateTemp()
		dst.AddMaterial(id, amount, energy)
		src.pruneMaterial(id)
		w.counters.MassTransfers++
		w.touch(ach, ax, ay, az)
		w.touch(bch, bx, by, bz)
	}
}

// gasDiffusionPass spreads gases down their concentration gradients
// with a buoyancy bias: rising transfers get 1.5x weight, sinking 0.5x.
// Per-edge transfer is capped at a tenth of the source.
func (w *World) gasDiffusionPass(ch *Chunk, min, max [3]int, dt float64) {
	rate := w.cfg.GasDiffusionRate * dt
	for z := min[2]; z <= max[2]; z++ {
		for y := min[1]; y <= max[1]; y++ {
			for x := min[0]; x <= max[0]; x++ {
				cell := ch.Cell(x, y, z)
				if !cell.HasPhase(materials.PhaseGas) {
					continue
				}
				w.counters.CellsProcessed++
				w.diffuseCell(ch, cell, x, y, z, rate)
			}
		}
	}
}

func (w *World) diffuseCell(ch *Chunk, src *Cell, x, y, z int, rate float64) {
	for _, id := range cellMaterialIDs(src) {
		if materials.Get(id).Phase != materials.PhaseGas {
			continue
		}
		for dir := Direction(0); dir < DirCount; dir++ {
			nch, nx, ny, nz := ch.neighborAt(x, y, z, dir)
			w.counters.NeighborLookups++
			if nch == nil {
				continue
			}
			dst := nch.Cell(nx, ny, nz)
			if dst.HasPhase(materials.PhaseSolid) {
				continue
			}
			s, ok := src.Material(id)
			if !ok {
				break
			}
			var dstMoles float64
			if d, ok := dst.MaterialConst(id); ok {
				dstMoles = d.Moles
			}
			gradient := s.Moles - dstMoles
			if gradient <= 0 {
				continue
			}
			bias := 1.0
			switch dir {
			case DirYPos:
				bias = 1.5
			case DirYNeg:
				bias = 0.5
			}
			amount := gradient * rate * bias / 6
			if cap := s.Moles * 0.1; amount > cap {
				amount = cap
			}
			if amount < MolesEpsilon {
				continue
			}
			energy := s.EnergyJ * (amount / s.Moles)
			s.Moles -= amount
			s.EnergyJ -= energy
			s.invalidateTemp()
			dst.AddMaterial(id, amount, energy)
			src.pruneMaterial(id)
			w.counters.MassTransfers++
			w.touch(ch, x, y, z)
			w.touch(nch, nx, ny, nz)
		}
	}
}

// cellMaterialIDs snapshots the present ids so passes can mutate the
// cell while iterating.
func cellMaterialIDs(c *Cell) []materials.ID {
	ids := make([]materials.ID, 0, 8)
	c.ForEach(func(id materials.ID, _ *MaterialState) {
		ids = append(ids, id)
	})
	return ids
}
