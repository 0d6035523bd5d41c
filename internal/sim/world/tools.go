package world

import (
	"thermovox.sim/internal/sim/materials"
)

// Tool API: the actuator surface collaborators drive between ticks.
// Every operation is a silent no-op outside the world extent, and
// queries answer through a Valid flag; the loop never aborts on
// boundary garbage from fast-moving callers.

// CellInfo is the read-only query result for UI-style consumers.
type CellInfo struct {
	Valid               bool    `json:"valid"`
	CellX, CellY, CellZ int     `json:"-"`
	Cell                [3]int  `json:"cell"`
	Materials           int     `json:"materials"`
	Primary             string  `json:"primary,omitempty"`
	Phase               string  `json:"phase,omitempty"`
	TemperatureK        float64 `json:"temperature_k"`
}

// AddHeatAt distributes signed energy across the materials of the cell
// at a world-space position, weighted by heat-capacity share. An empty
// cell has no carrier for energy and is left untouched.
func (w *World) AddHeatAt(wx, wy, wz float64, energyJ float64) {
	x, y, z, ok := w.WorldToCell(wx, wy, wz)
	if !ok {
		return
	}
	w.AddHeatAtCell(x, y, z, energyJ)
}

// AddHeatAtCell is AddHeatAt in cell coordinates.
func (w *World) AddHeatAtCell(x, y, z int, energyJ float64) {
	cell := w.CellAt(x, y, z)
	if cell == nil || cell.Empty() {
		return
	}
	addCellEnergy(cell, energyJ)
	w.wakeWithNeighbors(x, y, z)
}

// RemoveHeatAt is AddHeatAt with negated energy; material energies
// clamp at zero on application.
func (w *World) RemoveHeatAt(wx, wy, wz float64, energyJ float64) {
	w.AddHeatAt(wx, wy, wz, -energyJ)
}

// AddWaterAt creates liquid water at ambient temperature at a
// world-space position, creating the chunk if needed.
func (w *World) AddWaterAt(wx, wy, wz float64, moles float64) {
	x, y, z, ok := w.WorldToCell(wx, wy, wz)
	if !ok {
		return
	}
	w.AddMaterialAtCell(x, y, z, materials.Water, moles)
}

// AddMaterialAtCell injects matter at ambient temperature at cell
// coordinates. Energy is moles * Cp * ambient so new matter arrives in
// thermal equilibrium with the configured environment.
func (w *World) AddMaterialAtCell(x, y, z int, id materials.ID, moles float64) {
	cell := w.CellForWrite(x, y, z)
	if cell == nil || moles < MolesEpsilon {
		return
	}
	energy := materials.HeatCapacityJK(id, moles) * w.cfg.AmbientTempK
	cell.AddMaterial(id, moles, energy)
	w.wakeWithNeighbors(x, y, z)
}

// AddMaterialEnergyAtCell injects matter with explicit energy; tests
// use it to place material at exact temperatures.
func (w *World) AddMaterialEnergyAtCell(x, y, z int, id materials.ID, moles, energyJ float64) {
	cell := w.CellForWrite(x, y, z)
	if cell == nil || moles < MolesEpsilon {
		return
	}
	cell.AddMaterial(id, moles, energyJ)
	w.wakeWithNeighbors(x, y, z)
}

// CellInfoAt answers a read-only cell query at a world-space position.
func (w *World) CellInfoAt(wx, wy, wz float64) CellInfo {
	x, y, z, ok := w.WorldToCell(wx, wy, wz)
	if !ok {
		return CellInfo{}
	}
	return w.CellInfoAtCell(x, y, z)
}

// CellInfoAtCell is CellInfoAt in cell coordinates.
func (w *World) CellInfoAtCell(x, y, z int) CellInfo {
	info := CellInfo{
		CellX: x, CellY: y, CellZ: z,
		Cell: [3]int{x, y, z},
	}
	if !w.InBounds(x, y, z) {
		return info
	}
	info.Valid = true
	cell := w.CellAt(x, y, z)
	if cell == nil || cell.Empty() {
		return info
	}
	info.Materials = cell.MaterialCount()
	if id, ok := cell.Primary(); ok {
		p := materials.Get(id)
		info.Primary = p.Name
		info.Phase = p.Phase.String()
	}
	info.TemperatureK = cell.Temperature()
	return info
}

// wakeWithNeighbors marks a cell and its six face neighbors active so
// the next tick computes every interaction the write could provoke.
func (w *World) wakeWithNeighbors(x, y, z int) {
	w.MarkCellActive(x, y, z)
	for d := Direction(0); d < DirCount; d++ {
		off := dirOffsets[d]
		w.MarkCellActive(x+off[0], y+off[1], z+off[2])
	}
}

// PrimaryLayer flattens a chunk to one primary-material id per cell in
// cell-index order; empty cells read as materials.None. ok is false
// when the chunk was never allocated.
func (w *World) PrimaryLayer(cx, cy, cz int) ([]uint8, bool) {
	ch := w.Chunk(cx, cy, cz)
	if ch == nil {
		return nil, false
	}
	out := make([]uint8, ChunkVolume)
	for z := 0; z < ChunkSize; z++ {
		for y := 0; y < ChunkSize; y++ {
			for x := 0; x < ChunkSize; x++ {
				cell := ch.CellConst(x, y, z)
				if id, ok := cell.Primary(); ok {
					out[cellIndex(x, y, z)] = uint8(id)
				}
			}
		}
	}
	return out, true
}

// TotalMoles sums moles of one material over the whole world, for
// conservation checks.
func (w *World) TotalMoles(id materials.ID) float64 {
	var total float64
	w.ForEachChunk(func(ch *Chunk) {
		for i := range ch.cells {
			if s, ok := ch.cells[i].MaterialConst(id); ok {
				total += s.Moles
			}
		}
	})
	return total
}

// TotalEnergyJ sums thermal energy over the whole world.
func (w *World) TotalEnergyJ() float64 {
	var total float64
	w.ForEachChunk(func(ch *Chunk) {
		for i := range ch.cells {
			total += ch.cells[i].TotalEnergyJ()
		}
	})
	return total
}
