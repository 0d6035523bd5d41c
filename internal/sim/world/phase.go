package world

import (
	"thermovox.sim/internal/sim/materials"
)

// reactionSweep runs phase transitions and combustion over a chunk's
// processing region. It follows the transfer passes so it sees their
// energy deltas in the same tick.
func (w *World) reactionSweep(ch *Chunk, min, max [3]int, dt float64, flags StepFlags) {
	for z := min[2]; z <= max[2]; z++ {
		for y := min[1]; y <= max[1]; y++ {
			for x := min[0]; x <= max[0]; x++ {
				cell := ch.Cell(x, y, z)
				if cell.Empty() {
					continue
				}
				if flags&StepPhaseChange != 0 {
					w.transitionCell(ch, cell, x, y, z)
				}
				if flags&StepCombustion != 0 {
					w.combustCell(ch, cell, x, y, z, dt)
				}
			}
		}
	}
}

// transitionCell converts any material whose cell temperature crossed
// its transition threshold. All moles move to the linked form in one
// step; latent heat is debited going up and credited coming down so the
// books balance across a full cycle.
func (w *World) transitionCell(ch *Chunk, cell *Cell, x, y, z int) {
	tempK := cell.Temperature()
	if tempK <= 0 {
		return
	}
	for _, id := range cellMaterialIDs(cell) {
		target, enthalpyJ, ok := materials.TransitionFor(id, tempK)
		if !ok {
			continue
		}
		s, present := cell.Material(id)
		if !present {
			continue
		}
		moles := s.Moles
		energy := s.EnergyJ - moles*enthalpyJ
		if energy < 0 {
			energy = 0
		}
		cell.RemoveMaterial(id)
		cell.AddMaterial(target, moles, energy)
		w.counters.PhaseTransitions++
		w.touch(ch, x, y, z)
	}
}

// combustCell burns fuel when an oxidizer shares the cell, the cell is
// above the fuel's ignition point, and no liquid-phase suppressant is
// present. Fuel moles convert to the product material at the table's
// ratio and the combustion enthalpy lands in the cell's thermal energy.
func (w *World) combustCell(ch *Chunk, cell *Cell, x, y, z int, dt float64) {
	if cell.HasPhase(materials.PhaseLiquid) {
		return
	}
	tempK := cell.Temperature()
	for _, id := range cellMaterialIDs(cell) {
		p := materials.Get(id)
		if !p.Fuel || tempK < p.IgnitionK {
			continue
		}
		fuel, ok := cell.Material(id)
		if !ok {
			continue
		}
		oxID, oxidizer := findOxidizer(cell)
		if oxidizer == nil {
			continue
		}

		burn := fuel.Moles * w.cfg.CombustionRate * dt
		if burn > fuel.Moles {
			burn = fuel.Moles
		}
		ratio := p.OxidizerRatio
		if ratio <= 0 {
			ratio = 1
		}
		if need := burn * ratio; need > oxidizer.Moles {
			burn = oxidizer.Moles / ratio
		}
		if burn < MolesEpsilon {
			continue
		}

		// The consumed reactants' thermal energy follows the mass into
		// the product; the reaction enthalpy is added on top and spread
		// across the whole mixture.
		fuelEnergy := fuel.EnergyJ * (burn / fuel.Moles)
		oxUsed := burn * ratio
		oxEnergy := oxidizer.EnergyJ * (oxUsed / oxidizer.Moles)

		fuel.Moles -= burn
		fuel.EnergyJ -= fuelEnergy
		fuel.invalidateTemp()
		oxidizer.Moles -= oxUsed
		oxidizer.EnergyJ -= oxEnergy
		oxidizer.invalidateTemp()

		cell.AddMaterial(p.BurnProduct, burn, fuelEnergy+oxEnergy)
		cell.pruneMaterial(id)
		cell.pruneMaterial(oxID)
		addCellEnergy(cell, burn*p.CombustionJ)

		w.counters.CombustionEvents++
		w.touch(ch, x, y, z)
	}
}

func findOxidizer(cell *Cell) (materials.ID, *MaterialState) {
	for _, id := range cellMaterialIDs(cell) {
		if materials.Get(id).Oxidizer {
			s, _ := cell.Material(id)
			return id, s
		}
	}
	return materials.None, nil
}
