package world

import (
	"math"
	"math/bits"

	"thermovox.sim/internal/sim/materials"
)

const (
	// MolesEpsilon: below this a material is treated as absent.
	MolesEpsilon = 1e-10
	// energyMatchJ: cells_match tolerance on per-material energy.
	energyMatchJ = 1.0
)

// MaterialState is the quantity of one material present in one cell.
// Temperature is computed lazily from EnergyJ and cached until the
// energy is mutated.
type MaterialState struct {
	Moles   float64
	EnergyJ float64

	tempK     float64
	tempValid bool
}

// Temperature returns the absolute temperature of this material state.
// Zero moles has no defined temperature and reports 0.
func (s *MaterialState) Temperature(id materials.ID) float64 {
	if s.tempValid {
		return s.tempK
	}
	cap := materials.HeatCapacityJK(id, s.Moles)
	if s.Moles < MolesEpsilon || cap <= 0 {
		return 0
	}
	s.tempK = s.EnergyJ / cap
	if s.tempK < 0 {
		s.tempK = 0
	}
	s.tempValid = true
	return s.tempK
}

// AddEnergy applies a signed energy delta, clamps at zero, and
// invalidates the cached temperature.
func (s *MaterialState) AddEnergy(deltaJ float64) {
	s.EnergyJ += deltaJ
	if s.EnergyJ < 0 {
		s.EnergyJ = 0
	}
	s.tempValid = false
}

func (s *MaterialState) invalidateTemp() { s.tempValid = false }

// Cell is a fixed-capacity mixture of materials. Which materials are
// present is answerable in O(1) through the presence bitmask.
type Cell struct {
	present uint32
	mats    [materials.Count]MaterialState
}

func (c *Cell) Reset() { *c = Cell{} }

// Has reports whether id currently carries mass in this cell.
func (c *Cell) Has(id materials.ID) bool {
	return c.present&(1<<uint(id)) != 0
}

// PresenceMask exposes the raw bitmask (bit i set iff material i present).
func (c *Cell) PresenceMask() uint32 { return c.present }

// MaterialCount is the number of distinct materials present.
func (c *Cell) MaterialCount() int { return bits.OnesCount32(c.present) }

func (c *Cell) Empty() bool { return c.present == 0 }

// AddMaterial merges moles and energy into the cell. Quantities below
// the moles epsilon are rejected.
func (c *Cell) AddMaterial(id materials.ID, moles, energyJ float64) {
	if id == materials.None || id >= materials.Count || moles < MolesEpsilon {
		return
	}
	s := &c.mats[id]
	if c.Has(id) {
		s.Moles += moles
		s.EnergyJ += energyJ
	} else {
		s.Moles = moles
		s.EnergyJ = energyJ
		c.present |= 1 << uint(id)
	}
	if s.EnergyJ < 0 {
		s.EnergyJ = 0
	}
	s.tempValid = false
}

// RemoveMaterial zeroes the material and clears its presence bit.
func (c *Cell) RemoveMaterial(id materials.ID) {
	if id >= materials.Count {
		return
	}
	c.mats[id] = MaterialState{}
	c.present &^= 1 << uint(id)
}

// Material returns a mutable handle, present-only.
func (c *Cell) Material(id materials.ID) (*MaterialState, bool) {
	if !c.Has(id) {
		return nil, false
	}
	return &c.mats[id], true
}

// MaterialConst is the read-only variant of Material.
func (c *Cell) MaterialConst(id materials.ID) (MaterialState, bool) {
	if !c.Has(id) {
		return MaterialState{}, false
	}
	return c.mats[id], true
}

// ForEach visits every present material in index order.
func (c *Cell) ForEach(fn func(id materials.ID, s *MaterialState)) {
	mask := c.present
	for mask != 0 {
		i := bits.TrailingZeros32(mask)
		mask &= mask - 1
		fn(materials.ID(i), &c.mats[i])
	}
}

// Temperature is the moles*heat-capacity weighted mean over present
// materials. An empty cell reports 0: vacuum has no temperature, and
// callers must treat 0 as undefined.
func (c *Cell) Temperature() float64 {
	var energy, capacity float64
	mask := c.present
	for mask != 0 {
		i := bits.TrailingZeros32(mask)
		mask &= mask - 1
		s := &c.mats[i]
		energy += s.EnergyJ
		capacity += materials.HeatCapacityJK(materials.ID(i), s.Moles)
	}
	if capacity <= 0 {
		return 0
	}
	t := energy / capacity
	if t < 0 {
		return 0
	}
	return t
}

// TotalHeatCapacityJK sums moles*Cp over present materials.
func (c *Cell) TotalHeatCapacityJK() float64 {
	var capacity float64
	mask := c.present
	for mask != 0 {
		i := bits.TrailingZeros32(mask)
		mask &= mask - 1
		capacity += materials.HeatCapacityJK(materials.ID(i), c.mats[i].Moles)
	}
	return capacity
}

// TotalEnergyJ sums thermal energy over present materials.
func (c *Cell) TotalEnergyJ() float64 {
	var e float64
	mask := c.present
	for mask != 0 {
		i := bits.TrailingZeros32(mask)
		mask &= mask - 1
		e += c.mats[i].EnergyJ
	}
	return e
}

// HasPhase reports whether any present material has the given phase.
func (c *Cell) HasPhase(phase materials.Phase) bool {
	mask := c.present
	for mask != 0 {
		i := bits.TrailingZeros32(mask)
		mask &= mask - 1
		if materials.Get(materials.ID(i)).Phase == phase {
			return true
		}
	}
	return false
}

// Primary returns the present material with the largest moles.
func (c *Cell) Primary() (materials.ID, bool) {
	var best materials.ID
	bestMoles := -1.0
	mask := c.present
	for mask != 0 {
		i := bits.TrailingZeros32(mask)
		mask &= mask - 1
		if c.mats[i].Moles > bestMoles {
			bestMoles = c.mats[i].Moles
			best = materials.ID(i)
		}
	}
	if bestMoles < 0 {
		return materials.None, false
	}
	return best, true
}

// Clone is a bit-identical deep copy.
func (c *Cell) Clone() Cell { return *c }

// Match reports equality within epsilon of moles and within 1 J of
// energy, requiring identical presence bitmasks.
func (c *Cell) Match(other *Cell) bool {
	if c.present != other.present {
		return false
	}
	mask := c.present
	for mask != 0 {
		i := bits.TrailingZeros32(mask)
		mask &= mask - 1
		a, b := &c.mats[i], &other.mats[i]
		if math.Abs(a.Moles-b.Moles) > MolesEpsilon {
			return false
		}
		if math.Abs(a.EnergyJ-b.EnergyJ) > energyMatchJ {
			return false
		}
	}
	return true
}

// pruneMaterial drops id if its moles fell below epsilon; the trace
// energy of a vanishing residue is discarded with it.
func (c *Cell) pruneMaterial(id materials.ID) {
	if c.Has(id) && c.mats[id].Moles < MolesEpsilon {
		c.RemoveMaterial(id)
	}
}
