package materials

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// ID indexes the fixed material table. The zero value is the "none"
// sentinel and never carries mass.
type ID uint8

const (
	None ID = iota

	Water
	Ice
	Steam

	Rock
	Magma
	RockVapor

	Dirt
	Mud
	DirtVapor

	Nitrogen
	LiquidNitrogen
	SolidNitrogen

	Oxygen
	LiquidOxygen
	SolidOxygen

	CarbonDioxide
	LiquidCO2
	DryIce

	Methane
	LiquidMethane
	SolidMethane

	Count
)

type Phase uint8

const (
	PhaseNone Phase = iota
	PhaseSolid
	PhaseLiquid
	PhaseGas
)

func (p Phase) String() string {
	switch p {
	case PhaseSolid:
		return "SOLID"
	case PhaseLiquid:
		return "LIQUID"
	case PhaseGas:
		return "GAS"
	default:
		return "NONE"
	}
}

// Props is one immutable entry in the material table.
//
// Transition temperatures of 0 mean the transition does not occur within
// simulated ranges. TransitionUpK moves toward the less dense phase
// (solid->liquid->gas) and costs EnthalpyUpJ per mole; TransitionDownK
// moves toward the denser phase and releases EnthalpyDownJ per mole.
type Props struct {
	Name    string
	Formula string
	Phase   Phase

	MolarMass    float64 // kg/mol
	MolarVolume  float64 // m^3/mol
	MolarHeatJK  float64 // J/(mol*K)
	Conductivity float64 // W/(m*K)
	Viscosity    float64 // Pa*s

	Oxidizer      bool
	Fuel          bool
	IgnitionK     float64
	CombustionJ   float64 // J/mol of fuel
	BurnProduct   ID
	OxidizerRatio float64 // moles oxidizer per mole fuel

	SolidForm  ID
	LiquidForm ID
	GasForm    ID

	TransitionUpK   float64
	TransitionDownK float64
	EnthalpyUpJ     float64
	EnthalpyDownJ   float64
}

// Get returns the table entry for id. Out-of-range ids fold to the
// none sentinel.
func Get(id ID) *Props {
	if id >= Count {
		return &table[None]
	}
	return &table[id]
}

func Name(id ID) string { return Get(id).Name }

// ByName resolves a material name to its id; ok is false for unknown
// names and the none sentinel.
func ByName(name string) (ID, bool) {
	for id := ID(1); id < Count; id++ {
		if table[id].Name == name {
			return id, true
		}
	}
	return None, false
}

// HeatCapacityJK is the effective heat capacity of n moles of id.
// Currently phase-independent; kept as a function so phase-dependent
// capacities can slot in without touching callers.
func HeatCapacityJK(id ID, moles float64) float64 {
	return Get(id).MolarHeatJK * moles
}

// TransitionFor reports whether a material at tempK should change phase,
// and to what. The returned enthalpy is per mole: positive values are
// debited from the cell's thermal energy (transition up), negative values
// are credited (transition down).
func TransitionFor(id ID, tempK float64) (target ID, enthalpyJ float64, ok bool) {
	p := Get(id)
	if p.Phase == PhaseNone {
		return None, 0, false
	}
	if p.TransitionUpK > 0 && tempK > p.TransitionUpK {
		if t := upTarget(p); t != None && t != id {
			return t, p.EnthalpyUpJ, true
		}
	}
	if p.TransitionDownK > 0 && tempK < p.TransitionDownK {
		if t := downTarget(p); t != None && t != id {
			return t, -p.EnthalpyDownJ, true
		}
	}
	return None, 0, false
}

func upTarget(p *Props) ID {
	switch p.Phase {
	case PhaseSolid:
		return p.LiquidForm
	case PhaseLiquid:
		return p.GasForm
	default:
		return None
	}
}

func downTarget(p *Props) ID {
	switch p.Phase {
	case PhaseGas:
		return p.LiquidForm
	case PhaseLiquid:
		return p.SolidForm
	default:
		return None
	}
}

// Validate checks that phase-transition links form consistent cycles:
// linked forms agree on the shared solid/liquid/gas triple, each
// transition temperature appears on both sides, and enthalpies match.
// Table inconsistency is a programmer error; call MustValidate at startup.
func Validate() error {
	for id := ID(1); id < Count; id++ {
		p := &table[id]
		if p.Phase == PhaseNone {
			return fmt.Errorf("material %d (%s): missing phase", id, p.Name)
		}
		if p.MolarHeatJK <= 0 {
			return fmt.Errorf("material %s: non-positive heat capacity", p.Name)
		}
		if p.MolarMass <= 0 {
			return fmt.Errorf("material %s: non-positive molar mass", p.Name)
		}
		for _, link := range [3]ID{p.SolidForm, p.LiquidForm, p.GasForm} {
			if link == None {
				continue
			}
			q := &table[link]
			if q.SolidForm != p.SolidForm || q.LiquidForm != p.LiquidForm || q.GasForm != p.GasForm {
				return fmt.Errorf("material %s: linked form %s disagrees on phase triple", p.Name, q.Name)
			}
		}
		if up := upTarget(p); up != None && p.TransitionUpK > 0 {
			q := &table[up]
			if !closeEnough(q.TransitionDownK, p.TransitionUpK) {
				return fmt.Errorf("material %s -> %s: transition temps differ (%.2f vs %.2f)",
					p.Name, q.Name, p.TransitionUpK, q.TransitionDownK)
			}
			if !closeEnough(q.EnthalpyDownJ, p.EnthalpyUpJ) {
				return fmt.Errorf("material %s -> %s: enthalpies differ (%.1f vs %.1f)",
					p.Name, q.Name, p.EnthalpyUpJ, q.EnthalpyDownJ)
			}
		}
		if down := downTarget(p); down != None && p.TransitionDownK > 0 {
			q := &table[down]
			if !closeEnough(q.TransitionUpK, p.TransitionDownK) {
				return fmt.Errorf("material %s -> %s: transition temps differ (%.2f vs %.2f)",
					p.Name, q.Name, p.TransitionDownK, q.TransitionUpK)
			}
			if !closeEnough(q.EnthalpyUpJ, p.EnthalpyDownJ) {
				return fmt.Errorf("material %s -> %s: enthalpies differ (%.1f vs %.1f)",
					p.Name, q.Name, p.EnthalpyDownJ, q.EnthalpyUpJ)
			}
		}
		if p.Fuel {
			if p.BurnProduct == None || p.BurnProduct >= Count {
				return fmt.Errorf("fuel %s: missing burn product", p.Name)
			}
			if p.IgnitionK <= 0 {
				return fmt.Errorf("fuel %s: missing ignition temperature", p.Name)
			}
		}
	}
	return nil
}

// MustValidate panics on an inconsistent table.
func MustValidate() {
	if err := Validate(); err != nil {
		panic(err)
	}
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// Digest is a sha256 over the table's numeric fields, used by the wire
// protocol so clients can detect table drift.
func Digest() string {
	h := sha256.New()
	var buf [8]byte
	put := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}
	for id := ID(0); id < Count; id++ {
		p := &table[id]
		h.Write([]byte(p.Name))
		h.Write([]byte{byte(p.Phase), byte(p.SolidForm), byte(p.LiquidForm), byte(p.GasForm), byte(p.BurnProduct)})
		put(p.MolarMass)
		put(p.MolarVolume)
		put(p.MolarHeatJK)
		put(p.Conductivity)
		put(p.Viscosity)
		put(p.IgnitionK)
		put(p.CombustionJ)
		put(p.OxidizerRatio)
		put(p.TransitionUpK)
		put(p.TransitionDownK)
		put(p.EnthalpyUpJ)
		put(p.EnthalpyDownJ)
	}
	return hex.EncodeToString(h.Sum(nil))
}
