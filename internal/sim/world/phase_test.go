package world

import (
	"math"
	"testing"

	"thermovox.sim/internal/sim/materials"
)

func TestPhaseChange_BoilDebitsLatentHeat(t *testing.T) {
	w := New(WorldConfig{ChunksPerAxis: 1})
	// Hot enough that the latent debit leaves the steam with energy.
	energy := energyFor(materials.Water, 10, 600)
	w.AddMaterialEnergyAtCell(5, 5, 5, materials.Water, 10, energy)

	w.StepOnce(StepPhaseChange)

	cell := w.CellAt(5, 5, 5)
	if cell.Has(materials.Water) {
		t.Fatalf("water above boiling must convert completely")
	}
	steam, ok := cell.MaterialConst(materials.Steam)
	if !ok {
		t.Fatalf("no steam after boiling")
	}
	if math.Abs(steam.Moles-10) > 1e-9 {
		t.Fatalf("steam moles = %f, want 10", steam.Moles)
	}
	wantE := energy - 10*materials.Get(materials.Water).EnthalpyUpJ
	if math.Abs(steam.EnergyJ-wantE) > 1e-6 {
		t.Fatalf("steam energy = %f, want %f (latent heat debited)", steam.EnergyJ, wantE)
	}
	if got := w.Metrics().Counters.PhaseTransitions; got != 1 {
		t.Fatalf("phase transitions = %d, want 1", got)
	}
}

func TestPhaseChange_FreezeCreditsLatentHeat(t *testing.T) {
	w := New(WorldConfig{ChunksPerAxis: 1})
	energy := energyFor(materials.Water, 10, 250)
	w.AddMaterialEnergyAtCell(5, 5, 5, materials.Water, 10, energy)

	w.StepOnce(StepPhaseChange)

	cell := w.CellAt(5, 5, 5)
	ice, ok := cell.MaterialConst(materials.Ice)
	if !ok || cell.Has(materials.Water) {
		t.Fatalf("supercooled water must freeze")
	}
	wantE := energy + 10*materials.Get(materials.Water).EnthalpyDownJ
	if math.Abs(ice.EnergyJ-wantE) > 1e-6 {
		t.Fatalf("ice energy = %f, want %f (latent heat credited)", ice.EnergyJ, wantE)
	}
}

func TestPhaseChange_ZeroEnergyCellInert(t *testing.T) {
	w := New(WorldConfig{ChunksPerAxis: 1})
	w.AddMaterialEnergyAtCell(5, 5, 5, materials.Steam, 1, 0)
	w.StepOnce(StepPhaseChange)
	if !w.CellAt(5, 5, 5).Has(materials.Steam) {
		t.Fatalf("a cell with no defined temperature must not transition")
	}
}

func TestPhaseChange_ClampedBoilInertUntilWarmed(t *testing.T) {
	w := New(WorldConfig{ChunksPerAxis: 1})
	// Barely past boiling: the cell carries less energy than the latent
	// debit, so the steam comes out clamped at 0 J.
	energy := energyFor(materials.Water, 10, 380)
	if energy >= 10*materials.Get(materials.Water).EnthalpyUpJ {
		t.Fatalf("setup: energy %f must be below the latent debit", energy)
	}
	w.AddMaterialEnergyAtCell(5, 5, 5, materials.Water, 10, energy)

	w.StepOnce(StepPhaseChange)
	cell := w.CellAt(5, 5, 5)
	steam, ok := cell.MaterialConst(materials.Steam)
	if !ok || cell.Has(materials.Water) {
		t.Fatalf("water past boiling must convert even when the debit clamps")
	}
	if steam.EnergyJ != 0 {
		t.Fatalf("steam energy = %f, want clamp at 0", steam.EnergyJ)
	}

	// With no defined temperature the gas must not flap back.
	for i := 0; i < 5; i++ {
		w.StepOnce(StepPhaseChange)
	}
	if !w.CellAt(5, 5, 5).Has(materials.Steam) {
		t.Fatalf("zero-energy steam must stay put")
	}

	// Warming it below the condensation point re-enables transitions.
	w.AddHeatAtCell(5, 5, 5, energyFor(materials.Steam, 10, 300))
	w.StepOnce(StepPhaseChange)
	if !w.CellAt(5, 5, 5).Has(materials.Water) {
		t.Fatalf("warmed steam below condensation must turn back to water")
	}
}

func TestCombustion_SingleStepStoichiometry(t *testing.T) {
	w := New(WorldConfig{ChunksPerAxis: 1})
	w.AddMaterialEnergyAtCell(5, 5, 5, materials.Methane, 10, energyFor(materials.Methane, 10, 900))
	w.AddMaterialEnergyAtCell(5, 5, 5, materials.Oxygen, 30, energyFor(materials.Oxygen, 30, 900))

	before := w.TotalEnergyJ()
	w.StepOnce(StepCombustion)

	cfg := w.Config()
	burn := 10 * cfg.CombustionRate * cfg.FixedStepSeconds
	cell := w.CellAt(5, 5, 5)
	ch4, _ := cell.MaterialConst(materials.Methane)
	o2, _ := cell.MaterialConst(materials.Oxygen)
	co2, ok := cell.MaterialConst(materials.CarbonDioxide)
	if !ok {
		t.Fatalf("no burn product after combustion")
	}
	if math.Abs(ch4.Moles-(10-burn)) > 1e-9 {
		t.Fatalf("methane = %f, want %f", ch4.Moles, 10-burn)
	}
	if math.Abs(o2.Moles-(30-2*burn)) > 1e-9 {
		t.Fatalf("oxygen = %f, want %f (2:1 ratio)", o2.Moles, 30-2*burn)
	}
	if math.Abs(co2.Moles-burn) > 1e-9 {
		t.Fatalf("co2 = %f, want %f", co2.Moles, burn)
	}
	wantE := before + burn*materials.Get(materials.Methane).CombustionJ
	if got := w.TotalEnergyJ(); math.Abs(got-wantE) > 1e-3 {
		t.Fatalf("energy = %f, want %f (reaction enthalpy released)", got, wantE)
	}
	if got := w.Metrics().Counters.CombustionEvents; got != 1 {
		t.Fatalf("combustion events = %d, want 1", got)
	}
}

func TestCombustion_SustainedBurnKeepsRatio(t *testing.T) {
	w := New(WorldConfig{ChunksPerAxis: 1})
	w.AddMaterialEnergyAtCell(5, 5, 5, materials.Methane, 10, energyFor(materials.Methane, 10, 900))
	w.AddMaterialEnergyAtCell(5, 5, 5, materials.Oxygen, 30, energyFor(materials.Oxygen, 30, 900))

	for i := 0; i < 200; i++ {
		w.StepOnce(StepCombustion)
	}

	ch4 := molesAt(w, 5, 5, 5, materials.Methane)
	o2 := molesAt(w, 5, 5, 5, materials.Oxygen)
	co2 := molesAt(w, 5, 5, 5, materials.CarbonDioxide)
	burned := 10 - ch4
	if burned <= 0.5 {
		t.Fatalf("fire went out early: burned %f moles", burned)
	}
	if math.Abs(co2-burned) > 1e-6 {
		t.Fatalf("product mismatch: burned %f, co2 %f", burned, co2)
	}
	if math.Abs((30-o2)-2*burned) > 1e-6 {
		t.Fatalf("oxidizer mismatch: burned %f, o2 consumed %f", burned, 30-o2)
	}
}

func TestCombustion_RequiresOxidizerAndIgnition(t *testing.T) {
	w := New(WorldConfig{ChunksPerAxis: 1})
	// Hot fuel with nothing to react with.
	w.AddMaterialEnergyAtCell(5, 5, 5, materials.Methane, 10, energyFor(materials.Methane, 10, 900))
	// Cold fuel-air mix.
	w.AddMaterialEnergyAtCell(8, 5, 5, materials.Methane, 10, energyFor(materials.Methane, 10, 500))
	w.AddMaterialEnergyAtCell(8, 5, 5, materials.Oxygen, 30, energyFor(materials.Oxygen, 30, 500))

	for i := 0; i < 10; i++ {
		w.StepOnce(StepCombustion)
	}

	if got := molesAt(w, 5, 5, 5, materials.Methane); math.Abs(got-10) > 1e-9 {
		t.Fatalf("fuel burned without an oxidizer: %f", got)
	}
	if got := molesAt(w, 8, 5, 5, materials.Methane); math.Abs(got-10) > 1e-9 {
		t.Fatalf("fuel burned below ignition temperature: %f", got)
	}
	if got := w.Metrics().Counters.CombustionEvents; got != 0 {
		t.Fatalf("combustion events = %d, want 0", got)
	}
}

func TestCombustion_LiquidSuppresses(t *testing.T) {
	w := New(WorldConfig{ChunksPerAxis: 1})
	w.AddMaterialEnergyAtCell(5, 5, 5, materials.Methane, 10, energyFor(materials.Methane, 10, 900))
	w.AddMaterialEnergyAtCell(5, 5, 5, materials.Oxygen, 30, energyFor(materials.Oxygen, 30, 900))
	w.AddMaterialEnergyAtCell(5, 5, 5, materials.Water, 5, energyFor(materials.Water, 5, 300))

	for i := 0; i < 10; i++ {
		w.StepOnce(StepCombustion)
	}

	if got := molesAt(w, 5, 5, 5, materials.Methane); math.Abs(got-10) > 1e-9 {
		t.Fatalf("douse failed, fuel burned: %f", got)
	}
	if got := w.Metrics().Counters.CombustionEvents; got != 0 {
		t.Fatalf("combustion events = %d, want 0", got)
	}
}
