package world

import (
	"math"
	"testing"

	"thermovox.sim/internal/sim/materials"
)

func TestAddMaterialAtCell_ArrivesAtAmbient(t *testing.T) {
	w := New(WorldConfig{ChunksPerAxis: 1})
	w.AddMaterialAtCell(5, 5, 5, materials.Rock, 10)
	got := w.CellAt(5, 5, 5).Temperature()
	if math.Abs(got-w.Config().AmbientTempK) > 1e-9 {
		t.Fatalf("new matter at %f K, want ambient %f", got, w.Config().AmbientTempK)
	}
	if w.ActiveCount() == 0 {
		t.Fatalf("injection must wake the chunk")
	}
}

func TestAddMaterialAtCell_OutOfBoundsNoOp(t *testing.T) {
	w := New(WorldConfig{ChunksPerAxis: 1})
	w.AddMaterialAtCell(-1, 5, 5, materials.Rock, 10)
	w.AddMaterialAtCell(5, ChunkSize, 5, materials.Rock, 10)
	if w.ChunkCount() != 0 || w.ActiveCount() != 0 {
		t.Fatalf("out-of-bounds writes must be silent no-ops")
	}
}

func TestAddHeatAtCell_EmptyCellNoOp(t *testing.T) {
	w := New(WorldConfig{ChunksPerAxis: 1})
	w.AddHeatAtCell(5, 5, 5, 1000)
	if w.ChunkCount() != 0 || w.ActiveCount() != 0 {
		t.Fatalf("vacuum has no carrier for heat")
	}
}

func TestAddWaterAt_WorldSpace(t *testing.T) {
	w := New(WorldConfig{ChunksPerAxis: 2})
	wx, wy, wz := w.CellToWorld(20, 20, 20)
	w.AddWaterAt(wx, wy, wz, 12)
	if got := w.TotalMoles(materials.Water); math.Abs(got-12) > 1e-12 {
		t.Fatalf("water moles = %f, want 12", got)
	}
	if got := molesAt(w, 20, 20, 20, materials.Water); math.Abs(got-12) > 1e-12 {
		t.Fatalf("water landed in the wrong cell: %f", got)
	}
}

func TestCellInfo_QueryStates(t *testing.T) {
	w := New(WorldConfig{ChunksPerAxis: 1})
	w.AddMaterialAtCell(5, 5, 5, materials.Rock, 10)
	w.AddMaterialAtCell(5, 5, 5, materials.Water, 2)

	info := w.CellInfoAtCell(5, 5, 5)
	if !info.Valid || info.Materials != 2 {
		t.Fatalf("populated cell info wrong: %+v", info)
	}
	if info.Primary != "rock" || info.Phase != "SOLID" {
		t.Fatalf("primary = %q/%q, want rock/SOLID", info.Primary, info.Phase)
	}
	if info.TemperatureK <= 0 {
		t.Fatalf("temperature missing from info")
	}

	empty := w.CellInfoAtCell(1, 1, 1)
	if !empty.Valid || empty.Materials != 0 || empty.TemperatureK != 0 {
		t.Fatalf("empty in-bounds cell info wrong: %+v", empty)
	}

	if out := w.CellInfoAtCell(-1, 0, 0); out.Valid {
		t.Fatalf("out-of-bounds query must report invalid")
	}
	if out := w.CellInfoAt(1e9, 0, 0); out.Valid {
		t.Fatalf("far world-space query must report invalid")
	}
}

func TestPrimaryLayer_FlattensChunk(t *testing.T) {
	w := New(WorldConfig{ChunksPerAxis: 2})
	if _, ok := w.PrimaryLayer(0, 0, 0); ok {
		t.Fatalf("unallocated chunk must report ok=false")
	}

	w.AddMaterialAtCell(3, 4, 5, materials.Rock, 10)
	w.AddMaterialAtCell(3, 4, 5, materials.Water, 2)
	w.AddMaterialAtCell(7, 7, 7, materials.Methane, 1)

	layer, ok := w.PrimaryLayer(0, 0, 0)
	if !ok || len(layer) != ChunkVolume {
		t.Fatalf("layer missing or wrong size: ok=%v len=%d", ok, len(layer))
	}
	if got := layer[cellIndex(3, 4, 5)]; got != uint8(materials.Rock) {
		t.Fatalf("layer[3,4,5] = %d, want rock (largest share)", got)
	}
	if got := layer[cellIndex(7, 7, 7)]; got != uint8(materials.Methane) {
		t.Fatalf("layer[7,7,7] = %d, want methane", got)
	}
	if got := layer[cellIndex(0, 0, 0)]; got != uint8(materials.None) {
		t.Fatalf("empty cell must read as none, got %d", got)
	}
}

func TestTotals_SumAcrossChunks(t *testing.T) {
	w := New(WorldConfig{ChunksPerAxis: 2})
	w.AddMaterialAtCell(1, 1, 1, materials.Water, 3)
	w.AddMaterialAtCell(40, 40, 40, materials.Water, 4)
	w.AddMaterialAtCell(40, 40, 40, materials.Rock, 7)

	if got := w.TotalMoles(materials.Water); math.Abs(got-7) > 1e-12 {
		t.Fatalf("total water = %f, want 7", got)
	}
	if got := w.TotalMoles(materials.Rock); math.Abs(got-7) > 1e-12 {
		t.Fatalf("total rock = %f, want 7", got)
	}
	want := energyFor(materials.Water, 7, w.Config().AmbientTempK) +
		energyFor(materials.Rock, 7, w.Config().AmbientTempK)
	if got := w.TotalEnergyJ(); math.Abs(got-want) > 1e-6 {
		t.Fatalf("total energy = %f, want %f", got, want)
	}
}
