package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"thermovox.sim/internal/sim/water"
	"thermovox.sim/internal/sim/world"
)

// Tuning is the operator-facing knob file. Absent keys stay zero and
// pick up package defaults downstream, so a partial tuning.yaml is
// always valid.
type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	Seed               int64 `yaml:"seed"`
	SnapshotEveryTicks int   `yaml:"snapshot_every_ticks"`
	MetricsEveryTicks  int   `yaml:"metrics_every_ticks"`

	World WorldTuning `yaml:"world"`
	Water WaterTuning `yaml:"water"`
}

type WorldTuning struct {
	ChunksPerAxis     int     `yaml:"chunks_per_axis"`
	CellSize          float64 `yaml:"cell_size"`
	AmbientTempK      float64 `yaml:"ambient_temp_k"`
	EquilibriumFrames int     `yaml:"equilibrium_frames"`
	FixedStepSeconds  float64 `yaml:"fixed_step_seconds"`
	MaxStepsPerUpdate int     `yaml:"max_steps_per_update"`

	EquilibrationRate float64 `yaml:"equilibration_rate"`
	ConductionRate    float64 `yaml:"conduction_rate"`
	LiquidFlowRate    float64 `yaml:"liquid_flow_rate"`
	GasDiffusionRate  float64 `yaml:"gas_diffusion_rate"`
	CombustionRate    float64 `yaml:"combustion_rate"`

	HashBuckets   int `yaml:"hash_buckets"`
	ActiveListCap int `yaml:"active_list_cap"`
}

type WaterTuning struct {
	FlowRate      float64 `yaml:"flow_rate"`
	EdgeDrainRate float64 `yaml:"edge_drain_rate"`
	HeadEpsilon   float64 `yaml:"head_epsilon"`
	MaxDepth      float64 `yaml:"max_depth"`
	StepSeconds   float64 `yaml:"step_seconds"`
}

// Load parses a tuning file. A missing file is an error; callers that
// want defaults-only pass an empty Tuning instead.
func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// WorldConfig maps the knob file onto the matter grid's config. Zero
// values fall through to that package's defaults.
func (t Tuning) WorldConfig() world.WorldConfig {
	w := t.World
	return world.WorldConfig{
		ChunksPerAxis:     w.ChunksPerAxis,
		CellSize:          w.CellSize,
		AmbientTempK:      w.AmbientTempK,
		EquilibriumFrames: w.EquilibriumFrames,
		FixedStepSeconds:  w.FixedStepSeconds,
		MaxStepsPerUpdate: w.MaxStepsPerUpdate,
		EquilibrationRate: w.EquilibrationRate,
		ConductionRate:    w.ConductionRate,
		LiquidFlowRate:    w.LiquidFlowRate,
		GasDiffusionRate:  w.GasDiffusionRate,
		CombustionRate:    w.CombustionRate,
		HashBuckets:       w.HashBuckets,
		ActiveListCap:     w.ActiveListCap,
	}
}

// WaterConfig maps the knob file onto the water solver's config.
func (t Tuning) WaterConfig() water.Config {
	w := t.Water
	return water.Config{
		FlowRate:      water.FromFloat(w.FlowRate),
		EdgeDrainRate: water.FromFloat(w.EdgeDrainRate),
		HeadEpsilon:   water.FromFloat(w.HeadEpsilon),
		MaxDepth:      water.FromFloat(w.MaxDepth),
		StepSeconds:   w.StepSeconds,
	}
}
