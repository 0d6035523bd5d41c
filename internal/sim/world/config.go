package world

// WorldConfig carries the grid geometry and pass tuning. Zero values
// mean "use the default"; New returns a world with the fully populated
// config readable through Config().
type WorldConfig struct {
	// Geometry.
	ChunksPerAxis int     // world extent in chunks per axis
	CellSize      float64 // physical width of a cell in world units
	GroundYCells  int     // vertical cell offset of world Y=0

	// Thermodynamics.
	AmbientTempK      float64 // temperature of newly created matter
	EquilibriumFrames int     // quiet frames before a chunk is stable
	FixedStepSeconds  float64 // internal step dt
	MaxStepsPerUpdate int     // catch-up cap per Update call

	// Pass rates, unitless multipliers applied per pass.
	EquilibrationRate float64
	ConductionRate    float64
	LiquidFlowRate    float64
	GasDiffusionRate  float64
	CombustionRate    float64 // fraction of fuel consumed per second

	// Storage.
	HashBuckets   int // chunk hash size, rounded up to a power of two
	ActiveListCap int // initial active-list capacity
}

func (c *WorldConfig) applyDefaults() {
	if c.ChunksPerAxis <= 0 {
		c.ChunksPerAxis = 8
	}
	if c.CellSize <= 0 {
		c.CellSize = 2.5
	}
	if c.GroundYCells <= 0 {
		c.GroundYCells = c.ChunksPerAxis * ChunkSize / 2
	}
	if c.AmbientTempK <= 0 {
		c.AmbientTempK = 293.15
	}
	if c.EquilibriumFrames <= 0 {
		c.EquilibriumFrames = 60
	}
	if c.FixedStepSeconds <= 0 {
		c.FixedStepSeconds = 0.016
	}
	if c.MaxStepsPerUpdate <= 0 {
		c.MaxStepsPerUpdate = 4
	}
	if c.EquilibrationRate <= 0 {
		c.EquilibrationRate = 0.5
	}
	if c.ConductionRate <= 0 {
		c.ConductionRate = 0.1
	}
	if c.LiquidFlowRate <= 0 {
		c.LiquidFlowRate = 0.25
	}
	if c.GasDiffusionRate <= 0 {
		c.GasDiffusionRate = 0.2
	}
	if c.CombustionRate <= 0 {
		c.CombustionRate = 0.5
	}
	if c.HashBuckets <= 0 {
		c.HashBuckets = 1024
	}
	n := 1
	for n < c.HashBuckets {
		n <<= 1
	}
	c.HashBuckets = n
	if c.ActiveListCap <= 0 {
		c.ActiveListCap = 256
	}
}

// SizeCells is the world extent in cells per axis.
func (c WorldConfig) SizeCells() int { return c.ChunksPerAxis * ChunkSize }
