package protocol

// Tool names accepted in TOOL messages.
const (
	ToolAddHeat     = "ADD_HEAT"
	ToolRemoveHeat  = "REMOVE_HEAT"
	ToolAddWater    = "ADD_WATER"
	ToolAddMaterial = "ADD_MATERIAL"
	ToolQueryCell   = "QUERY_CELL"
	ToolQueryChunk  = "QUERY_CHUNK"
)

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	WantMetrics     bool   `json:"want_metrics,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldParams     WorldParams `json:"world_params"`
	MaterialsDigest string      `json:"materials_digest"`
	TuningDigest    string      `json:"tuning_digest,omitempty"`
}

type WorldParams struct {
	ChunksPerAxis    int     `json:"chunks_per_axis"`
	ChunkSize        int     `json:"chunk_size"`
	CellSize         float64 `json:"cell_size"`
	AmbientTempK     float64 `json:"ambient_temp_k"`
	FixedStepSeconds float64 `json:"fixed_step_seconds"`
	WaterGridSize    int     `json:"water_grid_size"`
	Seed             int64   `json:"seed"`
}

// TOOL (client -> server): one actuator invocation. Position is
// world-space; fields beyond pos depend on the tool.
type ToolMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ReqID           string     `json:"req_id"`
	Tool            string     `json:"tool"`
	Pos             [3]float64 `json:"pos"`

	EnergyJ  float64 `json:"energy_j,omitempty"`
	Moles    float64 `json:"moles,omitempty"`
	Material string  `json:"material,omitempty"`
}

// ACK (server -> client): disposition of one TOOL request.
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
}

// CELL_INFO (server -> client): answer to a QUERY_CELL tool.
type CellInfoMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ReqID           string  `json:"req_id"`
	Valid           bool    `json:"valid"`
	Cell            [3]int  `json:"cell"`
	Materials       int     `json:"materials"`
	Primary         string  `json:"primary,omitempty"`
	Phase           string  `json:"phase,omitempty"`
	TemperatureK    float64 `json:"temperature_k"`
	WaterDepth      float64 `json:"water_depth,omitempty"`
}

// CHUNK (server -> client): answer to a QUERY_CHUNK tool. Data is the
// chunk's primary-material layer, RLE-encoded in cell-index order.
type ChunkMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	Valid           bool   `json:"valid"`
	Chunk           [3]int `json:"chunk"`
	Cells           int    `json:"cells"`
	Encoding        string `json:"encoding"` // "RLE"
	Data            string `json:"data,omitempty"`
}

// METRICS (server -> client): periodic stepper stats for subscribed
// sessions.
type MetricsMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`

	Chunks       int `json:"chunks"`
	ActiveChunks int `json:"active_chunks"`
	StableChunks int `json:"stable_chunks"`

	StepMS float64 `json:"step_ms"`

	HeatTransfers    uint64 `json:"heat_transfers"`
	MassTransfers    uint64 `json:"mass_transfers"`
	PhaseTransitions uint64 `json:"phase_transitions"`
	CombustionEvents uint64 `json:"combustion_events"`

	WaterTick     uint64 `json:"water_tick"`
	WaterChecksum uint32 `json:"water_checksum"`
}

// ERROR (server -> client): protocol-level failure outside any request.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
