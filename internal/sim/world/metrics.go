package world

// Counters accumulate between emits; the caller resets them after each
// reporting interval.
type Counters struct {
	Steps            uint64 `json:"steps"`
	ChunksProcessed  uint64 `json:"chunks_processed"`
	CellsProcessed   uint64 `json:"cells_processed"`
	HeatTransfers    uint64 `json:"heat_transfers"`
	MassTransfers    uint64 `json:"mass_transfers"`
	PhaseTransitions uint64 `json:"phase_transitions"`
	CombustionEvents uint64 `json:"combustion_events"`
	NeighborLookups  uint64 `json:"neighbor_lookups"`
	StepNanos        int64  `json:"step_nanos"`
}

// MetricsSnapshot is the periodic structured view emitted by the host.
type MetricsSnapshot struct {
	Tick         uint64 `json:"tick"`
	Chunks       int    `json:"chunks"`
	ActiveChunks int    `json:"active_chunks"`
	StableChunks int    `json:"stable_chunks"`

	Counters Counters `json:"counters"`

	StepMS float64 `json:"step_ms"`
}

// Metrics snapshots the counters and list sizes. Updated from the world
// loop goroutine; emit then ResetCounters to start a fresh interval.
func (w *World) Metrics() MetricsSnapshot {
	stable := 0
	w.ForEachChunk(func(ch *Chunk) {
		if ch.stable {
			stable++
		}
	})
	steps := w.counters.Steps
	var stepMS float64
	if steps > 0 {
		stepMS = float64(w.counters.StepNanos) / float64(steps) / 1e6
	}
	return MetricsSnapshot{
		Tick:         w.tick,
		Chunks:       w.chunkCount,
		ActiveChunks: len(w.active),
		StableChunks: stable,
		Counters:     w.counters,
		StepMS:       stepMS,
	}
}

// ResetCounters zeroes the per-interval counters.
func (w *World) ResetCounters() { w.counters = Counters{} }
