package host

import (
	"encoding/json"

	"thermovox.sim/internal/protocol"
	"thermovox.sim/internal/sim/encoding"
	"thermovox.sim/internal/sim/materials"
	"thermovox.sim/internal/sim/water"
	"thermovox.sim/internal/sim/world"
)

// One depth unit in the 2D solver corresponds to this many moles of
// liquid water in the matter grid, so ADD_WATER feeds both models at a
// consistent scale.
const molesPerDepthUnit = 1000.0

func (h *Host) applyTool(req ToolRequest) {
	sess := h.sessions[req.SessionID]
	if sess == nil {
		return
	}
	msg := req.Msg
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          msg.ReqID,
		ServerTick:      h.tick,
	}

	wx, wy, wz := msg.Pos[0], msg.Pos[1], msg.Pos[2]

	switch msg.Tool {
	case protocol.ToolAddHeat, protocol.ToolRemoveHeat:
		if msg.EnergyJ <= 0 {
			h.reject(sess, &ack, protocol.ErrBadAmount, "energy_j must be positive")
			return
		}
		if _, _, _, ok := h.world.WorldToCell(wx, wy, wz); !ok {
			h.reject(sess, &ack, protocol.ErrOutOfBounds, "position outside world")
			return
		}
		if msg.Tool == protocol.ToolAddHeat {
			h.world.AddHeatAt(wx, wy, wz, msg.EnergyJ)
		} else {
			h.world.RemoveHeatAt(wx, wy, wz, msg.EnergyJ)
		}

	case protocol.ToolAddWater:
		if msg.Moles <= 0 {
			h.reject(sess, &ack, protocol.ErrBadAmount, "moles must be positive")
			return
		}
		if _, _, _, ok := h.world.WorldToCell(wx, wy, wz); !ok {
			h.reject(sess, &ack, protocol.ErrOutOfBounds, "position outside world")
			return
		}
		h.world.AddWaterAt(wx, wy, wz, msg.Moles)
		h.water.AddAtWorld(wx, wz, water.FromFloat(msg.Moles/molesPerDepthUnit))

	case protocol.ToolAddMaterial:
		id, ok := materials.ByName(msg.Material)
		if !ok {
			h.reject(sess, &ack, protocol.ErrBadMaterial, "unknown material: "+msg.Material)
			return
		}
		if msg.Moles <= 0 {
			h.reject(sess, &ack, protocol.ErrBadAmount, "moles must be positive")
			return
		}
		x, y, z, ok := h.world.WorldToCell(wx, wy, wz)
		if !ok {
			h.reject(sess, &ack, protocol.ErrOutOfBounds, "position outside world")
			return
		}
		h.world.AddMaterialAtCell(x, y, z, id, msg.Moles)

	case protocol.ToolQueryCell:
		info := h.world.CellInfoAt(wx, wy, wz)
		resp := protocol.CellInfoMsg{
			Type:            protocol.TypeCellInfo,
			ProtocolVersion: protocol.Version,
			ReqID:           msg.ReqID,
			Valid:           info.Valid,
			Cell:            info.Cell,
			Materials:       info.Materials,
			Primary:         info.Primary,
			Phase:           info.Phase,
			TemperatureK:    info.TemperatureK,
		}
		if info.Valid {
			gx := int((wx - h.cfg.Water.OriginX) / h.cfg.Water.CellSize)
			gz := int((wz - h.cfg.Water.OriginZ) / h.cfg.Water.CellSize)
			resp.WaterDepth = h.water.Depth(gx, gz).Float()
		}
		h.send(sess, resp)
		ack.Accepted = true
		h.send(sess, ack)
		return

	case protocol.ToolQueryChunk:
		resp := protocol.ChunkMsg{
			Type:            protocol.TypeChunk,
			ProtocolVersion: protocol.Version,
			ReqID:           msg.ReqID,
			Encoding:        "RLE",
		}
		if x, y, z, ok := h.world.WorldToCell(wx, wy, wz); ok {
			cx, cy, cz := x>>world.ChunkShift, y>>world.ChunkShift, z>>world.ChunkShift
			resp.Chunk = [3]int{cx, cy, cz}
			if layer, ok := h.world.PrimaryLayer(cx, cy, cz); ok {
				resp.Valid = true
				resp.Cells = len(layer)
				resp.Data = encoding.EncodeRLE(layer)
			}
		}
		h.send(sess, resp)
		ack.Accepted = true
		h.send(sess, ack)
		return

	default:
		h.reject(sess, &ack, protocol.ErrBadTool, "unknown tool: "+msg.Tool)
		return
	}

	ack.Accepted = true
	h.send(sess, ack)
}

func (h *Host) reject(sess *session, ack *protocol.AckMsg, code, message string) {
	ack.Accepted = false
	ack.Code = code
	ack.Message = message
	h.send(sess, *ack)
}

func (h *Host) broadcastMetrics() {
	m := h.world.Metrics()
	if h.cfg.MetricsSink != nil {
		h.cfg.MetricsSink(m)
	}
	msg := protocol.MetricsMsg{
		Type:            protocol.TypeMetrics,
		ProtocolVersion: protocol.Version,
		Tick:            m.Tick,
		Chunks:          m.Chunks,
		ActiveChunks:    m.ActiveChunks,
		StableChunks:    m.StableChunks,
		StepMS:          m.StepMS,
		HeatTransfers:   m.Counters.HeatTransfers,
		MassTransfers:   m.Counters.MassTransfers,
		PhaseTransitions: m.Counters.PhaseTransitions,
		CombustionEvents: m.Counters.CombustionEvents,
		WaterTick:        h.water.Tick(),
		WaterChecksum:    h.water.Checksum(),
	}
	for _, sess := range h.sessions {
		if sess.wantMetrics {
			h.send(sess, msg)
		}
	}
	h.world.ResetCounters()
}

// send marshals and pushes to the session's writer queue; a full queue
// drops the frame rather than stalling the loop.
func (h *Host) send(sess *session, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.log.Printf("marshal for %s: %v", sess.id, err)
		return
	}
	select {
	case sess.out <- b:
	default:
		h.log.Printf("session %s queue full, dropping %d bytes", sess.id, len(b))
	}
}
