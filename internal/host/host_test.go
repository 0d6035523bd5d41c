package host

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"math"
	"testing"
	"time"

	"thermovox.sim/internal/protocol"
	"thermovox.sim/internal/sim/materials"
	"thermovox.sim/internal/sim/water"
	"thermovox.sim/internal/sim/world"
)

func newTestHost(t *testing.T, seed int64) *Host {
	t.Helper()
	h, err := New(Config{
		Seed:  seed,
		World: world.WorldConfig{ChunksPerAxis: 2},
	}, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	return h
}

// testSession registers a fake session directly and returns its frame
// queue; applyTool tests read acks and responses from it.
func testSession(h *Host) chan []byte {
	out := make(chan []byte, 16)
	h.sessions["S1"] = &session{id: "S1", name: "test", out: out}
	return out
}

func readFrame(t *testing.T, out chan []byte, v any) {
	t.Helper()
	select {
	case b := <-out:
		if err := json.Unmarshal(b, v); err != nil {
			t.Fatalf("decode frame: %v\n%s", err, b)
		}
	default:
		t.Fatalf("no frame queued")
	}
}

func sendTool(h *Host, msg protocol.ToolMsg) {
	msg.Type = protocol.TypeTool
	msg.ProtocolVersion = protocol.Version
	h.applyTool(ToolRequest{SessionID: "S1", Msg: msg})
}

func TestNew_SeedDeterminesTerrain(t *testing.T) {
	a := newTestHost(t, 42)
	b := newTestHost(t, 42)
	c := newTestHost(t, 43)

	if a.world.ChunkCount() == 0 {
		t.Fatalf("terrain seeding created no chunks")
	}
	if a.world.ActiveCount() != 0 {
		t.Fatalf("seeded terrain must start settled, %d active", a.world.ActiveCount())
	}
	if a.world.Checksum() != b.world.Checksum() {
		t.Fatalf("same seed produced different terrain")
	}
	if a.world.Checksum() == c.world.Checksum() {
		t.Fatalf("different seeds produced identical terrain")
	}
	if a.water.Checksum() != b.water.Checksum() {
		t.Fatalf("same seed produced different water terrain")
	}
}

func TestApplyTool_RejectsBadRequests(t *testing.T) {
	h := newTestHost(t, 1)
	out := testSession(h)

	cases := []struct {
		name string
		msg  protocol.ToolMsg
		code string
	}{
		{"zero heat", protocol.ToolMsg{ReqID: "r1", Tool: protocol.ToolAddHeat, Pos: [3]float64{0, 0, 0}}, protocol.ErrBadAmount},
		{"far away", protocol.ToolMsg{ReqID: "r2", Tool: protocol.ToolAddHeat, Pos: [3]float64{1e6, 0, 0}, EnergyJ: 100}, protocol.ErrOutOfBounds},
		{"unknown material", protocol.ToolMsg{ReqID: "r3", Tool: protocol.ToolAddMaterial, Material: "adamantium", Moles: 5}, protocol.ErrBadMaterial},
		{"negative water", protocol.ToolMsg{ReqID: "r4", Tool: protocol.ToolAddWater, Moles: -1}, protocol.ErrBadAmount},
		{"unknown tool", protocol.ToolMsg{ReqID: "r5", Tool: "SMITE"}, protocol.ErrBadTool},
	}
	for _, tc := range cases {
		sendTool(h, tc.msg)
		var ack protocol.AckMsg
		readFrame(t, out, &ack)
		if ack.Type != protocol.TypeAck || ack.AckFor != tc.msg.ReqID {
			t.Fatalf("%s: bad ack routing: %+v", tc.name, ack)
		}
		if ack.Accepted || ack.Code != tc.code {
			t.Fatalf("%s: accepted=%v code=%q, want rejection %q", tc.name, ack.Accepted, ack.Code, tc.code)
		}
	}
}

func TestApplyTool_MaterialHeatAndQuery(t *testing.T) {
	h := newTestHost(t, 1)
	out := testSession(h)
	pos := [3]float64{0.1, 0.1, 0.1}

	sendTool(h, protocol.ToolMsg{ReqID: "m1", Tool: protocol.ToolAddMaterial, Pos: pos, Material: "rock", Moles: 50})
	var ack protocol.AckMsg
	readFrame(t, out, &ack)
	if !ack.Accepted {
		t.Fatalf("add material rejected: %+v", ack)
	}

	sendTool(h, protocol.ToolMsg{ReqID: "m2", Tool: protocol.ToolAddHeat, Pos: pos, EnergyJ: 9000})
	readFrame(t, out, &ack)
	if !ack.Accepted {
		t.Fatalf("add heat rejected: %+v", ack)
	}

	sendTool(h, protocol.ToolMsg{ReqID: "m3", Tool: protocol.ToolQueryCell, Pos: pos})
	var info protocol.CellInfoMsg
	readFrame(t, out, &info)
	if info.Type != protocol.TypeCellInfo || info.ReqID != "m3" {
		t.Fatalf("query response misrouted: %+v", info)
	}
	if !info.Valid || info.Primary != "rock" {
		t.Fatalf("cell info = %+v, want valid rock cell", info)
	}
	if info.TemperatureK <= h.cfg.World.AmbientTempK {
		t.Fatalf("temperature %f did not rise past ambient after heating", info.TemperatureK)
	}
	readFrame(t, out, &ack)
	if !ack.Accepted || ack.AckFor != "m3" {
		t.Fatalf("query must still ack: %+v", ack)
	}
}

func TestApplyTool_AddWaterFeedsBothModels(t *testing.T) {
	h := newTestHost(t, 1)
	out := testSession(h)

	before := h.water.TotalWater()
	sendTool(h, protocol.ToolMsg{ReqID: "w1", Tool: protocol.ToolAddWater, Pos: [3]float64{0.1, 0.1, 0.1}, Moles: 5000})
	var ack protocol.AckMsg
	readFrame(t, out, &ack)
	if !ack.Accepted {
		t.Fatalf("add water rejected: %+v", ack)
	}

	if got := h.world.TotalMoles(materials.Water); math.Abs(got-5000) > 1e-9 {
		t.Fatalf("matter grid water = %f moles, want 5000", got)
	}
	added := h.water.TotalWater() - before
	want := int64(water.FromFloat(5000 / molesPerDepthUnit))
	if added != want {
		t.Fatalf("solver depth rose by %d, want %d", added, want)
	}
}

func TestApplyTool_QueryChunk(t *testing.T) {
	h := newTestHost(t, 1)
	out := testSession(h)
	pos := [3]float64{0.1, 0.1, 0.1}

	sendTool(h, protocol.ToolMsg{ReqID: "c0", Tool: protocol.ToolAddMaterial, Pos: pos, Material: "rock", Moles: 50})
	var ack protocol.AckMsg
	readFrame(t, out, &ack)

	sendTool(h, protocol.ToolMsg{ReqID: "c1", Tool: protocol.ToolQueryChunk, Pos: pos})
	var chunk protocol.ChunkMsg
	readFrame(t, out, &chunk)
	if chunk.Type != protocol.TypeChunk || chunk.ReqID != "c1" {
		t.Fatalf("chunk response misrouted: %+v", chunk)
	}
	if !chunk.Valid || chunk.Cells != world.ChunkVolume || chunk.Encoding != "RLE" || chunk.Data == "" {
		t.Fatalf("chunk payload incomplete: valid=%v cells=%d enc=%q", chunk.Valid, chunk.Cells, chunk.Encoding)
	}
	readFrame(t, out, &ack)
	if !ack.Accepted || ack.AckFor != "c1" {
		t.Fatalf("chunk query must ack: %+v", ack)
	}

	// Out-of-range queries still answer, marked invalid.
	sendTool(h, protocol.ToolMsg{ReqID: "c2", Tool: protocol.ToolQueryChunk, Pos: [3]float64{1e6, 0, 0}})
	readFrame(t, out, &chunk)
	if chunk.Valid {
		t.Fatalf("out-of-range chunk query must report invalid")
	}
	readFrame(t, out, &ack)
}

func TestRun_JoinSyncAndShutdown(t *testing.T) {
	h := newTestHost(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.Run(ctx) }()

	resp := make(chan JoinResponse, 1)
	h.Join() <- JoinRequest{ClientName: "itest", Out: make(chan []byte, 8), Resp: resp}
	select {
	case r := <-resp:
		if r.SessionID == "" || r.Welcome.Type != protocol.TypeWelcome {
			t.Fatalf("bad join response: %+v", r)
		}
		if r.Welcome.WorldParams.ChunksPerAxis != 2 || r.Welcome.MaterialsDigest == "" {
			t.Fatalf("welcome params incomplete: %+v", r.Welcome)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("join timed out")
	}

	// The sync barrier runs fn on the loop goroutine and blocks the
	// caller until it returns.
	var chunks int
	h.Sync(func(w *world.World, _ *water.State) { chunks = w.ChunkCount() })
	if chunks == 0 {
		t.Fatalf("sync barrier saw an empty world")
	}

	cancel()
	select {
	case err := <-errc:
		if err != context.Canceled {
			t.Fatalf("run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("shutdown timed out")
	}
}
