// Package host runs the simulation loop and owns all mutable state.
// Everything mutates from the single Run goroutine; collaborators talk
// to it over channels, so the sim core itself stays lock-free.
package host

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"thermovox.sim/internal/protocol"
	"thermovox.sim/internal/sim/materials"
	"thermovox.sim/internal/sim/noise"
	"thermovox.sim/internal/sim/water"
	"thermovox.sim/internal/sim/world"
)

type Config struct {
	Seed              int64
	MetricsEveryTicks int
	World             world.WorldConfig
	Water             water.Config

	// MetricsSink, when set, receives every metrics interval before the
	// counters reset. The server wires persistence through it.
	MetricsSink func(world.MetricsSnapshot)
}

func (c *Config) applyDefaults() {
	if c.MetricsEveryTicks <= 0 {
		c.MetricsEveryTicks = 60
	}
}

// JoinRequest registers a session; the host replies with a WELCOME on
// Resp and then pushes server-initiated frames to Out.
type JoinRequest struct {
	ClientName  string
	WantMetrics bool
	Out         chan []byte
	Resp        chan JoinResponse
}

type JoinResponse struct {
	SessionID string
	Welcome   protocol.WelcomeMsg
}

// ToolRequest carries one TOOL message from a session.
type ToolRequest struct {
	SessionID string
	Msg       protocol.ToolMsg
}

type syncReq struct {
	fn   func(w *world.World, s *water.State)
	done chan struct{}
}

type session struct {
	id          string
	name        string
	wantMetrics bool
	out         chan []byte
}

type Host struct {
	cfg   Config
	log   *log.Logger
	world *world.World
	water *water.State

	join  chan JoinRequest
	leave chan string
	tools chan ToolRequest
	sync  chan syncReq
	stop  chan struct{}

	sessions    map[string]*session
	nextSession uint64
	tick        uint64
}

// New builds the world and water solver from one seed: the noise
// generator fills both the rock floor of the matter grid and the water
// solver's terrain.
func New(cfg Config, logger *log.Logger) (*Host, error) {
	cfg.applyDefaults()
	w := world.New(cfg.World)
	cfg.World = w.Config()

	// Center the water grid on the world origin unless tuning pinned it.
	if cfg.Water.CellSize <= 0 {
		cfg.Water.CellSize = cfg.World.CellSize
	}
	if cfg.Water.OriginX == 0 && cfg.Water.OriginZ == 0 {
		half := float64(water.GridSize) * cfg.Water.CellSize / 2
		cfg.Water.OriginX = -half
		cfg.Water.OriginZ = -half
	}

	gen := noise.NewGenerator(cfg.Seed, nil)
	terrain := gen.Heightmap(water.GridSize, water.GridSize)
	ws, err := water.New(cfg.Water, terrain)
	if err != nil {
		return nil, fmt.Errorf("water solver: %w", err)
	}
	h := NewFromState(cfg, w, ws, logger)
	h.seedTerrain(gen)
	return h, nil
}

// NewFromState wraps already-built state, e.g. a snapshot restore. No
// terrain is seeded; the state is taken as is.
func NewFromState(cfg Config, w *world.World, ws *water.State, logger *log.Logger) *Host {
	cfg.applyDefaults()
	cfg.World = w.Config()
	cfg.Water = ws.Config()
	return &Host{
		cfg:      cfg,
		log:      logger,
		world:    w,
		water:    ws,
		join:     make(chan JoinRequest, 8),
		leave:    make(chan string, 8),
		tools:    make(chan ToolRequest, 64),
		sync:     make(chan syncReq),
		stop:     make(chan struct{}),
		sessions: make(map[string]*session),
	}
}

// seedTerrain lays a rock floor under every column so heat sinks and
// liquid flow have ground to interact with.
func (h *Host) seedTerrain(gen *noise.Generator) {
	size := h.cfg.World.SizeCells()
	floor := h.cfg.World.GroundYCells
	for z := 0; z < size; z++ {
		for x := 0; x < size; x++ {
			hgt := int(gen.HeightAt(float64(x), float64(z)) / h.cfg.World.CellSize)
			top := floor + hgt
			if top < 0 {
				top = 0
			}
			if top >= size {
				top = size - 1
			}
			// A few cells of rock at the surface; deeper ground is
			// implicit and stays out of the sparse grid.
			for y := top - 2; y <= top; y++ {
				if y < 0 {
					continue
				}
				h.world.AddMaterialAtCell(x, y, z, materials.Rock, 400)
			}
		}
	}
	// Terrain placement is setup, not activity; start settled.
	h.world.Settle()
}

func (h *Host) Join() chan<- JoinRequest  { return h.join }
func (h *Host) Leave() chan<- string      { return h.leave }
func (h *Host) Tools() chan<- ToolRequest { return h.tools }

// Sync runs fn on the loop goroutine between ticks and blocks until it
// returns. Persistence uses it to read a consistent state.
func (h *Host) Sync(fn func(w *world.World, s *water.State)) {
	done := make(chan struct{})
	h.sync <- syncReq{fn: fn, done: done}
	<-done
}

func (h *Host) Stop() { close(h.stop) }

// Run drives the fixed-timestep loop until the context ends.
func (h *Host) Run(ctx context.Context) error {
	step := time.Duration(float64(time.Second) * h.cfg.World.FixedStepSeconds)
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	var pendingTools []ToolRequest
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.stop:
			return nil
		case req := <-h.join:
			h.handleJoin(req)
		case id := <-h.leave:
			delete(h.sessions, id)
		case req := <-h.tools:
			pendingTools = append(pendingTools, req)
		case req := <-h.sync:
			req.fn(h.world, h.water)
			close(req.done)
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			for _, req := range pendingTools {
				h.applyTool(req)
			}
			pendingTools = pendingTools[:0]
			h.world.PhysicsStep(dt)
			h.water.Update(dt)
			h.tick++
			if h.tick%uint64(h.cfg.MetricsEveryTicks) == 0 {
				h.broadcastMetrics()
			}
		}
	}
}

func (h *Host) handleJoin(req JoinRequest) {
	h.nextSession++
	id := fmt.Sprintf("S%d", h.nextSession)
	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		name = "client"
	}
	h.sessions[id] = &session{
		id:          id,
		name:        name,
		wantMetrics: req.WantMetrics,
		out:         req.Out,
	}
	wc := h.cfg.World
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       id,
		WorldParams: protocol.WorldParams{
			ChunksPerAxis:    wc.ChunksPerAxis,
			ChunkSize:        world.ChunkSize,
			CellSize:         wc.CellSize,
			AmbientTempK:     wc.AmbientTempK,
			FixedStepSeconds: wc.FixedStepSeconds,
			WaterGridSize:    water.GridSize,
			Seed:             h.cfg.Seed,
		},
		MaterialsDigest: materials.Digest(),
	}
	req.Resp <- JoinResponse{SessionID: id, Welcome: welcome}
	h.log.Printf("session %s joined (%s)", id, name)
}

// Tick reports the host tick counter; tests drive the loop indirectly
// through it.
func (h *Host) Tick() uint64 { return h.tick }
