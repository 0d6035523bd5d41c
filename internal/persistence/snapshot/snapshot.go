// Package snapshot persists the full simulation state as a zstd
// stream: one JSON header line for cheap inspection, then a gob body.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"thermovox.sim/internal/sim/materials"
	"thermovox.sim/internal/sim/water"
	"thermovox.sim/internal/sim/world"
)

type Header struct {
	Version int    `json:"version"`
	Tick    uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed  int64             `json:"seed"`
	World world.WorldConfig `json:"world"`

	Chunks []ChunkV1 `json:"chunks"`
	Water  WaterV1   `json:"water"`
}

type ChunkV1 struct {
	CX, CY, CZ int
	Cells      []CellV1
}

// CellV1 keys the cell by its in-chunk index; empty cells are omitted.
type CellV1 struct {
	Index int
	Mats  []MatV1
}

type MatV1 struct {
	ID      uint8
	Moles   float64
	EnergyJ float64
}

type WaterV1 struct {
	Tick    uint64
	Drained int64
	Depth   []int32
	Terrain []int32
}

// Capture reads the live state into a snapshot. Call it from the loop
// goroutine (or through the host's Sync barrier).
func Capture(w *world.World, s *water.State, seed int64) SnapshotV1 {
	snap := SnapshotV1{
		Header: Header{Version: 1, Tick: w.Tick()},
		Seed:   seed,
		World:  w.Config(),
	}
	w.ForEachChunk(func(ch *world.Chunk) {
		cv := ChunkV1{CX: ch.CX, CY: ch.CY, CZ: ch.CZ}
		for z := 0; z < world.ChunkSize; z++ {
			for y := 0; y < world.ChunkSize; y++ {
				for x := 0; x < world.ChunkSize; x++ {
					cell := ch.CellConst(x, y, z)
					if cell.Empty() {
						continue
					}
					idx := (z << (2 * world.ChunkShift)) | (y << world.ChunkShift) | x
					cc := CellV1{Index: idx}
					cell.ForEach(func(id materials.ID, ms *world.MaterialState) {
						cc.Mats = append(cc.Mats, MatV1{
							ID:      uint8(id),
							Moles:   ms.Moles,
							EnergyJ: ms.EnergyJ,
						})
					})
					cv.Cells = append(cv.Cells, cc)
				}
			}
		}
		if len(cv.Cells) > 0 {
			snap.Chunks = append(snap.Chunks, cv)
		}
	})

	depth, terrain, tick, drained := s.Snapshot()
	snap.Water = WaterV1{Tick: tick, Drained: drained, Depth: depth, Terrain: terrain}
	return snap
}

// Restore rebuilds a world and water solver from a snapshot. The
// restored world starts settled: no chunk is active until something
// touches it.
func Restore(snap SnapshotV1, waterCfg water.Config) (*world.World, *water.State, error) {
	if snap.Header.Version != 1 {
		return nil, nil, fmt.Errorf("snapshot version %d not supported", snap.Header.Version)
	}
	w := world.New(snap.World)
	for _, cv := range snap.Chunks {
		baseX := cv.CX << world.ChunkShift
		baseY := cv.CY << world.ChunkShift
		baseZ := cv.CZ << world.ChunkShift
		for _, cc := range cv.Cells {
			x := baseX + (cc.Index & world.ChunkMask)
			y := baseY + ((cc.Index >> world.ChunkShift) & world.ChunkMask)
			z := baseZ + (cc.Index >> (2 * world.ChunkShift))
			cell := w.CellForWrite(x, y, z)
			if cell == nil {
				return nil, nil, fmt.Errorf("snapshot cell (%d,%d,%d) out of bounds", x, y, z)
			}
			for _, m := range cc.Mats {
				cell.AddMaterial(materials.ID(m.ID), m.Moles, m.EnergyJ)
			}
		}
	}
	w.SetTick(snap.Header.Tick)
	w.Settle()

	terrain := make([]float64, len(snap.Water.Terrain))
	s, err := water.New(waterCfg, terrain)
	if err != nil {
		return nil, nil, err
	}
	if err := s.RestoreSnapshot(snap.Water.Depth, snap.Water.Terrain, snap.Water.Tick, snap.Water.Drained); err != nil {
		return nil, nil, err
	}
	return w, s, nil
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Read header line (ignore it for now, gob also contains header).
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
