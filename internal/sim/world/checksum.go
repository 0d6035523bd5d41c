package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"math/bits"
	"sort"
)

// Checksum is a cheap XOR fold over the matter grid for debug
// comparisons. XOR keeps it independent of chunk iteration order; each
// cell's contribution is keyed by its world-cell coordinate.
func (w *World) Checksum() uint64 {
	var sum uint64
	w.ForEachChunk(func(ch *Chunk) {
		baseX := ch.CX << ChunkShift
		baseY := ch.CY << ChunkShift
		baseZ := ch.CZ << ChunkShift
		for i := range ch.cells {
			cell := &ch.cells[i]
			if cell.Empty() {
				continue
			}
			x := baseX + (i & ChunkMask)
			y := baseY + ((i >> ChunkShift) & ChunkMask)
			z := baseZ + (i >> (2 * ChunkShift))
			key := mix64(uint64(uint32(int32(x)))<<42 ^ uint64(uint32(int32(y)))<<21 ^ uint64(uint32(int32(z))))
			mask := cell.present
			for mask != 0 {
				m := bits.TrailingZeros32(mask)
				mask &= mask - 1
				s := &cell.mats[m]
				sum ^= mix64(key ^ uint64(m)<<56 ^ math.Float64bits(s.Moles))
				sum ^= mix64(key ^ uint64(m)<<48 ^ math.Float64bits(s.EnergyJ))
			}
		}
	})
	return sum
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

type chunkKey struct{ cx, cy, cz int }

// StateDigest is a sha256 over all chunks in coordinate order,
// including per-material moles and energy bits. Determinism tests run
// two worlds in lockstep and compare digests per tick.
func (w *World) StateDigest() string {
	var keys []chunkKey
	w.ForEachChunk(func(ch *Chunk) {
		keys = append(keys, chunkKey{ch.CX, ch.CY, ch.CZ})
	})
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.cx != b.cx {
			return a.cx < b.cx
		}
		if a.cy != b.cy {
			return a.cy < b.cy
		}
		return a.cz < b.cz
	})

	h := sha256.New()
	var buf [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	writeU64(w.tick)
	for _, k := range keys {
		ch := w.Chunk(k.cx, k.cy, k.cz)
		writeU64(uint64(uint32(int32(k.cx))))
		writeU64(uint64(uint32(int32(k.cy))))
		writeU64(uint64(uint32(int32(k.cz))))
		for i := range ch.cells {
			cell := &ch.cells[i]
			if cell.Empty() {
				continue
			}
			writeU64(uint64(i))
			writeU64(uint64(cell.present))
			mask := cell.present
			for mask != 0 {
				m := bits.TrailingZeros32(mask)
				mask &= mask - 1
				writeU64(math.Float64bits(cell.mats[m].Moles))
				writeU64(math.Float64bits(cell.mats[m].EnergyJ))
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
