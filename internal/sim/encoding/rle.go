// Package encoding holds the wire codec for cell material grids:
// run-length varint pairs wrapped in base64. Chunk primary-material
// layers compress extremely well under RLE because most of a chunk is
// either empty or a single material.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// EncodeRLE encodes a sequence of material ids into base64(varint
// pairs). The pairs are (material_id, run_len) repeated.
func EncodeRLE(ids []uint8) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	i := 0
	for i < len(ids) {
		m := ids[i]
		run := 1
		for j := i + 1; j < len(ids) && ids[j] == m; j++ {
			run++
		}

		n := binary.PutUvarint(tmp[:], uint64(m))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])

		i += run
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRLE reverses EncodeRLE. want is the expected cell count; pass 0
// to accept any length.
func DecodeRLE(b64 string, want int) ([]uint8, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []uint8
	for i := 0; i < len(raw); {
		m, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if m > 0xFF {
			return nil, fmt.Errorf("material id too large: %d", m)
		}
		if want > 0 && len(out)+int(run) > want {
			return nil, fmt.Errorf("run overflows expected %d cells", want)
		}
		for k := 0; k < int(run); k++ {
			out = append(out, uint8(m))
		}
	}
	if want > 0 && len(out) != want {
		return nil, fmt.Errorf("decoded %d cells, want %d", len(out), want)
	}
	return out, nil
}
