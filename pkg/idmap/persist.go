package idmap

import (
	"encoding/binary"
	"fmt"
)

// pairRecordSize is the byte width of one serialized (id, idx) pair: two
// little-endian uint64 fields.
const pairRecordSize = 16

// Serialize encodes Parts as a flat binary blob for id_mappings.bin: an
// 8-byte next-idx header, an 8-byte pair count, followed by fixed-width
// (id, idx) pairs. Mirrors pkg/ttl's Serialize/Deserialize wire shape.
func (p Parts) Serialize() []byte {
	buf := make([]byte, 16, 16+len(p.IDToIdx)*pairRecordSize)
	binary.LittleEndian.PutUint64(buf[0:8], p.NextIdx)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(p.IDToIdx)))
	for id, idx := range p.IDToIdx {
		var rec [pairRecordSize]byte
		binary.LittleEndian.PutUint64(rec[0:8], id)
		binary.LittleEndian.PutUint64(rec[8:16], idx)
		buf = append(buf, rec[:]...)
	}
	return buf
}

// DeserializeParts rebuilds a Parts from Serialize's output, ready to pass
// to FromParts.
func DeserializeParts(data []byte) (Parts, error) {
	if len(data) < 16 {
		return Parts{}, fmt.Errorf("idmap: truncated header: %d bytes", len(data))
	}
	nextIdx := binary.LittleEndian.Uint64(data[0:8])
	count := binary.LittleEndian.Uint64(data[8:16])
	want := 16 + count*pairRecordSize
	if uint64(len(data)) != want {
		return Parts{}, fmt.Errorf("idmap: expected %d bytes for %d pairs, got %d", want, count, len(data))
	}

	idToIdx := make(map[uint64]uint64, count)
	for i := uint64(0); i < count; i++ {
		offset := 16 + i*pairRecordSize
		rec := data[offset : offset+pairRecordSize]
		id := binary.LittleEndian.Uint64(rec[0:8])
		idx := binary.LittleEndian.Uint64(rec[8:16])
		idToIdx[id] = idx
	}
	return Parts{IDToIdx: idToIdx, NextIdx: nextIdx}, nil
}
