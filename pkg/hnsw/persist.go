package hnsw

import "github.com/nyxdb/nyx/pkg/quantize"

// NodeSnapshot is one graph node's persisted state: its level, its
// per-level neighbor lists, and (when dual-precision is active) its
// quantized vector encoding.
type NodeSnapshot struct {
	Idx       uint64
	Level     int
	Neighbors [][]uint64
	Quantized []byte
}

// Snapshot is the full on-disk representation of an Index's graph
// structure, independent of the vectors themselves (those live in
// vecstore's vectors.bin and are re-supplied via VectorSource on Import).
// This is what the collection layer encodes into hnsw.bin.
type Snapshot struct {
	Config         Config
	Dim            int
	Nodes          []NodeSnapshot
	Entry          uint64
	HasEntry       bool
	MaxLevel       int
	TombstoneCount int64
	Quant          *quantize.Params
}

// Export snapshots the graph's current structure for persistence. It does
// not touch idx.vectors — callers persist vectors.bin separately and
// re-supply a VectorSource on Import.
func (idx *Index) Export() Snapshot {
	idx.structMu.RLock()
	nodes := make([]NodeSnapshot, 0, len(idx.nodes))
	for gidx, node := range idx.nodes {
		node.mu.RLock()
		neighbors := make([][]uint64, len(node.neighbors))
		for l, ns := range node.neighbors {
			neighbors[l] = append([]uint64(nil), ns...)
		}
		quantized := append([]byte(nil), node.quantized...)
		node.mu.RUnlock()

		nodes = append(nodes, NodeSnapshot{
			Idx:       gidx,
			Level:     node.level,
			Neighbors: neighbors,
			Quantized: quantized,
		})
	}
	snap := Snapshot{
		Config:         idx.config,
		Dim:            idx.dim,
		Nodes:          nodes,
		Entry:          idx.entry,
		HasEntry:       idx.hasEntry,
		MaxLevel:       idx.maxLevel,
		TombstoneCount: idx.tombstoneCount,
	}
	idx.structMu.RUnlock()

	if idx.quant != nil {
		snap.Quant = &quantize.Params{
			Min:   append([]float32(nil), idx.quant.Min...),
			Scale: append([]float32(nil), idx.quant.Scale...),
		}
	}
	return snap
}

// Import rebuilds an Index from a Snapshot produced by Export, wiring it to
// the given vector source and liveness oracle (both supplied fresh by the
// collection layer on reopen, since a Snapshot carries no vector data of
// its own).
func Import(snap Snapshot, vectors VectorSource, liveness Liveness) *Index {
	idx := New(snap.Config, snap.Dim, vectors, liveness)
	idx.entry = snap.Entry
	idx.hasEntry = snap.HasEntry
	idx.maxLevel = snap.MaxLevel
	idx.tombstoneCount = snap.TombstoneCount

	for _, ns := range snap.Nodes {
		node := &graphNode{
			idx:       ns.Idx,
			level:     ns.Level,
			neighbors: make([][]uint64, len(ns.Neighbors)),
			quantized: append([]byte(nil), ns.Quantized...),
		}
		for l, ns2 := range ns.Neighbors {
			node.neighbors[l] = append([]uint64(nil), ns2...)
		}
		idx.nodes[ns.Idx] = node
	}

	if snap.Quant != nil {
		idx.quant = &quantize.Params{
			Min:   append([]float32(nil), snap.Quant.Min...),
			Scale: append([]float32(nil), snap.Quant.Scale...),
		}
	}
	return idx
}
