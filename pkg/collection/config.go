package collection

import (
	"github.com/nyxdb/nyx/pkg/hnsw"
	"github.com/nyxdb/nyx/pkg/vecmath"
)

// StorageMode names whether vectors are memory-mapped (durable,
// reopenable) or kept only in memory (fast-insert). It is recorded in
// config.json only: Open always memory-maps vectors.bin, whatever the mode.
type StorageMode string

const (
	StorageMmap       StorageMode = "mmap"
	StorageFastInsert StorageMode = "fast-insert"
)

// Config is one collection's persistent configuration, written to and
// read back from config.json. Grouped the way this lineage's
// pkg/nornicdb.Config groups Storage/Embeddings/Decay/... concerns —
// here the groups are Identity/Vector/Quality/Storage.
type Config struct {
	// Identity
	Name string `json:"name" yaml:"name"`

	// Vector space
	Dimension int            `json:"dimension" yaml:"dimension"`
	Metric    vecmath.Metric `json:"metric" yaml:"metric"`

	// Storage
	StorageMode  StorageMode `json:"storage_mode" yaml:"storage_mode"`
	MetadataOnly bool        `json:"metadata_only" yaml:"metadata_only"` // true: no vector index at all, filter/graph-only collection

	// HNSW construction/search quality
	HNSWProfile hnsw.Profile `json:"hnsw_profile" yaml:"hnsw_profile"`
	HNSWConfig  hnsw.Config  `json:"hnsw_config" yaml:"hnsw_config"`

	// Dual-precision flag. Recorded only: this package trains no quantizer,
	// so the index never enables dual precision and searches in f32.
	DualPrecisionEnabled bool `json:"dual_precision_enabled" yaml:"dual_precision_enabled"`

	// IndexedProperties declares which (label, property) pairs
	// pkg/propindex maintains an equality index for. Re-applied to a
	// fresh PropertyIndex every Open, since the index itself is a
	// rebuildable derivative of payloads.log rather than separately
	// persisted state.
	IndexedProperties [][2]string `json:"indexed_properties" yaml:"indexed_properties"`

	// FullTextFields names the payload fields bm25 indexes as document
	// text, in "label.field" form. Rebuilt from payloads.log on every
	// Open for the same reason as IndexedProperties.
	FullTextFields []string `json:"full_text_fields" yaml:"full_text_fields"`

	// PointCount is persisted so Stats() can report it without a full
	// idmap walk immediately after reopen; it is refreshed on every
	// Insert/Delete.
	PointCount int `json:"point_count" yaml:"-"`
}

// DefaultConfig returns a Balanced-profile, mmap-backed, cosine-metric
// configuration for the given name and dimension.
func DefaultConfig(name string, dimension int) *Config {
	metric := vecmath.Cosine
	return &Config{
		Name:        name,
		Dimension:   dimension,
		Metric:      metric,
		StorageMode: StorageMmap,
		HNSWProfile: hnsw.Balanced,
		HNSWConfig:  hnsw.DefaultConfig(metric),
	}
}
