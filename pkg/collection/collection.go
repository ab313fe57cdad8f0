// Package collection is the composition root tying together one
// collection's on-disk stores — vectors, payloads, the HNSW graph, the id
// mapping, property/full-text/edge/join indexes, and TTLs — into the
// single directory layout spec §6 describes, and exposes the query
// surface (parse -> classify -> execute -> envelope) over all of them.
//
// Shaped like this lineage's pkg/nornicdb.DB: a Config struct with
// grouped fields and a DefaultConfig(), a struct holding mu/closed plus
// named component fields, an Open(dir, config) and a Close(), generalized
// from memory-tier/decay/embedding concerns to vector+graph+metadata+
// full-text concerns.
package collection

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/nyxdb/nyx/pkg/bm25"
	"github.com/nyxdb/nyx/pkg/columnstore"
	"github.com/nyxdb/nyx/pkg/graphstore"
	"github.com/nyxdb/nyx/pkg/hnsw"
	"github.com/nyxdb/nyx/pkg/idmap"
	"github.com/nyxdb/nyx/pkg/nyxerr"
	"github.com/nyxdb/nyx/pkg/payload"
	"github.com/nyxdb/nyx/pkg/propindex"
	"github.com/nyxdb/nyx/pkg/ttl"
	"github.com/nyxdb/nyx/pkg/vecstore"
)

const (
	configFileName   = "config.json"
	vectorsFileName  = "vectors.bin"
	payloadsFileName = "payloads.log"
	hnswFileName     = "hnsw.bin"
	idMapFileName    = "id_mappings.bin"
	ttlFileName      = "ttl.bin"
	edgesDirName     = "edges"
	columnsDirName   = "columns"
	lockFileName     = ".lock"
)

// Collection is one open collection: its vector index, payload log, graph
// store, and secondary indexes, plus the query engine wired over all of
// them.
type Collection struct {
	mu     sync.RWMutex
	closed bool

	dir    string
	config *Config
	lock   *flock.Flock

	vectors   *vecstore.Store
	ids       *idmap.Mappings
	graph     *hnsw.Index
	payloads  *payload.Store
	props     *propindex.PropertyIndex
	fulltext  *bm25.Index
	edges     *graphstore.Store
	columns   *columnstore.Store
	ttls      *ttl.Tracker
	vecSource *vectorAdapter
}

// Open opens (creating if necessary) a collection directory. config is
// only consulted when the directory is new; on reopen the persisted
// config.json is authoritative and the passed-in config is ignored aside
// from its Name/Dimension being used to validate the directory is the one
// the caller expects.
func Open(dir string, config *Config) (*Collection, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("collection: mkdir %s: %w", dir, err)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("collection: lock %s: %w", dir, err)
	}
	if !locked {
		return nil, fmt.Errorf("collection: %s is already open by another process", dir)
	}

	cfg, err := loadOrInitConfig(dir, config)
	if err != nil {
		lock.Unlock()
		return nil, err
	}

	vectors, err := vecstore.Open(filepath.Join(dir, vectorsFileName), cfg.Dimension, 1024)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("collection: open vectors: %w", err)
	}

	payloads, err := payload.Open(filepath.Join(dir, payloadsFileName))
	if err != nil {
		vectors.Close()
		lock.Unlock()
		return nil, fmt.Errorf("collection: open payloads: %w", err)
	}

	ids, err := loadIDMappings(dir)
	if err != nil {
		payloads.Close()
		vectors.Close()
		lock.Unlock()
		return nil, err
	}
	if err := vectors.Restore(ids.NextIdx()); err != nil {
		payloads.Close()
		vectors.Close()
		lock.Unlock()
		return nil, fmt.Errorf("collection: restore vector slot counter: %w", err)
	}

	vecSource := &vectorAdapter{store: vectors}
	liveness := &livenessAdapter{ids: ids}

	graph, err := loadOrNewHNSW(dir, cfg, vecSource, liveness)
	if err != nil {
		payloads.Close()
		vectors.Close()
		lock.Unlock()
		return nil, err
	}

	edges, err := graphstore.Open(filepath.Join(dir, edgesDirName))
	if err != nil {
		payloads.Close()
		vectors.Close()
		lock.Unlock()
		return nil, fmt.Errorf("collection: open edge store: %w", err)
	}

	columns, err := columnstore.Open(filepath.Join(dir, columnsDirName))
	if err != nil {
		edges.Close()
		payloads.Close()
		vectors.Close()
		lock.Unlock()
		return nil, fmt.Errorf("collection: open column store: %w", err)
	}

	ttls, err := loadTTLs(dir)
	if err != nil {
		columns.Close()
		edges.Close()
		payloads.Close()
		vectors.Close()
		lock.Unlock()
		return nil, err
	}

	props := propindex.NewPropertyIndex()
	for _, pair := range cfg.IndexedProperties {
		props.CreateIndex(pair[0], pair[1])
	}
	fulltext := bm25.New(bm25.DefaultConfig())

	c := &Collection{
		dir:       dir,
		config:    cfg,
		lock:      lock,
		vectors:   vectors,
		ids:       ids,
		graph:     graph,
		payloads:  payloads,
		props:     props,
		fulltext:  fulltext,
		edges:     edges,
		columns:   columns,
		ttls:      ttls,
		vecSource: vecSource,
	}

	if err := c.rebuildDerivedIndexes(); err != nil {
		c.payloads.Close()
		c.vectors.Close()
		c.edges.Close()
		c.columns.Close()
		c.lock.Unlock()
		return nil, err
	}

	return c, nil
}

func loadTTLs(dir string) (*ttl.Tracker, error) {
	path := filepath.Join(dir, ttlFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ttl.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("collection: read ttl.bin: %w", err)
	}
	tracker, err := ttl.Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("collection: decode ttl.bin: %w", err)
	}
	return tracker, nil
}

// rebuildDerivedIndexes repopulates props and fulltext from payloads.log.
// Both are plain derivatives of label/field declarations already in Config
// plus data already durable in the payload log, so neither needs its own
// persisted file — this walk is the "reindex pass" in lieu of one.
func (c *Collection) rebuildDerivedIndexes() error {
	if len(c.config.IndexedProperties) == 0 && len(c.config.FullTextFields) == 0 {
		return nil
	}
	return c.payloads.Each(func(id uint64, raw json.RawMessage) error {
		c.indexDerivedLocked(id, raw)
		return nil
	})
}

func loadOrInitConfig(dir string, fallback *Config) (*Config, error) {
	path := filepath.Join(dir, configFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if fallback == nil {
			return nil, fmt.Errorf("collection: %s has no config.json and no Config was supplied", dir)
		}
		if err := writeConfig(path, fallback); err != nil {
			return nil, err
		}
		return fallback, nil
	}
	if err != nil {
		return nil, fmt.Errorf("collection: read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("collection: decode config: %w", err)
	}
	if fallback != nil && (fallback.Name != cfg.Name || fallback.Dimension != cfg.Dimension) {
		return nil, fmt.Errorf("collection: %s holds collection %q (dimension %d), not %q (dimension %d)",
			dir, cfg.Name, cfg.Dimension, fallback.Name, fallback.Dimension)
	}
	return &cfg, nil
}

func writeConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("collection: encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func loadIDMappings(dir string) (*idmap.Mappings, error) {
	path := filepath.Join(dir, idMapFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return idmap.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("collection: read id mappings: %w", err)
	}
	parts, err := idmap.DeserializeParts(data)
	if err != nil {
		return nil, fmt.Errorf("collection: decode id mappings: %w", err)
	}
	return idmap.FromParts(parts), nil
}

func loadOrNewHNSW(dir string, cfg *Config, vectors hnsw.VectorSource, liveness hnsw.Liveness) (*hnsw.Index, error) {
	path := filepath.Join(dir, hnswFileName)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		idx := hnsw.New(cfg.HNSWConfig, cfg.Dimension, vectors, liveness)
		if cfg.DualPrecisionEnabled {
			// Nothing in this package trains the quantizer, so dual
			// precision stays disabled here until a caller trains
			// and enables it on the index.
			_ = idx
		}
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("collection: open hnsw.bin: %w", err)
	}
	defer f.Close()

	var snap hnsw.Snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("collection: decode hnsw.bin: %w", err)
	}
	return hnsw.Import(snap, vectors, liveness), nil
}

// Close flushes every component and releases the directory lock. Calling
// Close more than once is a no-op.
func (c *Collection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if err := c.flushLocked(); err != nil {
		errs = append(errs, err)
	}
	if err := c.columns.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.edges.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.payloads.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.vectors.Close(); err != nil {
		errs = append(errs, err)
	}
	c.lock.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("collection: close errors: %v", errs)
	}
	return nil
}

// Flush persists the vector mapping, payload log, id mapping snapshot,
// HNSW graph snapshot, and config — everything short of the Close itself —
// so a crash right after Flush loses nothing.
func (c *Collection) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked()
}

func (c *Collection) flushLocked() error {
	if err := c.vectors.Flush(); err != nil {
		return fmt.Errorf("collection: flush vectors: %w", err)
	}
	if err := c.payloads.Flush(); err != nil {
		return fmt.Errorf("collection: flush payloads: %w", err)
	}
	if err := c.writeIDMappings(); err != nil {
		return err
	}
	if err := c.writeHNSWSnapshot(); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(c.dir, ttlFileName), c.ttls.Serialize(), 0o644); err != nil {
		return fmt.Errorf("collection: write ttl.bin: %w", err)
	}
	c.config.PointCount = c.ids.Len()
	if err := writeConfig(filepath.Join(c.dir, configFileName), c.config); err != nil {
		return err
	}
	return nil
}

func (c *Collection) writeIDMappings() error {
	data := c.ids.AsParts().Serialize()
	return os.WriteFile(filepath.Join(c.dir, idMapFileName), data, 0o644)
}

func (c *Collection) writeHNSWSnapshot() error {
	path := filepath.Join(c.dir, hnswFileName)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("collection: create hnsw.bin: %w", err)
	}
	snap := c.graph.Export()
	if err := gob.NewEncoder(f).Encode(&snap); err != nil {
		f.Close()
		return fmt.Errorf("collection: encode hnsw.bin: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("collection: close hnsw.bin: %w", err)
	}
	return os.Rename(tmp, path)
}

func (c *Collection) checkOpen() error {
	if c.closed {
		return nyxerr.New(nyxerr.CodeCollectionNotFound, "collection is closed")
	}
	return nil
}

// Stats summarizes a collection's current size, for monitoring and for
// EXPLAIN's row-estimate seeding.
type Stats struct {
	Name           string `json:"name"`
	Dimension      int    `json:"dimension"`
	PointCount     int    `json:"point_count"`
	TombstoneCount int64  `json:"tombstone_count"`
	EdgeCount      int    `json:"edge_count_hint"`
}

// Stats reports the collection's current size. Only Name, Dimension and
// PointCount are filled in; TombstoneCount and EdgeCount are always zero.
// The edge store has no O(1) total-count operation (it is indexed by
// label/source/target, not by a global counter), so no edge count is
// computed here.
func (c *Collection) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Name:       c.config.Name,
		Dimension:  c.config.Dimension,
		PointCount: c.ids.Len(),
	}
}

// Now is overridable in tests; production code always uses time.Now.
var Now = time.Now
