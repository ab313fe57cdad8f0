package collection

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nyxdb/nyx/pkg/filter"
	"github.com/nyxdb/nyx/pkg/nyxerr"
)

// Point is one upsert request: an external id, its vector, and its
// payload document. FullText/Props are derived from Payload at insert
// time via Config.FullTextFields/IndexedProperties, not supplied
// separately, so a single document shape feeds every index.
type Point struct {
	ID      uint64
	Vector  []float32
	Payload json.RawMessage
	TTL     *time.Duration
}

// Upsert inserts id if new, or replaces its vector/payload in place if it
// already exists. The vecstore slot backing id never changes across an
// in-place update — and since Delete keeps id's mapping, an Upsert after a
// Delete of the same id also reuses that slot rather than allocating one,
// per the adapter's lockstep invariant.
func (c *Collection) Upsert(p Point) error {
	if len(p.Vector) != c.config.Dimension && !c.config.MetadataOnly {
		return nyxerr.Newf(nyxerr.CodeDimensionMismatch, "vector has dimension %d, collection expects %d", len(p.Vector), c.config.Dimension)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nyxerr.New(nyxerr.CodeCollectionNotFound, "collection is closed")
	}

	idx, existed := c.ids.GetIdx(p.ID)
	if existed {
		return c.replaceLocked(idx, p)
	}
	return c.insertLocked(p)
}

func (c *Collection) insertLocked(p Point) error {
	idx, _ := c.ids.Register(p.ID)

	if !c.config.MetadataOnly {
		slot, err := c.vectors.Append(p.Vector)
		if err != nil {
			c.ids.Remove(p.ID)
			return fmt.Errorf("collection: append vector: %w", err)
		}
		if slot != idx {
			c.ids.Remove(p.ID)
			return fmt.Errorf("collection: internal invariant broken: vecstore slot %d != idmap index %d", slot, idx)
		}
		if err := c.graph.Insert(idx, p.Vector); err != nil {
			return fmt.Errorf("collection: hnsw insert: %w", err)
		}
	}

	if err := c.payloads.Put(p.ID, p.Payload); err != nil {
		return fmt.Errorf("collection: put payload: %w", err)
	}
	if p.TTL != nil {
		c.ttls.SetTTL(p.ID, *p.TTL)
	}
	c.indexDerivedLocked(p.ID, p.Payload)
	c.config.PointCount = c.ids.Len()
	return nil
}

// replaceLocked updates an existing point's payload and (if vector storage
// is enabled) its vector in place, reusing the same internal index — it
// never calls vecstore.Free/idmap.Remove, so the lockstep identity between
// the two allocators is preserved across updates as well as inserts.
func (c *Collection) replaceLocked(idx uint64, p Point) error {
	old, ok, err := c.payloads.Get(p.ID)
	if err != nil {
		return fmt.Errorf("collection: read previous payload: %w", err)
	}
	if ok {
		c.unindexDerivedLocked(p.ID, old)
	}

	if !c.config.MetadataOnly {
		c.graph.Delete(idx)
		if err := c.graph.Insert(idx, p.Vector); err != nil {
			return fmt.Errorf("collection: hnsw reinsert: %w", err)
		}
	}

	if err := c.payloads.Put(p.ID, p.Payload); err != nil {
		return fmt.Errorf("collection: put payload: %w", err)
	}
	if p.TTL != nil {
		c.ttls.SetTTL(p.ID, *p.TTL)
	} else {
		c.ttls.Remove(p.ID)
	}
	c.indexDerivedLocked(p.ID, p.Payload)
	return nil
}

// Delete tombstones id: its HNSW node is marked dead (not physically
// removed — see pkg/hnsw's tombstone design and Vacuum), its payload and
// TTL entry are dropped, and its property/full-text index entries are
// cleaned up. The underlying vecstore slot and idmap internal index are
// deliberately never freed; see the lockstep-identity decision in
// adapter.go/DESIGN.md.
func (c *Collection) Delete(id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nyxerr.New(nyxerr.CodeCollectionNotFound, "collection is closed")
	}

	idx, ok := c.ids.GetIdx(id)
	if !ok {
		return nil
	}

	old, hasPayload, err := c.payloads.Get(id)
	if err != nil {
		return fmt.Errorf("collection: read payload before delete: %w", err)
	}
	if hasPayload {
		c.unindexDerivedLocked(id, old)
	}

	if !c.config.MetadataOnly {
		c.graph.Delete(idx)
	}
	if err := c.payloads.Delete(id); err != nil {
		return fmt.Errorf("collection: delete payload: %w", err)
	}
	c.fulltext.Delete(id)
	c.ttls.Remove(id)
	c.config.PointCount = c.ids.Len()
	return nil
}

func (c *Collection) indexDerivedLocked(id uint64, raw json.RawMessage) {
	doc, ok := decodeDoc(raw)
	if !ok {
		return
	}
	label, _ := doc["label"].(string)
	for _, pair := range c.props.Indexed() {
		if pair[0] != "" && pair[0] != label {
			continue
		}
		if v, ok := filter.GetField(doc, pair[1]); ok {
			c.props.Insert(pair[0], pair[1], v, id)
		}
	}
	for _, field := range c.config.FullTextFields {
		if v, ok := filter.GetField(doc, field); ok {
			if s, ok := v.(string); ok {
				c.fulltext.Index(id, s)
			}
		}
	}
}

func (c *Collection) unindexDerivedLocked(id uint64, raw json.RawMessage) {
	doc, ok := decodeDoc(raw)
	if !ok {
		return
	}
	label, _ := doc["label"].(string)
	for _, pair := range c.props.Indexed() {
		if pair[0] != "" && pair[0] != label {
			continue
		}
		if v, ok := filter.GetField(doc, pair[1]); ok {
			c.props.Remove(pair[0], pair[1], v, id)
		}
	}
}

func decodeDoc(raw json.RawMessage) (map[string]any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false
	}
	return doc, true
}
