// Package exec runs a planned query: vector search with oversampling,
// hybrid fusion of multiple similarity predicates, hash-joins against
// declared primary keys, streaming aggregation, and MATCH traversal,
// grounded on spec §4.10.
package exec

import "sync"

// Row is one result row: a flat map from column/alias name to value, the
// same shape a payload's top-level JSON object takes once decoded.
type Row = map[string]any

// RowPool reduces allocation churn for the row slices and row maps the
// executor builds and discards on every batch, adapted from this
// lineage's pkg/pool.GetRowSlice/GetMap — generalized from that pool's
// [][]interface{} row-slice shape to this package's map[string]any Row
// shape, since the executor's rows are column-named, not positional.
type RowPool struct {
	rows sync.Pool
	maps sync.Pool
}

// NewRowPool creates a RowPool ready for use.
func NewRowPool() *RowPool {
	return &RowPool{
		rows: sync.Pool{New: func() any { return make([]Row, 0, 64) }},
		maps: sync.Pool{New: func() any { return make(Row, 8) }},
	}
}

// GetRows returns a zero-length row slice from the pool.
func (p *RowPool) GetRows() []Row {
	return p.rows.Get().([]Row)[:0]
}

// PutRows returns a row slice to the pool. Large slices are dropped
// rather than pooled to avoid pinning a big backing array indefinitely.
func (p *RowPool) PutRows(rows []Row) {
	if cap(rows) > 4096 {
		return
	}
	for i := range rows {
		rows[i] = nil
	}
	p.rows.Put(rows[:0])
}

// GetMap returns an empty Row from the pool.
func (p *RowPool) GetMap() Row {
	m := p.maps.Get().(Row)
	for k := range m {
		delete(m, k)
	}
	return m
}

// PutMap returns a Row to the pool.
func (p *RowPool) PutMap(m Row) {
	if m == nil || len(m) > 256 {
		return
	}
	for k := range m {
		delete(m, k)
	}
	p.maps.Put(m)
}
