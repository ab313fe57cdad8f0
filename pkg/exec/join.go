package exec

import "math"

// maxSignedID is the largest uint64 value that still fits in a signed
// 64-bit integer. The column-store side of a join may be backed by a
// database whose primary key column is a signed integer (spec §4.10);
// ids above this value can never match a foreign key stored there, so
// they're dropped from the join rather than silently wrapped/truncated
// into a different (wrong) id.
const maxSignedID = uint64(math.MaxInt64)

// JoinKey restricts a hash-join to the query's declared primary key
// column (spec §4.10: "joins are only permitted against the right-hand
// table's declared primary key", no arbitrary equi-join support).
type JoinKey struct {
	LeftField  string // the left row's foreign-key field
	RightField string // the right table's declared primary key column
}

// BatchSize picks the right-hand lookup batch size for a hash-join,
// scaling with how many distinct keys must be resolved: small joins stay
// in one round-trip, large ones cap out to bound memory for the
// in-flight batch (spec §4.10's adaptive batching rule).
func BatchSize(distinctKeys int) int {
	switch {
	case distinctKeys <= 100:
		return 100
	case distinctKeys <= 10_000:
		return 1000
	default:
		return 5000
	}
}

// HashJoin joins left rows to right rows by equality on the declared
// join key, batching right-hand lookups via lookupBatch (a thunk over
// the column-store: given a batch of keys, return the rows keyed by
// that same value). Left rows whose key is missing from the right side,
// or whose key exceeds maxSignedID, are dropped (inner join semantics;
// spec doesn't define an OUTER JOIN surface).
func HashJoin(left []Row, key JoinKey, lookupBatch func(keys []any) (map[any]Row, error)) ([]Row, error) {
	keySet := make(map[any]bool)
	for _, row := range left {
		v, ok := row[key.LeftField]
		if !ok || v == nil {
			continue
		}
		if id, isUint := v.(uint64); isUint && id > maxSignedID {
			continue
		}
		keySet[v] = true
	}
	keys := make([]any, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}

	batchSize := BatchSize(len(keys))
	rightByKey := make(map[any]Row, len(keys))
	for start := 0; start < len(keys); start += batchSize {
		end := start + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		batch, err := lookupBatch(keys[start:end])
		if err != nil {
			return nil, err
		}
		for k, v := range batch {
			rightByKey[k] = v
		}
	}

	joined := make([]Row, 0, len(left))
	for _, row := range left {
		v, ok := row[key.LeftField]
		if !ok || v == nil {
			continue
		}
		right, ok := rightByKey[v]
		if !ok {
			continue
		}
		merged := make(Row, len(row)+len(right))
		for k, v := range row {
			merged[k] = v
		}
		for k, v := range right {
			merged[k] = v
		}
		joined = append(joined, merged)
	}
	return joined, nil
}
