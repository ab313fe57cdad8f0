package exec

import "testing"

func TestBatchSizeAdaptsToKeyCount(t *testing.T) {
	cases := []struct {
		keys int
		want int
	}{
		{10, 100},
		{100, 100},
		{101, 1000},
		{10_000, 1000},
		{10_001, 5000},
	}
	for _, c := range cases {
		if got := BatchSize(c.keys); got != c.want {
			t.Errorf("BatchSize(%d) = %d, want %d", c.keys, got, c.want)
		}
	}
}

func TestHashJoinMergesMatchingRows(t *testing.T) {
	left := []Row{
		{"name": "alice", "user_id": uint64(1)},
		{"name": "bob", "user_id": uint64(2)},
	}
	lookup := func(keys []any) (map[any]Row, error) {
		out := make(map[any]Row)
		for _, k := range keys {
			if k == uint64(1) {
				out[k] = Row{"id": uint64(1), "active": true}
			}
		}
		return out, nil
	}
	joined, err := HashJoin(left, JoinKey{LeftField: "user_id", RightField: "id"}, lookup)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(joined) != 1 {
		t.Fatalf("expected 1 joined row (inner join drops unmatched), got %d", len(joined))
	}
	if joined[0]["name"] != "alice" || joined[0]["active"] != true {
		t.Fatalf("unexpected joined row: %+v", joined[0])
	}
}

func TestHashJoinDropsIDsAboveMaxSignedID(t *testing.T) {
	left := []Row{
		{"name": "overflow", "user_id": uint64(1) << 63},
	}
	lookup := func(keys []any) (map[any]Row, error) {
		if len(keys) != 0 {
			t.Fatalf("expected no lookup keys for an out-of-range id, got %v", keys)
		}
		return map[any]Row{}, nil
	}
	joined, err := HashJoin(left, JoinKey{LeftField: "user_id", RightField: "id"}, lookup)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(joined) != 0 {
		t.Fatalf("expected out-of-range id to be dropped, got %+v", joined)
	}
}

func TestHashJoinSkipsMissingKeyField(t *testing.T) {
	left := []Row{{"name": "no-key"}}
	lookup := func(keys []any) (map[any]Row, error) { return map[any]Row{}, nil }
	joined, err := HashJoin(left, JoinKey{LeftField: "user_id", RightField: "id"}, lookup)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(joined) != 0 {
		t.Fatalf("expected row without join key to be dropped, got %+v", joined)
	}
}
