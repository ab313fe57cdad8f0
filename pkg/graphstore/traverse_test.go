package graphstore

import (
	"context"
	"sort"
	"testing"
)

// Graph: 1 -KNOWS-> 2 -KNOWS-> 3 -KNOWS-> 4, and 1 -LIKES-> 5.
func buildChainGraph(t *testing.T) *Store {
	t.Helper()
	s := openTestStore(t)
	mustCreate(t, s, Edge{ID: 1, Source: 1, Target: 2, Label: "KNOWS"})
	mustCreate(t, s, Edge{ID: 2, Source: 2, Target: 3, Label: "KNOWS"})
	mustCreate(t, s, Edge{ID: 3, Source: 3, Target: 4, Label: "KNOWS"})
	mustCreate(t, s, Edge{ID: 4, Source: 1, Target: 5, Label: "LIKES"})
	return s
}

func sorted(ids []uint64) []uint64 {
	out := append([]uint64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func equalIDs(t *testing.T, got, want []uint64) {
	t.Helper()
	got, want = sorted(got), sorted(want)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestTraverseBFSFollowsOutgoingWithinDepth(t *testing.T) {
	s := buildChainGraph(t)
	got, err := s.TraverseBFS(context.Background(), 1, Outgoing, nil, 2)
	if err != nil {
		t.Fatalf("traverse: %v", err)
	}
	equalIDs(t, got, []uint64{2, 3, 5})
}

func TestTraverseBFSUnboundedDepthReachesWholeChain(t *testing.T) {
	s := buildChainGraph(t)
	got, err := s.TraverseBFS(context.Background(), 1, Outgoing, nil, 10)
	if err != nil {
		t.Fatalf("traverse: %v", err)
	}
	equalIDs(t, got, []uint64{2, 3, 4, 5})
}

func TestTraverseBFSRespectsLabelFilter(t *testing.T) {
	s := buildChainGraph(t)
	got, err := s.TraverseBFS(context.Background(), 1, Outgoing, []string{"KNOWS"}, 10)
	if err != nil {
		t.Fatalf("traverse: %v", err)
	}
	equalIDs(t, got, []uint64{2, 3, 4})
}

func TestTraverseBFSIncomingDirection(t *testing.T) {
	s := buildChainGraph(t)
	got, err := s.TraverseBFS(context.Background(), 4, Incoming, nil, 10)
	if err != nil {
		t.Fatalf("traverse: %v", err)
	}
	equalIDs(t, got, []uint64{1, 2, 3})
}

func TestTraverseBFSZeroDepthReturnsNothing(t *testing.T) {
	s := buildChainGraph(t)
	got, err := s.TraverseBFS(context.Background(), 1, Outgoing, nil, 0)
	if err != nil {
		t.Fatalf("traverse: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no results at depth 0, got %v", got)
	}
}

func TestTraverseDFSReachesSameNodesAsBFS(t *testing.T) {
	s := buildChainGraph(t)
	got, err := s.TraverseDFS(context.Background(), 1, Outgoing, nil, 10)
	if err != nil {
		t.Fatalf("traverse: %v", err)
	}
	equalIDs(t, got, []uint64{2, 3, 4, 5})
}

func TestTraverseCyclicGraphTerminates(t *testing.T) {
	s := openTestStore(t)
	mustCreate(t, s, Edge{ID: 1, Source: 1, Target: 2, Label: "NEXT"})
	mustCreate(t, s, Edge{ID: 2, Source: 2, Target: 1, Label: "NEXT"})

	got, err := s.TraverseBFS(context.Background(), 1, Outgoing, nil, 10)
	if err != nil {
		t.Fatalf("traverse: %v", err)
	}
	equalIDs(t, got, []uint64{2})

	got, err = s.TraverseDFS(context.Background(), 1, Outgoing, nil, 10)
	if err != nil {
		t.Fatalf("traverse: %v", err)
	}
	equalIDs(t, got, []uint64{2})
}

func TestTraverseBothDirections(t *testing.T) {
	s := openTestStore(t)
	mustCreate(t, s, Edge{ID: 1, Source: 1, Target: 2, Label: "KNOWS"})
	mustCreate(t, s, Edge{ID: 2, Source: 3, Target: 1, Label: "KNOWS"})

	got, err := s.TraverseBFS(context.Background(), 1, Both, nil, 1)
	if err != nil {
		t.Fatalf("traverse: %v", err)
	}
	equalIDs(t, got, []uint64{2, 3})
}

func TestTraverseCancelledContext(t *testing.T) {
	s := buildChainGraph(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.TraverseBFS(ctx, 1, Outgoing, nil, 10)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
