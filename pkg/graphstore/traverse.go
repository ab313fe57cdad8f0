package graphstore

import "context"

// Direction selects which edges a traversal follows from a node.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
	Both
)

// neighbors snapshots a node's adjacent edges under its shard's read lock,
// releases the lock, then returns — the "read-copy-drop" pattern: callers
// recurse after the lock is gone, so traversal never holds a lock across a
// recursive call.
func (s *Store) neighbors(node uint64, dir Direction) ([]Edge, error) {
	s.shards[shardFor(node)].RLock()
	var ids []uint64
	var err error
	switch dir {
	case Outgoing:
		ids, err = s.scanIDs(outgoingPrefix(node))
	case Incoming:
		ids, err = s.scanIDs(incomingPrefix(node))
	default:
		var out, in []uint64
		out, err = s.scanIDs(outgoingPrefix(node))
		if err == nil {
			in, err = s.scanIDs(incomingPrefix(node))
		}
		ids = append(out, in...)
	}
	s.shards[shardFor(node)].RUnlock()
	if err != nil {
		return nil, err
	}

	edges := make([]Edge, 0, len(ids))
	for _, id := range ids {
		edge, err := s.GetEdge(id)
		if err != nil {
			continue
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

func otherEnd(edge Edge, from uint64, dir Direction) uint64 {
	if dir == Outgoing || (dir == Both && edge.Source == from) {
		return edge.Target
	}
	return edge.Source
}

// TraverseBFS performs a breadth-first traversal from start, following
// edges in the given direction (optionally restricted to labels; nil or
// empty means any label), up to maxDepth hops, and returns every node id
// reached (start excluded). Cancellation is checked once per frontier
// level, matching the collection's "check the deadline at batch
// boundaries" cancellation discipline.
func (s *Store) TraverseBFS(ctx context.Context, start uint64, dir Direction, labels []string, maxDepth int) ([]uint64, error) {
	labelSet := toLabelSet(labels)

	visited := map[uint64]bool{start: true}
	frontier := []uint64{start}
	var reached []uint64

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		select {
		case <-ctx.Done():
			return reached, ctx.Err()
		default:
		}

		var next []uint64
		for _, node := range frontier {
			edges, err := s.neighbors(node, dir)
			if err != nil {
				return reached, err
			}
			for _, edge := range edges {
				if !labelSet.allows(edge.Label) {
					continue
				}
				n := otherEnd(edge, node, dir)
				if visited[n] {
					continue
				}
				visited[n] = true
				reached = append(reached, n)
				next = append(next, n)
			}
		}
		frontier = next
	}

	return reached, nil
}

// TraverseDFS performs a depth-first traversal from start with the same
// label filter and maxDepth cap as TraverseBFS.
func (s *Store) TraverseDFS(ctx context.Context, start uint64, dir Direction, labels []string, maxDepth int) ([]uint64, error) {
	labelSet := toLabelSet(labels)
	visited := map[uint64]bool{start: true}
	var reached []uint64

	var visit func(node uint64, depth int) error
	visit = func(node uint64, depth int) error {
		if depth >= maxDepth {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		edges, err := s.neighbors(node, dir)
		if err != nil {
			return err
		}
		for _, edge := range edges {
			if !labelSet.allows(edge.Label) {
				continue
			}
			n := otherEnd(edge, node, dir)
			if visited[n] {
				continue
			}
			visited[n] = true
			reached = append(reached, n)
			if err := visit(n, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(start, 0); err != nil {
		return reached, err
	}
	return reached, nil
}

type labelFilter map[string]struct{}

func toLabelSet(labels []string) labelFilter {
	if len(labels) == 0 {
		return nil
	}
	set := make(labelFilter, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return set
}

func (f labelFilter) allows(label string) bool {
	if f == nil {
		return true
	}
	_, ok := f[label]
	return ok
}
