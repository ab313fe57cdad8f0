// Package graphstore implements the collection's directed labeled edge
// store: typed edges (id, source, target, label, JSON properties) with
// three indexes maintained in lock-step (label, outgoing-by-source,
// incoming-by-target), Badger-backed. Grounded on this lineage's
// pkg/storage/badger.go: single-byte key-prefix convention, db.Update/
// db.View transaction wrapping, secondary-index-as-empty-value pattern —
// generalized from the teacher's string NodeID/EdgeID and Neo4j-export
// shape to the engine's u64 point-id space and label/outgoing/incoming
// triple-index design.
package graphstore

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const (
	prefixEdge     = byte(0x01) // edge:edgeID -> json(Edge)
	prefixLabel    = byte(0x02) // label:label\x00edgeID -> empty
	prefixOutgoing = byte(0x03) // out:source\x00edgeID -> empty
	prefixIncoming = byte(0x04) // in:target\x00edgeID -> empty
)

// Sentinel errors, matching this lineage's flat error-variable convention.
var (
	ErrNotFound      = errors.New("graphstore: edge not found")
	ErrAlreadyExists = errors.New("graphstore: edge already exists")
	ErrClosed        = errors.New("graphstore: store is closed")
)

// Edge is one directed, labeled edge between two points.
type Edge struct {
	ID         uint64
	Source     uint64
	Target     uint64
	Label      string
	Properties json.RawMessage
}

const numShards = 32

// Store is a Badger-backed edge store. A small shard-lock array guards
// traversal's read-copy-drop pattern (§5: "snapshot neighbors under a read
// lock, release, recurse") independently of Badger's own MVCC snapshot —
// the lock boundary is what lets Traverse avoid holding anything across
// recursive calls, not Badger's isolation, which only covers a single
// transaction.
type Store struct {
	mu     sync.RWMutex // guards closed
	closed bool

	db     *badger.DB
	shards [numShards]sync.RWMutex
}

func shardFor(id uint64) int {
	return int(id % numShards)
}

// Open opens (creating if necessary) a Badger-backed edge store at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("graphstore: open: %w", err)
	}
	return &Store{db: db}, nil
}

func edgeKey(id uint64) []byte {
	key := make([]byte, 9)
	key[0] = prefixEdge
	binary.BigEndian.PutUint64(key[1:], id)
	return key
}

func labelKey(label string, edgeID uint64) []byte {
	key := make([]byte, 0, 1+len(label)+1+8)
	key = append(key, prefixLabel)
	key = append(key, []byte(label)...)
	key = append(key, 0x00)
	key = binary.BigEndian.AppendUint64(key, edgeID)
	return key
}

func labelPrefix(label string) []byte {
	key := make([]byte, 0, 1+len(label)+1)
	key = append(key, prefixLabel)
	key = append(key, []byte(label)...)
	key = append(key, 0x00)
	return key
}

func outgoingKey(source, edgeID uint64) []byte {
	key := make([]byte, 17)
	key[0] = prefixOutgoing
	binary.BigEndian.PutUint64(key[1:9], source)
	binary.BigEndian.PutUint64(key[9:], edgeID)
	return key
}

func outgoingPrefix(source uint64) []byte {
	key := make([]byte, 9)
	key[0] = prefixOutgoing
	binary.BigEndian.PutUint64(key[1:], source)
	return key
}

func incomingKey(target, edgeID uint64) []byte {
	key := make([]byte, 17)
	key[0] = prefixIncoming
	binary.BigEndian.PutUint64(key[1:9], target)
	binary.BigEndian.PutUint64(key[9:], edgeID)
	return key
}

func incomingPrefix(target uint64) []byte {
	key := make([]byte, 9)
	key[0] = prefixIncoming
	binary.BigEndian.PutUint64(key[1:], target)
	return key
}

func idFromIndexKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// CreateEdge inserts a new edge, updating the label/outgoing/incoming
// indexes in the same transaction. Lock ordering: of the source and target
// shards, the one with the lower shard index is always locked first,
// whichever end of the edge it belongs to, to match spec's "shard selection
// plus in-order lock acquisition" deadlock avoidance when source and target
// fall in different shards.
func (s *Store) CreateEdge(edge Edge) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	first, second := shardFor(edge.Source), shardFor(edge.Target)
	if first > second {
		first, second = second, first
	}
	s.shards[first].Lock()
	defer s.shards[first].Unlock()
	if second != first {
		s.shards[second].Lock()
		defer s.shards[second].Unlock()
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := edgeKey(edge.ID)
		if _, err := txn.Get(key); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		data, err := json.Marshal(edge)
		if err != nil {
			return fmt.Errorf("graphstore: encode edge: %w", err)
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		if edge.Label != "" {
			if err := txn.Set(labelKey(edge.Label, edge.ID), nil); err != nil {
				return err
			}
		}
		if err := txn.Set(outgoingKey(edge.Source, edge.ID), nil); err != nil {
			return err
		}
		return txn.Set(incomingKey(edge.Target, edge.ID), nil)
	})
}

// GetEdge retrieves an edge by id.
func (s *Store) GetEdge(id uint64) (Edge, error) {
	if err := s.checkOpen(); err != nil {
		return Edge{}, err
	}

	var edge Edge
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(edgeKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &edge)
		})
	})
	return edge, err
}

// DeleteEdge removes an edge and its index entries.
func (s *Store) DeleteEdge(id uint64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	var edge Edge
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(edgeKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &edge)
		})
	})
	if err != nil {
		return err
	}

	first, second := shardFor(edge.Source), shardFor(edge.Target)
	if first > second {
		first, second = second, first
	}
	s.shards[first].Lock()
	defer s.shards[first].Unlock()
	if second != first {
		s.shards[second].Lock()
		defer s.shards[second].Unlock()
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if edge.Label != "" {
			if err := txn.Delete(labelKey(edge.Label, id)); err != nil {
				return err
			}
		}
		if err := txn.Delete(outgoingKey(edge.Source, id)); err != nil {
			return err
		}
		if err := txn.Delete(incomingKey(edge.Target, id)); err != nil {
			return err
		}
		return txn.Delete(edgeKey(id))
	})
}

func (s *Store) scanIDs(prefix []byte) ([]uint64, error) {
	var ids []uint64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, idFromIndexKey(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return ids, err
}

// EdgesByLabel returns the ids of all edges with the given label.
func (s *Store) EdgesByLabel(label string) ([]uint64, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.scanIDs(labelPrefix(label))
}

// OutgoingEdges returns the ids of edges whose source is the given node.
func (s *Store) OutgoingEdges(source uint64) ([]uint64, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	s.shards[shardFor(source)].RLock()
	defer s.shards[shardFor(source)].RUnlock()
	return s.scanIDs(outgoingPrefix(source))
}

// IncomingEdges returns the ids of edges whose target is the given node.
func (s *Store) IncomingEdges(target uint64) ([]uint64, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	s.shards[shardFor(target)].RLock()
	defer s.shards[shardFor(target)].RUnlock()
	return s.scanIDs(incomingPrefix(target))
}

// Close releases the underlying Badger database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
