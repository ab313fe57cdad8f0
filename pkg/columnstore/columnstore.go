// Package columnstore holds the right-hand tables a JOIN is allowed to
// reference: each table is declared with exactly one primary key column,
// and rows are stored keyed by that column's value — matching spec
// §4.10's restriction that joins only ever match against a declared
// primary key, never an arbitrary equi-join predicate.
//
// Badger-backed and shaped like pkg/graphstore.Store: single-byte
// key-prefix convention, db.Update/db.View transaction wrapping, JSON row
// encoding.
package columnstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/nyxdb/nyx/pkg/exec"
)

const (
	prefixTableMeta = byte(0x01) // tablemeta:table -> json({PrimaryKey})
	prefixRow       = byte(0x02) // row:table\x00pkRepr -> json(row)
)

var (
	ErrTableNotFound  = errors.New("columnstore: table not declared")
	ErrTableExists    = errors.New("columnstore: table already declared")
	ErrMissingPrimary = errors.New("columnstore: row is missing its declared primary key field")
	ErrClosed         = errors.New("columnstore: store is closed")
)

type tableMeta struct {
	PrimaryKey string
}

// Store is a Badger-backed collection of declared right-hand join tables.
type Store struct {
	mu     sync.RWMutex
	closed bool
	db     *badger.DB

	tablesMu sync.RWMutex
	tables   map[string]tableMeta // in-memory cache of declared tables
}

// Open opens (creating if necessary) a Badger-backed column store at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("columnstore: open: %w", err)
	}
	s := &Store{db: db, tables: make(map[string]tableMeta)}
	if err := s.loadTableMeta(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) loadTableMeta() error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte{prefixTableMeta}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			table := string(key[1:])
			var meta tableMeta
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return err
			}
			s.tables[table] = meta
		}
		return nil
	})
}

func tableMetaKey(table string) []byte {
	return append([]byte{prefixTableMeta}, []byte(table)...)
}

func rowKey(table string, pkRepr string) []byte {
	key := make([]byte, 0, 1+len(table)+1+len(pkRepr))
	key = append(key, prefixRow)
	key = append(key, table...)
	key = append(key, 0x00)
	key = append(key, pkRepr...)
	return key
}

// pkRepr turns a primary key value into a stable string key. Values here
// come from decoded JSON rows (float64, string, bool) or from join
// predicates (uint64/int64), so fmt.Sprint gives a consistent
// representation without needing a type-specific encoder.
func pkRepr(v any) string {
	return fmt.Sprint(v)
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// DeclareTable registers table with the given primary key column. It is
// idempotent when called again with the same primary key.
func (s *Store) DeclareTable(table, primaryKey string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.tablesMu.Lock()
	defer s.tablesMu.Unlock()
	if existing, ok := s.tables[table]; ok {
		if existing.PrimaryKey == primaryKey {
			return nil
		}
		return ErrTableExists
	}
	meta := tableMeta{PrimaryKey: primaryKey}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(tableMetaKey(table), data)
	}); err != nil {
		return err
	}
	s.tables[table] = meta
	return nil
}

func (s *Store) primaryKeyOf(table string) (string, error) {
	s.tablesMu.RLock()
	defer s.tablesMu.RUnlock()
	meta, ok := s.tables[table]
	if !ok {
		return "", ErrTableNotFound
	}
	return meta.PrimaryKey, nil
}

// Put inserts or replaces a row, keyed by its declared primary key field.
func (s *Store) Put(table string, row exec.Row) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	pk, err := s.primaryKeyOf(table)
	if err != nil {
		return err
	}
	value, ok := row[pk]
	if !ok {
		return ErrMissingPrimary
	}
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("columnstore: encode row: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(rowKey(table, pkRepr(value)), data)
	})
}

// Get fetches one row by primary key value.
func (s *Store) Get(table string, pk any) (exec.Row, bool, error) {
	if err := s.checkOpen(); err != nil {
		return nil, false, err
	}
	if _, err := s.primaryKeyOf(table); err != nil {
		return nil, false, err
	}
	var row exec.Row
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(rowKey(table, pkRepr(pk)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &row)
		})
	})
	return row, found, err
}

// BatchGet fetches every row whose primary key is in pks, in one Badger
// transaction — the lookup thunk pkg/exec.HashJoin batches against.
func (s *Store) BatchGet(table string, pks []any) (map[any]exec.Row, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if _, err := s.primaryKeyOf(table); err != nil {
		return nil, err
	}
	out := make(map[any]exec.Row, len(pks))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, pk := range pks {
			item, err := txn.Get(rowKey(table, pkRepr(pk)))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			var row exec.Row
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			}); err != nil {
				return err
			}
			out[pk] = row
		}
		return nil
	})
	return out, err
}

// Delete removes a row by primary key value.
func (s *Store) Delete(table string, pk any) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, err := s.primaryKeyOf(table); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(rowKey(table, pkRepr(pk)))
	})
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
