// Package payload implements the log-structured payload store: an
// append-only file of put/delete records, with an in-memory offset index
// built by a single scan on open.
//
// Log format, one record per operation:
//
//	marker   byte    1 = put, 2 = delete
//	id       uint64  little-endian
//	[put only]
//	length   uint32  little-endian, byte length of the JSON payload
//	payload  []byte  raw JSON bytes, `length` long
//
// The in-memory index maps id to the byte offset of that record's length
// field (put) so a read only needs one seek, one length read, one bytes
// read, and one JSON parse. Writes are buffered and flushed on demand; an
// fsync is issued on collection flush, following this module's lineage's
// WAL (`pkg/storage/wal.go`) in shape (buffered writer + explicit Sync),
// but a plain marker|id|len|bytes record instead of a JSON-encoded entry,
// per this store's own format.
package payload

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

const (
	markerPut    byte = 1
	markerDelete byte = 2
)

// Store is an append-only, log-structured payload file for one collection.
type Store struct {
	mu     sync.RWMutex
	file   *os.File
	writer *bufio.Writer

	// index maps id to the byte offset of the length field of its most
	// recent put record. An id absent from index has no live payload
	// (either never written or most recently deleted).
	index map[uint64]int64

	writeOffset int64
}

// Open scans path (creating it if absent) and returns a Store positioned to
// append further records at the end of the existing log.
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("payload: open %s: %w", path, err)
	}

	s := &Store{
		file:  f,
		index: make(map[uint64]int64),
	}

	if err := s.replay(); err != nil {
		f.Close()
		return nil, err
	}

	s.writer = bufio.NewWriterSize(f, 64*1024)
	return s, nil
}

// replay performs the single scan that rebuilds the offset index.
func (s *Store) replay() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("payload: seek to replay: %w", err)
	}
	r := bufio.NewReader(s.file)

	var offset int64
	for {
		marker, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("payload: read marker at offset %d: %w", offset, err)
		}

		var idBuf [8]byte
		if _, err := io.ReadFull(r, idBuf[:]); err != nil {
			return fmt.Errorf("payload: truncated id at offset %d: %w", offset, err)
		}
		id := binary.LittleEndian.Uint64(idBuf[:])
		offset++

		switch marker {
		case markerPut:
			lenFieldOffset := offset + 8
			var lenBuf [4]byte
			if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
				return fmt.Errorf("payload: truncated length at offset %d: %w", lenFieldOffset, err)
			}
			length := binary.LittleEndian.Uint32(lenBuf[:])

			if _, err := io.CopyN(io.Discard, r, int64(length)); err != nil {
				return fmt.Errorf("payload: truncated payload at offset %d: %w", lenFieldOffset, err)
			}

			s.index[id] = lenFieldOffset
			offset = lenFieldOffset + 4 + int64(length)

		case markerDelete:
			delete(s.index, id)
			offset += 8

		default:
			return fmt.Errorf("payload: unknown marker %d at offset %d", marker, offset-1)
		}
	}

	s.writeOffset = offset
	if _, err := s.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("payload: seek to end: %w", err)
	}
	return nil
}

// Put appends a put record for id, overwriting any previous live value in
// the index (the old bytes remain in the file as dead space; no compaction
// happens here).
func (s *Store) Put(id uint64, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeByte(markerPut); err != nil {
		return err
	}
	if err := s.writeUint64(id); err != nil {
		return err
	}

	lenFieldOffset := s.writeOffset
	if err := s.writeUint32(uint32(len(value))); err != nil {
		return err
	}
	if _, err := s.writer.Write(value); err != nil {
		return fmt.Errorf("payload: write value: %w", err)
	}
	s.writeOffset += int64(len(value))

	s.index[id] = lenFieldOffset
	return nil
}

// Delete appends a delete record for id and removes it from the index. It
// is not an error to delete an id with no live payload.
func (s *Store) Delete(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeByte(markerDelete); err != nil {
		return err
	}
	if err := s.writeUint64(id); err != nil {
		return err
	}
	delete(s.index, id)
	return nil
}

func (s *Store) writeByte(b byte) error {
	if err := s.writer.WriteByte(b); err != nil {
		return fmt.Errorf("payload: write marker: %w", err)
	}
	s.writeOffset++
	return nil
}

func (s *Store) writeUint64(v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	if _, err := s.writer.Write(buf[:]); err != nil {
		return fmt.Errorf("payload: write id: %w", err)
	}
	s.writeOffset += 8
	return nil
}

func (s *Store) writeUint32(v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	if _, err := s.writer.Write(buf[:]); err != nil {
		return fmt.Errorf("payload: write length: %w", err)
	}
	s.writeOffset += 4
	return nil
}

// Get reads and parses the payload for id. ok is false if id has no live
// payload (never written, or deleted).
//
// Get uses its own file handle positioned independently of the writer's
// buffered stream, so concurrent reads never race the append path's
// in-flight buffer: per the collection's resource-discipline rules, the
// writer holds the log under exclusive lock, and a reader uses an
// independent file handle under its own lock for seek-safety.
func (s *Store) Get(id uint64) (json.RawMessage, bool, error) {
	s.mu.RLock()
	lenFieldOffset, ok := s.index[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	// Flush so a read through the independent handle observes buffered
	// writes: reads must see the writer's most recent Put, since search
	// results are served from this store immediately after an insert.
	if err := s.flushBuffer(); err != nil {
		return nil, false, err
	}

	f, err := os.Open(s.file.Name())
	if err != nil {
		return nil, false, fmt.Errorf("payload: open read handle: %w", err)
	}
	defer f.Close()

	var lenBuf [4]byte
	if _, err := f.ReadAt(lenBuf[:], lenFieldOffset); err != nil {
		return nil, false, fmt.Errorf("payload: read length at %d: %w", lenFieldOffset, err)
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])

	value := make([]byte, length)
	if _, err := f.ReadAt(value, lenFieldOffset+4); err != nil {
		return nil, false, fmt.Errorf("payload: read value at %d: %w", lenFieldOffset+4, err)
	}

	return json.RawMessage(value), true, nil
}

func (s *Store) flushBuffer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("payload: flush: %w", err)
	}
	return nil
}

// Flush flushes the buffered writer and fsyncs the backing file.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("payload: flush: %w", err)
	}
	return s.file.Sync()
}

// Close flushes and closes the backing file.
func (s *Store) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// Len reports the number of ids currently holding a live payload.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}

// Contains reports whether id currently has a live payload, without
// reading or parsing it.
func (s *Store) Contains(id uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// Each calls fn once for every id currently holding a live payload, so a
// caller can rebuild a derived index (full-text, property) after reopening
// without the store itself needing to persist that index separately. fn
// sees a best-effort snapshot: ids registered concurrently with the walk
// may or may not be visited.
func (s *Store) Each(fn func(id uint64, value json.RawMessage) error) error {
	s.mu.RLock()
	ids := make([]uint64, 0, len(s.index))
	for id := range s.index {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		value, ok, err := s.Get(id)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := fn(id, value); err != nil {
			return err
		}
	}
	return nil
}
