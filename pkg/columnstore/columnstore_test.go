package columnstore

import (
	"testing"

	"github.com/nyxdb/nyx/pkg/exec"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDeclareTableAndPutGet(t *testing.T) {
	s := openTestStore(t)
	if err := s.DeclareTable("users", "id"); err != nil {
		t.Fatalf("declare: %v", err)
	}
	row := exec.Row{"id": "u1", "name": "alice"}
	if err := s.Put("users", row); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := s.Get("users", "u1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got["name"] != "alice" {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestDeclareTableIdempotentSamePrimaryKey(t *testing.T) {
	s := openTestStore(t)
	if err := s.DeclareTable("users", "id"); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if err := s.DeclareTable("users", "id"); err != nil {
		t.Fatalf("re-declare with same key should be a no-op: %v", err)
	}
}

func TestDeclareTableConflictingPrimaryKeyErrors(t *testing.T) {
	s := openTestStore(t)
	if err := s.DeclareTable("users", "id"); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if err := s.DeclareTable("users", "email"); err != ErrTableExists {
		t.Fatalf("expected ErrTableExists, got %v", err)
	}
}

func TestPutWithoutDeclaredTableErrors(t *testing.T) {
	s := openTestStore(t)
	err := s.Put("ghost", exec.Row{"id": "x"})
	if err != ErrTableNotFound {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}

func TestPutMissingPrimaryKeyFieldErrors(t *testing.T) {
	s := openTestStore(t)
	s.DeclareTable("users", "id")
	err := s.Put("users", exec.Row{"name": "no-id"})
	if err != ErrMissingPrimary {
		t.Fatalf("expected ErrMissingPrimary, got %v", err)
	}
}

func TestBatchGetReturnsOnlyMatchingKeys(t *testing.T) {
	s := openTestStore(t)
	s.DeclareTable("users", "id")
	s.Put("users", exec.Row{"id": "u1", "name": "alice"})
	s.Put("users", exec.Row{"id": "u2", "name": "bob"})

	rows, err := s.BatchGet("users", []any{"u1", "u2", "u3"})
	if err != nil {
		t.Fatalf("batch get: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows["u1"]["name"] != "alice" || rows["u2"]["name"] != "bob" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestDeleteRemovesRow(t *testing.T) {
	s := openTestStore(t)
	s.DeclareTable("users", "id")
	s.Put("users", exec.Row{"id": "u1", "name": "alice"})
	if err := s.Delete("users", "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, ok, err := s.Get("users", "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected row to be gone after delete")
	}
}

func TestTableMetaSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.DeclareTable("users", "id")
	s.Put("users", exec.Row{"id": "u1", "name": "alice"})
	s.Close()

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, ok, err := reopened.Get("users", "u1")
	if err != nil || !ok {
		t.Fatalf("expected row to survive reopen: ok=%v err=%v", ok, err)
	}
	if got["name"] != "alice" {
		t.Fatalf("unexpected row after reopen: %+v", got)
	}
}

func TestOperationsAfterCloseReturnErrClosed(t *testing.T) {
	s := openTestStore(t)
	s.DeclareTable("users", "id")
	s.Close()
	if err := s.Put("users", exec.Row{"id": "u1"}); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
