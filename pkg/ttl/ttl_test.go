package ttl

import (
	"testing"
	"time"
)

func fixedTracker(fixed time.Time) *Tracker {
	tr := New()
	tr.now = func() time.Time { return fixed }
	return tr
}

func TestSetTTLAndIsExpired(t *testing.T) {
	base := time.Unix(1000, 0)
	tr := fixedTracker(base)
	tr.SetTTL(1, 10*time.Second)

	if tr.IsExpired(1) {
		t.Fatal("should not be expired yet")
	}
	tr.now = func() time.Time { return base.Add(11 * time.Second) }
	if !tr.IsExpired(1) {
		t.Fatal("should be expired after ttl elapses")
	}
}

func TestIsExpiredOnUntrackedIDIsFalse(t *testing.T) {
	tr := New()
	if tr.IsExpired(999) {
		t.Fatal("untracked id should not report expired")
	}
}

func TestExpiredListsWithoutRemoving(t *testing.T) {
	base := time.Unix(1000, 0)
	tr := fixedTracker(base)
	tr.SetTTL(1, 5*time.Second)
	tr.SetTTL(2, 50*time.Second)
	tr.now = func() time.Time { return base.Add(10 * time.Second) }

	expired := tr.Expired()
	if len(expired) != 1 || expired[0] != 1 {
		t.Fatalf("expected [1], got %v", expired)
	}
	if tr.Len() != 2 {
		t.Fatalf("Expired must not remove entries, got len %d", tr.Len())
	}
}

func TestExpireRemovesExpiredEntries(t *testing.T) {
	base := time.Unix(1000, 0)
	tr := fixedTracker(base)
	tr.SetTTL(1, 5*time.Second)
	tr.SetTTL(2, 50*time.Second)
	tr.now = func() time.Time { return base.Add(10 * time.Second) }

	expired := tr.Expire()
	if len(expired) != 1 || expired[0] != 1 {
		t.Fatalf("expected [1], got %v", expired)
	}
	if tr.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", tr.Len())
	}
	if _, ok := tr.Get(1); ok {
		t.Fatal("expired entry should no longer be tracked")
	}
}

func TestSetTTLWithCreatedAtBackdates(t *testing.T) {
	tr := New()
	tr.SetTTLWithCreatedAt(1, 100*time.Second, 500)
	e, ok := tr.Get(1)
	if !ok {
		t.Fatal("expected entry to be tracked")
	}
	if e.CreatedAt != 500 || e.ExpiresAt != 600 {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestRemoveStopsTracking(t *testing.T) {
	tr := New()
	tr.SetTTL(1, time.Second)
	tr.Remove(1)
	if _, ok := tr.Get(1); ok {
		t.Fatal("expected entry to be removed")
	}
}

func TestSerializeDeserializeRoundtrip(t *testing.T) {
	tr := New()
	tr.SetTTLWithCreatedAt(1, 10*time.Second, 100)
	tr.SetTTLWithCreatedAt(2, 20*time.Second, 200)

	data := tr.Serialize()
	restored, err := Deserialize(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if restored.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", restored.Len())
	}
	e, ok := restored.Get(1)
	if !ok || e.CreatedAt != 100 || e.ExpiresAt != 110 {
		t.Fatalf("unexpected entry 1: %+v ok=%v", e, ok)
	}
}

func TestDeserializeRejectsTruncatedData(t *testing.T) {
	if _, err := Deserialize([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestDeserializeRejectsMismatchedLength(t *testing.T) {
	tr := New()
	tr.SetTTL(1, time.Second)
	data := tr.Serialize()
	if _, err := Deserialize(data[:len(data)-1]); err == nil {
		t.Fatal("expected error for truncated record")
	}
}
