package idmap

import "testing"

func TestPartsSerializeDeserializeRoundTrip(t *testing.T) {
	m := New()
	m.Register(10)
	m.Register(20)
	m.Register(30)
	m.Remove(20)

	data := m.AsParts().Serialize()
	restored, err := DeserializeParts(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if restored.NextIdx != m.NextIdx() {
		t.Fatalf("expected NextIdx %d, got %d", m.NextIdx(), restored.NextIdx)
	}
	if len(restored.IDToIdx) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(restored.IDToIdx))
	}

	mappings := FromParts(restored)
	if !mappings.Contains(10) || !mappings.Contains(30) {
		t.Fatal("expected ids 10 and 30 to survive round trip")
	}
	if mappings.Contains(20) {
		t.Fatal("id 20 was removed before snapshot, should not survive round trip")
	}
}

func TestDeserializePartsRejectsTruncatedHeader(t *testing.T) {
	if _, err := DeserializeParts([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestDeserializePartsRejectsMismatchedLength(t *testing.T) {
	m := New()
	m.Register(1)
	data := m.AsParts().Serialize()
	if _, err := DeserializeParts(data[:len(data)-1]); err == nil {
		t.Fatal("expected error for truncated record")
	}
}
