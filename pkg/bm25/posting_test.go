package bm25

import "testing"

func TestPostingListInsertAndContains(t *testing.T) {
	pl := newPostingList()
	pl.insert(1)
	pl.insert(2)
	if !pl.contains(1) || !pl.contains(2) {
		t.Fatal("expected both ids present")
	}
	if pl.contains(3) {
		t.Fatal("did not expect id 3 present")
	}
	if pl.len() != 2 {
		t.Errorf("expected len 2, got %d", pl.len())
	}
}

func TestPostingListPromotesAtThreshold(t *testing.T) {
	pl := newPostingList()
	for i := uint64(0); i < promotionThreshold; i++ {
		pl.insert(i)
	}
	if pl.large == nil {
		t.Fatal("expected promotion to large representation at threshold")
	}
	if pl.len() != promotionThreshold {
		t.Errorf("expected len %d, got %d", promotionThreshold, pl.len())
	}
}

func TestPostingListRemove(t *testing.T) {
	pl := newPostingList()
	pl.insert(1)
	pl.insert(2)
	pl.remove(1)
	if pl.contains(1) {
		t.Fatal("expected id 1 removed")
	}
	if !pl.contains(2) {
		t.Fatal("expected id 2 to remain")
	}
}

func TestPostingListRemoveAfterPromotion(t *testing.T) {
	pl := newPostingList()
	for i := uint64(0); i < promotionThreshold+10; i++ {
		pl.insert(i)
	}
	pl.remove(5)
	if pl.contains(5) {
		t.Fatal("expected id 5 removed from large representation")
	}
	if pl.len() != promotionThreshold+9 {
		t.Errorf("expected len %d, got %d", promotionThreshold+9, pl.len())
	}
}

func TestPostingListEachVisitsAllIDs(t *testing.T) {
	pl := newPostingList()
	ids := []uint64{10, 20, 30}
	for _, id := range ids {
		pl.insert(id)
	}
	visited := make(map[uint64]bool)
	pl.each(func(id uint64) { visited[id] = true })
	for _, id := range ids {
		if !visited[id] {
			t.Errorf("expected id %d to be visited", id)
		}
	}
}

func TestPostingListIsEmpty(t *testing.T) {
	pl := newPostingList()
	if !pl.isEmpty() {
		t.Fatal("expected new posting list to be empty")
	}
	pl.insert(1)
	if pl.isEmpty() {
		t.Fatal("expected non-empty after insert")
	}
}
