package exec

import (
	"testing"

	"github.com/nyxdb/nyx/pkg/querylang"
)

func TestFuseSingleListReturnsItUnchanged(t *testing.T) {
	list := []Ranked{{ID: 1, Score: 0.9}, {ID: 2, Score: 0.5}}
	got := Fuse([][]Ranked{list}, querylang.DefaultFusionClause())
	if len(got) != 2 || got[0].ID != 1 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestFuseRRFRewardsAppearingInBothLists(t *testing.T) {
	a := []Ranked{{ID: 1, Score: 0.9}, {ID: 2, Score: 0.8}, {ID: 3, Score: 0.1}}
	b := []Ranked{{ID: 3, Score: 0.95}, {ID: 1, Score: 0.2}}
	got := Fuse([][]Ranked{a, b}, querylang.DefaultFusionClause())
	if len(got) != 3 {
		t.Fatalf("expected 3 distinct ids, got %d", len(got))
	}
	if got[0].ID != 1 {
		t.Fatalf("expected id 1 (present in both lists at good ranks) to win, got %+v", got)
	}
}

func TestFuseMaxTakesBestScorePerDocument(t *testing.T) {
	a := []Ranked{{ID: 1, Score: 0.2}}
	b := []Ranked{{ID: 1, Score: 0.9}}
	got := Fuse([][]Ranked{a, b}, querylang.FusionClause{Strategy: querylang.FusionMax})
	if len(got) != 1 || got[0].Score != 0.9 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestFuseMinTakesWorstScorePerDocument(t *testing.T) {
	a := []Ranked{{ID: 1, Score: 0.2}}
	b := []Ranked{{ID: 1, Score: 0.9}}
	got := Fuse([][]Ranked{a, b}, querylang.FusionClause{Strategy: querylang.FusionMin})
	if len(got) != 1 || got[0].Score != 0.2 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestFuseAverageOnlyAveragesOverListsItAppearsIn(t *testing.T) {
	a := []Ranked{{ID: 1, Score: 1.0}, {ID: 2, Score: 0.4}}
	b := []Ranked{{ID: 1, Score: 0.5}}
	got := Fuse([][]Ranked{a, b}, querylang.FusionClause{Strategy: querylang.FusionAverage})
	var id1Score, id2Score float64
	for _, r := range got {
		if r.ID == 1 {
			id1Score = r.Score
		}
		if r.ID == 2 {
			id2Score = r.Score
		}
	}
	if id1Score != 0.75 {
		t.Errorf("expected id 1 averaged to 0.75, got %f", id1Score)
	}
	if id2Score != 0.4 {
		t.Errorf("expected id 2 (only in list a) to keep 0.4, got %f", id2Score)
	}
}

func TestFuseProductMultipliesScores(t *testing.T) {
	a := []Ranked{{ID: 1, Score: 0.5}}
	b := []Ranked{{ID: 1, Score: 0.4}}
	got := Fuse([][]Ranked{a, b}, querylang.FusionClause{Strategy: querylang.FusionProduct})
	if len(got) != 1 || got[0].Score != 0.2 {
		t.Fatalf("unexpected result: %+v", got)
	}
}
