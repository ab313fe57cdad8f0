package exec

import (
	"testing"

	"github.com/nyxdb/nyx/pkg/filter"
	"github.com/nyxdb/nyx/pkg/querylang"
)

func TestAggregatorCountSumAvgMinMax(t *testing.T) {
	agg := NewAggregator(nil, []querylang.AggregateExpr{
		{Func: querylang.AggCount},
		{Func: querylang.AggSum, Arg: querylang.ColumnRef{Name: "price"}},
		{Func: querylang.AggAvg, Arg: querylang.ColumnRef{Name: "price"}},
		{Func: querylang.AggMin, Arg: querylang.ColumnRef{Name: "price"}},
		{Func: querylang.AggMax, Arg: querylang.ColumnRef{Name: "price"}},
	})
	agg.Add(Row{"price": 10.0})
	agg.Add(Row{"price": 20.0})
	agg.Add(Row{"price": 30.0})

	rows := agg.Results(nil, nil)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row (no group-by), got %d", len(rows))
	}
	row := rows[0]
	if row["COUNT(*)"] != int64(3) {
		t.Errorf("count: got %v", row["COUNT(*)"])
	}
	if row["SUM(price)"] != 60.0 {
		t.Errorf("sum: got %v", row["SUM(price)"])
	}
	if row["AVG(price)"] != 20.0 {
		t.Errorf("avg: got %v", row["AVG(price)"])
	}
	if row["MIN(price)"] != 10.0 {
		t.Errorf("min: got %v", row["MIN(price)"])
	}
	if row["MAX(price)"] != 30.0 {
		t.Errorf("max: got %v", row["MAX(price)"])
	}
}

func TestAggregatorGroupBy(t *testing.T) {
	agg := NewAggregator([]string{"dept"}, []querylang.AggregateExpr{{Func: querylang.AggCount}})
	agg.Add(Row{"dept": "eng"})
	agg.Add(Row{"dept": "eng"})
	agg.Add(Row{"dept": "sales"})

	rows := agg.Results([]string{"dept"}, nil)
	if len(rows) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(rows))
	}
	counts := map[string]int64{}
	for _, r := range rows {
		counts[r["dept"].(string)] = r["COUNT(*)"].(int64)
	}
	if counts["eng"] != 2 || counts["sales"] != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestAggregatorDistinctCount(t *testing.T) {
	agg := NewAggregator(nil, []querylang.AggregateExpr{
		{Func: querylang.AggCount, Arg: querylang.ColumnRef{Name: "category"}, Distinct: true},
	})
	agg.Add(Row{"category": "a"})
	agg.Add(Row{"category": "a"})
	agg.Add(Row{"category": "b"})

	rows := agg.Results(nil, []string{"distinct_categories"})
	if rows[0]["distinct_categories"] != int64(2) {
		t.Fatalf("expected 2 distinct categories, got %v", rows[0]["distinct_categories"])
	}
}

func TestAggregatorMergeMapReduce(t *testing.T) {
	a := NewAggregator([]string{"dept"}, []querylang.AggregateExpr{{Func: querylang.AggCount}})
	a.Add(Row{"dept": "eng"})

	b := NewAggregator([]string{"dept"}, []querylang.AggregateExpr{{Func: querylang.AggCount}})
	b.Add(Row{"dept": "eng"})
	b.Add(Row{"dept": "sales"})

	a.Merge(b)
	rows := a.Results([]string{"dept"}, nil)
	counts := map[string]int64{}
	for _, r := range rows {
		counts[r["dept"].(string)] = r["COUNT(*)"].(int64)
	}
	if counts["eng"] != 2 || counts["sales"] != 1 {
		t.Fatalf("unexpected merged counts: %+v", counts)
	}
}

func TestHavingFilterAppliesAfterGrouping(t *testing.T) {
	rows := []Row{
		{"dept": "eng", "COUNT(*)": int64(5)},
		{"dept": "sales", "COUNT(*)": int64(1)},
	}
	cond := filter.CondGt("COUNT(*)", 2)
	got := HavingFilter(rows, cond)
	if len(got) != 1 || got[0]["dept"] != "eng" {
		t.Fatalf("unexpected having result: %+v", got)
	}
}

func TestSortRowsAscendingAndDescending(t *testing.T) {
	rows := []Row{
		{"age": 30.0},
		{"age": 10.0},
		{"age": 20.0},
	}
	SortRows(rows, []string{"age"}, []bool{false})
	if rows[0]["age"] != 10.0 || rows[2]["age"] != 30.0 {
		t.Fatalf("expected ascending order, got %+v", rows)
	}
	SortRows(rows, []string{"age"}, []bool{true})
	if rows[0]["age"] != 30.0 || rows[2]["age"] != 10.0 {
		t.Fatalf("expected descending order, got %+v", rows)
	}
}
