package stock

import (
	"math/rand"
	"reflect"
	"testing"
)

func sampleRows() []LocationStock {
	return []LocationStock{
		{ItemID: 1, ItemName: "Paracetamol 500mg", DepartmentID: 10, Central: true, Quantity: 60, ItemBaseline: 100},
		{ItemID: 1, ItemName: "Paracetamol 500mg", DepartmentID: 20, Central: false, Quantity: 15, ItemBaseline: 100},
		{ItemID: 1, ItemName: "Paracetamol 500mg", DepartmentID: 30, Central: false, Quantity: 5, ItemBaseline: 100},
		{ItemID: 2, ItemName: "Surgical Gloves", DepartmentID: 10, Central: true, Quantity: 30, ItemBaseline: 100},
	}
}

func TestAggregateEmpty(t *testing.T) {
	if got := Aggregate(nil); len(got) != 0 {
		t.Fatalf("expected empty aggregate, got %v", got)
	}
	if got := Aggregate([]LocationStock{}); len(got) != 0 {
		t.Fatalf("expected empty aggregate, got %v", got)
	}
}

func TestAggregateTotals(t *testing.T) {
	got := Aggregate(sampleRows())
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}

	para := got[0]
	if para.ItemID != 1 {
		t.Fatalf("expected paracetamol first (name order), got item %d", para.ItemID)
	}
	if para.CentralQty != 60 || para.TransferredQty != 20 || para.GrandTotal != 80 {
		t.Fatalf("wrong totals: %+v", para)
	}
	if para.Status != StatusGood { // 80 of 100
		t.Fatalf("expected good, got %q", para.Status)
	}

	gloves := got[1]
	if gloves.GrandTotal != 30 || gloves.TransferredQty != 0 {
		t.Fatalf("missing department rows must count as zero: %+v", gloves)
	}
	if gloves.Status != StatusVeryLow { // 30 of 100
		t.Fatalf("expected very_low, got %q", gloves.Status)
	}
}

// Items that share a display name but not a catalog key stay separate.
func TestAggregateMergesByKeyNotName(t *testing.T) {
	rows := []LocationStock{
		{ItemID: 1, ItemName: "Alcohol 70%", DepartmentID: 10, Central: true, Quantity: 10, ItemBaseline: 50},
		{ItemID: 2, ItemName: "Alcohol 70%", DepartmentID: 10, Central: true, Quantity: 40, ItemBaseline: 50},
	}
	got := Aggregate(rows)
	if len(got) != 2 {
		t.Fatalf("expected 2 aggregates for 2 catalog keys, got %d", len(got))
	}
	if got[0].GrandTotal+got[1].GrandTotal != 50 {
		t.Fatalf("totals leaked between keys: %+v", got)
	}
}

func TestAggregateNoBaseline(t *testing.T) {
	rows := []LocationStock{
		{ItemID: 3, ItemName: "Gauze", DepartmentID: 10, Central: true, Quantity: 25, ItemBaseline: 0},
	}
	got := Aggregate(rows)
	if got[0].Status != StatusUnknown {
		t.Fatalf("no baseline must classify unknown, got %q", got[0].Status)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	rows := sampleRows()
	want := Aggregate(rows)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]LocationStock(nil), rows...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := Aggregate(shuffled); !reflect.DeepEqual(got, want) {
			t.Fatalf("aggregate depends on input order:\n got %+v\nwant %+v", got, want)
		}
	}
}

func TestAggregateIdempotent(t *testing.T) {
	rows := sampleRows()
	first := Aggregate(rows)
	second := Aggregate(rows)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("re-aggregation of unchanged input differs:\n%+v\n%+v", first, second)
	}
}

func TestVisibleTo(t *testing.T) {
	rows := sampleRows()

	all := VisibleTo(rows, 20, true)
	if len(all) != len(rows) {
		t.Fatalf("overall visibility must pass everything through")
	}

	own := VisibleTo(rows, 20, false)
	if len(own) != 1 || own[0].DepartmentID != 20 {
		t.Fatalf("expected only department 20 rows, got %+v", own)
	}

	none := VisibleTo(rows, 99, false)
	if len(none) != 0 {
		t.Fatalf("unknown department must see nothing, got %+v", none)
	}
}
