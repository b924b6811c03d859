package stock

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		qty  int64
		max  int64
		want Status
	}{
		{"full", 100, 100, StatusGood},
		{"above seventy", 71, 100, StatusGood},
		{"seventy exactly is low", 70, 100, StatusLow},
		{"above fifty", 51, 100, StatusLow},
		{"fifty exactly is very low", 50, 100, StatusVeryLow},
		{"forty percent", 40, 100, StatusVeryLow},
		{"single unit", 1, 100, StatusVeryLow},
		{"zero quantity", 0, 100, StatusOut},
		{"no baseline", 10, 0, StatusUnknown},
		{"negative baseline", 10, -5, StatusUnknown},
		{"zero on zero", 0, 0, StatusUnknown},
		{"over baseline", 150, 100, StatusGood},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.qty, tc.max); got != tc.want {
				t.Fatalf("Classify(%d, %d) = %q, want %q", tc.qty, tc.max, got, tc.want)
			}
		})
	}
}

// Status never gets healthier as quantity drops against a fixed baseline.
func TestClassifyMonotonic(t *testing.T) {
	const max = 200
	prev := Classify(max, max)
	for q := int64(max - 1); q >= 0; q-- {
		cur := Classify(q, max)
		if cur.Severity() < prev.Severity() {
			t.Fatalf("status improved from %q to %q when quantity dropped to %d", prev, cur, q)
		}
		prev = cur
	}
}

func TestSeverityOrdering(t *testing.T) {
	ladder := []Status{StatusGood, StatusLow, StatusVeryLow, StatusOut}
	for i := 1; i < len(ladder); i++ {
		if ladder[i].Severity() <= ladder[i-1].Severity() {
			t.Fatalf("%q should be more severe than %q", ladder[i], ladder[i-1])
		}
	}
	if StatusUnknown.Severity() >= StatusGood.Severity() {
		t.Fatalf("unknown must not outrank real statuses")
	}
}
