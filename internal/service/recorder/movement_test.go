package recorder

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Spok95/clinic-stock/internal/domain/ledger"
)

func TestApplyDelta(t *testing.T) {
	cases := []struct {
		name    string
		current int64
		delta   int64
		want    int64
		wantErr error
	}{
		{"increment", 10, 5, 15, nil},
		{"decrement", 10, -5, 5, nil},
		{"to zero", 10, -10, 0, nil},
		{"below zero rejected", 3, -5, 0, ErrInsufficientStock},
		{"from zero rejected", 0, -1, 0, ErrInsufficientStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := applyDelta(tc.current, tc.delta)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if err == nil && got != tc.want {
				t.Fatalf("applyDelta(%d, %d) = %d, want %d", tc.current, tc.delta, got, tc.want)
			}
		})
	}
}

// Equal opposing deltas return the quantity to where it started.
func TestApplyDeltaRoundTrip(t *testing.T) {
	const start, n = 100, 60
	up, err := applyDelta(start, n)
	if err != nil {
		t.Fatal(err)
	}
	back, err := applyDelta(up, -n)
	if err != nil {
		t.Fatal(err)
	}
	if back != start {
		t.Fatalf("round trip ended at %d, want %d", back, start)
	}
}

func TestValidate(t *testing.T) {
	actor := Actor{ID: "u1", Name: "Nurse"}

	ok := StockIn{ItemID: 1, DepartmentID: 2, Quantity: 3, Actor: actor, IdempotencyKey: "k"}
	if err := ok.validate(); err != nil {
		t.Fatalf("valid stock-in rejected: %v", err)
	}

	bad := []error{
		StockIn{DepartmentID: 2, Quantity: 3, Actor: actor, IdempotencyKey: "k"}.validate(),
		StockIn{ItemID: 1, Quantity: 3, Actor: actor, IdempotencyKey: "k"}.validate(),
		StockIn{ItemID: 1, DepartmentID: 2, Actor: actor, IdempotencyKey: "k"}.validate(),
		StockIn{ItemID: 1, DepartmentID: 2, Quantity: -3, Actor: actor, IdempotencyKey: "k"}.validate(),
		StockIn{ItemID: 1, DepartmentID: 2, Quantity: 3, IdempotencyKey: "k"}.validate(),
		StockIn{ItemID: 1, DepartmentID: 2, Quantity: 3, Actor: actor}.validate(),
	}
	for i, err := range bad {
		if err == nil {
			t.Fatalf("case %d: invalid stock-in accepted", i)
		}
	}
}

func TestValidateTransfer(t *testing.T) {
	actor := Actor{ID: "u1"}
	ok := Transfer{ItemID: 1, FromDeptID: 2, ToDeptID: 3, Quantity: 5, Actor: actor, IdempotencyKey: "k"}
	if err := ok.validate(); err != nil {
		t.Fatalf("valid transfer rejected: %v", err)
	}
	same := Transfer{ItemID: 1, FromDeptID: 2, ToDeptID: 2, Quantity: 5, Actor: actor, IdempotencyKey: "k"}
	if err := same.validate(); err == nil {
		t.Fatal("self-transfer accepted")
	}
}

func TestValidateAdjustment(t *testing.T) {
	actor := Actor{ID: "u1"}
	for _, delta := range []int64{5, -5} {
		m := Adjustment{ItemID: 1, DepartmentID: 2, Delta: delta, Actor: actor, IdempotencyKey: "k"}
		if err := m.validate(); err != nil {
			t.Fatalf("delta %d rejected: %v", delta, err)
		}
	}
	zero := Adjustment{ItemID: 1, DepartmentID: 2, Delta: 0, Actor: actor, IdempotencyKey: "k"}
	if err := zero.validate(); err == nil {
		t.Fatal("zero adjustment accepted")
	}
}

func TestMapPgError(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{"23505", ErrDuplicateMovement},
		{"40001", ErrConcurrentModification},
		{"40P01", ErrConcurrentModification},
	}
	for _, tc := range cases {
		got := mapPgError(&pgconn.PgError{Code: tc.code})
		if !errors.Is(got, tc.want) {
			t.Fatalf("code %s mapped to %v, want %v", tc.code, got, tc.want)
		}
	}

	plain := errors.New("boom")
	if got := mapPgError(plain); got != plain {
		t.Fatalf("unrelated error rewritten to %v", got)
	}
}

func TestTransferLegs(t *testing.T) {
	m := Transfer{
		ItemID:         7,
		FromDeptID:     1,
		ToDeptID:       2,
		Quantity:       30,
		Actor:          Actor{ID: "u1", Name: "Nurse"},
		Reason:         "restock",
		IdempotencyKey: "k-9",
	}
	out, in := transferLegs(m)

	if out.Type != ledger.MoveTransferOut || in.Type != ledger.MoveTransferIn {
		t.Fatalf("leg types: %s / %s", out.Type, in.Type)
	}
	if out.Delta != -30 || in.Delta != 30 {
		t.Fatalf("deltas not opposed: %d / %d", out.Delta, in.Delta)
	}
	// both legs keep the caller's key verbatim; distinct move types keep
	// them apart, and neither can collide with a stock-in reusing "k-9"
	if out.IdempotencyKey != "k-9" || in.IdempotencyKey != "k-9" {
		t.Fatalf("keys rewritten: %q / %q", out.IdempotencyKey, in.IdempotencyKey)
	}
	if out.TransferGroup != "k-9" || in.TransferGroup != "k-9" {
		t.Fatalf("legs not grouped: %q / %q", out.TransferGroup, in.TransferGroup)
	}
	if out.DepartmentID != 1 || *out.CounterpartID != 2 {
		t.Fatalf("out leg departments wrong: %d -> %d", out.DepartmentID, *out.CounterpartID)
	}
	if in.DepartmentID != 2 || *in.CounterpartID != 1 {
		t.Fatalf("in leg departments wrong: %d <- %d", in.DepartmentID, *in.CounterpartID)
	}
}

func TestConfirmOutcome(t *testing.T) {
	failed := []LineFailure{
		{ItemID: 1, Err: ErrInsufficientStock},
		{ItemID: 2, Err: ErrUnknownItem},
	}

	// nothing applied: a plain failure, never a "partially completed" claim
	err := confirmOutcome(9, nil, failed)
	var partial *PartialTransferError
	if errors.As(err, &partial) {
		t.Fatalf("all-failed confirmation reported as partial: %v", err)
	}
	if !errors.Is(err, ErrInsufficientStock) || !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("line errors not wrapped: %v", err)
	}
	if strings.Contains(err.Error(), "partially") {
		t.Fatalf("all-failed message claims partial completion: %v", err)
	}

	// mixed outcome: partial, with both sides listed
	err = confirmOutcome(9, []int64{3}, failed[:1])
	if !errors.As(err, &partial) {
		t.Fatalf("mixed outcome not partial: %v", err)
	}
	if partial.RequestID != 9 || len(partial.Applied) != 1 || len(partial.Failed) != 1 {
		t.Fatalf("partial detail wrong: %+v", partial)
	}
}
