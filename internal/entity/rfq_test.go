package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestRfq(t *testing.T) *Rfq {
	t.Helper()
	rfq, err := NewRfq("RFQ-1", &CreateRfqInput{
		Subject:         "Cable trays",
		Type:            RfqTypeNegotiated,
		ClosingDeadline: testNow.Add(24 * time.Hour),
		LineItems: []RfqLineInput{
			{LineNo: 1, ItemCode: "TRAY-1", Quantity: decimal.NewFromInt(10), EstimatedUnitPrice: decimal.RequireFromString("2.5")},
			{LineNo: 2, ItemCode: "TRAY-2", Quantity: decimal.NewFromInt(4), EstimatedUnitPrice: decimal.NewFromInt(3)},
		},
	}, testNow)
	if err != nil {
		t.Fatalf("new rfq: %v", err)
	}

	return rfq
}

func TestNewRfqCollectsEveryViolation(t *testing.T) {
	_, err := NewRfq("RFQ-1", &CreateRfqInput{
		Subject:         " ",
		ClosingDeadline: testNow.Add(-time.Hour),
		LineItems: []RfqLineInput{
			{LineNo: 1, ItemCode: "", Quantity: decimal.Zero},
			{LineNo: 1, ItemCode: "X", Quantity: decimal.NewFromInt(1), EstimatedUnitPrice: decimal.NewFromInt(-1)},
		},
	}, testNow)

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	fields := map[string]int{}
	for _, v := range validationErr.Violations {
		fields[v.Field]++
	}
	for _, want := range []string{"subject", "type", "closingDeadline", "itemCode", "quantity", "estimatedUnitPrice", "lineNo"} {
		if fields[want] == 0 {
			t.Fatalf("expected a violation on %s, got %v", want, validationErr.Violations)
		}
	}
}

func TestNewRfqComputesEstimatedAmounts(t *testing.T) {
	rfq := newTestRfq(t)
	if rfq.Status != RfqStatusDraft {
		t.Fatalf("expected DRAFT, got %s", rfq.Status)
	}
	if !rfq.EstimatedTotal().Equal(decimal.NewFromInt(37)) {
		t.Fatalf("expected estimated total 37, got %s", rfq.EstimatedTotal())
	}
}

func TestDispatchValidatesVendors(t *testing.T) {
	tests := []struct {
		name    string
		vendors []VendorRef
	}{
		{"empty", nil},
		{"duplicate", []VendorRef{{Code: "A"}, {Code: "A"}}},
		{"blank code", []VendorRef{{Code: " "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rfq := newTestRfq(t)
			err := rfq.Dispatch(tt.vendors, testNow)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if rfq.Status != RfqStatusDraft || len(rfq.Invitations) != 0 {
				t.Fatalf("failed dispatch must not mutate the rfq")
			}
		})
	}
}

func TestDispatchFreezesLineItems(t *testing.T) {
	rfq := newTestRfq(t)
	if err := rfq.Dispatch([]VendorRef{{Code: "A"}, {Code: "B"}}, testNow); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(rfq.Invitations) != 2 || rfq.Invitations[0].Status != InvitationStatusRequested {
		t.Fatalf("expected two REQUESTED invitations, got %+v", rfq.Invitations)
	}

	err := rfq.EditLineItems([]RfqLineInput{{LineNo: 1, ItemCode: "X", Quantity: decimal.NewFromInt(1)}}, testNow)
	var stateErr *InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if stateErr.Operation != string(RfqOpEditLineItems) || stateErr.Status != "DISPATCHED" {
		t.Fatalf("unexpected error details: %+v", stateErr)
	}
}

func TestSaveDraftRejectsUnknownAndDuplicateLines(t *testing.T) {
	rfq := newTestRfq(t)
	if err := rfq.Dispatch([]VendorRef{{Code: "A"}}, testNow); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if _, err := rfq.AcceptInvitation("A", testNow); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, err := rfq.SaveQuoteDraft("A", []QuoteLineInput{
		{LineNo: 1, UnitPrice: decimal.NewFromInt(1), Quantity: decimal.NewFromInt(1)},
		{LineNo: 1, UnitPrice: decimal.NewFromInt(1), Quantity: decimal.NewFromInt(1)},
		{LineNo: 9, UnitPrice: decimal.NewFromInt(-1), Quantity: decimal.NewFromInt(1)},
	}, testNow)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(validationErr.Violations) != 3 {
		t.Fatalf("expected 3 violations, got %v", validationErr.Violations)
	}

	inv, _ := rfq.Invitation("A")
	if inv.Status != InvitationStatusAccepted {
		t.Fatalf("expected ACCEPTED after failed draft, got %s", inv.Status)
	}
}

func TestSnapshotIsIndependentOfInvitation(t *testing.T) {
	rfq := newTestRfq(t)
	_ = rfq.Dispatch([]VendorRef{{Code: "A"}}, testNow)
	_, _ = rfq.AcceptInvitation("A", testNow)
	_, err := rfq.SubmitQuote("A", []QuoteLineInput{
		{LineNo: 1, UnitPrice: decimal.NewFromInt(2), Quantity: decimal.NewFromInt(10)},
		{LineNo: 2, UnitPrice: decimal.NewFromInt(3), Quantity: decimal.NewFromInt(4)},
	}, testNow)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err = rfq.OpenBidding(testNow); err != nil {
		t.Fatalf("open bidding: %v", err)
	}

	inv, _ := rfq.Invitation("A")
	snapshot := NewSelectionSnapshot(rfq, inv, testNow)
	if err = rfq.FinalizeSelection(snapshot, testNow); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	inv.QuoteLines[0].UnitPrice = decimal.NewFromInt(100)
	if !snapshot.Lines[0].UnitPrice.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("snapshot changed with invitation: %s", snapshot.Lines[0].UnitPrice)
	}
	if !snapshot.TotalAmount.Equal(decimal.NewFromInt(32)) {
		t.Fatalf("expected total 32, got %s", snapshot.TotalAmount)
	}

	stale := &SelectionSnapshot{RfqNumber: rfq.Number, Revision: 1, VendorCode: "A"}
	_ = rfq.ReopenSelection(testNow)
	var conflictErr *ConflictError
	if err = rfq.FinalizeSelection(stale, testNow); !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError for stale revision, got %v", err)
	}
}
