package service

import (
	"context"
	"errors"
	"procurement-engine/internal/entity"
	"procurement-engine/internal/repo"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestServices(t *testing.T) (*Services, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}

	return NewServices(repo.NewMemoryRepositories(), clock.Now), clock
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}

	return d
}

// createDispatchedRfq creates an rfq with the given line quantities and
// dispatches it to vendors A and B.
func createDispatchedRfq(t *testing.T, s *Services, clock *testClock, quantities ...string) string {
	t.Helper()
	ctx := context.Background()

	lines := make([]entity.RfqLineInput, 0, len(quantities))
	for i, q := range quantities {
		lines = append(lines, entity.RfqLineInput{
			LineNo:             i + 1,
			ItemCode:           "ITEM-" + string(rune('A'+i)),
			Unit:               "pcs",
			Quantity:           dec(t, q),
			EstimatedUnitPrice: dec(t, "10"),
			StorageLocation:    "WH-1",
		})
	}
	rfq, err := s.Rfq.CreateRfq(ctx, &entity.CreateRfqInput{
		Subject:         "Steel bolts",
		Type:            entity.RfqTypeCompetitive,
		ClosingDeadline: clock.Now().Add(48 * time.Hour),
		LineItems:       lines,
	})
	if err != nil {
		t.Fatalf("create rfq: %v", err)
	}

	vendors := []entity.VendorRef{{Code: "A", Name: "Acme"}, {Code: "B", Name: "Bolt Co"}}
	if _, err = s.Rfq.DispatchRfq(ctx, rfq.Number, vendors); err != nil {
		t.Fatalf("dispatch rfq: %v", err)
	}

	return rfq.Number
}

func submitQuote(t *testing.T, s *Services, rfqNumber, vendor string, prices ...string) {
	t.Helper()
	ctx := context.Background()

	rfq, err := s.Rfq.GetRfq(ctx, rfqNumber)
	if err != nil {
		t.Fatalf("get rfq: %v", err)
	}
	if _, err = s.Invitation.AcceptInvitation(ctx, rfqNumber, vendor); err != nil {
		t.Fatalf("accept %s: %v", vendor, err)
	}

	lines := make([]entity.QuoteLineInput, 0, len(prices))
	for i, p := range prices {
		lines = append(lines, entity.QuoteLineInput{
			LineNo:    rfq.LineItems[i].LineNo,
			UnitPrice: dec(t, p),
			Quantity:  rfq.LineItems[i].Quantity,
		})
	}
	if _, err = s.Invitation.SubmitVendorQuote(ctx, rfqNumber, vendor, lines); err != nil {
		t.Fatalf("submit %s: %v", vendor, err)
	}
}

func TestSelectLowestQuoteScenario(t *testing.T) {
	s, clock := newTestServices(t)
	ctx := context.Background()

	number := createDispatchedRfq(t, s, clock, "10")
	if number != "RFQ-1" {
		t.Fatalf("expected first rfq number RFQ-1, got %s", number)
	}
	submitQuote(t, s, number, "A", "9")
	submitQuote(t, s, number, "B", "11")

	if _, err := s.Rfq.OpenBidding(ctx, number); err != nil {
		t.Fatalf("open bidding: %v", err)
	}

	selection, err := s.Selection.SelectWinner(ctx, number, "A")
	if err != nil {
		t.Fatalf("select winner: %v", err)
	}
	if !selection.TotalAmount.Equal(dec(t, "90")) {
		t.Fatalf("expected snapshot total 90, got %s", selection.TotalAmount)
	}
	if selection.Revision != 1 {
		t.Fatalf("expected revision 1, got %d", selection.Revision)
	}

	rfq, err := s.Rfq.GetRfq(ctx, number)
	if err != nil {
		t.Fatalf("get rfq: %v", err)
	}
	if rfq.Status != "SELECTED" {
		t.Fatalf("expected SELECTED, got %s", rfq.Status)
	}

	for vendor, want := range map[string]string{"A": entity.OutcomeWin, "B": entity.OutcomeLose} {
		inv, err := s.Invitation.GetInvitation(ctx, number, vendor)
		if err != nil {
			t.Fatalf("get invitation %s: %v", vendor, err)
		}
		if inv.Outcome != want {
			t.Fatalf("vendor %s: expected %s, got %s", vendor, want, inv.Outcome)
		}
	}

	got, err := s.Selection.GetSelection(ctx, number)
	if err != nil {
		t.Fatalf("get selection: %v", err)
	}
	if got.VendorCode != "A" {
		t.Fatalf("expected vendor A selected, got %s", got.VendorCode)
	}
}

func TestConcurrentSelectionsYieldOneWinner(t *testing.T) {
	s, clock := newTestServices(t)
	ctx := context.Background()

	number := createDispatchedRfq(t, s, clock, "10")
	submitQuote(t, s, number, "A", "9")
	submitQuote(t, s, number, "B", "11")
	if _, err := s.Rfq.OpenBidding(ctx, number); err != nil {
		t.Fatalf("open bidding: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, vendor := range []string{"A", "B"} {
		wg.Add(1)
		go func(i int, vendor string) {
			defer wg.Done()
			_, errs[i] = s.Selection.SelectWinner(ctx, number, vendor)
		}(i, vendor)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var conflictErr *entity.ConflictError
		if !errors.As(err, &conflictErr) {
			t.Fatalf("expected ConflictError for the losing selection, got %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one successful selection, got %d", succeeded)
	}

	rfq, _ := s.Rfq.GetRfq(ctx, number)
	selected := 0
	for _, inv := range rfq.Invitations {
		if inv.Selected {
			selected++
		}
	}
	if selected != 1 {
		t.Fatalf("expected one selected invitation, got %d", selected)
	}
}

func TestSecondSelectionConflictsWithWinner(t *testing.T) {
	s, clock := newTestServices(t)
	ctx := context.Background()

	number := createDispatchedRfq(t, s, clock, "10")
	submitQuote(t, s, number, "A", "9")
	submitQuote(t, s, number, "B", "11")
	if _, err := s.Rfq.OpenBidding(ctx, number); err != nil {
		t.Fatalf("open bidding: %v", err)
	}
	if _, err := s.Selection.SelectWinner(ctx, number, "A"); err != nil {
		t.Fatalf("select A: %v", err)
	}

	for _, vendor := range []string{"A", "B"} {
		_, err := s.Selection.SelectWinner(ctx, number, vendor)
		var conflictErr *entity.ConflictError
		if !errors.As(err, &conflictErr) {
			t.Fatalf("select %s: expected ConflictError, got %v", vendor, err)
		}
		if conflictErr.Reason != "vendor A was already selected in revision 1" {
			t.Fatalf("select %s: unexpected reason %q", vendor, conflictErr.Reason)
		}
	}

	selection, err := s.Selection.GetSelection(ctx, number)
	if err != nil {
		t.Fatalf("get selection: %v", err)
	}
	if selection.Revision != 1 {
		t.Fatalf("expected the first selection to stand, got revision %d", selection.Revision)
	}
}

func TestSelectRequiresSubmittedQuote(t *testing.T) {
	s, clock := newTestServices(t)
	ctx := context.Background()

	number := createDispatchedRfq(t, s, clock, "10")
	submitQuote(t, s, number, "A", "9")
	if _, err := s.Rfq.OpenBidding(ctx, number); err != nil {
		t.Fatalf("open bidding: %v", err)
	}

	_, err := s.Selection.SelectWinner(ctx, number, "B")
	var stateErr *entity.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected InvalidStateError for unsubmitted quote, got %v", err)
	}

	_, err = s.Selection.SelectWinner(ctx, number, "Z")
	if !errors.Is(err, ErrInvitationNotFound) {
		t.Fatalf("expected ErrInvitationNotFound, got %v", err)
	}
}

func TestAcceptTwiceFails(t *testing.T) {
	s, clock := newTestServices(t)
	ctx := context.Background()
	number := createDispatchedRfq(t, s, clock, "10")

	if _, err := s.Invitation.AcceptInvitation(ctx, number, "A"); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	_, err := s.Invitation.AcceptInvitation(ctx, number, "A")
	var stateErr *entity.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected InvalidStateError on second accept, got %v", err)
	}
	if stateErr.Status != "ACCEPTED" {
		t.Fatalf("expected current status ACCEPTED, got %s", stateErr.Status)
	}
}

func TestSubmitReportsEveryOffendingLine(t *testing.T) {
	s, clock := newTestServices(t)
	ctx := context.Background()
	number := createDispatchedRfq(t, s, clock, "10", "5", "2")

	if _, err := s.Invitation.AcceptInvitation(ctx, number, "A"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	_, err := s.Invitation.SubmitVendorQuote(ctx, number, "A", []entity.QuoteLineInput{
		{LineNo: 1, UnitPrice: decimal.Zero, Quantity: dec(t, "10")},
		{LineNo: 2, UnitPrice: dec(t, "3"), Quantity: dec(t, "-1")},
	})
	var validationErr *entity.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	lines := map[int]bool{}
	for _, n := range validationErr.LineNumbers() {
		lines[n] = true
	}
	for _, want := range []int{1, 2, 3} {
		if !lines[want] {
			t.Fatalf("expected line %d in violations, got %v", want, validationErr.Violations)
		}
	}

	inv, _ := s.Invitation.GetInvitation(ctx, number, "A")
	if inv.Status != "ACCEPTED" {
		t.Fatalf("failed submit must not change status, got %s", inv.Status)
	}
}

func TestSubmitWithoutLinesUsesSavedDraft(t *testing.T) {
	s, clock := newTestServices(t)
	ctx := context.Background()
	number := createDispatchedRfq(t, s, clock, "10")

	if _, err := s.Invitation.AcceptInvitation(ctx, number, "A"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	draft, err := s.Invitation.SaveVendorQuoteDraft(ctx, number, "A", []entity.QuoteLineInput{
		{LineNo: 1, UnitPrice: dec(t, "2.5"), Quantity: dec(t, "10")},
	})
	if err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if draft.Status != "DRAFT_SAVED" || !draft.TotalAmount.Equal(dec(t, "25")) {
		t.Fatalf("unexpected draft: status %s total %s", draft.Status, draft.TotalAmount)
	}

	submitted, err := s.Invitation.SubmitVendorQuote(ctx, number, "A", nil)
	if err != nil {
		t.Fatalf("submit draft: %v", err)
	}
	if submitted.Status != "SUBMITTED" || submitted.SubmittedAt == nil {
		t.Fatalf("expected submitted quote with timestamp, got %+v", submitted)
	}
}

func TestVendorActionsCloseAtDeadline(t *testing.T) {
	s, clock := newTestServices(t)
	ctx := context.Background()
	number := createDispatchedRfq(t, s, clock, "10")

	clock.Advance(49 * time.Hour)

	_, err := s.Invitation.AcceptInvitation(ctx, number, "A")
	var stateErr *entity.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected InvalidStateError after deadline, got %v", err)
	}
}

func TestOpenBiddingOnDeadlineIsIdempotent(t *testing.T) {
	s, clock := newTestServices(t)
	ctx := context.Background()
	number := createDispatchedRfq(t, s, clock, "10")

	due, err := s.Rfq.DueForBidding(ctx)
	if err != nil {
		t.Fatalf("due for bidding: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("expected nothing due before deadline, got %v", due)
	}
	opened, err := s.Rfq.OpenBiddingOnDeadline(ctx, number)
	if err != nil || opened {
		t.Fatalf("expected no-op before deadline, got opened=%v err=%v", opened, err)
	}

	clock.Advance(48 * time.Hour)

	due, _ = s.Rfq.DueForBidding(ctx)
	if len(due) != 1 || due[0] != number {
		t.Fatalf("expected %s due, got %v", number, due)
	}
	opened, err = s.Rfq.OpenBiddingOnDeadline(ctx, number)
	if err != nil || !opened {
		t.Fatalf("expected transition, got opened=%v err=%v", opened, err)
	}
	opened, err = s.Rfq.OpenBiddingOnDeadline(ctx, number)
	if err != nil || opened {
		t.Fatalf("expected second call to be a no-op, got opened=%v err=%v", opened, err)
	}

	rfq, _ := s.Rfq.GetRfq(ctx, number)
	if rfq.Status != "BIDDING_OPEN" {
		t.Fatalf("expected BIDDING_OPEN, got %s", rfq.Status)
	}
}

func TestCancelVoidsInvitations(t *testing.T) {
	s, clock := newTestServices(t)
	ctx := context.Background()
	number := createDispatchedRfq(t, s, clock, "10")
	submitQuote(t, s, number, "A", "9")

	rfq, err := s.Rfq.CancelRfq(ctx, number)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	for _, inv := range rfq.Invitations {
		if inv.Status != "VOID" {
			t.Fatalf("expected VOID for %s, got %s", inv.VendorCode, inv.Status)
		}
	}

	_, err = s.Rfq.OpenBidding(ctx, number)
	var stateErr *entity.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected InvalidStateError after cancel, got %v", err)
	}
}

func TestEditLineItemsOnlyInDraft(t *testing.T) {
	s, clock := newTestServices(t)
	ctx := context.Background()
	number := createDispatchedRfq(t, s, clock, "10")

	_, err := s.Rfq.EditRfqLineItems(ctx, number, []entity.RfqLineInput{
		{LineNo: 1, ItemCode: "X", Quantity: dec(t, "1"), EstimatedUnitPrice: dec(t, "1")},
	})
	var stateErr *entity.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}

	_, err = s.Rfq.GetRfq(ctx, "RFQ-404")
	if !errors.Is(err, ErrRfqNotFound) {
		t.Fatalf("expected ErrRfqNotFound, got %v", err)
	}
}

func issueOrderForVendorA(t *testing.T, s *Services, clock *testClock, qty string) (string, string) {
	t.Helper()
	ctx := context.Background()

	number := createDispatchedRfq(t, s, clock, qty)
	submitQuote(t, s, number, "A", "9")
	if _, err := s.Rfq.OpenBidding(ctx, number); err != nil {
		t.Fatalf("open bidding: %v", err)
	}
	if _, err := s.Selection.SelectWinner(ctx, number, "A"); err != nil {
		t.Fatalf("select: %v", err)
	}
	order, err := s.Order.IssueOrder(ctx, number)
	if err != nil {
		t.Fatalf("issue order: %v", err)
	}

	return number, order.Number
}

func receive(s *Services, orderNumber string, qty decimal.Decimal) (*entity.ReceiveGoodsOutputModel, error) {
	return s.Order.ReceiveGoods(context.Background(), []entity.ReceiptLineInput{
		{OrderNumber: orderNumber, LineNo: 1, Quantity: qty},
	})
}

func TestReceiveSevenFourThree(t *testing.T) {
	s, clock := newTestServices(t)
	_, orderNumber := issueOrderForVendorA(t, s, clock, "10")

	res, err := receive(s, orderNumber, dec(t, "7"))
	if err != nil {
		t.Fatalf("receive 7: %v", err)
	}
	if !res.Order.Lines[0].RemainingQty.Equal(dec(t, "3")) {
		t.Fatalf("expected remaining 3, got %s", res.Order.Lines[0].RemainingQty)
	}
	if !res.Receipts[0].Amount.Equal(dec(t, "63")) {
		t.Fatalf("expected receipt amount 63, got %s", res.Receipts[0].Amount)
	}
	if res.Receipts[0].StorageLocation != "WH-1" {
		t.Fatalf("expected default storage location WH-1, got %q", res.Receipts[0].StorageLocation)
	}

	_, err = receive(s, orderNumber, dec(t, "4"))
	var overErr *entity.OverReceiptError
	if !errors.As(err, &overErr) {
		t.Fatalf("expected OverReceiptError, got %v", err)
	}
	if !overErr.Lines[0].Remaining.Equal(dec(t, "3")) {
		t.Fatalf("expected remaining 3 in error, got %s", overErr.Lines[0].Remaining)
	}

	res, err = receive(s, orderNumber, dec(t, "3"))
	if err != nil {
		t.Fatalf("receive 3: %v", err)
	}
	if !res.Order.Lines[0].RemainingQty.IsZero() {
		t.Fatalf("expected nothing remaining, got %s", res.Order.Lines[0].RemainingQty)
	}

	receipts, err := s.Order.GetOrderReceipts(context.Background(), orderNumber, entity.NewPaginationInput(10, 0))
	if err != nil {
		t.Fatalf("list receipts: %v", err)
	}
	if len(receipts) != 2 {
		t.Fatalf("expected 2 ledger records, got %d", len(receipts))
	}

	receipts, err = s.Order.GetOrderReceipts(context.Background(), orderNumber, nil)
	if err != nil {
		t.Fatalf("list receipts without paging: %v", err)
	}
	if len(receipts) != 2 || !receipts[0].Quantity.Equal(dec(t, "7")) || !receipts[1].Quantity.Equal(dec(t, "3")) {
		t.Fatalf("expected receipts 7 then 3 on the default page, got %+v", receipts)
	}
}

func TestConcurrentReceiptsNeverOverReceive(t *testing.T) {
	s, clock := newTestServices(t)
	_, orderNumber := issueOrderForVendorA(t, s, clock, "10")

	six := dec(t, "6")
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = receive(s, orderNumber, six)
		}(i)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err == nil {
			continue
		}
		failed++
		var overErr *entity.OverReceiptError
		if !errors.As(err, &overErr) {
			t.Fatalf("expected OverReceiptError, got %v", err)
		}
	}
	if failed != 1 {
		t.Fatalf("expected exactly one rejected batch, got %d", failed)
	}

	order, err := s.Order.GetOrder(context.Background(), orderNumber)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if !order.Lines[0].ReceivedQuantity.Equal(dec(t, "6")) {
		t.Fatalf("expected received 6, got %s", order.Lines[0].ReceivedQuantity)
	}
}

func TestReceiveRejectsCrossOrderBatch(t *testing.T) {
	s, clock := newTestServices(t)
	_, orderNumber := issueOrderForVendorA(t, s, clock, "10")

	_, err := s.Order.ReceiveGoods(context.Background(), []entity.ReceiptLineInput{
		{OrderNumber: orderNumber, LineNo: 1, Quantity: dec(t, "1")},
		{OrderNumber: "PO-99", LineNo: 1, Quantity: dec(t, "1")},
	})
	var validationErr *entity.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	_, err = receive(s, "PO-99", dec(t, "1"))
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestIssueOrderOncePerSelection(t *testing.T) {
	s, clock := newTestServices(t)
	ctx := context.Background()
	rfqNumber, _ := issueOrderForVendorA(t, s, clock, "10")

	_, err := s.Order.IssueOrder(ctx, rfqNumber)
	var conflictErr *entity.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError on second issue, got %v", err)
	}

	_, err = s.Selection.ReopenSelection(ctx, rfqNumber)
	var stateErr *entity.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected reopen to be refused after order issue, got %v", err)
	}
}

func TestReopenSelectionCreatesNewRevision(t *testing.T) {
	s, clock := newTestServices(t)
	ctx := context.Background()

	number := createDispatchedRfq(t, s, clock, "10")
	submitQuote(t, s, number, "A", "9")
	submitQuote(t, s, number, "B", "11")
	if _, err := s.Rfq.OpenBidding(ctx, number); err != nil {
		t.Fatalf("open bidding: %v", err)
	}
	if _, err := s.Selection.SelectWinner(ctx, number, "A"); err != nil {
		t.Fatalf("select A: %v", err)
	}

	rfq, err := s.Selection.ReopenSelection(ctx, number)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if rfq.Status != "BIDDING_OPEN" {
		t.Fatalf("expected BIDDING_OPEN after reopen, got %s", rfq.Status)
	}
	if _, err = s.Selection.GetSelection(ctx, number); !errors.Is(err, ErrSelectionNotFound) {
		t.Fatalf("expected no current selection after reopen, got %v", err)
	}

	selection, err := s.Selection.SelectWinner(ctx, number, "B")
	if err != nil {
		t.Fatalf("select B: %v", err)
	}
	if selection.Revision != 2 || !selection.TotalAmount.Equal(dec(t, "110")) {
		t.Fatalf("unexpected second selection: revision %d total %s", selection.Revision, selection.TotalAmount)
	}

	order, err := s.Order.IssueOrder(ctx, number)
	if err != nil {
		t.Fatalf("issue order: %v", err)
	}
	if order.VendorCode != "B" || order.SnapshotRevision != 2 {
		t.Fatalf("expected order for B at revision 2, got %s at %d", order.VendorCode, order.SnapshotRevision)
	}
	if !order.Lines[0].UnitPrice.Equal(dec(t, "11")) {
		t.Fatalf("expected unit price 11 from snapshot, got %s", order.Lines[0].UnitPrice)
	}
}
