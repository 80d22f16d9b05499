package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outcome labels shown to a vendor once the rfq is awarded.
const (
	OutcomePending = "PENDING"
	OutcomeWin     = "WIN"
	OutcomeLose    = "LOSE"
)

type VendorInvitation struct {
	RfqNumber   string
	VendorCode  string
	VendorName  string
	Status      InvitationStatus
	SubmittedAt *time.Time
	Selected    bool
	TotalAmount decimal.Decimal
	UpdatedAt   time.Time
	QuoteLines  []QuoteLineItem
}

type QuoteLineItem struct {
	LineNo               int
	UnitPrice            decimal.Decimal
	Quantity             decimal.Decimal
	Amount               decimal.Decimal
	PromisedDeliveryDate *time.Time
	Remark               string
}

// service input model; amounts are always derived
type QuoteLineInput struct {
	LineNo               int
	UnitPrice            decimal.Decimal
	Quantity             decimal.Decimal
	PromisedDeliveryDate *time.Time
	Remark               string
}

func (inv *VendorInvitation) invalidState(op string, reason string) error {
	return &InvalidStateError{
		Aggregate: "vendor invitation",
		Id:        inv.RfqNumber + "/" + inv.VendorCode,
		Operation: op,
		Status:    inv.Status.String(),
		Reason:    reason,
	}
}

func (inv *VendorInvitation) next(op InvitationOperation) (InvitationStatus, error) {
	to, ok := NextInvitationStatus(inv.Status, op)
	if !ok {
		return inv.Status, inv.invalidState(string(op), "")
	}

	return to, nil
}

func (inv *VendorInvitation) accept(now time.Time) error {
	to, err := inv.next(InvitationOpAccept)
	if err != nil {
		return err
	}
	inv.Status = to
	inv.UpdatedAt = now

	return nil
}

func (inv *VendorInvitation) decline(now time.Time) error {
	to, err := inv.next(InvitationOpDecline)
	if err != nil {
		return err
	}
	inv.Status = to
	inv.UpdatedAt = now

	return nil
}

func (inv *VendorInvitation) saveDraft(lines []QuoteLineItem, now time.Time) error {
	to, err := inv.next(InvitationOpSaveDraft)
	if err != nil {
		return err
	}
	inv.QuoteLines = lines
	inv.TotalAmount = quoteTotal(lines)
	inv.Status = to
	inv.UpdatedAt = now

	return nil
}

func (inv *VendorInvitation) submit(lines []QuoteLineItem, now time.Time) error {
	to, err := inv.next(InvitationOpSubmit)
	if err != nil {
		return err
	}
	submittedAt := now
	inv.QuoteLines = lines
	inv.TotalAmount = quoteTotal(lines)
	inv.SubmittedAt = &submittedAt
	inv.Status = to
	inv.UpdatedAt = now

	return nil
}

func (inv *VendorInvitation) draftInputs() []QuoteLineInput {
	inputs := make([]QuoteLineInput, 0, len(inv.QuoteLines))
	for _, l := range inv.QuoteLines {
		inputs = append(inputs, QuoteLineInput{
			LineNo:               l.LineNo,
			UnitPrice:            l.UnitPrice,
			Quantity:             l.Quantity,
			PromisedDeliveryDate: cloneTime(l.PromisedDeliveryDate),
			Remark:               l.Remark,
		})
	}

	return inputs
}

// Outcome reports WIN or LOSE for a submitted quote once the rfq is awarded.
func (inv *VendorInvitation) Outcome(rfqStatus RfqStatus) string {
	if rfqStatus != RfqStatusSelected || inv.Status != InvitationStatusSubmitted {
		return OutcomePending
	}
	if inv.Selected {
		return OutcomeWin
	}

	return OutcomeLose
}

func (inv VendorInvitation) Clone() VendorInvitation {
	inv.SubmittedAt = cloneTime(inv.SubmittedAt)
	inv.QuoteLines = cloneQuoteLines(inv.QuoteLines)

	return inv
}

func quoteTotal(lines []QuoteLineItem) decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(lines))
	for _, l := range lines {
		amounts = append(amounts, l.Amount)
	}

	return SumAmounts(amounts...)
}

func cloneQuoteLines(lines []QuoteLineItem) []QuoteLineItem {
	c := make([]QuoteLineItem, len(lines))
	for i, l := range lines {
		l.PromisedDeliveryDate = cloneTime(l.PromisedDeliveryDate)
		c[i] = l
	}

	return c
}
