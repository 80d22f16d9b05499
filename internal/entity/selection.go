package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SelectionSnapshot is the frozen copy of a winning quote. Snapshots are
// append-only; a re-selection produces a new revision.
type SelectionSnapshot struct {
	RfqNumber   string
	Revision    int
	VendorCode  string
	VendorName  string
	TotalAmount decimal.Decimal
	Lines       []QuoteLineItem
	SelectedAt  time.Time
}

// NewSelectionSnapshot deep-copies the invitation's quote so later changes to
// the invitation can never leak into the award.
func NewSelectionSnapshot(rfq *Rfq, inv *VendorInvitation, now time.Time) *SelectionSnapshot {
	return &SelectionSnapshot{
		RfqNumber:   rfq.Number,
		Revision:    rfq.SelectionRevision + 1,
		VendorCode:  inv.VendorCode,
		VendorName:  inv.VendorName,
		TotalAmount: inv.TotalAmount,
		Lines:       cloneQuoteLines(inv.QuoteLines),
		SelectedAt:  now,
	}
}

func (s *SelectionSnapshot) Clone() *SelectionSnapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Lines = cloneQuoteLines(s.Lines)

	return &c
}
