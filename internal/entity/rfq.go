package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvitationNotFound = errors.New("vendor invitation not found")

// db model
type Rfq struct {
	Number          string
	Subject         string
	Type            RfqType
	ClosingDeadline time.Time
	Remark          string
	Status          RfqStatus
	// Version is bumped by storage on every successful save.
	Version int
	// SelectionRevision is the revision of the latest selection snapshot, 0 if none.
	SelectionRevision int
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LineItems         []RfqLineItem
	Invitations       []VendorInvitation
}

type RfqLineItem struct {
	LineNo              int
	ItemCode            string
	Description         string
	Spec                string
	Unit                string
	Quantity            decimal.Decimal
	EstimatedUnitPrice  decimal.Decimal
	EstimatedAmount     decimal.Decimal
	DesiredDeliveryDate *time.Time
	StorageLocation     string
}

// service input model
type RfqLineInput struct {
	LineNo              int
	ItemCode            string
	Description         string
	Spec                string
	Unit                string
	Quantity            decimal.Decimal
	EstimatedUnitPrice  decimal.Decimal
	DesiredDeliveryDate *time.Time
	StorageLocation     string
}

type CreateRfqInput struct {
	Subject         string
	Type            RfqType
	ClosingDeadline time.Time
	Remark          string
	LineItems       []RfqLineInput
}

type VendorRef struct {
	Code string
	Name string
}

// NewRfq validates the input and returns a DRAFT rfq. Every violation is reported.
func NewRfq(number string, input *CreateRfqInput, now time.Time) (*Rfq, error) {
	var v violations
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		v.add("subject", 0, "is required")
	}
	if input.Type != RfqTypeNegotiated && input.Type != RfqTypeCompetitive {
		v.add("type", 0, "must be NEGOTIATED or COMPETITIVE")
	}
	if !input.ClosingDeadline.After(now) {
		v.add("closingDeadline", 0, "must be in the future")
	}
	lines := buildRfqLines(&v, input.LineItems)
	if err := v.err(); err != nil {
		return nil, err
	}

	return &Rfq{
		Number:          number,
		Subject:         subject,
		Type:            input.Type,
		ClosingDeadline: input.ClosingDeadline.UTC(),
		Remark:          input.Remark,
		Status:          RfqStatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
		LineItems:       lines,
		Invitations:     make([]VendorInvitation, 0),
	}, nil
}

func buildRfqLines(v *violations, inputs []RfqLineInput) []RfqLineItem {
	if len(inputs) == 0 {
		v.add("lineItems", 0, "must not be empty")
		return nil
	}

	seen := make(map[int]bool, len(inputs))
	lines := make([]RfqLineItem, 0, len(inputs))
	for _, in := range inputs {
		if in.LineNo <= 0 {
			v.add("lineNo", in.LineNo, "must be a positive number")
		} else if seen[in.LineNo] {
			v.add("lineNo", in.LineNo, "is duplicated")
		}
		seen[in.LineNo] = true
		if strings.TrimSpace(in.ItemCode) == "" {
			v.add("itemCode", in.LineNo, "is required")
		}
		checkQuantity(v, "quantity", in.LineNo, in.Quantity, false)
		checkPrice(v, "estimatedUnitPrice", in.LineNo, in.EstimatedUnitPrice, true)

		lines = append(lines, RfqLineItem{
			LineNo:              in.LineNo,
			ItemCode:            strings.TrimSpace(in.ItemCode),
			Description:         in.Description,
			Spec:                in.Spec,
			Unit:                in.Unit,
			Quantity:            in.Quantity,
			EstimatedUnitPrice:  in.EstimatedUnitPrice,
			EstimatedAmount:     ExtendAmount(in.EstimatedUnitPrice, in.Quantity),
			DesiredDeliveryDate: cloneTime(in.DesiredDeliveryDate),
			StorageLocation:     in.StorageLocation,
		})
	}

	return lines
}

func (r *Rfq) invalidState(op RfqOperation, reason string) error {
	return &InvalidStateError{Aggregate: "rfq", Id: r.Number, Operation: string(op), Status: r.Status.String(), Reason: reason}
}

// next checks the transition table without mutating the rfq.
func (r *Rfq) next(op RfqOperation) (RfqStatus, error) {
	to, ok := NextRfqStatus(r.Status, op)
	if !ok {
		return r.Status, r.invalidState(op, "")
	}

	return to, nil
}

func (r *Rfq) EstimatedTotal() decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(r.LineItems))
	for _, l := range r.LineItems {
		amounts = append(amounts, l.EstimatedAmount)
	}

	return SumAmounts(amounts...)
}

func (r *Rfq) LineItem(lineNo int) (*RfqLineItem, bool) {
	for i := range r.LineItems {
		if r.LineItems[i].LineNo == lineNo {
			return &r.LineItems[i], true
		}
	}

	return nil, false
}

func (r *Rfq) Invitation(vendorCode string) (*VendorInvitation, bool) {
	for i := range r.Invitations {
		if r.Invitations[i].VendorCode == vendorCode {
			return &r.Invitations[i], true
		}
	}

	return nil, false
}

func (r *Rfq) DeadlinePassed(now time.Time) bool {
	return !now.Before(r.ClosingDeadline)
}

func (r *Rfq) EditLineItems(inputs []RfqLineInput, now time.Time) error {
	if _, err := r.next(RfqOpEditLineItems); err != nil {
		return err
	}

	var v violations
	lines := buildRfqLines(&v, inputs)
	if err := v.err(); err != nil {
		return err
	}

	r.LineItems = lines
	r.UpdatedAt = now

	return nil
}

// Dispatch creates one REQUESTED invitation per vendor. Line items are frozen afterwards.
func (r *Rfq) Dispatch(vendors []VendorRef, now time.Time) error {
	to, err := r.next(RfqOpDispatch)
	if err != nil {
		return err
	}

	var v violations
	if len(vendors) == 0 {
		v.add("vendors", 0, "must not be empty")
	}
	if r.DeadlinePassed(now) {
		v.add("closingDeadline", 0, "has already passed")
	}
	seen := make(map[string]bool, len(vendors))
	for _, vendor := range vendors {
		code := strings.TrimSpace(vendor.Code)
		switch {
		case code == "":
			v.add("vendorCode", 0, "is required")
		case seen[code]:
			v.add("vendorCode", 0, "is duplicated: "+code)
		}
		seen[code] = true
	}
	if err := v.err(); err != nil {
		return err
	}

	invitations := make([]VendorInvitation, 0, len(vendors))
	for _, vendor := range vendors {
		invitations = append(invitations, VendorInvitation{
			RfqNumber:   r.Number,
			VendorCode:  strings.TrimSpace(vendor.Code),
			VendorName:  vendor.Name,
			Status:      InvitationStatusRequested,
			TotalAmount: decimal.Zero,
			UpdatedAt:   now,
			QuoteLines:  make([]QuoteLineItem, 0),
		})
	}
	r.Invitations = invitations
	r.Status = to
	r.UpdatedAt = now

	return nil
}

func (r *Rfq) OpenBidding(now time.Time) error {
	to, err := r.next(RfqOpOpenBidding)
	if err != nil {
		return err
	}

	r.Status = to
	r.UpdatedAt = now

	return nil
}

// Cancel moves the rfq to CANCELLED and voids every invitation still in play.
func (r *Rfq) Cancel(now time.Time) error {
	to, err := r.next(RfqOpCancel)
	if err != nil {
		return err
	}

	for i := range r.Invitations {
		inv := &r.Invitations[i]
		if s, ok := NextInvitationStatus(inv.Status, InvitationOpVoid); ok {
			inv.Status = s
			inv.UpdatedAt = now
		}
	}
	r.Status = to
	r.UpdatedAt = now

	return nil
}

// FinalizeSelection records the winner described by snapshot. Exactly one
// invitation ends up selected.
func (r *Rfq) FinalizeSelection(snapshot *SelectionSnapshot, now time.Time) error {
	to, err := r.next(RfqOpFinalizeSelection)
	if err != nil {
		return err
	}

	winner, ok := r.Invitation(snapshot.VendorCode)
	if !ok {
		return ErrInvitationNotFound
	}
	if winner.Status != InvitationStatusSubmitted {
		return winner.invalidState("select", "quote was not submitted")
	}
	if snapshot.Revision != r.SelectionRevision+1 {
		return &ConflictError{Aggregate: "rfq", Id: r.Number, Reason: "stale selection revision"}
	}

	for i := range r.Invitations {
		inv := &r.Invitations[i]
		selected := inv.VendorCode == snapshot.VendorCode
		if inv.Selected != selected {
			inv.Selected = selected
			inv.UpdatedAt = now
		}
	}
	r.SelectionRevision = snapshot.Revision
	r.Status = to
	r.UpdatedAt = now

	return nil
}

// ReopenSelection reverts a SELECTED rfq to BIDDING_OPEN. Snapshots already
// taken stay in history untouched.
func (r *Rfq) ReopenSelection(now time.Time) error {
	to, err := r.next(RfqOpReopenSelection)
	if err != nil {
		return err
	}

	for i := range r.Invitations {
		if r.Invitations[i].Selected {
			r.Invitations[i].Selected = false
			r.Invitations[i].UpdatedAt = now
		}
	}
	r.Status = to
	r.UpdatedAt = now

	return nil
}

// respondingInvitation returns the vendor's invitation when the rfq still
// accepts vendor responses.
func (r *Rfq) respondingInvitation(vendorCode string, op InvitationOperation, now time.Time) (*VendorInvitation, error) {
	inv, ok := r.Invitation(vendorCode)
	if !ok {
		return nil, ErrInvitationNotFound
	}
	if r.Status != RfqStatusDispatched {
		return nil, &InvalidStateError{Aggregate: "rfq", Id: r.Number, Operation: string(op), Status: r.Status.String(), Reason: "vendor responses are closed"}
	}
	if r.DeadlinePassed(now) {
		return nil, &InvalidStateError{Aggregate: "rfq", Id: r.Number, Operation: string(op), Status: r.Status.String(), Reason: "closing deadline has passed"}
	}

	return inv, nil
}

func (r *Rfq) AcceptInvitation(vendorCode string, now time.Time) (*VendorInvitation, error) {
	inv, err := r.respondingInvitation(vendorCode, InvitationOpAccept, now)
	if err != nil {
		return nil, err
	}

	return inv, inv.accept(now)
}

func (r *Rfq) DeclineInvitation(vendorCode string, now time.Time) (*VendorInvitation, error) {
	inv, err := r.respondingInvitation(vendorCode, InvitationOpDecline, now)
	if err != nil {
		return nil, err
	}

	return inv, inv.decline(now)
}

// SaveQuoteDraft replaces the vendor's working quote lines.
func (r *Rfq) SaveQuoteDraft(vendorCode string, inputs []QuoteLineInput, now time.Time) (*VendorInvitation, error) {
	inv, err := r.respondingInvitation(vendorCode, InvitationOpSaveDraft, now)
	if err != nil {
		return nil, err
	}
	if _, err := inv.next(InvitationOpSaveDraft); err != nil {
		return nil, err
	}

	var v violations
	lines := r.buildQuoteLines(&v, inputs, false)
	if err := v.err(); err != nil {
		return nil, err
	}

	return inv, inv.saveDraft(lines, now)
}

// SubmitQuote freezes the vendor's quote. With no inputs the saved draft is submitted.
func (r *Rfq) SubmitQuote(vendorCode string, inputs []QuoteLineInput, now time.Time) (*VendorInvitation, error) {
	inv, err := r.respondingInvitation(vendorCode, InvitationOpSubmit, now)
	if err != nil {
		return nil, err
	}
	if _, err := inv.next(InvitationOpSubmit); err != nil {
		return nil, err
	}

	if len(inputs) == 0 {
		inputs = inv.draftInputs()
	}

	var v violations
	lines := r.buildQuoteLines(&v, inputs, true)
	if err := v.err(); err != nil {
		return nil, err
	}

	return inv, inv.submit(lines, now)
}

// buildQuoteLines validates quote inputs against the rfq lines. A final quote
// must price every rfq line with positive price and quantity.
func (r *Rfq) buildQuoteLines(v *violations, inputs []QuoteLineInput, final bool) []QuoteLineItem {
	if final && len(inputs) == 0 {
		v.add("quoteLines", 0, "must not be empty")
	}

	seen := make(map[int]bool, len(inputs))
	lines := make([]QuoteLineItem, 0, len(inputs))
	for _, in := range inputs {
		if _, ok := r.LineItem(in.LineNo); !ok {
			v.add("lineNo", in.LineNo, "does not exist in rfq "+r.Number)
		} else if seen[in.LineNo] {
			v.add("lineNo", in.LineNo, "is duplicated")
		}
		seen[in.LineNo] = true
		checkPrice(v, "unitPrice", in.LineNo, in.UnitPrice, !final)
		checkQuantity(v, "quantity", in.LineNo, in.Quantity, !final)

		lines = append(lines, QuoteLineItem{
			LineNo:               in.LineNo,
			UnitPrice:            in.UnitPrice,
			Quantity:             in.Quantity,
			Amount:               ExtendAmount(in.UnitPrice, in.Quantity),
			PromisedDeliveryDate: cloneTime(in.PromisedDeliveryDate),
			Remark:               in.Remark,
		})
	}

	if final && len(inputs) > 0 {
		for _, l := range r.LineItems {
			if !seen[l.LineNo] {
				v.add("lineNo", l.LineNo, "is not quoted")
			}
		}
	}

	return lines
}

func (r *Rfq) Clone() *Rfq {
	if r == nil {
		return nil
	}

	c := *r
	c.LineItems = make([]RfqLineItem, len(r.LineItems))
	for i, l := range r.LineItems {
		l.DesiredDeliveryDate = cloneTime(l.DesiredDeliveryDate)
		c.LineItems[i] = l
	}
	c.Invitations = make([]VendorInvitation, len(r.Invitations))
	for i := range r.Invitations {
		c.Invitations[i] = r.Invitations[i].Clone()
	}

	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t

	return &c
}
