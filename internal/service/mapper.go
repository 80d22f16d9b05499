package service

import (
	"procurement-engine/internal/entity"
)

func mapRfq(r *entity.Rfq) *entity.RfqOutputModel {
	lines := make([]entity.RfqLineItemOutputModel, 0, len(r.LineItems))
	for _, l := range r.LineItems {
		lines = append(lines, entity.RfqLineItemOutputModel{
			LineNo:              l.LineNo,
			ItemCode:            l.ItemCode,
			Description:         l.Description,
			Spec:                l.Spec,
			Unit:                l.Unit,
			Quantity:            l.Quantity,
			EstimatedUnitPrice:  l.EstimatedUnitPrice,
			EstimatedAmount:     l.EstimatedAmount,
			DesiredDeliveryDate: l.DesiredDeliveryDate,
			StorageLocation:     l.StorageLocation,
		})
	}

	invitations := make([]entity.InvitationOutputModel, 0, len(r.Invitations))
	for i := range r.Invitations {
		invitations = append(invitations, *mapInvitation(&r.Invitations[i], r.Status))
	}

	return &entity.RfqOutputModel{
		Number:            r.Number,
		Subject:           r.Subject,
		Type:              r.Type.String(),
		ClosingDeadline:   r.ClosingDeadline,
		Remark:            r.Remark,
		Status:            r.Status.String(),
		Version:           r.Version,
		SelectionRevision: r.SelectionRevision,
		EstimatedTotal:    r.EstimatedTotal(),
		CreatedAt:         r.CreatedAt,
		LineItems:         lines,
		Invitations:       invitations,
	}
}

func mapInvitation(inv *entity.VendorInvitation, rfqStatus entity.RfqStatus) *entity.InvitationOutputModel {
	return &entity.InvitationOutputModel{
		RfqNumber:   inv.RfqNumber,
		VendorCode:  inv.VendorCode,
		VendorName:  inv.VendorName,
		Status:      inv.Status.String(),
		SubmittedAt: inv.SubmittedAt,
		Selected:    inv.Selected,
		Outcome:     inv.Outcome(rfqStatus),
		TotalAmount: inv.TotalAmount,
		QuoteLines:  mapQuoteLines(inv.QuoteLines),
	}
}

func mapQuoteLines(lines []entity.QuoteLineItem) []entity.QuoteLineOutputModel {
	s := make([]entity.QuoteLineOutputModel, 0, len(lines))
	for _, l := range lines {
		s = append(s, entity.QuoteLineOutputModel{
			LineNo:               l.LineNo,
			UnitPrice:            l.UnitPrice,
			Quantity:             l.Quantity,
			Amount:               l.Amount,
			PromisedDeliveryDate: l.PromisedDeliveryDate,
			Remark:               l.Remark,
		})
	}

	return s
}

func mapSelection(s *entity.SelectionSnapshot) *entity.SelectionOutputModel {
	return &entity.SelectionOutputModel{
		RfqNumber:   s.RfqNumber,
		Revision:    s.Revision,
		VendorCode:  s.VendorCode,
		VendorName:  s.VendorName,
		TotalAmount: s.TotalAmount,
		SelectedAt:  s.SelectedAt,
		Lines:       mapQuoteLines(s.Lines),
	}
}

func mapOrder(o *entity.Order) *entity.OrderOutputModel {
	lines := make([]entity.OrderLineOutputModel, 0, len(o.Lines))
	for i := range o.Lines {
		l := &o.Lines[i]
		lines = append(lines, entity.OrderLineOutputModel{
			LineNo:           l.LineNo,
			ItemCode:         l.ItemCode,
			Description:      l.Description,
			Unit:             l.Unit,
			OrderedQuantity:  l.OrderedQuantity,
			UnitPrice:        l.UnitPrice,
			ReceivedQuantity: l.ReceivedQuantity,
			RemainingQty:     l.Remaining(),
			StorageLocation:  l.StorageLocation,
		})
	}

	return &entity.OrderOutputModel{
		Number:           o.Number,
		RfqNumber:        o.RfqNumber,
		SnapshotRevision: o.SnapshotRevision,
		VendorCode:       o.VendorCode,
		VendorName:       o.VendorName,
		CreatedAt:        o.CreatedAt,
		Lines:            lines,
	}
}

func mapReceipts(receipts []entity.ReceiptRecord) []entity.ReceiptOutputModel {
	s := make([]entity.ReceiptOutputModel, 0, len(receipts))
	for _, r := range receipts {
		s = append(s, entity.ReceiptOutputModel{
			Number:          r.Number,
			OrderNumber:     r.OrderNumber,
			LineNo:          r.LineNo,
			Quantity:        r.Quantity,
			Amount:          r.Amount,
			StorageLocation: r.StorageLocation,
			ReceiptDate:     r.ReceiptDate,
		})
	}

	return s
}
