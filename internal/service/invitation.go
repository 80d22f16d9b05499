package service

import (
	"context"
	"procurement-engine/internal/entity"
	"time"
)

type InvitationService struct {
	rfqs *rfqAccess
}

func NewInvitationService(rfqs *rfqAccess) *InvitationService {
	return &InvitationService{rfqs: rfqs}
}

func (s *InvitationService) GetInvitation(ctx context.Context, rfqNumber, vendorCode string) (*entity.InvitationOutputModel, error) {
	rfq, err := s.rfqs.load(ctx, rfqNumber)
	if err != nil {
		return nil, err
	}

	inv, ok := rfq.Invitation(vendorCode)
	if !ok {
		return nil, ErrInvitationNotFound
	}

	return mapInvitation(inv, rfq.Status), nil
}

func (s *InvitationService) AcceptInvitation(ctx context.Context, rfqNumber, vendorCode string) (*entity.InvitationOutputModel, error) {
	return s.respond(ctx, rfqNumber, func(rfq *entity.Rfq, now time.Time) (*entity.VendorInvitation, error) {
		return rfq.AcceptInvitation(vendorCode, now)
	})
}

func (s *InvitationService) DeclineInvitation(ctx context.Context, rfqNumber, vendorCode string) (*entity.InvitationOutputModel, error) {
	return s.respond(ctx, rfqNumber, func(rfq *entity.Rfq, now time.Time) (*entity.VendorInvitation, error) {
		return rfq.DeclineInvitation(vendorCode, now)
	})
}

func (s *InvitationService) SaveVendorQuoteDraft(ctx context.Context, rfqNumber, vendorCode string, lines []entity.QuoteLineInput) (*entity.InvitationOutputModel, error) {
	return s.respond(ctx, rfqNumber, func(rfq *entity.Rfq, now time.Time) (*entity.VendorInvitation, error) {
		return rfq.SaveQuoteDraft(vendorCode, lines, now)
	})
}

func (s *InvitationService) SubmitVendorQuote(ctx context.Context, rfqNumber, vendorCode string, lines []entity.QuoteLineInput) (*entity.InvitationOutputModel, error) {
	return s.respond(ctx, rfqNumber, func(rfq *entity.Rfq, now time.Time) (*entity.VendorInvitation, error) {
		return rfq.SubmitQuote(vendorCode, lines, now)
	})
}

func (s *InvitationService) respond(ctx context.Context, rfqNumber string, action func(rfq *entity.Rfq, now time.Time) (*entity.VendorInvitation, error)) (*entity.InvitationOutputModel, error) {
	var inv *entity.VendorInvitation
	rfq, err := s.rfqs.mutate(ctx, rfqNumber, func(rfq *entity.Rfq, now time.Time) error {
		var err error
		inv, err = action(rfq, now)

		return err
	})
	if err != nil {
		return nil, err
	}

	return mapInvitation(inv, rfq.Status), nil
}
