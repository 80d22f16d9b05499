package service

import (
	"context"
	"errors"
	"fmt"
	"procurement-engine/internal/entity"
	"procurement-engine/internal/repo"
	"procurement-engine/internal/repo/repo_errors"
	"time"
)

// SelectionService awards an rfq to one submitted quote. Selections on the
// same rfq run one at a time; the loser of a race gets a ConflictError.
type SelectionService struct {
	rfqs          *rfqAccess
	selectionRepo repo.Selection
	orderRepo     repo.Order
}

func NewSelectionService(repos *repo.Repositories, rfqs *rfqAccess) *SelectionService {
	return &SelectionService{
		rfqs:          rfqs,
		selectionRepo: repos.Selection,
		orderRepo:     repos.Order,
	}
}

func (s *SelectionService) SelectWinner(ctx context.Context, rfqNumber, vendorCode string) (*entity.SelectionOutputModel, error) {
	s.rfqs.locks.Lock(rfqNumber)
	defer s.rfqs.locks.Unlock(rfqNumber)

	rfq, err := s.rfqs.load(ctx, rfqNumber)
	if err != nil {
		return nil, err
	}
	if rfq.Status == entity.RfqStatusSelected {
		return nil, alreadySelected(rfq)
	}

	inv, ok := rfq.Invitation(vendorCode)
	if !ok {
		return nil, ErrInvitationNotFound
	}

	now := s.rfqs.now()
	snapshot := entity.NewSelectionSnapshot(rfq, inv, now)
	if err = rfq.FinalizeSelection(snapshot, now); err != nil {
		return nil, err
	}

	if err = s.selectionRepo.SaveSelection(ctx, rfq, snapshot); err != nil {
		return nil, rfqConflict(rfqNumber, err)
	}

	return mapSelection(snapshot), nil
}

func (s *SelectionService) ReopenSelection(ctx context.Context, rfqNumber string) (*entity.RfqOutputModel, error) {
	rfq, err := s.rfqs.mutate(ctx, rfqNumber, func(rfq *entity.Rfq, now time.Time) error {
		if rfq.Status == entity.RfqStatusSelected {
			_, err := s.orderRepo.GetOrderBySnapshot(ctx, rfq.Number, rfq.SelectionRevision)
			if err == nil {
				return &entity.InvalidStateError{
					Aggregate: "rfq",
					Id:        rfq.Number,
					Operation: string(entity.RfqOpReopenSelection),
					Status:    rfq.Status.String(),
					Reason:    "a purchase order was issued for the current selection",
				}
			}
			if !errors.Is(err, repo_errors.ErrNotFound) {
				return err
			}
		}

		return rfq.ReopenSelection(now)
	})
	if err != nil {
		return nil, err
	}

	return mapRfq(rfq), nil
}

func (s *SelectionService) GetSelection(ctx context.Context, rfqNumber string) (*entity.SelectionOutputModel, error) {
	rfq, err := s.rfqs.load(ctx, rfqNumber)
	if err != nil {
		return nil, err
	}
	if rfq.Status != entity.RfqStatusSelected {
		return nil, ErrSelectionNotFound
	}

	snapshot, err := s.selectionRepo.GetSnapshot(ctx, rfq.Number, rfq.SelectionRevision)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil, ErrSelectionNotFound
		}

		return nil, err
	}

	return mapSelection(snapshot), nil
}

// alreadySelected reports a selection attempt that lost to an earlier one.
func alreadySelected(rfq *entity.Rfq) error {
	reason := "a winner was already selected"
	for _, inv := range rfq.Invitations {
		if inv.Selected {
			reason = fmt.Sprintf("vendor %s was already selected in revision %d", inv.VendorCode, rfq.SelectionRevision)
			break
		}
	}

	return &entity.ConflictError{Aggregate: "rfq", Id: rfq.Number, Reason: reason}
}
