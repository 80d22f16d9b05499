package service

import (
	"context"
	"errors"
	"fmt"
	"procurement-engine/internal/entity"
	"procurement-engine/internal/repo"
	"procurement-engine/internal/repo/repo_errors"

	"github.com/google/uuid"
	"github.com/moby/locker"
)

const defaultReceiptPage = 20

type OrderService struct {
	rfqs          *rfqAccess
	selectionRepo repo.Selection
	orderRepo     repo.Order
	orderLocks    *locker.Locker
}

func NewOrderService(repos *repo.Repositories, rfqs *rfqAccess) *OrderService {
	return &OrderService{
		rfqs:          rfqs,
		selectionRepo: repos.Selection,
		orderRepo:     repos.Order,
		orderLocks:    locker.New(),
	}
}

// IssueOrder creates the purchase order for the rfq's current selection.
// Each selection revision yields at most one order.
func (s *OrderService) IssueOrder(ctx context.Context, rfqNumber string) (*entity.OrderOutputModel, error) {
	s.rfqs.locks.Lock(rfqNumber)
	defer s.rfqs.locks.Unlock(rfqNumber)

	rfq, err := s.rfqs.load(ctx, rfqNumber)
	if err != nil {
		return nil, err
	}
	if rfq.Status != entity.RfqStatusSelected {
		return nil, &entity.InvalidStateError{Aggregate: "rfq", Id: rfq.Number, Operation: "issueOrder", Status: rfq.Status.String()}
	}

	existing, err := s.orderRepo.GetOrderBySnapshot(ctx, rfq.Number, rfq.SelectionRevision)
	if err == nil {
		return nil, orderAlreadyIssued(rfq, existing.Number)
	}
	if !errors.Is(err, repo_errors.ErrNotFound) {
		return nil, err
	}

	snapshot, err := s.selectionRepo.GetSnapshot(ctx, rfq.Number, rfq.SelectionRevision)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil, ErrSelectionNotFound
		}

		return nil, err
	}

	number, err := s.orderRepo.NextOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	order, err := entity.NewOrderFromSnapshot(number, rfq, snapshot, s.rfqs.now())
	if err != nil {
		return nil, err
	}

	if err = s.orderRepo.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, repo_errors.ErrAlreadyExists) {
			return nil, orderAlreadyIssued(rfq, "")
		}

		return nil, err
	}

	return mapOrder(order), nil
}

func orderAlreadyIssued(rfq *entity.Rfq, orderNumber string) error {
	reason := fmt.Sprintf("order already issued for selection revision %d", rfq.SelectionRevision)
	if orderNumber != "" {
		reason += " as " + orderNumber
	}

	return &entity.ConflictError{Aggregate: "rfq", Id: rfq.Number, Reason: reason}
}

func (s *OrderService) GetOrder(ctx context.Context, number string) (*entity.OrderOutputModel, error) {
	order, err := s.loadOrder(ctx, number)
	if err != nil {
		return nil, err
	}

	return mapOrder(order), nil
}

func (s *OrderService) loadOrder(ctx context.Context, number string) (*entity.Order, error) {
	order, err := s.orderRepo.GetOrderByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil, ErrOrderNotFound
		}

		return nil, err
	}

	return order, nil
}

// ReceiveGoods books one receiving batch against a single order. The batch is
// applied as a whole or not at all.
func (s *OrderService) ReceiveGoods(ctx context.Context, lines []entity.ReceiptLineInput) (*entity.ReceiveGoodsOutputModel, error) {
	orderNumber, err := entity.ReceiptBatchOrder(lines)
	if err != nil {
		return nil, err
	}

	s.orderLocks.Lock(orderNumber)
	defer s.orderLocks.Unlock(orderNumber)

	order, err := s.loadOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	receipts, err := order.Receive(lines, s.rfqs.now(), uuid.NewString)
	if err != nil {
		return nil, err
	}

	if err = s.orderRepo.AppendReceipts(ctx, order.Number, receipts); err != nil {
		if errors.Is(err, repo_errors.ErrInsufficientRemaining) {
			return nil, &entity.ConflictError{Aggregate: "purchase order", Id: order.Number, Reason: "received quantity changed concurrently"}
		}

		return nil, err
	}

	return &entity.ReceiveGoodsOutputModel{
		Order:    *mapOrder(order),
		Receipts: mapReceipts(receipts),
	}, nil
}

// GetOrderReceipts pages through the order's ledger in booking order. A nil pg
// returns the first defaultReceiptPage records.
func (s *OrderService) GetOrderReceipts(ctx context.Context, orderNumber string, pg *entity.PaginationInput) ([]entity.ReceiptOutputModel, error) {
	if pg == nil {
		pg = entity.NewPaginationInput(defaultReceiptPage, 0)
	}
	if _, err := s.loadOrder(ctx, orderNumber); err != nil {
		return nil, err
	}

	receipts, err := s.orderRepo.GetReceiptsByOrderNumber(ctx, orderNumber, pg)
	if err != nil {
		return nil, err
	}

	return mapReceipts(receipts), nil
}
