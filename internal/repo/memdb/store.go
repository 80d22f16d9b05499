// Package memdb keeps every aggregate in an in-process go-memdb database. It
// enforces the same version and quantity guards as the postgres repositories
// and hands out deep copies only.
package memdb

import (
	"context"
	"fmt"
	"procurement-engine/internal/entity"
	"procurement-engine/internal/repo/repo_errors"
	"sort"
	"time"

	gomemdb "github.com/hashicorp/go-memdb"
)

const (
	tableSequences = "sequences"
	tableRfqs      = "rfqs"
	tableSnapshots = "snapshots"
	tableOrders    = "orders"
	tableReceipts  = "receipts"
)

type sequence struct {
	Name  string
	Value int
}

// receiptRow keeps the ledger position next to the record so pages come back
// in append order.
type receiptRow struct {
	Seq         int
	OrderNumber string
	Record      entity.ReceiptRecord
}

var schema = &gomemdb.DBSchema{
	Tables: map[string]*gomemdb.TableSchema{
		tableSequences: {
			Name: tableSequences,
			Indexes: map[string]*gomemdb.IndexSchema{
				"id": {Name: "id", Unique: true, Indexer: &gomemdb.StringFieldIndex{Field: "Name"}},
			},
		},
		tableRfqs: {
			Name: tableRfqs,
			Indexes: map[string]*gomemdb.IndexSchema{
				"id": {Name: "id", Unique: true, Indexer: &gomemdb.StringFieldIndex{Field: "Number"}},
			},
		},
		tableSnapshots: {
			Name: tableSnapshots,
			Indexes: map[string]*gomemdb.IndexSchema{
				"id": {
					Name:   "id",
					Unique: true,
					Indexer: &gomemdb.CompoundIndex{Indexes: []gomemdb.Indexer{
						&gomemdb.StringFieldIndex{Field: "RfqNumber"},
						&gomemdb.IntFieldIndex{Field: "Revision"},
					}},
				},
			},
		},
		tableOrders: {
			Name: tableOrders,
			Indexes: map[string]*gomemdb.IndexSchema{
				"id": {Name: "id", Unique: true, Indexer: &gomemdb.StringFieldIndex{Field: "Number"}},
				"snapshot": {
					Name:   "snapshot",
					Unique: true,
					Indexer: &gomemdb.CompoundIndex{Indexes: []gomemdb.Indexer{
						&gomemdb.StringFieldIndex{Field: "RfqNumber"},
						&gomemdb.IntFieldIndex{Field: "SnapshotRevision"},
					}},
				},
			},
		},
		tableReceipts: {
			Name: tableReceipts,
			Indexes: map[string]*gomemdb.IndexSchema{
				"id":    {Name: "id", Unique: true, Indexer: &gomemdb.IntFieldIndex{Field: "Seq"}},
				"order": {Name: "order", Indexer: &gomemdb.StringFieldIndex{Field: "OrderNumber"}},
			},
		},
	},
}

// Store serializes writers through go-memdb write transactions; readers work
// on immutable snapshots. Stored objects are never mutated in place.
type Store struct {
	db *gomemdb.MemDB
}

func NewStore() *Store {
	db, err := gomemdb.NewMemDB(schema)
	if err != nil {
		panic(fmt.Sprintf("memdb schema: %v", err))
	}

	return &Store{db: db}
}

func (s *Store) Ping() error {
	return nil
}

func nextValue(txn *gomemdb.Txn, name string) (int, error) {
	value := 1
	raw, err := txn.First(tableSequences, "id", name)
	if err != nil {
		return 0, err
	}
	if raw != nil {
		value = raw.(*sequence).Value + 1
	}
	if err = txn.Insert(tableSequences, &sequence{Name: name, Value: value}); err != nil {
		return 0, err
	}

	return value, nil
}

func (s *Store) nextNumber(prefix string) (string, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	value, err := nextValue(txn, prefix)
	if err != nil {
		return "", err
	}
	txn.Commit()

	return fmt.Sprintf("%s-%d", prefix, value), nil
}

func (s *Store) NextRfqNumber(ctx context.Context) (string, error) {
	return s.nextNumber("RFQ")
}

func (s *Store) CreateRfq(ctx context.Context, rfq *entity.Rfq) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tableRfqs, "id", rfq.Number)
	if err != nil {
		return err
	}
	if existing != nil {
		return repo_errors.ErrAlreadyExists
	}

	rfq.Version = 1
	if err = txn.Insert(tableRfqs, rfq.Clone()); err != nil {
		return err
	}
	txn.Commit()

	return nil
}

func (s *Store) GetRfqByNumber(ctx context.Context, number string) (*entity.Rfq, error) {
	txn := s.db.Txn(false)

	raw, err := txn.First(tableRfqs, "id", number)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, repo_errors.ErrNotFound
	}

	return raw.(*entity.Rfq).Clone(), nil
}

func (s *Store) SaveRfq(ctx context.Context, rfq *entity.Rfq) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	next, err := saveRfq(txn, rfq)
	if err != nil {
		return err
	}
	txn.Commit()
	rfq.Version = next

	return nil
}

// saveRfq stores a copy of rfq at the next version and returns that version.
// The caller's rfq is left untouched until the transaction commits.
func saveRfq(txn *gomemdb.Txn, rfq *entity.Rfq) (int, error) {
	raw, err := txn.First(tableRfqs, "id", rfq.Number)
	if err != nil {
		return 0, err
	}
	if raw == nil || raw.(*entity.Rfq).Version != rfq.Version {
		return 0, repo_errors.ErrVersionConflict
	}

	winners := 0
	for _, inv := range rfq.Invitations {
		if inv.Selected {
			winners++
		}
	}
	if winners > 1 {
		return 0, fmt.Errorf("rfq %s: %d selected invitations", rfq.Number, winners)
	}

	stored := rfq.Clone()
	stored.Version++
	if err = txn.Insert(tableRfqs, stored); err != nil {
		return 0, err
	}

	return stored.Version, nil
}

func (s *Store) GetRfqNumbersDueForBidding(ctx context.Context, now time.Time) ([]string, error) {
	txn := s.db.Txn(false)

	it, err := txn.Get(tableRfqs, "id")
	if err != nil {
		return nil, err
	}

	due := make([]*entity.Rfq, 0)
	for raw := it.Next(); raw != nil; raw = it.Next() {
		rfq := raw.(*entity.Rfq)
		if rfq.Status == entity.RfqStatusDispatched && rfq.DeadlinePassed(now) {
			due = append(due, rfq)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].ClosingDeadline.Before(due[j].ClosingDeadline)
	})

	numbers := make([]string, 0, len(due))
	for _, rfq := range due {
		numbers = append(numbers, rfq.Number)
	}

	return numbers, nil
}

func (s *Store) SaveSelection(ctx context.Context, rfq *entity.Rfq, snapshot *entity.SelectionSnapshot) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tableSnapshots, "id", snapshot.RfqNumber, snapshot.Revision)
	if err != nil {
		return err
	}
	if existing != nil {
		return repo_errors.ErrVersionConflict
	}

	next, err := saveRfq(txn, rfq)
	if err != nil {
		return err
	}
	if err = txn.Insert(tableSnapshots, snapshot.Clone()); err != nil {
		return err
	}
	txn.Commit()
	rfq.Version = next

	return nil
}

func (s *Store) GetSnapshot(ctx context.Context, rfqNumber string, revision int) (*entity.SelectionSnapshot, error) {
	txn := s.db.Txn(false)

	raw, err := txn.First(tableSnapshots, "id", rfqNumber, revision)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, repo_errors.ErrNotFound
	}

	return raw.(*entity.SelectionSnapshot).Clone(), nil
}

func (s *Store) NextOrderNumber(ctx context.Context) (string, error) {
	return s.nextNumber("PO")
}

func (s *Store) CreateOrder(ctx context.Context, order *entity.Order) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	byNumber, err := txn.First(tableOrders, "id", order.Number)
	if err != nil {
		return err
	}
	bySnapshot, err := txn.First(tableOrders, "snapshot", order.RfqNumber, order.SnapshotRevision)
	if err != nil {
		return err
	}
	if byNumber != nil || bySnapshot != nil {
		return repo_errors.ErrAlreadyExists
	}

	if err = txn.Insert(tableOrders, order.Clone()); err != nil {
		return err
	}
	txn.Commit()

	return nil
}

func (s *Store) GetOrderByNumber(ctx context.Context, number string) (*entity.Order, error) {
	return s.firstOrder("id", number)
}

func (s *Store) GetOrderBySnapshot(ctx context.Context, rfqNumber string, revision int) (*entity.Order, error) {
	return s.firstOrder("snapshot", rfqNumber, revision)
}

func (s *Store) firstOrder(index string, args ...interface{}) (*entity.Order, error) {
	txn := s.db.Txn(false)

	raw, err := txn.First(tableOrders, index, args...)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, repo_errors.ErrNotFound
	}

	return raw.(*entity.Order).Clone(), nil
}

// AppendReceipts checks every increment against the stored line before
// applying any of them.
func (s *Store) AppendReceipts(ctx context.Context, orderNumber string, receipts []entity.ReceiptRecord) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableOrders, "id", orderNumber)
	if err != nil {
		return err
	}
	if raw == nil {
		return repo_errors.ErrNotFound
	}

	next := raw.(*entity.Order).Clone()
	for _, rec := range receipts {
		line, ok := next.Line(rec.LineNo)
		if !ok {
			return repo_errors.ErrNotFound
		}
		received := line.ReceivedQuantity.Add(rec.Quantity)
		if received.GreaterThan(line.OrderedQuantity) {
			return repo_errors.ErrInsufficientRemaining
		}
		line.ReceivedQuantity = received
	}
	if err = txn.Insert(tableOrders, next); err != nil {
		return err
	}

	for _, rec := range receipts {
		seq, err := nextValue(txn, tableReceipts)
		if err != nil {
			return err
		}
		if err = txn.Insert(tableReceipts, &receiptRow{Seq: seq, OrderNumber: orderNumber, Record: rec}); err != nil {
			return err
		}
	}
	txn.Commit()

	return nil
}

func (s *Store) GetReceiptsByOrderNumber(ctx context.Context, orderNumber string, pg *entity.PaginationInput) ([]entity.ReceiptRecord, error) {
	txn := s.db.Txn(false)

	it, err := txn.Get(tableReceipts, "order", orderNumber)
	if err != nil {
		return nil, err
	}

	rows := make([]*receiptRow, 0)
	for raw := it.Next(); raw != nil; raw = it.Next() {
		rows = append(rows, raw.(*receiptRow))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Seq < rows[j].Seq })

	start, end := pg.Bounds(len(rows))
	page := make([]entity.ReceiptRecord, 0, end-start)
	for _, row := range rows[start:end] {
		page = append(page, row.Record)
	}

	return page, nil
}
