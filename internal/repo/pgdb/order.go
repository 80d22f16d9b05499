package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"procurement-engine/internal/entity"
	"procurement-engine/internal/repo/repo_errors"
	"procurement-engine/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
)

type OrderRepo struct {
	*postgres.Postgres
}

func NewOrderRepo(pgdb *postgres.Postgres) *OrderRepo {
	return &OrderRepo{pgdb}
}

func (r *OrderRepo) NextOrderNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.Database.QueryRowContext(ctx, "SELECT nextval('purchase_order_number_seq')").Scan(&seq); err != nil {
		return "", err
	}

	return fmt.Sprintf("PO-%d", seq), nil
}

func (r *OrderRepo) CreateOrder(ctx context.Context, order *entity.Order) error {
	tx, err := r.Database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	createOrderSql, args, _ := r.SqlBuilder.
		Insert("purchase_order").
		Columns("number", "rfq_number", "snapshot_revision", "vendor_code", "vendor_name", "created_at").
		Values(order.Number, order.RfqNumber, order.SnapshotRevision, order.VendorCode, order.VendorName, order.CreatedAt).
		ToSql()

	if _, err = tx.ExecContext(ctx, createOrderSql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return rollback(tx, repo_errors.ErrAlreadyExists)
		}

		return rollback(tx, err)
	}

	if len(order.Lines) > 0 {
		builder := r.SqlBuilder.
			Insert("order_line").
			Columns("order_number", "line_no", "item_code", "description", "unit", "ordered_quantity", "unit_price", "received_quantity", "storage_location")
		for _, l := range order.Lines {
			builder = builder.Values(order.Number, l.LineNo, l.ItemCode, l.Description, l.Unit, l.OrderedQuantity, l.UnitPrice, l.ReceivedQuantity, l.StorageLocation)
		}
		createLinesSql, args, _ := builder.ToSql()

		if _, err = tx.ExecContext(ctx, createLinesSql, args...); err != nil {
			return rollback(tx, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *OrderRepo) GetOrderByNumber(ctx context.Context, number string) (*entity.Order, error) {
	return r.getOrder(ctx, squirrel.Eq{"number": number})
}

func (r *OrderRepo) GetOrderBySnapshot(ctx context.Context, rfqNumber string, revision int) (*entity.Order, error) {
	return r.getOrder(ctx, squirrel.Eq{"rfq_number": rfqNumber, "snapshot_revision": revision})
}

func (r *OrderRepo) getOrder(ctx context.Context, where squirrel.Eq) (*entity.Order, error) {
	getOrderSql, args, _ := r.SqlBuilder.
		Select("number, rfq_number, snapshot_revision, vendor_code, vendor_name, created_at").
		From("purchase_order").
		Where(where).
		ToSql()

	var order entity.Order
	err := r.Database.QueryRowContext(ctx, getOrderSql, args...).Scan(&order.Number, &order.RfqNumber,
		&order.SnapshotRevision, &order.VendorCode, &order.VendorName, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}

	getLinesSql, args, _ := r.SqlBuilder.
		Select("line_no, item_code, description, unit, ordered_quantity, unit_price, received_quantity, storage_location").
		From("order_line").
		Where("order_number = ?", order.Number).
		OrderBy("line_no ASC").
		ToSql()

	rows, err := r.Database.QueryContext(ctx, getLinesSql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	order.Lines = make([]entity.OrderLine, 0)
	for rows.Next() {
		line := entity.OrderLine{OrderNumber: order.Number}
		if err := rows.Scan(&line.LineNo, &line.ItemCode, &line.Description, &line.Unit, &line.OrderedQuantity,
			&line.UnitPrice, &line.ReceivedQuantity, &line.StorageLocation); err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return &order, nil
}

// AppendReceipts relies on the conditional increment: the row lock taken by
// the UPDATE serializes concurrent receipts on a line across processes.
func (r *OrderRepo) AppendReceipts(ctx context.Context, orderNumber string, receipts []entity.ReceiptRecord) error {
	tx, err := r.Database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	for _, rec := range receipts {
		incrementSql, args, _ := incrementReceivedSql(r.SqlBuilder, orderNumber, rec.LineNo, rec.Quantity)

		res, err := tx.ExecContext(ctx, incrementSql, args...)
		if err != nil {
			return rollback(tx, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return rollback(tx, err)
		}
		if affected == 0 {
			return rollback(tx, repo_errors.ErrInsufficientRemaining)
		}

		createReceiptSql, args, _ := r.SqlBuilder.
			Insert("receipt_record").
			Columns("number", "order_number", "line_no", "quantity", "amount", "storage_location", "receipt_date", "created_at").
			Values(rec.Number, orderNumber, rec.LineNo, rec.Quantity, rec.Amount, rec.StorageLocation, rec.ReceiptDate, rec.CreatedAt).
			ToSql()

		if _, err = tx.ExecContext(ctx, createReceiptSql, args...); err != nil {
			return rollback(tx, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	return nil
}

func incrementReceivedSql(sb squirrel.StatementBuilderType, orderNumber string, lineNo int, qty decimal.Decimal) (string, []interface{}, error) {
	return sb.
		Update("order_line").
		Set("received_quantity", squirrel.Expr("received_quantity + ?", qty)).
		Where("order_number = ?", orderNumber).
		Where("line_no = ?", lineNo).
		Where("received_quantity + ? <= ordered_quantity", qty).
		ToSql()
}

func (r *OrderRepo) GetReceiptsByOrderNumber(ctx context.Context, orderNumber string, pg *entity.PaginationInput) ([]entity.ReceiptRecord, error) {
	sqlReq, args, _ := r.SqlBuilder.
		Select("number, order_number, line_no, quantity, amount, storage_location, receipt_date, created_at").
		From("receipt_record").
		Where("order_number = ?", orderNumber).
		OrderBy("created_at ASC", "line_no ASC").
		Offset(uint64(pg.Offset)).
		Limit(uint64(pg.Limit)).
		ToSql()

	rows, err := r.Database.QueryContext(ctx, sqlReq, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	receipts := make([]entity.ReceiptRecord, 0)
	for rows.Next() {
		var rec entity.ReceiptRecord
		if err := rows.Scan(&rec.Number, &rec.OrderNumber, &rec.LineNo, &rec.Quantity, &rec.Amount,
			&rec.StorageLocation, &rec.ReceiptDate, &rec.CreatedAt); err != nil {
			return receipts, err
		}
		receipts = append(receipts, rec)
	}
	if err = rows.Err(); err != nil {
		return receipts, err
	}

	return receipts, nil
}
