package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a purchase order issued from one selection snapshot. RfqNumber and
// SnapshotRevision are an audit back-reference only.
type Order struct {
	Number           string
	RfqNumber        string
	SnapshotRevision int
	VendorCode       string
	VendorName       string
	CreatedAt        time.Time
	Lines            []OrderLine
}

type OrderLine struct {
	OrderNumber      string
	LineNo           int
	ItemCode         string
	Description      string
	Unit             string
	OrderedQuantity  decimal.Decimal
	UnitPrice        decimal.Decimal
	ReceivedQuantity decimal.Decimal
	StorageLocation  string
}

// Remaining is derived from ordered and received quantity and is never negative.
func (l *OrderLine) Remaining() decimal.Decimal {
	r := l.OrderedQuantity.Sub(l.ReceivedQuantity)
	if r.IsNegative() {
		return decimal.Zero
	}

	return r
}

// ReceiptRecord is an immutable ledger entry. Corrections are new records.
type ReceiptRecord struct {
	Number          string
	OrderNumber     string
	LineNo          int
	Quantity        decimal.Decimal
	Amount          decimal.Decimal
	StorageLocation string
	ReceiptDate     time.Time
	CreatedAt       time.Time
}

// service input model
type ReceiptLineInput struct {
	OrderNumber     string
	LineNo          int
	Quantity        decimal.Decimal
	StorageLocation string
	ReceiptDate     time.Time
}

// NewOrderFromSnapshot derives order lines from the frozen quote lines.
func NewOrderFromSnapshot(number string, rfq *Rfq, snapshot *SelectionSnapshot, now time.Time) (*Order, error) {
	if snapshot.RfqNumber != rfq.Number {
		return nil, fmt.Errorf("snapshot of rfq %s does not belong to rfq %s", snapshot.RfqNumber, rfq.Number)
	}

	lines := make([]OrderLine, 0, len(snapshot.Lines))
	for _, q := range snapshot.Lines {
		line := OrderLine{
			OrderNumber:      number,
			LineNo:           q.LineNo,
			OrderedQuantity:  q.Quantity,
			UnitPrice:        q.UnitPrice,
			ReceivedQuantity: decimal.Zero,
		}
		if src, ok := rfq.LineItem(q.LineNo); ok {
			line.ItemCode = src.ItemCode
			line.Description = src.Description
			line.Unit = src.Unit
			line.StorageLocation = src.StorageLocation
		}
		lines = append(lines, line)
	}

	return &Order{
		Number:           number,
		RfqNumber:        rfq.Number,
		SnapshotRevision: snapshot.Revision,
		VendorCode:       snapshot.VendorCode,
		VendorName:       snapshot.VendorName,
		CreatedAt:        now,
		Lines:            lines,
	}, nil
}

func (o *Order) Line(lineNo int) (*OrderLine, bool) {
	for i := range o.Lines {
		if o.Lines[i].LineNo == lineNo {
			return &o.Lines[i], true
		}
	}

	return nil, false
}

// ReceiptBatchOrder checks a receiving batch at intake and returns the single
// order it targets. Batches spanning orders are rejected, never split.
func ReceiptBatchOrder(lines []ReceiptLineInput) (string, error) {
	var v violations
	if len(lines) == 0 {
		v.add("lines", 0, "must not be empty")
		return "", v.err()
	}

	orderNumber := strings.TrimSpace(lines[0].OrderNumber)
	if orderNumber == "" {
		v.add("orderNumber", lines[0].LineNo, "is required")
	}
	for _, l := range lines[1:] {
		if strings.TrimSpace(l.OrderNumber) != orderNumber {
			v.add("orderNumber", l.LineNo, "differs from the batch order "+orderNumber)
		}
	}
	for _, l := range lines {
		if l.LineNo <= 0 {
			v.add("lineNo", l.LineNo, "must be a positive number")
		}
		checkQuantity(&v, "quantity", l.LineNo, l.Quantity, false)
	}
	if err := v.err(); err != nil {
		return "", err
	}

	return orderNumber, nil
}

// Receive validates the whole batch before touching any line. On success the
// received quantities are advanced and the new ledger records returned.
func (o *Order) Receive(inputs []ReceiptLineInput, now time.Time, newNumber func() string) ([]ReceiptRecord, error) {
	orderNumber, err := ReceiptBatchOrder(inputs)
	if err != nil {
		return nil, err
	}

	var v violations
	if orderNumber != o.Number {
		v.add("orderNumber", 0, "does not match order "+o.Number)
	}
	requested := make(map[int]decimal.Decimal)
	order := make([]int, 0)
	for _, in := range inputs {
		if _, ok := o.Line(in.LineNo); !ok {
			v.add("lineNo", in.LineNo, "does not exist in order "+o.Number)
			continue
		}
		if _, ok := requested[in.LineNo]; !ok {
			order = append(order, in.LineNo)
			requested[in.LineNo] = decimal.Zero
		}
		requested[in.LineNo] = requested[in.LineNo].Add(in.Quantity)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	over := make([]OverReceiptLine, 0)
	for _, lineNo := range order {
		line, _ := o.Line(lineNo)
		if requested[lineNo].GreaterThan(line.Remaining()) {
			over = append(over, OverReceiptLine{LineNo: lineNo, Requested: requested[lineNo], Remaining: line.Remaining()})
		}
	}
	if len(over) > 0 {
		return nil, &OverReceiptError{OrderNumber: o.Number, Lines: over}
	}

	records := make([]ReceiptRecord, 0, len(inputs))
	for _, in := range inputs {
		line, _ := o.Line(in.LineNo)
		location := strings.TrimSpace(in.StorageLocation)
		if location == "" {
			location = line.StorageLocation
		}
		receiptDate := in.ReceiptDate
		if receiptDate.IsZero() {
			receiptDate = now
		}
		line.ReceivedQuantity = line.ReceivedQuantity.Add(in.Quantity)
		records = append(records, ReceiptRecord{
			Number:          newNumber(),
			OrderNumber:     o.Number,
			LineNo:          in.LineNo,
			Quantity:        in.Quantity,
			Amount:          ExtendAmount(line.UnitPrice, in.Quantity),
			StorageLocation: location,
			ReceiptDate:     receiptDate,
			CreatedAt:       now,
		})
	}

	return records, nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Lines = make([]OrderLine, len(o.Lines))
	copy(c.Lines, o.Lines)

	return &c
}
