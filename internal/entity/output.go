package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// controller models

type RfqLineItemOutputModel struct {
	LineNo              int             `json:"lineNo"`
	ItemCode            string          `json:"itemCode"`
	Description         string          `json:"description"`
	Spec                string          `json:"spec"`
	Unit                string          `json:"unit"`
	Quantity            decimal.Decimal `json:"quantity"`
	EstimatedUnitPrice  decimal.Decimal `json:"estimatedUnitPrice"`
	EstimatedAmount     decimal.Decimal `json:"estimatedAmount"`
	DesiredDeliveryDate *time.Time      `json:"desiredDeliveryDate,omitempty"`
	StorageLocation     string          `json:"storageLocation"`
}

type RfqOutputModel struct {
	Number            string                   `json:"number"`
	Subject           string                   `json:"subject"`
	Type              string                   `json:"type"`
	ClosingDeadline   time.Time                `json:"closingDeadline"`
	Remark            string                   `json:"remark"`
	Status            string                   `json:"status"`
	Version           int                      `json:"version"`
	SelectionRevision int                      `json:"selectionRevision"`
	EstimatedTotal    decimal.Decimal          `json:"estimatedTotal"`
	CreatedAt         time.Time                `json:"createdAt"`
	LineItems         []RfqLineItemOutputModel `json:"lineItems"`
	Invitations       []InvitationOutputModel  `json:"invitations"`
}

type QuoteLineOutputModel struct {
	LineNo               int             `json:"lineNo"`
	UnitPrice            decimal.Decimal `json:"unitPrice"`
	Quantity             decimal.Decimal `json:"quantity"`
	Amount               decimal.Decimal `json:"amount"`
	PromisedDeliveryDate *time.Time      `json:"promisedDeliveryDate,omitempty"`
	Remark               string          `json:"remark"`
}

type InvitationOutputModel struct {
	RfqNumber   string                 `json:"rfqNumber"`
	VendorCode  string                 `json:"vendorCode"`
	VendorName  string                 `json:"vendorName"`
	Status      string                 `json:"status"`
	SubmittedAt *time.Time             `json:"submittedAt,omitempty"`
	Selected    bool                   `json:"selected"`
	Outcome     string                 `json:"outcome"`
	TotalAmount decimal.Decimal        `json:"totalAmount"`
	QuoteLines  []QuoteLineOutputModel `json:"quoteLines"`
}

type SelectionOutputModel struct {
	RfqNumber   string                 `json:"rfqNumber"`
	Revision    int                    `json:"revision"`
	VendorCode  string                 `json:"vendorCode"`
	VendorName  string                 `json:"vendorName"`
	TotalAmount decimal.Decimal        `json:"totalAmount"`
	SelectedAt  time.Time              `json:"selectedAt"`
	Lines       []QuoteLineOutputModel `json:"lines"`
}

type OrderLineOutputModel struct {
	LineNo           int             `json:"lineNo"`
	ItemCode         string          `json:"itemCode"`
	Description      string          `json:"description"`
	Unit             string          `json:"unit"`
	OrderedQuantity  decimal.Decimal `json:"orderedQuantity"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	ReceivedQuantity decimal.Decimal `json:"receivedQuantity"`
	RemainingQty     decimal.Decimal `json:"remainingQuantity"`
	StorageLocation  string          `json:"storageLocation"`
}

type OrderOutputModel struct {
	Number           string                 `json:"number"`
	RfqNumber        string                 `json:"rfqNumber"`
	SnapshotRevision int                    `json:"snapshotRevision"`
	VendorCode       string                 `json:"vendorCode"`
	VendorName       string                 `json:"vendorName"`
	CreatedAt        time.Time              `json:"createdAt"`
	Lines            []OrderLineOutputModel `json:"lines"`
}

type ReceiptOutputModel struct {
	Number          string          `json:"number"`
	OrderNumber     string          `json:"orderNumber"`
	LineNo          int             `json:"lineNo"`
	Quantity        decimal.Decimal `json:"quantity"`
	Amount          decimal.Decimal `json:"amount"`
	StorageLocation string          `json:"storageLocation"`
	ReceiptDate     time.Time       `json:"receiptDate"`
}

type ReceiveGoodsOutputModel struct {
	Order    OrderOutputModel     `json:"order"`
	Receipts []ReceiptOutputModel `json:"receipts"`
}
