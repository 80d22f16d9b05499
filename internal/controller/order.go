package controller

import (
	"net/http"
	"procurement-engine/internal/entity"
	"procurement-engine/internal/service"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"
	"github.com/shopspring/decimal"
)

type orderRoutesHandler struct {
	orderService service.Order
	validate     *validator.Validate
}

func newOrderRoutesHandler(outer *echo.Group, services *service.Services, v *validator.Validate) *orderRoutesHandler {
	h := &orderRoutesHandler{orderService: services.Order, validate: v}

	outer.POST("/rfqs/:rfqNumber/orders", h.IssueOrder)
	outer.POST("/orders/receipts", h.ReceiveGoods)
	outer.GET("/orders/:orderNumber", h.GetOrder)
	outer.GET("/orders/:orderNumber/receipts", h.GetOrderReceipts)

	return h
}

// /rfqs/:rfqNumber/orders
func (h *orderRoutesHandler) IssueOrder(c echo.Context) error {
	order, err := h.orderService.IssueOrder(c.Request().Context(), c.Param("rfqNumber"))
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, order)
}

// /orders/:orderNumber
func (h *orderRoutesHandler) GetOrder(c echo.Context) error {
	order, err := h.orderService.GetOrder(c.Request().Context(), c.Param("orderNumber"))
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, order)
}

type receiptLineInput struct {
	OrderNumber     string          `json:"orderNumber" validate:"required,max=64"`
	LineNo          int             `json:"lineNo" validate:"gt=0"`
	Quantity        decimal.Decimal `json:"quantity"`
	StorageLocation string          `json:"storageLocation" validate:"max=64"`
	ReceiptDate     *time.Time      `json:"receiptDate"`
}

type receiveGoodsInput struct {
	Lines []receiptLineInput `json:"lines" validate:"required,min=1,dive"`
}

// /orders/receipts
func (h *orderRoutesHandler) ReceiveGoods(c echo.Context) error {
	var input receiveGoodsInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	lines := make([]entity.ReceiptLineInput, 0, len(input.Lines))
	for _, l := range input.Lines {
		line := entity.ReceiptLineInput{
			OrderNumber:     l.OrderNumber,
			LineNo:          l.LineNo,
			Quantity:        l.Quantity,
			StorageLocation: l.StorageLocation,
		}
		if l.ReceiptDate != nil {
			line.ReceiptDate = l.ReceiptDate.UTC()
		}
		lines = append(lines, line)
	}

	result, err := h.orderService.ReceiveGoods(c.Request().Context(), lines)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, result)
}

type getOrderReceiptsInput struct {
	Limit  int32 `query:"limit" validate:"gte=0,lte=100"`
	Offset int32 `query:"offset" validate:"gte=0"`
}

// /orders/:orderNumber/receipts
func (h *orderRoutesHandler) GetOrderReceipts(c echo.Context) error {
	input := getOrderReceiptsInput{Limit: defaultLimit, Offset: defaultOffset}
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	pg := entity.NewPaginationInput(int(input.Limit), int(input.Offset))
	receipts, err := h.orderService.GetOrderReceipts(c.Request().Context(), c.Param("orderNumber"), pg)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, receipts)
}
