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

type rfqRoutesHandler struct {
	rfqService service.Rfq
	validate   *validator.Validate
}

func newRfqRoutesHandler(outer *echo.Group, services *service.Services, v *validator.Validate) *rfqRoutesHandler {
	h := &rfqRoutesHandler{rfqService: services.Rfq, validate: v}

	outer.POST("/rfqs", h.PostRfq)
	outer.GET("/rfqs/:rfqNumber", h.GetRfq)
	outer.PUT("/rfqs/:rfqNumber/lines", h.EditRfqLines)
	outer.POST("/rfqs/:rfqNumber/dispatch", h.DispatchRfq)
	outer.POST("/rfqs/:rfqNumber/open-bidding", h.OpenBidding)
	outer.POST("/rfqs/:rfqNumber/cancel", h.CancelRfq)

	return h
}

type rfqLineInput struct {
	LineNo              int             `json:"lineNo" validate:"gt=0"`
	ItemCode            string          `json:"itemCode" validate:"required,max=64"`
	Description         string          `json:"description" validate:"max=500"`
	Spec                string          `json:"spec" validate:"max=500"`
	Unit                string          `json:"unit" validate:"max=16"`
	Quantity            decimal.Decimal `json:"quantity"`
	EstimatedUnitPrice  decimal.Decimal `json:"estimatedUnitPrice"`
	DesiredDeliveryDate *time.Time      `json:"desiredDeliveryDate"`
	StorageLocation     string          `json:"storageLocation" validate:"max=64"`
}

func (in rfqLineInput) toEntity() entity.RfqLineInput {
	return entity.RfqLineInput{
		LineNo:              in.LineNo,
		ItemCode:            in.ItemCode,
		Description:         in.Description,
		Spec:                in.Spec,
		Unit:                in.Unit,
		Quantity:            in.Quantity,
		EstimatedUnitPrice:  in.EstimatedUnitPrice,
		DesiredDeliveryDate: in.DesiredDeliveryDate,
		StorageLocation:     in.StorageLocation,
	}
}

func toRfqLines(inputs []rfqLineInput) []entity.RfqLineInput {
	lines := make([]entity.RfqLineInput, 0, len(inputs))
	for _, in := range inputs {
		lines = append(lines, in.toEntity())
	}

	return lines
}

type postRfqInput struct {
	Subject         string         `json:"subject" validate:"required,max=200"`
	Type            string         `json:"type" validate:"required,oneof=NEGOTIATED COMPETITIVE"`
	ClosingDeadline time.Time      `json:"closingDeadline" validate:"required"`
	Remark          string         `json:"remark" validate:"max=1000"`
	LineItems       []rfqLineInput `json:"lineItems" validate:"required,min=1,dive"`
}

// /rfqs
func (h *rfqRoutesHandler) PostRfq(c echo.Context) error {
	var input postRfqInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	rfqType, err := entity.ParseRfqType(input.Type)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: err.Error()})
	}

	rfq, err := h.rfqService.CreateRfq(c.Request().Context(), &entity.CreateRfqInput{
		Subject:         input.Subject,
		Type:            rfqType,
		ClosingDeadline: input.ClosingDeadline,
		Remark:          input.Remark,
		LineItems:       toRfqLines(input.LineItems),
	})
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, rfq)
}

// /rfqs/:rfqNumber
func (h *rfqRoutesHandler) GetRfq(c echo.Context) error {
	rfq, err := h.rfqService.GetRfq(c.Request().Context(), c.Param("rfqNumber"))
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, rfq)
}

type editRfqLinesInput struct {
	LineItems []rfqLineInput `json:"lineItems" validate:"required,min=1,dive"`
}

// /rfqs/:rfqNumber/lines
func (h *rfqRoutesHandler) EditRfqLines(c echo.Context) error {
	var input editRfqLinesInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	rfq, err := h.rfqService.EditRfqLineItems(c.Request().Context(), c.Param("rfqNumber"), toRfqLines(input.LineItems))
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, rfq)
}

type vendorInput struct {
	Code string `json:"code" validate:"required,max=64"`
	Name string `json:"name" validate:"max=200"`
}

type dispatchRfqInput struct {
	Vendors []vendorInput `json:"vendors" validate:"required,min=1,dive"`
}

// /rfqs/:rfqNumber/dispatch
func (h *rfqRoutesHandler) DispatchRfq(c echo.Context) error {
	var input dispatchRfqInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	vendors := make([]entity.VendorRef, 0, len(input.Vendors))
	for _, v := range input.Vendors {
		vendors = append(vendors, entity.VendorRef{Code: v.Code, Name: v.Name})
	}

	rfq, err := h.rfqService.DispatchRfq(c.Request().Context(), c.Param("rfqNumber"), vendors)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, rfq)
}

// /rfqs/:rfqNumber/open-bidding
func (h *rfqRoutesHandler) OpenBidding(c echo.Context) error {
	rfq, err := h.rfqService.OpenBidding(c.Request().Context(), c.Param("rfqNumber"))
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, rfq)
}

// /rfqs/:rfqNumber/cancel
func (h *rfqRoutesHandler) CancelRfq(c echo.Context) error {
	rfq, err := h.rfqService.CancelRfq(c.Request().Context(), c.Param("rfqNumber"))
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, rfq)
}
