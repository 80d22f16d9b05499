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

type invitationRoutesHandler struct {
	invitationService service.Invitation
	validate          *validator.Validate
}

func newInvitationRoutesHandler(outer *echo.Group, services *service.Services, v *validator.Validate) *invitationRoutesHandler {
	h := &invitationRoutesHandler{invitationService: services.Invitation, validate: v}

	outer.GET("/rfqs/:rfqNumber/invitations/:vendorCode", h.GetInvitation)
	outer.POST("/rfqs/:rfqNumber/invitations/:vendorCode/accept", h.AcceptInvitation)
	outer.POST("/rfqs/:rfqNumber/invitations/:vendorCode/decline", h.DeclineInvitation)
	outer.PUT("/rfqs/:rfqNumber/invitations/:vendorCode/quote", h.SaveQuoteDraft)
	outer.POST("/rfqs/:rfqNumber/invitations/:vendorCode/quote/submit", h.SubmitQuote)

	return h
}

type quoteLineInput struct {
	LineNo               int             `json:"lineNo" validate:"gt=0"`
	UnitPrice            decimal.Decimal `json:"unitPrice"`
	Quantity             decimal.Decimal `json:"quantity"`
	PromisedDeliveryDate *time.Time      `json:"promisedDeliveryDate"`
	Remark               string          `json:"remark" validate:"max=500"`
}

type quoteInput struct {
	Lines []quoteLineInput `json:"lines" validate:"dive"`
}

func (in quoteInput) toEntity() []entity.QuoteLineInput {
	lines := make([]entity.QuoteLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, entity.QuoteLineInput{
			LineNo:               l.LineNo,
			UnitPrice:            l.UnitPrice,
			Quantity:             l.Quantity,
			PromisedDeliveryDate: l.PromisedDeliveryDate,
			Remark:               l.Remark,
		})
	}

	return lines
}

// /rfqs/:rfqNumber/invitations/:vendorCode
func (h *invitationRoutesHandler) GetInvitation(c echo.Context) error {
	inv, err := h.invitationService.GetInvitation(c.Request().Context(), c.Param("rfqNumber"), c.Param("vendorCode"))
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, inv)
}

// /rfqs/:rfqNumber/invitations/:vendorCode/accept
func (h *invitationRoutesHandler) AcceptInvitation(c echo.Context) error {
	inv, err := h.invitationService.AcceptInvitation(c.Request().Context(), c.Param("rfqNumber"), c.Param("vendorCode"))
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, inv)
}

// /rfqs/:rfqNumber/invitations/:vendorCode/decline
func (h *invitationRoutesHandler) DeclineInvitation(c echo.Context) error {
	inv, err := h.invitationService.DeclineInvitation(c.Request().Context(), c.Param("rfqNumber"), c.Param("vendorCode"))
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, inv)
}

// /rfqs/:rfqNumber/invitations/:vendorCode/quote
func (h *invitationRoutesHandler) SaveQuoteDraft(c echo.Context) error {
	var input quoteInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	inv, err := h.invitationService.SaveVendorQuoteDraft(c.Request().Context(), c.Param("rfqNumber"), c.Param("vendorCode"), input.toEntity())
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, inv)
}

// /rfqs/:rfqNumber/invitations/:vendorCode/quote/submit
// An empty body submits the saved draft.
func (h *invitationRoutesHandler) SubmitQuote(c echo.Context) error {
	var input quoteInput
	if c.Request().ContentLength != 0 {
		if ok, err := bindAndValidate(c, h.validate, &input); !ok {
			return err
		}
	}

	inv, err := h.invitationService.SubmitVendorQuote(c.Request().Context(), c.Param("rfqNumber"), c.Param("vendorCode"), input.toEntity())
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, inv)
}
