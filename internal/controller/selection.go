package controller

import (
	"net/http"
	"procurement-engine/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"
)

type selectionRoutesHandler struct {
	selectionService service.Selection
	validate         *validator.Validate
}

func newSelectionRoutesHandler(outer *echo.Group, services *service.Services, v *validator.Validate) *selectionRoutesHandler {
	h := &selectionRoutesHandler{selectionService: services.Selection, validate: v}

	outer.POST("/rfqs/:rfqNumber/selection", h.SelectWinner)
	outer.GET("/rfqs/:rfqNumber/selection", h.GetSelection)
	outer.POST("/rfqs/:rfqNumber/selection/reopen", h.ReopenSelection)

	return h
}

type selectWinnerInput struct {
	VendorCode string `json:"vendorCode" validate:"required,max=64"`
}

// /rfqs/:rfqNumber/selection
func (h *selectionRoutesHandler) SelectWinner(c echo.Context) error {
	var input selectWinnerInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	selection, err := h.selectionService.SelectWinner(c.Request().Context(), c.Param("rfqNumber"), input.VendorCode)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, selection)
}

// /rfqs/:rfqNumber/selection
func (h *selectionRoutesHandler) GetSelection(c echo.Context) error {
	selection, err := h.selectionService.GetSelection(c.Request().Context(), c.Param("rfqNumber"))
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, selection)
}

// /rfqs/:rfqNumber/selection/reopen
func (h *selectionRoutesHandler) ReopenSelection(c echo.Context) error {
	rfq, err := h.selectionService.ReopenSelection(c.Request().Context(), c.Param("rfqNumber"))
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, rfq)
}
