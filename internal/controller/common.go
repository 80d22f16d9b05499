package controller

import (
	"errors"
	"fmt"
	"net/http"
	"procurement-engine/internal/entity"
	"procurement-engine/internal/service"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"
)

const (
	defaultLimit  = 20
	defaultOffset = 0
)

type errorResponse struct {
	Reason     string                   `json:"reason"`
	Violations []entity.FieldViolation  `json:"violations,omitempty"`
	Lines      []entity.OverReceiptLine `json:"lines,omitempty"`
}

// bindAndValidate reads the request body into input and runs the struct
// validator. It returns false once a 400 response has been written.
func bindAndValidate(c echo.Context, v *validator.Validate, input interface{}) (bool, error) {
	if err := c.Bind(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{Reason: "Input data is not formed correctly"}); e != nil {
			return false, e
		}

		return false, nil
	}

	if err := v.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{Reason: getAllErrorMessages(err)}); e != nil {
			return false, e
		}

		return false, nil
	}

	return true, nil
}

// writeServiceError maps a service error onto its HTTP status. Unknown errors
// are returned so echo logs them.
func writeServiceError(c echo.Context, err error) error {
	var (
		validationErr *entity.ValidationError
		stateErr      *entity.InvalidStateError
		conflictErr   *entity.ConflictError
		overErr       *entity.OverReceiptError
	)

	var status int
	resp := errorResponse{Reason: err.Error()}
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		resp.Violations = validationErr.Violations
	case errors.Is(err, service.ErrRfqNotFound),
		errors.Is(err, service.ErrInvitationNotFound),
		errors.Is(err, service.ErrSelectionNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.As(err, &stateErr), errors.As(err, &conflictErr):
		status = http.StatusConflict
	case errors.As(err, &overErr):
		status = http.StatusUnprocessableEntity
		resp.Lines = overErr.Lines
	default:
		if e := c.JSON(http.StatusInternalServerError, errorResponse{Reason: "Internal error"}); e != nil {
			return e
		}

		return err
	}

	return c.JSON(status, resp)
}

func getAllErrorMessages(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err.Error()
	}

	var builder strings.Builder
	for _, fe := range validationErrs {
		message := fmt.Sprintf("'%s': %s\n", fe.Namespace(), getMessage(fe))
		builder.WriteString(message)
	}

	return builder.String()
}

func getMessage(fe validator.FieldError) string {
	switch fe.Kind() {
	case reflect.String:
		return getMessageForString(fe)
	case reflect.Int, reflect.Int32, reflect.Int64:
		return getMessageForInt(fe)
	case reflect.Slice:
		return getMessageForSlice(fe)
	}

	if fe.Tag() == "required" {
		return "this field is required"
	}

	return "incorrect value passed"
}

func getMessageForInt(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "lte", "max":
		return "should be less or equal than " + fe.Param()
	case "gte", "min":
		return "should be greater or equal than " + fe.Param()
	case "gt":
		return "should be greater than " + fe.Param()
	}

	return "incorrect value passed"
}

func getMessageForString(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "lte", "max":
		return "length should be less or equal than " + fe.Param()
	case "gte", "min":
		return "length should be greater or equal than " + fe.Param()
	case "oneof":
		return "should have value in: " + fe.Param()
	}

	return "incorrect value passed"
}

func getMessageForSlice(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "should contain at least " + fe.Param() + " items"
	case "max":
		return "should contain at most " + fe.Param() + " items"
	}

	return "incorrect value passed"
}
