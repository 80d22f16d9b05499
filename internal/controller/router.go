package controller

import (
	"procurement-engine/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
)

func SetupRoutesHandlers(handler *echo.Echo, services *service.Services) {
	handler.Use(middleware.Recover())
	handler.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","method":"${method}","uri":"${uri}","status":${status},"latency":"${latency_human}"}` + "\n",
	}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	api := handler.Group("/api")
	newDiagnosticRoutesHandler(api, services)
	newRfqRoutesHandler(api, services, validate)
	newInvitationRoutesHandler(api, services, validate)
	newSelectionRoutesHandler(api, services, validate)
	newOrderRoutesHandler(api, services, validate)
}
