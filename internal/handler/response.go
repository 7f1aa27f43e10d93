package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"brevio/web/internal/logger"
	"brevio/web/internal/service"
	"brevio/web/internal/validator"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeServiceError(c echo.Context, err error) error {
	var verr *validator.ValidationError
	var xerr *service.ExchangeError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Message()})
	case errors.As(err, &xerr):
		return c.JSON(http.StatusBadGateway, errorResponse{Error: xerr.UserMessage()})
	case errors.Is(err, service.ErrInvalid):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	default:
		logger.Error("request failed", "module", "handler", "action", "request", "resource", "http", "result", "failed", "path", c.Request().URL.Path, "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
