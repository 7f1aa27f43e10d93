package http

import (
	nethttp "net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "brevio/web/docs"
	"brevio/web/internal/handler"
)

func NewRouter(
	pageHandler *handler.PageHandler,
	summaryHandler *handler.SummaryHandler,
	staticDir string,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(RequestLoggerMiddleware())

	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(nethttp.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")
	summaryHandler.RegisterRoutes(api)
	pageHandler.RegisterRoutes(e)

	registerStatic(e, staticDir)

	return e
}
