package http

import (
	"os"

	"github.com/labstack/echo/v4"

	"brevio/web/internal/logger"
)

// registerStatic serves page assets (stylesheets, icons) under /static/.
func registerStatic(e *echo.Echo, dir string) {
	if dir == "" {
		return
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		logger.Warn("static dir missing", "module", "http", "action", "request", "resource", "http", "result", "failed", "path", dir)
		return
	}

	logger.Info("static assets enabled", "module", "http", "action", "request", "resource", "http", "result", "ok", "dir", dir)
	e.Static("/static", dir)
}
