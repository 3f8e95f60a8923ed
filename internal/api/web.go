package api

import (
	"embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed web/index.html
var webFS embed.FS

// RegisterWeb serves the embedded calculator page at the root.
func (h *Handler) RegisterWeb(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		b, err := webFS.ReadFile("web/index.html")
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		return c.HTMLBlob(http.StatusOK, b)
	})
}
