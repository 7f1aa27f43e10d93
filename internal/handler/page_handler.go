package handler

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"

	"brevio/web/internal/logger"
	"brevio/web/internal/model"
	"brevio/web/internal/render"
	"brevio/web/internal/service"
	"brevio/web/internal/store"
	"brevio/web/internal/validator"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").ParseFS(templateFS, "templates/index.html"))

type PageHandler struct {
	service service.SummaryService
	slots   store.Provider
}

type pageData struct {
	VideoURL  string
	FormError string
	Error     string
	Summary   *summaryView
}

type summaryView struct {
	Title      string
	Duration   string
	Body       template.HTML
	KeyPoints  []string
	Transcript string
}

func NewPageHandler(service service.SummaryService, slots store.Provider) *PageHandler {
	return &PageHandler{service: service, slots: slots}
}

func (h *PageHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.POST("/summarize", h.Submit)
}

// Index renders the form with whatever outcome this session has persisted.
func (h *PageHandler) Index(c echo.Context) error {
	return h.renderPage(c, http.StatusOK, pageData{})
}

// Submit handles the form post. Invalid input re-renders the form; anything
// else runs the exchange and redirects back to the page.
func (h *PageHandler) Submit(c echo.Context) error {
	raw := c.FormValue("videoUrl")

	videoURL, err := validator.Validate(raw)
	if err != nil {
		var verr *validator.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		return h.renderPage(c, http.StatusBadRequest, pageData{VideoURL: raw, FormError: verr.Message()})
	}

	slots, err := h.slots.Store(c)
	if err != nil {
		return fmt.Errorf("resolve slots: %w", err)
	}

	// The outcome, success or failure, is already persisted for the next render.
	_, _ = h.service.Summarize(c.Request().Context(), slots, videoURL)

	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *PageHandler) renderPage(c echo.Context, status int, data pageData) error {
	slots, err := h.slots.Store(c)
	if err != nil {
		return fmt.Errorf("resolve slots: %w", err)
	}

	summary, errRecord, err := h.service.Current(c.Request().Context(), slots)
	if err != nil {
		// Absent state renders nothing rather than an error page.
		logger.Warn("slot read failed", "module", "handler", "action", "fetch", "resource", "slot", "result", "failed", "error", err)
	}
	if summary != nil {
		data.Summary = newSummaryView(summary)
	}
	if errRecord != nil {
		data.Error = errRecord.Error
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.HTMLBlob(status, buf.Bytes())
}

func newSummaryView(r *model.SummaryRecord) *summaryView {
	return &summaryView{
		Title:      r.Title,
		Duration:   r.Duration,
		Body:       render.Markdown(r.Summary),
		KeyPoints:  r.KeyPoints,
		Transcript: r.Transcript,
	}
}
