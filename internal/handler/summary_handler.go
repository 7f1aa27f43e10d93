package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"brevio/web/internal/model"
	"brevio/web/internal/service"
	"brevio/web/internal/store"
	"brevio/web/internal/validator"
)

type SummaryHandler struct {
	service service.SummaryService
	slots   store.Provider
}

type summarizeRequest struct {
	URL string `json:"url"`
}

type currentSummaryResponse struct {
	Summary *model.SummaryRecord `json:"summary"`
	Error   *model.ErrorRecord   `json:"error"`
}

func NewSummaryHandler(service service.SummaryService, slots store.Provider) *SummaryHandler {
	return &SummaryHandler{service: service, slots: slots}
}

func (h *SummaryHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/summarize", h.Summarize)
	g.GET("/summary", h.Current)
}

// Summarize summarizes a YouTube video.
// @Summary Summarize a YouTube video
// @Description Validate the URL, run one exchange with the summarization service and persist the outcome for this session.
// @Tags summary
// @Accept json
// @Produce json
// @Param request body summarizeRequest true "Summarize request"
// @Success 200 {object} model.SummaryRecord
// @Failure 400 {object} errorResponse
// @Failure 502 {object} errorResponse
// @Router /summarize [post]
func (h *SummaryHandler) Summarize(c echo.Context) error {
	var req summarizeRequest
	if err := c.Bind(&req); err != nil {
		return writeServiceError(c, fmt.Errorf("bind: %w", service.ErrInvalid))
	}

	videoURL, err := validator.Validate(req.URL)
	if err != nil {
		return writeServiceError(c, err)
	}

	slots, err := h.slots.Store(c)
	if err != nil {
		return writeServiceError(c, fmt.Errorf("resolve slots: %w", err))
	}

	record, err := h.service.Summarize(c.Request().Context(), slots, videoURL)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// Current returns the outcome persisted for this session.
// @Summary Get current summary
// @Description Return the persisted summary and error slots; absent slots are null.
// @Tags summary
// @Produce json
// @Success 200 {object} currentSummaryResponse
// @Failure 500 {object} errorResponse
// @Router /summary [get]
func (h *SummaryHandler) Current(c echo.Context) error {
	slots, err := h.slots.Store(c)
	if err != nil {
		return writeServiceError(c, fmt.Errorf("resolve slots: %w", err))
	}

	summary, errRecord, err := h.service.Current(c.Request().Context(), slots)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, currentSummaryResponse{Summary: summary, Error: errRecord})
}
