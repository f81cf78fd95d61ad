package handler

import (
	"net/http"

	"memnotes/internal/store"

	"github.com/labstack/echo/v4"
)

// GetStats returns note counts and content sizes bucketed by period.
func (h *Handler) GetStats(c echo.Context) error {
	period := store.Period(c.QueryParam("period"))
	if period == "" {
		period = store.PeriodDay
	}

	points, err := h.store.Stats(period)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, points)
}
