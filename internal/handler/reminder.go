package handler

import (
	"errors"
	"net/http"
	"time"

	"memnotes/internal/model"
	"memnotes/internal/scheduler"
	"memnotes/internal/store"

	"github.com/labstack/echo/v4"
)

type SetReminderRequest struct {
	Date   time.Time            `json:"date"`
	Repeat model.RepeatInterval `json:"repeat"`
}

// SetReminder schedules (or replaces) the reminder of a note.
func (h *Handler) SetReminder(c echo.Context) error {
	var req SetReminderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Repeat == "" {
		req.Repeat = model.RepeatNone
	}
	if !req.Repeat.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown repeat interval"})
	}

	note, err := h.store.AddReminder(c.Param("id"), req.Date, req.Repeat)
	switch {
	case errors.Is(err, store.ErrNoteNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "note not found"})
	case errors.Is(err, scheduler.ErrPermissionDenied):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "notification permission denied"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, note)
}

// ClearReminder cancels the note's reminder. Clearing a note without a
// reminder succeeds.
func (h *Handler) ClearReminder(c echo.Context) error {
	note, err := h.store.RemoveReminder(c.Param("id"))
	if errors.Is(err, store.ErrNoteNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "note not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, note)
}
