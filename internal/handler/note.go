package handler

import (
	"errors"
	"net/http"
	"time"

	"memnotes/internal/model"
	"memnotes/internal/store"

	"github.com/labstack/echo/v4"
)

type CreateNoteRequest struct {
	Title           string                 `json:"title"`
	Content         string                 `json:"content"`
	Type            model.NoteType         `json:"type"`
	Category        string                 `json:"category"`
	Tags            []string               `json:"tags"`
	BackgroundColor string                 `json:"backgroundColor"`
	Images          []string               `json:"images"`
	Font            string                 `json:"font"`
	IsLocked        bool                   `json:"isLocked"`
	Checklist       []model.ChecklistItem  `json:"checklistItems"`
	Drawing         []model.DrawingElement `json:"drawingElements"`
	AudioPath       string                 `json:"audioPath"`
	TimerDuration   int                    `json:"timerDuration"`
	TimerStartedAt  *time.Time             `json:"timerStartTime"`
	TimerActive     bool                   `json:"isTimerActive"`
}

// timerData builds the timer payload from the flat request fields.
// Timer notes always carry a payload; other types only when the client
// sent timer fields.
func (r CreateNoteRequest) timerData() *model.TimerData {
	if r.Type != model.TypeTimer && r.TimerDuration == 0 && r.TimerStartedAt == nil && !r.TimerActive {
		return nil
	}
	return &model.TimerData{
		DurationMinutes: r.TimerDuration,
		StartedAt:       r.TimerStartedAt,
		Active:          r.TimerActive,
	}
}

type UpdateNoteRequest struct {
	Title           *string                 `json:"title"`
	Content         *string                 `json:"content"`
	Category        *string                 `json:"category"`
	Tags            *[]string               `json:"tags"`
	BackgroundColor *string                 `json:"backgroundColor"`
	Images          *[]string               `json:"images"`
	Font            *string                 `json:"font"`
	IsLocked        *bool                   `json:"isLocked"`
	Checklist       *[]model.ChecklistItem  `json:"checklistItems"`
	Drawing         *[]model.DrawingElement `json:"drawingElements"`
	AudioPath       *string                 `json:"audioPath"`
	TimerDuration   *int                    `json:"timerDuration"`
	TimerStartedAt  *time.Time              `json:"timerStartTime"`
	TimerActive     *bool                   `json:"isTimerActive"`
}

func (h *Handler) ListNotes(c echo.Context) error {
	// Filters are mutually exclusive; search wins, then category, then tag
	if q := c.QueryParam("q"); q != "" {
		return c.JSON(http.StatusOK, h.store.SearchNotes(q))
	}
	if category := c.QueryParam("category"); category != "" {
		return c.JSON(http.StatusOK, h.store.FilterByCategory(category))
	}
	if tag := c.QueryParam("tag"); tag != "" {
		return c.JSON(http.StatusOK, h.store.FilterByTag(tag))
	}
	return c.JSON(http.StatusOK, h.store.Notes())
}

func (h *Handler) CreateNote(c echo.Context) error {
	var req CreateNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Type == "" {
		req.Type = model.TypeText
	}
	if !req.Type.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown note type"})
	}

	note := h.store.AddNote(store.NoteDraft{
		Title:           req.Title,
		Content:         req.Content,
		Type:            req.Type,
		Category:        req.Category,
		Tags:            req.Tags,
		BackgroundColor: req.BackgroundColor,
		Images:          req.Images,
		Font:            req.Font,
		IsLocked:        req.IsLocked,
		Checklist:       req.Checklist,
		Drawing:         req.Drawing,
		AudioPath:       req.AudioPath,
		Timer:           req.timerData(),
	})

	return c.JSON(http.StatusCreated, note)
}

func (h *Handler) GetNote(c echo.Context) error {
	note, err := h.store.GetNote(c.Param("id"))
	if errors.Is(err, store.ErrNoteNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "note not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, note)
}

func (h *Handler) UpdateNote(c echo.Context) error {
	var req UpdateNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	note, err := h.store.UpdateNote(c.Param("id"), store.NotePatch{
		Title:           req.Title,
		Content:         req.Content,
		Category:        req.Category,
		Tags:            req.Tags,
		BackgroundColor: req.BackgroundColor,
		Images:          req.Images,
		Font:            req.Font,
		IsLocked:        req.IsLocked,
		Checklist:       req.Checklist,
		Drawing:         req.Drawing,
		AudioPath:       req.AudioPath,
		TimerDuration:   req.TimerDuration,
		TimerStartedAt:  req.TimerStartedAt,
		TimerActive:     req.TimerActive,
	})
	if errors.Is(err, store.ErrNoteNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "note not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, note)
}

func (h *Handler) DeleteNote(c echo.Context) error {
	err := h.store.DeleteNote(c.Param("id"))
	if errors.Is(err, store.ErrNoteNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "note not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}
