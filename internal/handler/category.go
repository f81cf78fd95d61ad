package handler

import (
	"errors"
	"net/http"
	"strings"

	"memnotes/internal/store"

	"github.com/labstack/echo/v4"
)

// ListCategories returns every category.
func (h *Handler) ListCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Categories())
}

// CreateCategory creates a new category
func (h *Handler) CreateCategory(c echo.Context) error {
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Category name is required"})
	}

	// Refuse duplicates by name
	for _, existing := range h.store.Categories() {
		if strings.EqualFold(existing.Name, req.Name) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "Category already exists"})
		}
	}

	category := h.store.AddCategory(req.Name, req.Color)
	return c.JSON(http.StatusCreated, category)
}

// DeleteCategory removes a category unless notes still reference it
func (h *Handler) DeleteCategory(c echo.Context) error {
	err := h.store.DeleteCategory(c.Param("id"))
	switch {
	case errors.Is(err, store.ErrCategoryNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "category not found"})
	case errors.Is(err, store.ErrCategoryInUse):
		return c.JSON(http.StatusConflict, map[string]string{"error": "category still referenced by notes"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}
