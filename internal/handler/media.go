package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"memnotes/internal/store"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UploadImage attaches an image file to a note and records its URL in
// the note's images list.
func (h *Handler) UploadImage(c echo.Context) error {
	noteID := c.Param("id")

	note, err := h.store.GetNote(noteID)
	if errors.Is(err, store.ErrNoteNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Note not found"})
	}

	// Parse multipart form
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file uploaded"})
	}

	// Generate unique filename
	mediaDir := h.storage.MediaDir("images")
	ext := filepath.Ext(file.Filename)
	filename := uuid.New().String() + ext
	filePath := filepath.Join(mediaDir, filename)

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to open uploaded file"})
	}
	defer src.Close()

	if err := h.storage.SaveMedia(src, filePath); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save file"})
	}

	url := h.storage.MediaURL("images", filename)
	images := append(note.Images, url)
	updated, err := h.store.UpdateNote(noteID, store.NotePatch{Images: &images})
	if err != nil {
		h.storage.Remove(filePath)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to record image"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"url":  url,
		"note": updated,
	})
}

// UploadAudio attaches a voice recording to a voice note.
func (h *Handler) UploadAudio(c echo.Context) error {
	noteID := c.Param("id")

	if _, err := h.store.GetNote(noteID); errors.Is(err, store.ErrNoteNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Note not found"})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file uploaded"})
	}

	mediaDir := h.storage.MediaDir("audio")
	ext := filepath.Ext(file.Filename)
	filename := uuid.New().String() + ext
	filePath := filepath.Join(mediaDir, filename)

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to open uploaded file"})
	}
	defer src.Close()

	if err := h.storage.SaveMedia(src, filePath); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save file"})
	}

	url := h.storage.MediaURL("audio", filename)
	updated, err := h.store.UpdateNote(noteID, store.NotePatch{AudioPath: &url})
	if err != nil {
		h.storage.Remove(filePath)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to record audio"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"url":  url,
		"note": updated,
	})
}

// DeleteImage removes an image reference from a note and deletes the
// file when it lives under the media directory.
func (h *Handler) DeleteImage(c echo.Context) error {
	noteID := c.Param("id")

	var req struct {
		URL string `json:"url"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	note, err := h.store.GetNote(noteID)
	if errors.Is(err, store.ErrNoteNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Note not found"})
	}

	images := make([]string, 0, len(note.Images))
	found := false
	for _, img := range note.Images {
		if img == req.URL {
			found = true
			continue
		}
		images = append(images, img)
	}
	if !found {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Image not found on note"})
	}

	if _, err := h.store.UpdateNote(noteID, store.NotePatch{Images: &images}); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update note"})
	}

	// Only unlink files we manage; external references stay untouched
	if rel, ok := strings.CutPrefix(req.URL, "/media/"); ok {
		path := filepath.Join(h.storage.DataDir(), "media", rel)
		if err := h.storage.Remove(path); err != nil {
			zap.L().Warn("failed to delete media file", zap.String("path", path), zap.Error(err))
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Image deleted successfully"})
}
