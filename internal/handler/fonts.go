package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Font is a display typeface a note can reference via its font field.
type Font struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Fonts the editor offers. The value is an opaque identifier stored on
// the note; rendering is the UI's concern.
var availableFonts = []Font{
	{Name: "Default", Value: "System"},
	{Name: "Elegant", Value: "serif"},
	{Name: "Modern", Value: "monospace"},
	{Name: "Creative", Value: "cursive"},
	{Name: "Fantasy", Value: "fantasy"},
	{Name: "Ballet", Value: "Ballet"},
	{Name: "Fleur De Leah", Value: "FleurDeLeah"},
	{Name: "Kapakana", Value: "Kapakana"},
	{Name: "Monsieur La Doulaise", Value: "MonsieurLaDoulaise"},
	{Name: "Playwrite MX Guides", Value: "PlaywriteMXGuides"},
	{Name: "Unifraktur Maguntia", Value: "UnifrakturMaguntia"},
}

// ListFonts returns the fonts notes can be displayed in.
func (h *Handler) ListFonts(c echo.Context) error {
	return c.JSON(http.StatusOK, availableFonts)
}
