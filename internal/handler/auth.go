package handler

import (
	"net/http"
	"time"

	"memnotes/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const jwtExpiry = 24 * time.Hour

// CheckSetup reports whether an access credential has been configured yet
func (h *Handler) CheckSetup(c echo.Context) error {
	settings, err := h.storage.LoadSettings()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to read settings"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"setup_needed": settings.AccessHash == "",
	})
}

// Setup stores the access credential, once
func (h *Handler) Setup(c echo.Context) error {
	var req struct {
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Password is required"})
	}

	settings, err := h.storage.LoadSettings()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to read settings"})
	}
	if settings.AccessHash != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Setup already completed"})
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to hash password"})
	}

	settings.AccessHash = string(hashedPassword)
	if err := h.storage.SaveSettings(settings); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save settings"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Setup completed successfully"})
}

// Login verifies the access credential and issues a token
func (h *Handler) Login(c echo.Context) error {
	var req struct {
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	settings, err := h.storage.LoadSettings()
	if err != nil || settings.AccessHash == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(settings.AccessHash), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
	}

	// Create JWT token
	claims := &jwt.RegisteredClaims{
		Subject:   "owner",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(jwtExpiry)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(middleware.Secret())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to generate token"})
	}

	return c.JSON(http.StatusOK, map[string]string{"token": tokenString})
}

// Logout invalidates the current session
func (h *Handler) Logout(c echo.Context) error {
	// With JWT, logout is handled client-side by removing the token
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}
