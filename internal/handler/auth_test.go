package handler

import (
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memnotes/internal/middleware"
)

func TestSetupAndLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	// Fresh install needs setup
	c, rec := env.request(http.MethodGet, "/api/setup/check", "")
	require.NoError(t, env.h.CheckSetup(c))
	assert.Equal(t, true, decodeMap(t, rec)["setup_needed"])

	// Login before setup always fails
	c, rec = env.request(http.MethodPost, "/api/auth/login", `{"password":"hunter2"}`)
	require.NoError(t, env.h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = env.request(http.MethodPost, "/api/setup", `{"password":"hunter2"}`)
	require.NoError(t, env.h.Setup(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = env.request(http.MethodGet, "/api/setup/check", "")
	require.NoError(t, env.h.CheckSetup(c))
	assert.Equal(t, false, decodeMap(t, rec)["setup_needed"])

	// Second setup attempt is refused
	c, rec = env.request(http.MethodPost, "/api/setup", `{"password":"other"}`)
	require.NoError(t, env.h.Setup(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Wrong password
	c, rec = env.request(http.MethodPost, "/api/auth/login", `{"password":"wrong"}`)
	require.NoError(t, env.h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Right password yields a verifiable token
	c, rec = env.request(http.MethodPost, "/api/auth/login", `{"password":"hunter2"}`)
	require.NoError(t, env.h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	tokenString, _ := decodeMap(t, rec)["token"].(string)
	require.NotEmpty(t, tokenString)

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return middleware.Secret(), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "owner", claims.Subject)
}

func TestSetupRequiresPassword(t *testing.T) {
	env := newTestEnv(t)

	c, rec := env.request(http.MethodPost, "/api/setup", `{"password":""}`)
	require.NoError(t, env.h.Setup(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
