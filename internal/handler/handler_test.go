package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"memnotes/internal/scheduler"
	"memnotes/internal/storage"
	"memnotes/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	h     *Handler
	e     *echo.Echo
	store *store.Store
	sched *scheduler.Scheduler
}

func newTestEnv(t *testing.T, opts ...scheduler.Option) *testEnv {
	t.Helper()

	st := storage.NewMemory()
	sched := scheduler.New(nil, opts...)
	s := store.Open(st, sched, nil)
	t.Cleanup(func() {
		s.Close()
		sched.Close()
	})

	return &testEnv{
		h:     NewHandler(s, st, sched),
		e:     echo.New(),
		store: s,
		sched: sched,
	}
}

// request builds an echo context around a recorded request. Path
// params follow as alternating name/value pairs.
func (env *testEnv) request(method, target, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestGetStatsHandler(t *testing.T) {
	env := newTestEnv(t)
	env.store.AddNote(store.NoteDraft{Title: "x", Content: "hello"})

	c, rec := env.request(http.MethodGet, "/api/stats?period=day", "")
	require.NoError(t, env.h.GetStats(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var points []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
	require.Len(t, points, 1)
	assert.EqualValues(t, 1, points[0]["count"])
	assert.EqualValues(t, 5, points[0]["chars"])
}

func TestGetStatsHandlerBadPeriod(t *testing.T) {
	env := newTestEnv(t)

	c, rec := env.request(http.MethodGet, "/api/stats?period=decade", "")
	require.NoError(t, env.h.GetStats(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListFontsHandler(t *testing.T) {
	env := newTestEnv(t)

	c, rec := env.request(http.MethodGet, "/api/fonts", "")
	require.NoError(t, env.h.ListFonts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var fonts []Font
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fonts))
	assert.NotEmpty(t, fonts)
	assert.Equal(t, "Default", fonts[0].Name)
	assert.Equal(t, "System", fonts[0].Value)
}
