package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"memnotes/internal/model"
	"memnotes/internal/scheduler"
	"memnotes/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetReminder(t *testing.T) {
	env := newTestEnv(t)
	note := env.store.AddNote(store.NoteDraft{Title: "call mom", Type: model.TypeText})

	at := time.Now().Add(time.Hour).UTC()
	body := fmt.Sprintf(`{"date":%q,"repeat":"weekly"}`, at.Format(time.RFC3339))
	c, rec := env.request(http.MethodPut, "/api/notes/"+note.ID+"/reminder", body, "id", note.ID)
	require.NoError(t, env.h.SetReminder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated model.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.NotNil(t, updated.Reminder)
	assert.Equal(t, model.RepeatWeekly, updated.Reminder.Repeat)
	assert.NotEmpty(t, updated.Reminder.NotificationID)
	assert.Equal(t, 1, env.sched.Pending())
}

func TestSetReminderDefaultsRepeatNone(t *testing.T) {
	env := newTestEnv(t)
	note := env.store.AddNote(store.NoteDraft{Title: "once", Type: model.TypeText})

	body := fmt.Sprintf(`{"date":%q}`, time.Now().Add(time.Hour).UTC().Format(time.RFC3339))
	c, rec := env.request(http.MethodPut, "/api/notes/"+note.ID+"/reminder", body, "id", note.ID)
	require.NoError(t, env.h.SetReminder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated model.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.NotNil(t, updated.Reminder)
	assert.Equal(t, model.RepeatNone, updated.Reminder.Repeat)
}

func TestSetReminderBadRepeat(t *testing.T) {
	env := newTestEnv(t)
	note := env.store.AddNote(store.NoteDraft{Title: "x", Type: model.TypeText})

	body := `{"date":"2030-01-01T10:00:00Z","repeat":"hourly"}`
	c, rec := env.request(http.MethodPut, "/api/notes/"+note.ID+"/reminder", body, "id", note.ID)
	require.NoError(t, env.h.SetReminder(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetReminderPermissionDenied(t *testing.T) {
	env := newTestEnv(t, scheduler.WithPrompt(func() bool { return false }))
	note := env.store.AddNote(store.NoteDraft{Title: "x", Type: model.TypeText})

	body := `{"date":"2030-01-01T10:00:00Z"}`
	c, rec := env.request(http.MethodPut, "/api/notes/"+note.ID+"/reminder", body, "id", note.ID)
	require.NoError(t, env.h.SetReminder(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSetReminderNoteNotFound(t *testing.T) {
	env := newTestEnv(t)

	body := `{"date":"2030-01-01T10:00:00Z"}`
	c, rec := env.request(http.MethodPut, "/api/notes/nope/reminder", body, "id", "nope")
	require.NoError(t, env.h.SetReminder(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearReminder(t *testing.T) {
	env := newTestEnv(t)
	note := env.store.AddNote(store.NoteDraft{Title: "x", Type: model.TypeText})
	_, err := env.store.AddReminder(note.ID, time.Now().Add(time.Hour), model.RepeatNone)
	require.NoError(t, err)

	c, rec := env.request(http.MethodDelete, "/api/notes/"+note.ID+"/reminder", "", "id", note.ID)
	require.NoError(t, env.h.ClearReminder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated model.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Nil(t, updated.Reminder)
	assert.Equal(t, 0, env.sched.Pending())

	// Clearing again is still OK
	c, rec = env.request(http.MethodDelete, "/api/notes/"+note.ID+"/reminder", "", "id", note.ID)
	require.NoError(t, env.h.ClearReminder(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
