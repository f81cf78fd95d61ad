package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteTypeValid(t *testing.T) {
	for _, typ := range []NoteType{TypeText, TypeChecklist, TypeDrawing, TypeVoice, TypeTimer} {
		assert.True(t, typ.Valid(), "type %q should be valid", typ)
	}
	assert.False(t, NoteType("video").Valid())
	assert.False(t, NoteType("").Valid())
}

func TestRepeatIntervalValid(t *testing.T) {
	for _, r := range []RepeatInterval{RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly} {
		assert.True(t, r.Valid(), "repeat %q should be valid", r)
	}
	assert.False(t, RepeatInterval("yearly").Valid())
}

func TestNoteRoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	started := time.Date(2024, 3, 2, 14, 0, 0, 0, time.UTC)
	remindAt := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)

	notes := []Note{
		{
			ID: "n1", Title: "Groceries", Content: "milk", Type: TypeText,
			Category: "1", Tags: []string{"errands"}, BackgroundColor: "#fff",
			Images: []string{"/media/images/a.png"}, Font: "serif",
			CreatedAt: created, UpdatedAt: created,
		},
		{
			ID: "n2", Title: "Packing", Type: TypeChecklist, Category: "2",
			Tags: []string{}, CreatedAt: created, UpdatedAt: created,
			Checklist: []ChecklistItem{
				{ID: "c1", Text: "passport", Completed: true},
				{ID: "c2", Text: "charger"},
			},
		},
		{
			ID: "n3", Title: "Sketch", Type: TypeDrawing, Category: "3",
			CreatedAt: created, UpdatedAt: created,
			Drawing: []DrawingElement{
				{ID: "d1", Kind: "path", Points: "M0,0 L10,10", StrokeColor: "#000", StrokeWidth: 2},
				{ID: "d2", Kind: "circle", X: 50, Y: 50, Radius: 10, StrokeColor: "#f00", StrokeWidth: 1, FillColor: "#0f0"},
				{ID: "d3", Kind: "rect", X: 5, Y: 5, Width: 20, Height: 10, StrokeColor: "#00f", StrokeWidth: 1},
				{ID: "d4", Kind: "text", X: 1, Y: 2, Text: "hi", FontSize: 14, StrokeColor: "#000", StrokeWidth: 1},
			},
		},
		{
			ID: "n4", Title: "Memo", Type: TypeVoice, Category: "1",
			CreatedAt: created, UpdatedAt: created,
			AudioPath: "/media/audio/m.m4a",
		},
		{
			ID: "n5", Title: "Pomodoro", Type: TypeTimer, Category: "2",
			CreatedAt: created, UpdatedAt: created,
			Timer:    &TimerData{DurationMinutes: 25, StartedAt: &started, Active: true},
			Reminder: &ReminderState{At: remindAt, NotificationID: "h-1", Repeat: RepeatDaily},
		},
	}

	data, err := json.Marshal(notes)
	require.NoError(t, err)

	var decoded []Note
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, len(notes))

	for i := range notes {
		assert.Equal(t, notes[i], decoded[i], "note %s should survive the round trip", notes[i].ID)
	}

	// Date-typed fields come back as equal times, not strings
	require.NotNil(t, decoded[4].Timer.StartedAt)
	assert.True(t, decoded[4].Timer.StartedAt.Equal(started))
	assert.True(t, decoded[4].Reminder.At.Equal(remindAt))

	// Absent optional dates stay absent
	assert.Nil(t, decoded[0].Timer)
	assert.Nil(t, decoded[0].Reminder)
}

func TestNoteCloneIsIndependent(t *testing.T) {
	started := time.Now()
	orig := Note{
		ID:        "n1",
		Tags:      []string{"a"},
		Checklist: []ChecklistItem{{ID: "c1", Text: "x"}},
		Timer:     &TimerData{DurationMinutes: 10, StartedAt: &started},
		Reminder:  &ReminderState{NotificationID: "h", Repeat: RepeatNone},
	}

	clone := orig.Clone()
	clone.Tags[0] = "b"
	clone.Checklist[0].Completed = true
	clone.Timer.Active = true
	clone.Reminder.NotificationID = "other"

	assert.Equal(t, "a", orig.Tags[0])
	assert.False(t, orig.Checklist[0].Completed)
	assert.False(t, orig.Timer.Active)
	assert.Equal(t, "h", orig.Reminder.NotificationID)
}

func TestHasReminder(t *testing.T) {
	n := Note{}
	assert.False(t, n.HasReminder())

	n.Reminder = &ReminderState{}
	assert.False(t, n.HasReminder())

	n.Reminder.NotificationID = "h"
	assert.True(t, n.HasReminder())
}

func TestDefaultCategories(t *testing.T) {
	cats := DefaultCategories()
	require.Len(t, cats, 3)
	assert.Equal(t, "General", cats[0].Name)
}
