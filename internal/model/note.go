package model

import "time"

// NoteType identifies which payload a note carries. Fixed at creation.
type NoteType string

const (
	TypeText      NoteType = "text"
	TypeChecklist NoteType = "checklist"
	TypeDrawing   NoteType = "drawing"
	TypeVoice     NoteType = "voice"
	TypeTimer     NoteType = "timer"
)

// Valid reports whether t is one of the known note types.
func (t NoteType) Valid() bool {
	switch t {
	case TypeText, TypeChecklist, TypeDrawing, TypeVoice, TypeTimer:
		return true
	}
	return false
}

// RepeatInterval controls how a reminder recurs.
type RepeatInterval string

const (
	RepeatNone    RepeatInterval = "none"
	RepeatDaily   RepeatInterval = "daily"
	RepeatWeekly  RepeatInterval = "weekly"
	RepeatMonthly RepeatInterval = "monthly"
)

// Valid reports whether r is a known repeat interval.
func (r RepeatInterval) Valid() bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	}
	return false
}

// ChecklistItem is a single line of a checklist note.
type ChecklistItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// DrawingElement is one shape on a drawing note's canvas.
// Kind selects which geometry fields are meaningful: "path" uses Points,
// "circle" uses X/Y/Radius, "rect" uses X/Y/Width/Height, "text" uses
// X/Y/Text/FontSize.
type DrawingElement struct {
	ID          string  `json:"id"`
	Kind        string  `json:"type"`
	Points      string  `json:"points,omitempty"`
	X           float64 `json:"x,omitempty"`
	Y           float64 `json:"y,omitempty"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
	Radius      float64 `json:"radius,omitempty"`
	Text        string  `json:"text,omitempty"`
	StrokeColor string  `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
	FillColor   string  `json:"fillColor,omitempty"`
	FontSize    float64 `json:"fontSize,omitempty"`
}

// TimerData is the payload of a timer note. StartedAt is nil while the
// timer has never been started.
type TimerData struct {
	DurationMinutes int        `json:"duration"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	Active          bool       `json:"active"`
}

// ReminderState holds everything about a note's active reminder. A note
// has at most one; NotificationID is the live scheduler handle, and
// scheduling a replacement must cancel it first.
type ReminderState struct {
	At             time.Time      `json:"at"`
	NotificationID string         `json:"notificationId"`
	Repeat         RepeatInterval `json:"repeat"`
}

// Note is a single user-created item. The payload fields (Checklist,
// Drawing, AudioPath, Timer) are populated according to Type; at most
// one is meaningful, text notes carry none.
type Note struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Content         string           `json:"content"`
	Type            NoteType         `json:"type"`
	Category        string           `json:"category"`
	Tags            []string         `json:"tags"`
	BackgroundColor string           `json:"backgroundColor"`
	Images          []string         `json:"images"`
	Font            string           `json:"font,omitempty"`
	IsLocked        bool             `json:"isLocked"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	Checklist       []ChecklistItem  `json:"checklistItems,omitempty"`
	Drawing         []DrawingElement `json:"drawingElements,omitempty"`
	AudioPath       string           `json:"audioPath,omitempty"`
	Timer           *TimerData       `json:"timer,omitempty"`
	Reminder        *ReminderState   `json:"reminder,omitempty"`
}

// HasReminder reports whether the note has a live scheduled reminder.
func (n *Note) HasReminder() bool {
	return n.Reminder != nil && n.Reminder.NotificationID != ""
}

// Clone returns a deep copy of the note. Snapshots handed to the
// persistence writer must not alias slices or payloads that later
// mutations touch.
func (n Note) Clone() Note {
	c := n
	c.Tags = append([]string(nil), n.Tags...)
	c.Images = append([]string(nil), n.Images...)
	c.Checklist = append([]ChecklistItem(nil), n.Checklist...)
	c.Drawing = append([]DrawingElement(nil), n.Drawing...)
	if n.Timer != nil {
		t := *n.Timer
		if n.Timer.StartedAt != nil {
			at := *n.Timer.StartedAt
			t.StartedAt = &at
		}
		c.Timer = &t
	}
	if n.Reminder != nil {
		r := *n.Reminder
		c.Reminder = &r
	}
	return c
}

// CloneNotes deep-copies a whole collection.
func CloneNotes(notes []Note) []Note {
	out := make([]Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out
}

// Category is a named, colored grouping for notes.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// DefaultCategories is the starter set used when no categories have
// been persisted yet.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "General", Color: "#2196F3"},
		{ID: "2", Name: "Work", Color: "#4CAF50"},
		{ID: "3", Name: "Personal", Color: "#FF9800"},
	}
}
