// Package store holds the in-memory source of truth for notes and
// categories. Every mutation is applied to the collections first and
// then written through to durable storage by a single-writer queue, so
// persisted state always reflects the order mutations were applied in
// memory. Reminder mutations additionally drive the notification
// scheduler.
package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"memnotes/internal/model"
	"memnotes/internal/scheduler"
	"memnotes/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNoteNotFound is returned when a mutation or query targets a
	// note id that does not exist.
	ErrNoteNotFound = errors.New("note not found")

	// ErrCategoryNotFound is returned when a category id does not exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrCategoryInUse is returned when deleting a category that notes
	// still reference.
	ErrCategoryInUse = errors.New("category still referenced by notes")
)

type persistKind int

const (
	persistNotes persistKind = iota
	persistCategories
	persistWipe
)

type persistJob struct {
	kind       persistKind
	notes      []model.Note
	categories []model.Category
}

// Store is the single authority over the notes and categories
// collections. Construct it with Open and share it by reference.
type Store struct {
	mu         sync.RWMutex
	notes      []model.Note
	categories []model.Category

	storage *storage.Store
	sched   *scheduler.Scheduler
	log     *zap.Logger

	jobs      chan persistJob
	done      chan struct{}
	closeOnce sync.Once
}

// Open loads both collections from storage and starts the persistence
// writer. Unreadable or corrupt keys are logged and replaced with the
// empty collection (notes) or the default set (categories) so the app
// can keep running on best-effort in-memory state.
func Open(st *storage.Store, sched *scheduler.Scheduler, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}

	notes, err := st.LoadNotes()
	if err != nil {
		log.Error("loading notes, starting empty", zap.Error(err))
		notes = []model.Note{}
	}
	categories, err := st.LoadCategories(model.DefaultCategories())
	if err != nil {
		log.Error("loading categories, using defaults", zap.Error(err))
		categories = model.DefaultCategories()
	}

	s := &Store{
		notes:      notes,
		categories: categories,
		storage:    st,
		sched:      sched,
		log:        log,
		jobs:       make(chan persistJob, 64),
		done:       make(chan struct{}),
	}

	// Persisted notification handles belong to a previous process;
	// reschedule every reminder and persist the fresh handles before
	// the writer starts.
	if s.rearmReminders(s.notes) {
		if err := st.SaveNotes(model.CloneNotes(s.notes)); err != nil {
			log.Error("persisting rescheduled reminders", zap.Error(err))
		}
	}

	go s.writer()
	return s
}

// Close flushes the persistence queue and stops the writer. Safe to
// call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.jobs)
		<-s.done
	})
}

func (s *Store) writer() {
	defer close(s.done)
	for job := range s.jobs {
		var err error
		switch job.kind {
		case persistNotes:
			err = s.storage.SaveNotes(job.notes)
		case persistCategories:
			err = s.storage.SaveCategories(job.categories)
		case persistWipe:
			err = s.storage.Wipe()
		}
		if err != nil {
			s.log.Error("write-through failed", zap.Error(err))
		}
	}
}

// persistNotesLocked snapshots the notes collection onto the writer
// queue. Callers hold at least the read lock.
func (s *Store) persistNotesLocked() {
	s.jobs <- persistJob{kind: persistNotes, notes: model.CloneNotes(s.notes)}
}

func (s *Store) persistCategoriesLocked() {
	categories := append([]model.Category(nil), s.categories...)
	s.jobs <- persistJob{kind: persistCategories, categories: categories}
}

func (s *Store) findLocked(id string) int {
	for i := range s.notes {
		if s.notes[i].ID == id {
			return i
		}
	}
	return -1
}

// NoteDraft is the caller-supplied part of a new note. The store
// assigns id and timestamps.
type NoteDraft struct {
	Title           string
	Content         string
	Type            model.NoteType
	Category        string
	Tags            []string
	BackgroundColor string
	Images          []string
	Font            string
	IsLocked        bool
	Checklist       []model.ChecklistItem
	Drawing         []model.DrawingElement
	AudioPath       string
	Timer           *model.TimerData
}

// AddNote appends a fresh note to the collection and persists it.
// CreatedAt and UpdatedAt are identical at creation.
func (s *Store) AddNote(draft NoteDraft) model.Note {
	now := time.Now()
	note := model.Note{
		ID:              uuid.NewString(),
		Title:           draft.Title,
		Content:         draft.Content,
		Type:            draft.Type,
		Category:        draft.Category,
		Tags:            draft.Tags,
		BackgroundColor: draft.BackgroundColor,
		Images:          draft.Images,
		Font:            draft.Font,
		IsLocked:        draft.IsLocked,
		CreatedAt:       now,
		UpdatedAt:       now,
		Checklist:       draft.Checklist,
		Drawing:         draft.Drawing,
		AudioPath:       draft.AudioPath,
		Timer:           draft.Timer,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, note)
	s.persistNotesLocked()
	return note.Clone()
}

// NotePatch is a partial update; nil fields are left untouched.
type NotePatch struct {
	Title           *string
	Content         *string
	Category        *string
	Tags            *[]string
	BackgroundColor *string
	Images          *[]string
	Font            *string
	IsLocked        *bool
	Checklist       *[]model.ChecklistItem
	Drawing         *[]model.DrawingElement
	AudioPath       *string
	TimerDuration   *int
	TimerStartedAt  *time.Time
	TimerActive     *bool
}

// UpdateNote merges the patch into the matching note and refreshes
// UpdatedAt. Returns ErrNoteNotFound when the id is absent.
func (s *Store) UpdateNote(id string, patch NotePatch) (model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(id)
	if i < 0 {
		return model.Note{}, ErrNoteNotFound
	}

	n := &s.notes[i]
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	if patch.Category != nil {
		n.Category = *patch.Category
	}
	if patch.Tags != nil {
		n.Tags = *patch.Tags
	}
	if patch.BackgroundColor != nil {
		n.BackgroundColor = *patch.BackgroundColor
	}
	if patch.Images != nil {
		n.Images = *patch.Images
	}
	if patch.Font != nil {
		n.Font = *patch.Font
	}
	if patch.IsLocked != nil {
		n.IsLocked = *patch.IsLocked
	}
	if patch.Checklist != nil {
		n.Checklist = *patch.Checklist
	}
	if patch.Drawing != nil {
		n.Drawing = *patch.Drawing
	}
	if patch.AudioPath != nil {
		n.AudioPath = *patch.AudioPath
	}
	if patch.TimerDuration != nil || patch.TimerStartedAt != nil || patch.TimerActive != nil {
		if n.Timer == nil {
			n.Timer = &model.TimerData{}
		}
		if patch.TimerDuration != nil {
			n.Timer.DurationMinutes = *patch.TimerDuration
		}
		if patch.TimerStartedAt != nil {
			at := *patch.TimerStartedAt
			n.Timer.StartedAt = &at
		}
		if patch.TimerActive != nil {
			n.Timer.Active = *patch.TimerActive
		}
	}
	n.UpdatedAt = time.Now()

	s.persistNotesLocked()
	return n.Clone(), nil
}

// DeleteNote removes a note, cancelling its scheduled reminder first.
func (s *Store) DeleteNote(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(id)
	if i < 0 {
		return ErrNoteNotFound
	}

	if s.notes[i].HasReminder() {
		s.sched.Cancel(s.notes[i].Reminder.NotificationID)
	}
	s.notes = append(s.notes[:i], s.notes[i+1:]...)
	s.persistNotesLocked()
	return nil
}

// Notes returns a snapshot of the whole collection in insertion order.
func (s *Store) Notes() []model.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneNotes(s.notes)
}

// GetNote returns a single note by id.
func (s *Store) GetNote(id string) (model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.findLocked(id)
	if i < 0 {
		return model.Note{}, ErrNoteNotFound
	}
	return s.notes[i].Clone(), nil
}

// SearchNotes returns every note whose title, content or any tag
// contains the query, case-insensitively, in original collection order.
func (s *Store) SearchNotes(query string) []model.Note {
	q := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Note{}
	for i := range s.notes {
		n := &s.notes[i]
		if strings.Contains(strings.ToLower(n.Title), q) ||
			strings.Contains(strings.ToLower(n.Content), q) ||
			anyTagContains(n.Tags, q) {
			out = append(out, n.Clone())
		}
	}
	return out
}

func anyTagContains(tags []string, q string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// FilterByCategory returns the notes whose category exactly matches.
func (s *Store) FilterByCategory(categoryID string) []model.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Note{}
	for i := range s.notes {
		if s.notes[i].Category == categoryID {
			out = append(out, s.notes[i].Clone())
		}
	}
	return out
}

// FilterByTag returns the notes carrying the exact tag.
func (s *Store) FilterByTag(tag string) []model.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Note{}
	for i := range s.notes {
		for _, t := range s.notes[i].Tags {
			if t == tag {
				out = append(out, s.notes[i].Clone())
				break
			}
		}
	}
	return out
}

// Categories returns a snapshot of the categories collection.
func (s *Store) Categories() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Category(nil), s.categories...)
}

// AddCategory appends a fresh category and persists the collection.
func (s *Store) AddCategory(name, color string) model.Category {
	category := model.Category{
		ID:    uuid.NewString(),
		Name:  name,
		Color: color,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, category)
	s.persistCategoriesLocked()
	return category
}

// DeleteCategory removes a category. Deletion is refused with
// ErrCategoryInUse while any note references it; notes must be
// reassigned or deleted first.
func (s *Store) DeleteCategory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.categories {
		if s.categories[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrCategoryNotFound
	}
	for i := range s.notes {
		if s.notes[i].Category == id {
			return ErrCategoryInUse
		}
	}

	s.categories = append(s.categories[:idx], s.categories[idx+1:]...)
	s.persistCategoriesLocked()
	return nil
}

// reminderRequest builds the scheduler request for a note's reminder.
func reminderRequest(n *model.Note, at time.Time, repeat model.RepeatInterval) scheduler.Request {
	req := scheduler.Request{
		ID:     uuid.NewString(),
		NoteID: n.ID,
		Title:  n.Title,
		Body:   n.Content,
		At:     at,
		Repeat: repeat,
	}
	if req.Title == "" {
		req.Title = "Memory Notes reminder"
	}
	if req.Body == "" {
		req.Body = "You have a scheduled reminder"
	}
	return req
}

func (s *Store) schedule(req scheduler.Request) (string, error) {
	if req.Repeat == model.RepeatNone {
		return s.sched.ScheduleOneShot(req)
	}
	return s.sched.ScheduleRecurring(req)
}

// rearmReminders reconciles loaded reminder state with the scheduler.
// Recorded notification handles reference triggers of a previous
// process (or of the pre-restore collections), so every reminder is
// scheduled anew and its handle replaced. Expired one-shots and
// reminders the scheduler refuses are cleared. Reports whether any
// note changed.
func (s *Store) rearmReminders(notes []model.Note) bool {
	changed := false
	now := time.Now()
	for i := range notes {
		n := &notes[i]
		if n.Reminder == nil {
			continue
		}
		if n.Reminder.Repeat == model.RepeatNone && !n.Reminder.At.After(now) {
			n.Reminder = nil
			changed = true
			continue
		}
		handle, err := s.schedule(reminderRequest(n, n.Reminder.At, n.Reminder.Repeat))
		if err != nil {
			s.log.Warn("dropping reminder that could not be rescheduled",
				zap.String("note_id", n.ID), zap.Error(err))
			n.Reminder = nil
			changed = true
			continue
		}
		n.Reminder.NotificationID = handle
		changed = true
	}
	return changed
}

// AddReminder schedules a notification for the note at the given time.
// Any previously scheduled reminder for the note is cancelled first, so
// at most one notification handle is ever live per note. Permission
// failures from the scheduler propagate to the caller.
func (s *Store) AddReminder(noteID string, at time.Time, repeat model.RepeatInterval) (model.Note, error) {
	if repeat == "" {
		repeat = model.RepeatNone
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(noteID)
	if i < 0 {
		return model.Note{}, ErrNoteNotFound
	}
	n := &s.notes[i]

	if n.HasReminder() {
		s.sched.Cancel(n.Reminder.NotificationID)
	}

	handle, err := s.schedule(reminderRequest(n, at, repeat))
	if err != nil {
		return model.Note{}, err
	}

	n.Reminder = &model.ReminderState{At: at, NotificationID: handle, Repeat: repeat}
	n.UpdatedAt = time.Now()
	s.persistNotesLocked()
	return n.Clone(), nil
}

// RemoveReminder cancels the note's scheduled notification and clears
// its reminder state. Removing an already-absent reminder is a no-op.
func (s *Store) RemoveReminder(noteID string) (model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(noteID)
	if i < 0 {
		return model.Note{}, ErrNoteNotFound
	}
	n := &s.notes[i]

	if n.Reminder == nil {
		return n.Clone(), nil
	}
	if n.Reminder.NotificationID != "" {
		s.sched.Cancel(n.Reminder.NotificationID)
	}
	n.Reminder = nil
	n.UpdatedAt = time.Now()
	s.persistNotesLocked()
	return n.Clone(), nil
}

// Reload replaces the in-memory collections with what storage currently
// holds. Used after a restore has rewritten the data directory. The
// outgoing notes' notifications are cancelled and the restored notes'
// reminders rescheduled, so the recorded handle always names the one
// live notification.
func (s *Store) Reload() error {
	notes, err := s.storage.LoadNotes()
	if err != nil {
		return err
	}
	categories, err := s.storage.LoadCategories(model.DefaultCategories())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notes {
		if s.notes[i].HasReminder() {
			s.sched.Cancel(s.notes[i].Reminder.NotificationID)
		}
	}

	s.notes = notes
	s.categories = categories

	if s.rearmReminders(s.notes) {
		if err := s.storage.SaveNotes(model.CloneNotes(s.notes)); err != nil {
			s.log.Error("persisting rescheduled reminders", zap.Error(err))
		}
	}
	return nil
}

// Wipe clears both collections, cancels every scheduled notification
// and removes the persisted keys. Categories reset to the default set.
// The key removal goes through the writer queue so it cannot be
// overtaken by saves that were enqueued before the wipe.
func (s *Store) Wipe() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sched.CancelAll()
	s.notes = []model.Note{}
	s.categories = model.DefaultCategories()
	s.jobs <- persistJob{kind: persistWipe}
	return nil
}
