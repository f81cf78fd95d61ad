package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"memnotes/internal/model"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrPermissionDenied is returned when scheduling is attempted while
// notification permission has been refused.
var ErrPermissionDenied = errors.New("notification permission denied")

type permissionState int

const (
	permissionUnknown permissionState = iota
	permissionGranted
	permissionDenied
)

// Request describes a reminder to schedule.
type Request struct {
	ID     string
	NoteID string
	Title  string
	Body   string
	At     time.Time
	Repeat model.RepeatInterval
}

// Payload is what a fired notification carries to listeners.
type Payload struct {
	NoteID     string `json:"noteId"`
	ReminderID string `json:"reminderId"`
}

// Notification is a delivered (or tapped) notification.
type Notification struct {
	Title string  `json:"title"`
	Body  string  `json:"body"`
	Data  Payload `json:"data"`
}

// Listener receives delivered or tapped notifications.
type Listener func(Notification)

// Scheduler maps reminder requests onto timed triggers and fans fired
// notifications out to registered listeners. One-shot reminders run on
// a timer; recurring ones run on a cron schedule derived from the
// reminder time.
type Scheduler struct {
	mu       sync.Mutex
	perm     permissionState
	prompt   func() bool
	timers   map[string]*time.Timer
	entries  map[string]cron.EntryID
	cron     *cron.Cron
	received map[int]Listener
	tapped   map[int]Listener
	nextSub  int
	log      *zap.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPrompt sets the hook consulted the first time permission is
// requested. The default grants.
func WithPrompt(prompt func() bool) Option {
	return func(s *Scheduler) { s.prompt = prompt }
}

// New creates a started Scheduler.
func New(log *zap.Logger, opts ...Option) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scheduler{
		prompt:   func() bool { return true },
		timers:   make(map[string]*time.Timer),
		entries:  make(map[string]cron.EntryID),
		cron:     cron.New(),
		received: make(map[int]Listener),
		tapped:   make(map[int]Listener),
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron.Start()
	return s
}

// RequestPermission reports whether local notifications are permitted.
// The first call consults the prompt hook; the answer is cached and the
// hook is never consulted again, granted or denied.
func (s *Scheduler) RequestPermission() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.perm == permissionUnknown {
		if s.prompt() {
			s.perm = permissionGranted
		} else {
			s.perm = permissionDenied
			s.log.Info("notification permission denied")
		}
	}
	return s.perm == permissionGranted
}

// ScheduleOneShot schedules a single trigger at the request's absolute
// time and returns an opaque handle.
func (s *Scheduler) ScheduleOneShot(req Request) (string, error) {
	if !s.RequestPermission() {
		return "", ErrPermissionDenied
	}

	handle := uuid.NewString()
	notif := notificationFor(req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[handle] = time.AfterFunc(time.Until(req.At), func() {
		s.mu.Lock()
		delete(s.timers, handle)
		s.mu.Unlock()
		s.deliver(notif)
	})
	return handle, nil
}

// ScheduleRecurring derives a recurrence rule from the request's repeat
// interval and schedules it, returning an opaque handle.
func (s *Scheduler) ScheduleRecurring(req Request) (string, error) {
	if !s.RequestPermission() {
		return "", ErrPermissionDenied
	}
	if req.Repeat == model.RepeatNone || req.Repeat == "" {
		return s.ScheduleOneShot(req)
	}

	spec, err := RecurrenceSpec(req.At, req.Repeat)
	if err != nil {
		return "", err
	}

	handle := uuid.NewString()
	notif := notificationFor(req)

	entryID, err := s.cron.AddFunc(spec, func() {
		s.deliver(notif)
	})
	if err != nil {
		return "", fmt.Errorf("schedule %q: %w", spec, err)
	}

	s.mu.Lock()
	s.entries[handle] = entryID
	s.mu.Unlock()
	return handle, nil
}

// Cancel stops the trigger behind a handle. Unknown or already-fired
// handles are not an error.
func (s *Scheduler) Cancel(handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[handle]; ok {
		t.Stop()
		delete(s.timers, handle)
	}
	if id, ok := s.entries[handle]; ok {
		s.cron.Remove(id)
		delete(s.entries, handle)
	}
}

// CancelAll clears every scheduled notification.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for handle, t := range s.timers {
		t.Stop()
		delete(s.timers, handle)
	}
	for handle, id := range s.entries {
		s.cron.Remove(id)
		delete(s.entries, handle)
	}
}

// Pending returns the number of scheduled notifications.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers) + len(s.entries)
}

// OnReceived registers a listener for fired notifications and returns
// an unsubscribe func.
func (s *Scheduler) OnReceived(l Listener) func() {
	return s.subscribe(s.received, l)
}

// OnTapped registers a listener for tapped notifications and returns an
// unsubscribe func.
func (s *Scheduler) OnTapped(l Listener) func() {
	return s.subscribe(s.tapped, l)
}

// Tap routes a user's interaction with a delivered notification to the
// tapped listeners. The host UI uses the payload's noteId to navigate.
func (s *Scheduler) Tap(n Notification) {
	s.dispatch(s.tapped, n)
}

// Close stops the cron runner and every pending timer.
func (s *Scheduler) Close() {
	s.CancelAll()
	s.cron.Stop()
}

func (s *Scheduler) subscribe(m map[int]Listener, l Listener) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	m[id] = l
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(m, id)
		s.mu.Unlock()
	}
}

func (s *Scheduler) deliver(n Notification) {
	s.log.Info("notification fired",
		zap.String("note_id", n.Data.NoteID),
		zap.String("reminder_id", n.Data.ReminderID),
	)
	s.dispatch(s.received, n)
}

func (s *Scheduler) dispatch(m map[int]Listener, n Notification) {
	s.mu.Lock()
	listeners := make([]Listener, 0, len(m))
	for _, l := range m {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()
	for _, l := range listeners {
		l(n)
	}
}

func notificationFor(req Request) Notification {
	return Notification{
		Title: req.Title,
		Body:  req.Body,
		Data:  Payload{NoteID: req.NoteID, ReminderID: req.ID},
	}
}

// RecurrenceSpec derives the cron expression for a repeating reminder:
// daily fires at the reminder's hour:minute, weekly also pins the
// weekday, monthly also pins the day-of-month. The reminder time is
// converted to server-local time first, since that is the zone the cron
// runner evaluates specs in.
func RecurrenceSpec(at time.Time, repeat model.RepeatInterval) (string, error) {
	at = at.In(time.Local)
	switch repeat {
	case model.RepeatDaily:
		return fmt.Sprintf("%d %d * * *", at.Minute(), at.Hour()), nil
	case model.RepeatWeekly:
		return fmt.Sprintf("%d %d * * %d", at.Minute(), at.Hour(), int(at.Weekday())), nil
	case model.RepeatMonthly:
		return fmt.Sprintf("%d %d %d * *", at.Minute(), at.Hour(), at.Day()), nil
	default:
		return "", fmt.Errorf("no recurrence for repeat %q", repeat)
	}
}
