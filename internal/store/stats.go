package store

import (
	"fmt"
	"sort"
	"time"
	"unicode/utf8"
)

// Period selects the bucketing granularity for usage statistics.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// StatPoint is one bucket of the usage chart: how many notes were
// created in the bucket and how many characters of content they hold.
type StatPoint struct {
	Label string `json:"label"`
	Count int    `json:"count"`
	Chars int    `json:"chars"`
}

// Stats buckets notes by creation time: day keeps the last 7 days keyed
// by date, week the last 4 weeks keyed by week-of-month, month the last
// 6 months keyed by month name. Buckets come back sorted by label.
func (s *Store) Stats(period Period) ([]StatPoint, error) {
	return s.statsAt(period, time.Now())
}

func (s *Store) statsAt(period Period, now time.Time) ([]StatPoint, error) {
	switch period {
	case PeriodDay, PeriodWeek, PeriodMonth:
	default:
		return nil, fmt.Errorf("unknown stats period %q", period)
	}

	s.mu.RLock()
	buckets := make(map[string]*StatPoint)
	for i := range s.notes {
		n := &s.notes[i]
		label, ok := bucketLabel(period, n.CreatedAt, now)
		if !ok {
			continue
		}
		p := buckets[label]
		if p == nil {
			p = &StatPoint{Label: label}
			buckets[label] = p
		}
		p.Count++
		p.Chars += utf8.RuneCountInString(n.Content)
	}
	s.mu.RUnlock()

	out := make([]StatPoint, 0, len(buckets))
	for _, p := range buckets {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func bucketLabel(period Period, createdAt, now time.Time) (string, bool) {
	age := now.Sub(createdAt)
	if age < 0 {
		age = -age
	}

	switch period {
	case PeriodDay:
		if age > 7*24*time.Hour {
			return "", false
		}
		return createdAt.Format("2006-01-02"), true
	case PeriodWeek:
		if age > 4*7*24*time.Hour {
			return "", false
		}
		return fmt.Sprintf("Week %d", weekOfMonth(createdAt)), true
	default: // PeriodMonth
		if age > 6*30*24*time.Hour {
			return "", false
		}
		return createdAt.Format("Jan 2006"), true
	}
}

// weekOfMonth numbers weeks the way a wall calendar does: the partial
// week containing the 1st counts as week one.
func weekOfMonth(t time.Time) int {
	firstWeekday := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).Weekday()
	return (t.Day()+int(firstWeekday)-1)/7 + 1
}
