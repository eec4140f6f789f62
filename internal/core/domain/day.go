package domain

import (
	"time"
)

const dateKeyLayout = "2006-01-02"

// DateKey returns the canonical YYYY-MM-DD key for t, derived from the
// wall-clock date in t's location (not UTC). Every day-level lookup goes
// through this function so two call sites can never disagree on which
// calendar day they are talking about.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// ParseDateKey parses a canonical YYYY-MM-DD key back into a date.
func ParseDateKey(key string) (time.Time, error) {
	return time.Parse(dateKeyLayout, key)
}

// DayRecord maps habit ids to their completion flag for a single day.
// An absent record is equivalent to all flags false.
type DayRecord map[string]bool

// CompletedCount returns how many flags in the record are set.
func (r DayRecord) CompletedCount() int {
	count := 0
	for _, done := range r {
		if done {
			count++
		}
	}
	return count
}

type TrackerStats struct {
	BestStreak int `json:"bestStreak"`
}

// TrackerStore is the single persisted tracker document for one user.
// ValidatedDays is stored as an ordered sequence but is semantically a
// set: membership checks must tolerate duplicates in old documents.
type TrackerStore struct {
	Days                 map[string]DayRecord `json:"days"`
	Stats                TrackerStats         `json:"stats"`
	ValidatedDays        []string             `json:"validatedDays,omitempty"`
	ValidationTimestamps map[string]time.Time `json:"validationTimestamps,omitempty"`
}

// NewTrackerStore returns the default empty document a user starts with.
func NewTrackerStore() *TrackerStore {
	return &TrackerStore{
		Days:  make(map[string]DayRecord),
		Stats: TrackerStats{BestStreak: 0},
	}
}

// Record returns the day record for the given date-key, or nil when the
// day has never been written.
func (s *TrackerStore) Record(dateKey string) DayRecord {
	return s.Days[dateKey]
}

// SetHabit sets the completion flag for one habit on one day, lazily
// creating the day record on first write.
func (s *TrackerStore) SetHabit(dateKey, habitID string, checked bool) {
	if s.Days == nil {
		s.Days = make(map[string]DayRecord)
	}
	record, ok := s.Days[dateKey]
	if !ok {
		record = make(DayRecord)
		s.Days[dateKey] = record
	}
	record[habitID] = checked
}

// IsValidated reports whether the date-key has been marked final.
func (s *TrackerStore) IsValidated(dateKey string) bool {
	for _, day := range s.ValidatedDays {
		if day == dateKey {
			return true
		}
	}
	return false
}

// MarkValidated marks the date-key as final. It is idempotent: a key that
// is already validated is left untouched, keeping its original timestamp,
// and false is returned to signal that nothing changed.
func (s *TrackerStore) MarkValidated(dateKey string, at time.Time) bool {
	if s.IsValidated(dateKey) {
		return false
	}

	s.ValidatedDays = append(s.ValidatedDays, dateKey)

	if s.ValidationTimestamps == nil {
		s.ValidationTimestamps = make(map[string]time.Time)
	}
	s.ValidationTimestamps[dateKey] = at.UTC()

	return true
}

// RaiseBestStreak lifts the stored best streak to n when n is higher.
// The stat is monotone: it never goes back down.
func (s *TrackerStore) RaiseBestStreak(n int) bool {
	if n <= s.Stats.BestStreak {
		return false
	}
	s.Stats.BestStreak = n
	return true
}
