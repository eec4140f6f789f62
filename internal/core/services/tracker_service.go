package services

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"github.com/averel/dayloop/internal/core/domain"
)

const (
	// streakThreshold is the minimum day score for a day to count toward
	// the streak.
	streakThreshold = 70

	// maxStreakScan bounds the backward streak scan. A missing day scores 0
	// and halts the scan anyway, but a user who qualified every single day
	// since installation would otherwise walk an unbounded range.
	maxStreakScan = 3650
)

// WriteStatus reports the outcome of a habit status write. Rejections are
// deliberate no-ops rather than errors: callers may always attempt the
// write without pre-checking editability.
type WriteStatus int

const (
	WriteApplied WriteStatus = iota
	WriteRejectedNotToday
	WriteRejectedValidated
)

func (s WriteStatus) Applied() bool {
	return s == WriteApplied
}

func (s WriteStatus) String() string {
	switch s {
	case WriteApplied:
		return "applied"
	case WriteRejectedNotToday:
		return "rejected: not today"
	case WriteRejectedValidated:
		return "rejected: day validated"
	default:
		return "unknown"
	}
}

// StreakQueue enqueues a best-streak recompute for a user. Implemented by
// workers.BestStreakWorker; nil disables recomputes.
type StreakQueue interface {
	Enqueue(userID string)
}

type TrackerService struct {
	repo   domain.TrackerRepository
	mirror domain.ValidationMirror
	queue  StreakQueue
}

// NewTrackerService builds the tracker core. mirror and queue may be nil:
// a nil mirror skips remote copies, a nil queue skips streak recomputes.
func NewTrackerService(repo domain.TrackerRepository, mirror domain.ValidationMirror, queue StreakQueue) *TrackerService {
	return &TrackerService{
		repo:   repo,
		mirror: mirror,
		queue:  queue,
	}
}

// CanEditDate reports whether date is editable: only today, and only while
// today has not been validated. No other date, past or future, is ever
// editable.
func CanEditDate(store *domain.TrackerStore, today, date time.Time) bool {
	key := domain.DateKey(date)
	if key != domain.DateKey(today) {
		return false
	}
	return !store.IsValidated(key)
}

// DayScore returns the completion percentage of a day record against the
// habit catalog, rounded half-up. An empty catalog scores 0.
func DayScore(habits []domain.Habit, record domain.DayRecord) int {
	if len(habits) == 0 {
		return 0
	}

	done := 0
	for _, h := range habits {
		if record[h.ID] {
			done++
		}
	}

	return int(math.Round(float64(done) / float64(len(habits)) * 100))
}

// StreakForStore computes the current streak in two phases: a backward
// scan from yesterday accumulating consecutive days scoring at or above
// the threshold, then a conditional +1 for today. Today is kept out of the
// backward chain so an incomplete day in progress cannot break an
// otherwise continuing streak.
func StreakForStore(store *domain.TrackerStore, habits []domain.Habit, today time.Time) int {
	streak := 0

	day := today.AddDate(0, 0, -1)
	for i := 0; i < maxStreakScan; i++ {
		if DayScore(habits, store.Record(domain.DateKey(day))) < streakThreshold {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}

	if DayScore(habits, store.Record(domain.DateKey(today))) >= streakThreshold {
		streak++
	}

	return streak
}

// PerfectDaysForStore counts recorded days where every habit in the
// catalog is checked. An empty catalog yields 0 regardless of stored data.
func PerfectDaysForStore(store *domain.TrackerStore, habits []domain.Habit) int {
	if len(habits) == 0 {
		return 0
	}

	count := 0
	for _, record := range store.Days {
		perfect := true
		for _, h := range habits {
			if !record[h.ID] {
				perfect = false
				break
			}
		}
		if perfect {
			count++
		}
	}
	return count
}

type SetHabitStatusInput struct {
	UserID  string
	HabitID string
	Checked bool

	// Date is the day being edited; Today is the current wall-clock date.
	// UI callers pass the same value for both.
	Date  time.Time
	Today time.Time
}

// SetHabitStatus writes one habit completion flag. Writes to any day other
// than an unvalidated today are rejected without touching storage; the
// rejection is reported through the WriteStatus, not an error.
func (s *TrackerService) SetHabitStatus(ctx context.Context, input SetHabitStatusInput) (WriteStatus, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return WriteRejectedNotToday, domain.ErrInvalidUserID
	}

	key := domain.DateKey(input.Date)
	if key != domain.DateKey(input.Today) {
		return WriteRejectedNotToday, nil
	}

	store, err := s.repo.Load(ctx, input.UserID)
	if err != nil {
		return WriteRejectedNotToday, err
	}

	if store.IsValidated(key) {
		return WriteRejectedValidated, nil
	}

	store.SetHabit(key, input.HabitID, input.Checked)

	if err := s.repo.Save(ctx, input.UserID, store); err != nil {
		return WriteRejectedNotToday, err
	}

	if s.queue != nil {
		s.queue.Enqueue(input.UserID)
	}

	return WriteApplied, nil
}

// Record loads the user's store and returns the raw day record for date.
// A day never written returns nil, equivalent to all flags false.
func (s *TrackerService) Record(ctx context.Context, userID string, date time.Time) (domain.DayRecord, error) {
	store, err := s.repo.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return store.Record(domain.DateKey(date)), nil
}

// Score loads the user's store and returns the day score for date.
func (s *TrackerService) Score(ctx context.Context, userID string, habits []domain.Habit, date time.Time) (int, error) {
	store, err := s.repo.Load(ctx, userID)
	if err != nil {
		return 0, err
	}
	return DayScore(habits, store.Record(domain.DateKey(date))), nil
}

// Streak loads the user's store and returns the current streak ending at
// today.
func (s *TrackerService) Streak(ctx context.Context, userID string, habits []domain.Habit, today time.Time) (int, error) {
	store, err := s.repo.Load(ctx, userID)
	if err != nil {
		return 0, err
	}
	return StreakForStore(store, habits, today), nil
}

// PerfectDays loads the user's store and counts 100% days.
func (s *TrackerService) PerfectDays(ctx context.Context, userID string, habits []domain.Habit) (int, error) {
	store, err := s.repo.Load(ctx, userID)
	if err != nil {
		return 0, err
	}
	return PerfectDaysForStore(store, habits), nil
}

// CanEdit loads the user's store and applies the edit-permission rule.
func (s *TrackerService) CanEdit(ctx context.Context, userID string, today, date time.Time) (bool, error) {
	store, err := s.repo.Load(ctx, userID)
	if err != nil {
		return false, err
	}
	return CanEditDate(store, today, date), nil
}

// ValidateDay marks the date as final. Idempotent: an already validated
// day returns true immediately with no further writes and keeps its
// original timestamp. Local persistence is authoritative; the remote
// mirror copy is best-effort and its failure is only logged.
func (s *TrackerService) ValidateDay(ctx context.Context, userID string, date time.Time) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, domain.ErrInvalidUserID
	}

	key := domain.DateKey(date)

	store, err := s.repo.Load(ctx, userID)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	if !store.MarkValidated(key, now) {
		return true, nil
	}

	if err := s.repo.Save(ctx, userID, store); err != nil {
		return false, err
	}

	if s.mirror != nil {
		if err := s.mirror.MirrorValidation(ctx, userID, key, now); err != nil {
			log.Printf("Tracker: remote mirror failed for user %s day %s: %v", userID, key, err)
		}
	}

	if s.queue != nil {
		s.queue.Enqueue(userID)
	}

	return true, nil
}

// IsDayValidated reports whether date has been validated for the user.
func (s *TrackerService) IsDayValidated(ctx context.Context, userID string, date time.Time) (bool, error) {
	return s.IsDateKeyValidated(ctx, userID, domain.DateKey(date))
}

// IsDateKeyValidated reports whether the raw date-key has been validated.
func (s *TrackerService) IsDateKeyValidated(ctx context.Context, userID, dateKey string) (bool, error) {
	store, err := s.repo.Load(ctx, userID)
	if err != nil {
		return false, err
	}
	return store.IsValidated(dateKey), nil
}

// ValidatedDays returns the validated date-keys as stored, in validation
// order, for calendar rendering.
func (s *TrackerService) ValidatedDays(ctx context.Context, userID string) ([]string, error) {
	store, err := s.repo.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return store.ValidatedDays, nil
}
