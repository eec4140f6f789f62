package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/averel/dayloop/internal/adapters/repository"
	"github.com/averel/dayloop/internal/core/domain"
	"github.com/averel/dayloop/internal/core/services"
)

type MockTrackerRepo struct {
	mock.Mock
}

func (m *MockTrackerRepo) Load(ctx context.Context, userID string) (*domain.TrackerStore, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrackerStore), args.Error(1)
}

func (m *MockTrackerRepo) Save(ctx context.Context, userID string, store *domain.TrackerStore) error {
	args := m.Called(ctx, userID, store)
	return args.Error(0)
}

type recordingQueue struct {
	enqueued []string
}

func (q *recordingQueue) Enqueue(userID string) {
	q.enqueued = append(q.enqueued, userID)
}

var testHabits = []domain.Habit{
	{ID: "water", Name: "Drink Water"},
	{ID: "read", Name: "Read"},
	{ID: "sport", Name: "Sport"},
	{ID: "sleep", Name: "Sleep Early"},
}

func TestDayScore(t *testing.T) {
	tests := []struct {
		name   string
		habits []domain.Habit
		record domain.DayRecord
		want   int
	}{
		{"All done is 100", testHabits, domain.DayRecord{"water": true, "read": true, "sport": true, "sleep": true}, 100},
		{"None done is 0", testHabits, domain.DayRecord{"water": false, "read": false}, 0},
		{"Absent record is 0", testHabits, nil, 0},
		{"Three of four rounds up", testHabits, domain.DayRecord{"water": true, "read": true, "sport": true}, 75},
		{"One of four", testHabits, domain.DayRecord{"water": true}, 25},
		{"One of three rounds half up", testHabits[:3], domain.DayRecord{"water": true}, 33},
		{"Two of three rounds half up", testHabits[:3], domain.DayRecord{"water": true, "read": true}, 67},
		{"Unknown habit ids are ignored", testHabits, domain.DayRecord{"ghost": true}, 0},
		{"Empty catalog is always 0", nil, domain.DayRecord{"water": true}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := services.DayScore(tt.habits, tt.record)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

// checkAll marks n habits of the catalog as done for the day, producing a
// deterministic score.
func checkAll(store *domain.TrackerStore, day time.Time, n int) {
	key := domain.DateKey(day)
	for i := 0; i < n && i < len(testHabits); i++ {
		store.SetHabit(key, testHabits[i].ID, true)
	}
}

func TestStreakForStore(t *testing.T) {
	today := time.Date(2024, 5, 20, 14, 0, 0, 0, time.Local)
	daysAgo := func(n int) time.Time {
		return today.AddDate(0, 0, -n)
	}

	t.Run("Empty store has no streak", func(t *testing.T) {
		store := domain.NewTrackerStore()
		assert.Equal(t, 0, services.StreakForStore(store, testHabits, today))
	})

	t.Run("Today alone counts when above threshold", func(t *testing.T) {
		store := domain.NewTrackerStore()
		checkAll(store, today, 3) // 75 >= 70
		assert.Equal(t, 1, services.StreakForStore(store, testHabits, today))
	})

	t.Run("Incomplete today does not break a running streak", func(t *testing.T) {
		store := domain.NewTrackerStore()
		checkAll(store, daysAgo(2), 4)
		checkAll(store, daysAgo(1), 4)
		checkAll(store, today, 1) // 25 < 70, but yesterday's chain stands
		assert.Equal(t, 2, services.StreakForStore(store, testHabits, today))
	})

	t.Run("Backward chain stops at the first failing day", func(t *testing.T) {
		// D-3 scores 75, D-2 scores 50, D-1 scores 75, today 100:
		// the chain is today + D-1 only, D-3 is never reached.
		store := domain.NewTrackerStore()
		checkAll(store, daysAgo(3), 3)
		checkAll(store, daysAgo(2), 2)
		checkAll(store, daysAgo(1), 3)
		checkAll(store, today, 4)
		assert.Equal(t, 2, services.StreakForStore(store, testHabits, today))
	})

	t.Run("Day with no record halts the scan", func(t *testing.T) {
		store := domain.NewTrackerStore()
		checkAll(store, daysAgo(4), 4)
		checkAll(store, daysAgo(1), 4)
		checkAll(store, today, 4)
		assert.Equal(t, 2, services.StreakForStore(store, testHabits, today))
	})

	t.Run("Exactly at threshold counts", func(t *testing.T) {
		// 3/4 = 75 counts, and 70 itself would too; use a 10-habit catalog
		// to land exactly on the threshold.
		habits := make([]domain.Habit, 10)
		for i := range habits {
			habits[i] = domain.Habit{ID: string(rune('a' + i)), Name: "h"}
		}
		store := domain.NewTrackerStore()
		for i := 0; i < 7; i++ {
			store.SetHabit(domain.DateKey(daysAgo(1)), habits[i].ID, true)
		}
		assert.Equal(t, 1, services.StreakForStore(store, habits, today))
	})

	t.Run("Empty catalog never accumulates", func(t *testing.T) {
		store := domain.NewTrackerStore()
		checkAll(store, daysAgo(1), 4)
		checkAll(store, today, 4)
		assert.Equal(t, 0, services.StreakForStore(store, nil, today))
	})
}

func TestPerfectDaysForStore(t *testing.T) {
	t.Run("Counts only 100 percent days", func(t *testing.T) {
		store := domain.NewTrackerStore()
		checkAll(store, time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local), 4)
		checkAll(store, time.Date(2024, 5, 2, 0, 0, 0, 0, time.Local), 3)
		checkAll(store, time.Date(2024, 5, 3, 0, 0, 0, 0, time.Local), 4)

		assert.Equal(t, 2, services.PerfectDaysForStore(store, testHabits))
	})

	t.Run("Empty catalog yields 0 regardless of data", func(t *testing.T) {
		store := domain.NewTrackerStore()
		checkAll(store, time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local), 4)

		assert.Equal(t, 0, services.PerfectDaysForStore(store, nil))
	})

	t.Run("Empty store yields 0", func(t *testing.T) {
		assert.Equal(t, 0, services.PerfectDaysForStore(domain.NewTrackerStore(), testHabits))
	})
}

func TestCanEditDate(t *testing.T) {
	today := time.Date(2024, 5, 20, 9, 0, 0, 0, time.Local)
	store := domain.NewTrackerStore()

	assert.True(t, services.CanEditDate(store, today, today))
	assert.True(t, services.CanEditDate(store, today, today.Add(4*time.Hour)), "same calendar day, different time")

	assert.False(t, services.CanEditDate(store, today, today.AddDate(0, 0, -1)), "yesterday is frozen")
	assert.False(t, services.CanEditDate(store, today, today.AddDate(0, 0, 1)), "tomorrow is not open yet")

	store.MarkValidated(domain.DateKey(today), time.Now())
	assert.False(t, services.CanEditDate(store, today, today), "validated today is frozen")
}

func TestTrackerService_SetHabitStatus(t *testing.T) {
	ctx := context.Background()
	userID := "user-1"
	today := time.Date(2024, 5, 20, 9, 0, 0, 0, time.Local)

	t.Run("Success: applies the write and enqueues a recompute", func(t *testing.T) {
		repo := repository.NewInMemoryTrackerRepository()
		queue := &recordingQueue{}
		svc := services.NewTrackerService(repo, nil, queue)

		status, err := svc.SetHabitStatus(ctx, services.SetHabitStatusInput{
			UserID: userID, HabitID: "water", Checked: true, Date: today, Today: today,
		})

		require.NoError(t, err)
		assert.Equal(t, services.WriteApplied, status)
		assert.True(t, status.Applied())
		assert.Equal(t, []string{userID}, queue.enqueued)

		store, err := repo.Load(ctx, userID)
		require.NoError(t, err)
		assert.True(t, store.Record(domain.DateKey(today))["water"])
	})

	t.Run("Rejected: past date is a silent no-op", func(t *testing.T) {
		repo := repository.NewInMemoryTrackerRepository()
		svc := services.NewTrackerService(repo, nil, nil)

		status, err := svc.SetHabitStatus(ctx, services.SetHabitStatusInput{
			UserID: userID, HabitID: "water", Checked: true,
			Date: today.AddDate(0, 0, -1), Today: today,
		})

		require.NoError(t, err)
		assert.Equal(t, services.WriteRejectedNotToday, status)
		assert.False(t, status.Applied())

		store, err := repo.Load(ctx, userID)
		require.NoError(t, err)
		assert.Nil(t, store.Record(domain.DateKey(today.AddDate(0, 0, -1))))
	})

	t.Run("Rejected: validated today is immutable", func(t *testing.T) {
		repo := repository.NewInMemoryTrackerRepository()
		svc := services.NewTrackerService(repo, nil, nil)

		_, err := svc.ValidateDay(ctx, userID, today)
		require.NoError(t, err)

		status, err := svc.SetHabitStatus(ctx, services.SetHabitStatusInput{
			UserID: userID, HabitID: "water", Checked: true, Date: today, Today: today,
		})

		require.NoError(t, err)
		assert.Equal(t, services.WriteRejectedValidated, status)
	})

	t.Run("Rejected: validated day stays frozen on later days too", func(t *testing.T) {
		repo := repository.NewInMemoryTrackerRepository()
		svc := services.NewTrackerService(repo, nil, nil)

		_, err := svc.ValidateDay(ctx, userID, today)
		require.NoError(t, err)

		nextWeek := today.AddDate(0, 0, 7)
		status, err := svc.SetHabitStatus(ctx, services.SetHabitStatusInput{
			UserID: userID, HabitID: "water", Checked: true, Date: today, Today: nextWeek,
		})

		require.NoError(t, err)
		assert.Equal(t, services.WriteRejectedNotToday, status)

		editable, err := svc.CanEdit(ctx, userID, nextWeek, today)
		require.NoError(t, err)
		assert.False(t, editable)
	})

	t.Run("Rejected write never touches storage", func(t *testing.T) {
		repo := new(MockTrackerRepo)
		svc := services.NewTrackerService(repo, nil, nil)

		// Not-today short-circuits before Load; no expectations are set,
		// so any repo call would fail the test.
		status, err := svc.SetHabitStatus(ctx, services.SetHabitStatusInput{
			UserID: userID, HabitID: "water", Checked: true,
			Date: today.AddDate(0, 0, 1), Today: today,
		})

		require.NoError(t, err)
		assert.Equal(t, services.WriteRejectedNotToday, status)
		repo.AssertExpectations(t)
	})

	t.Run("Fail: save error propagates", func(t *testing.T) {
		repo := new(MockTrackerRepo)
		svc := services.NewTrackerService(repo, nil, nil)

		dbErr := errors.New("disk full")
		repo.On("Load", ctx, userID).Return(domain.NewTrackerStore(), nil)
		repo.On("Save", ctx, userID, mock.Anything).Return(dbErr)

		_, err := svc.SetHabitStatus(ctx, services.SetHabitStatusInput{
			UserID: userID, HabitID: "water", Checked: true, Date: today, Today: today,
		})

		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("Fail: empty user id", func(t *testing.T) {
		svc := services.NewTrackerService(repository.NewInMemoryTrackerRepository(), nil, nil)

		_, err := svc.SetHabitStatus(ctx, services.SetHabitStatusInput{
			UserID: "  ", HabitID: "water", Checked: true, Date: today, Today: today,
		})

		assert.ErrorIs(t, err, domain.ErrInvalidUserID)
	})
}

func TestTrackerService_ValidateDay(t *testing.T) {
	ctx := context.Background()
	userID := "user-1"
	day := time.Date(2024, 5, 20, 22, 0, 0, 0, time.Local)
	dateKey := domain.DateKey(day)

	t.Run("Success: validates, persists and mirrors", func(t *testing.T) {
		repo := repository.NewInMemoryTrackerRepository()
		mirror := repository.NewInMemoryValidationMirror()
		queue := &recordingQueue{}
		svc := services.NewTrackerService(repo, mirror, queue)

		ok, err := svc.ValidateDay(ctx, userID, day)
		require.NoError(t, err)
		assert.True(t, ok)

		store, err := repo.Load(ctx, userID)
		require.NoError(t, err)
		assert.True(t, store.IsValidated(dateKey))
		assert.False(t, store.ValidationTimestamps[dateKey].IsZero())

		_, mirrored := mirror.Mirrored(userID, dateKey)
		assert.True(t, mirrored)
		assert.Equal(t, []string{userID}, queue.enqueued)
	})

	t.Run("Success: idempotent, first timestamp wins", func(t *testing.T) {
		repo := repository.NewInMemoryTrackerRepository()
		svc := services.NewTrackerService(repo, nil, nil)

		ok, err := svc.ValidateDay(ctx, userID, day)
		require.NoError(t, err)
		require.True(t, ok)

		store, err := repo.Load(ctx, userID)
		require.NoError(t, err)
		first := store.ValidationTimestamps[dateKey]

		ok, err = svc.ValidateDay(ctx, userID, day)
		require.NoError(t, err)
		assert.True(t, ok)

		store, err = repo.Load(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, []string{dateKey}, store.ValidatedDays)
		assert.Equal(t, first, store.ValidationTimestamps[dateKey])
	})

	t.Run("Success: second call performs no writes", func(t *testing.T) {
		repo := new(MockTrackerRepo)
		svc := services.NewTrackerService(repo, nil, nil)

		validated := domain.NewTrackerStore()
		validated.MarkValidated(dateKey, time.Now().UTC())

		// Only Load is expected; a Save would fail the mock.
		repo.On("Load", ctx, userID).Return(validated, nil)

		ok, err := svc.ValidateDay(ctx, userID, day)
		require.NoError(t, err)
		assert.True(t, ok)
		repo.AssertExpectations(t)
	})

	t.Run("Success: mirror failure is swallowed, local commit stands", func(t *testing.T) {
		repo := repository.NewInMemoryTrackerRepository()
		mirror := repository.NewInMemoryValidationMirror()
		mirror.FailWith(errors.New("remote unreachable"))
		svc := services.NewTrackerService(repo, mirror, nil)

		ok, err := svc.ValidateDay(ctx, userID, day)
		require.NoError(t, err)
		assert.True(t, ok)

		store, err := repo.Load(ctx, userID)
		require.NoError(t, err)
		assert.True(t, store.IsValidated(dateKey), "local validation must not roll back")

		_, mirrored := mirror.Mirrored(userID, dateKey)
		assert.False(t, mirrored)
	})

	t.Run("Fail: local save error propagates", func(t *testing.T) {
		repo := new(MockTrackerRepo)
		svc := services.NewTrackerService(repo, nil, nil)

		dbErr := errors.New("storage quota exceeded")
		repo.On("Load", ctx, userID).Return(domain.NewTrackerStore(), nil)
		repo.On("Save", ctx, userID, mock.Anything).Return(dbErr)

		ok, err := svc.ValidateDay(ctx, userID, day)
		assert.ErrorIs(t, err, dbErr)
		assert.False(t, ok)
	})

	t.Run("Fail: empty user id", func(t *testing.T) {
		svc := services.NewTrackerService(repository.NewInMemoryTrackerRepository(), nil, nil)

		_, err := svc.ValidateDay(ctx, "", day)
		assert.ErrorIs(t, err, domain.ErrInvalidUserID)
	})
}

func TestTrackerService_Queries(t *testing.T) {
	ctx := context.Background()
	userID := "user-1"
	today := time.Date(2024, 5, 20, 9, 0, 0, 0, time.Local)

	repo := repository.NewInMemoryTrackerRepository()
	svc := services.NewTrackerService(repo, nil, nil)

	store := domain.NewTrackerStore()
	checkAll(store, today, 3)
	require.NoError(t, repo.Save(ctx, userID, store))

	_, err := svc.ValidateDay(ctx, userID, today)
	require.NoError(t, err)

	t.Run("Score", func(t *testing.T) {
		score, err := svc.Score(ctx, userID, testHabits, today)
		require.NoError(t, err)
		assert.Equal(t, 75, score)
	})

	t.Run("IsDayValidated and IsDateKeyValidated agree", func(t *testing.T) {
		byDate, err := svc.IsDayValidated(ctx, userID, today)
		require.NoError(t, err)
		byKey, err := svc.IsDateKeyValidated(ctx, userID, domain.DateKey(today))
		require.NoError(t, err)
		assert.True(t, byDate)
		assert.Equal(t, byDate, byKey)
	})

	t.Run("ValidatedDays returns the stored sequence", func(t *testing.T) {
		days, err := svc.ValidatedDays(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, []string{domain.DateKey(today)}, days)
	})

	t.Run("Record for an unwritten day is nil", func(t *testing.T) {
		record, err := svc.Record(ctx, userID, today.AddDate(0, 0, -30))
		require.NoError(t, err)
		assert.Nil(t, record)
	})
}
