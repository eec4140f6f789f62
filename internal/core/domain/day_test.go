package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averel/dayloop/internal/core/domain"
)

func TestDateKey(t *testing.T) {
	t.Run("Success: zero-pads month and day", func(t *testing.T) {
		d := time.Date(2024, 3, 7, 15, 30, 0, 0, time.Local)
		assert.Equal(t, "2024-03-07", domain.DateKey(d))
	})

	t.Run("Success: distinct dates produce distinct keys", func(t *testing.T) {
		seen := make(map[string]bool)
		d := time.Date(2023, 12, 25, 0, 0, 0, 0, time.Local)
		for i := 0; i < 450; i++ {
			key := domain.DateKey(d)
			assert.False(t, seen[key], "duplicate key %s", key)
			seen[key] = true
			d = d.AddDate(0, 0, 1)
		}
	})

	t.Run("Success: uses wall-clock date, not UTC", func(t *testing.T) {
		loc := time.FixedZone("UTC+12", 12*3600)
		// 23:30 local is already the next day in UTC-land's past; the key
		// must follow the local calendar.
		d := time.Date(2024, 6, 1, 23, 30, 0, 0, loc)
		assert.Equal(t, "2024-06-01", domain.DateKey(d))
		assert.Equal(t, "2024-06-01", domain.DateKey(d.In(loc)))
	})

	t.Run("Success: round-trips through ParseDateKey", func(t *testing.T) {
		parsed, err := domain.ParseDateKey("2024-02-29")
		require.NoError(t, err)
		assert.Equal(t, "2024-02-29", domain.DateKey(parsed))
	})

	t.Run("Fail: malformed key rejected", func(t *testing.T) {
		_, err := domain.ParseDateKey("2024-2-9")
		assert.Error(t, err)
	})
}

func TestTrackerStore_SetHabit(t *testing.T) {
	t.Run("Success: lazily creates the day record", func(t *testing.T) {
		store := domain.NewTrackerStore()

		require.Nil(t, store.Record("2024-01-10"))

		store.SetHabit("2024-01-10", "water", true)

		record := store.Record("2024-01-10")
		require.NotNil(t, record)
		assert.True(t, record["water"])
		assert.Equal(t, 1, record.CompletedCount())
	})

	t.Run("Success: unchecking keeps the record around", func(t *testing.T) {
		store := domain.NewTrackerStore()
		store.SetHabit("2024-01-10", "water", true)
		store.SetHabit("2024-01-10", "water", false)

		record := store.Record("2024-01-10")
		require.NotNil(t, record)
		assert.False(t, record["water"])
		assert.Equal(t, 0, record.CompletedCount())
	})

	t.Run("Edge Case: survives a zero-value document", func(t *testing.T) {
		var store domain.TrackerStore
		store.SetHabit("2024-01-10", "water", true)
		assert.True(t, store.Record("2024-01-10")["water"])
	})
}

func TestTrackerStore_MarkValidated(t *testing.T) {
	at := time.Date(2024, 1, 10, 21, 4, 5, 0, time.UTC)

	t.Run("Success: records key and timestamp once", func(t *testing.T) {
		store := domain.NewTrackerStore()

		assert.True(t, store.MarkValidated("2024-01-10", at))
		assert.True(t, store.IsValidated("2024-01-10"))
		assert.Equal(t, []string{"2024-01-10"}, store.ValidatedDays)
		assert.Equal(t, at, store.ValidationTimestamps["2024-01-10"])
	})

	t.Run("Success: second call is a no-op keeping the first timestamp", func(t *testing.T) {
		store := domain.NewTrackerStore()
		require.True(t, store.MarkValidated("2024-01-10", at))

		later := at.Add(48 * time.Hour)
		assert.False(t, store.MarkValidated("2024-01-10", later))

		assert.Equal(t, []string{"2024-01-10"}, store.ValidatedDays)
		assert.Equal(t, at, store.ValidationTimestamps["2024-01-10"])
	})

	t.Run("Edge Case: membership is duplicate-insensitive", func(t *testing.T) {
		// Old documents may carry duplicated entries; lookups must still work.
		store := domain.NewTrackerStore()
		store.ValidatedDays = []string{"2024-01-10", "2024-01-10"}

		assert.True(t, store.IsValidated("2024-01-10"))
		assert.False(t, store.MarkValidated("2024-01-10", at))
		assert.Len(t, store.ValidatedDays, 2)
	})
}

func TestTrackerStore_RaiseBestStreak(t *testing.T) {
	store := domain.NewTrackerStore()

	assert.True(t, store.RaiseBestStreak(5))
	assert.Equal(t, 5, store.Stats.BestStreak)

	assert.False(t, store.RaiseBestStreak(3))
	assert.False(t, store.RaiseBestStreak(5))
	assert.Equal(t, 5, store.Stats.BestStreak)

	assert.True(t, store.RaiseBestStreak(6))
	assert.Equal(t, 6, store.Stats.BestStreak)
}

func TestTrackerStore_JSONShape(t *testing.T) {
	store := domain.NewTrackerStore()
	store.SetHabit("2024-01-10", "water", true)
	store.MarkValidated("2024-01-10", time.Date(2024, 1, 10, 21, 0, 0, 0, time.UTC))

	data, err := json.Marshal(store)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"days": {"2024-01-10": {"water": true}},
		"stats": {"bestStreak": 0},
		"validatedDays": ["2024-01-10"],
		"validationTimestamps": {"2024-01-10": "2024-01-10T21:00:00Z"}
	}`, string(data))

	var decoded domain.TrackerStore
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.IsValidated("2024-01-10"))
	assert.True(t, decoded.Record("2024-01-10")["water"])
}
