package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidUserID  = errors.New("invalid user id")
	ErrInvalidDateKey = errors.New("invalid date key (must be YYYY-MM-DD)")
)

type TrackerRepository interface {
	// Load retrieves the full tracker document for a user. A user with no
	// stored document gets the default empty store, never an error.
	Load(ctx context.Context, userID string) (*TrackerStore, error)

	// Save overwrites the full tracker document for a user. There are no
	// partial updates: every write is a whole-document replace.
	Save(ctx context.Context, userID string, store *TrackerStore) error
}

type ValidationMirror interface {
	// MirrorValidation copies a day validation to the remote document
	// store, one document per user and date-key. The local store stays the
	// source of truth: callers treat any failure here as advisory only.
	MirrorValidation(ctx context.Context, userID, dateKey string, validatedAt time.Time) error
}

type HabitCatalog interface {
	// ListHabits returns the user's habit catalog in display order.
	ListHabits(ctx context.Context, userID string) ([]Habit, error)
}

type AdminDirectory interface {
	// IsAdmin reports whether the uid belongs to an administrator.
	IsAdmin(ctx context.Context, uid string) (bool, error)
}
