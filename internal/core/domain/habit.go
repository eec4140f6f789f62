package domain

import (
	"errors"
	"strings"
)

var (
	ErrHabitIDEmpty     = errors.New("habit id cannot be empty")
	ErrHabitNameEmpty   = errors.New("habit name cannot be empty")
	ErrHabitNameTooLong = errors.New("habit name is too long (max 100 chars)")
)

const MaxHabitNameLen = 100

// Habit is one entry of the externally owned habit catalog. The tracker
// treats the catalog as read-only input for score computation.
type Habit struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

func NewHabit(id, name, icon string) (Habit, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Habit{}, ErrHabitIDEmpty
	}

	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return Habit{}, ErrHabitNameEmpty
	}
	if len(trimmedName) > MaxHabitNameLen {
		return Habit{}, ErrHabitNameTooLong
	}

	return Habit{
		ID:   id,
		Name: trimmedName,
		Icon: strings.TrimSpace(icon),
	}, nil
}
