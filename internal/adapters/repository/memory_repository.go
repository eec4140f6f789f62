package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/averel/dayloop/internal/core/domain"
)

// InMemoryTrackerRepository keeps tracker documents in a map. Documents
// are stored as JSON so callers get the same copy semantics as the real
// key-value store: mutating a loaded document never leaks into storage
// until Save.
type InMemoryTrackerRepository struct {
	docs map[string][]byte

	mu sync.RWMutex
}

func NewInMemoryTrackerRepository() *InMemoryTrackerRepository {
	return &InMemoryTrackerRepository{
		docs: make(map[string][]byte),
	}
}

func (r *InMemoryTrackerRepository) Load(ctx context.Context, userID string) (*domain.TrackerStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.docs[userID]
	if !ok {
		return domain.NewTrackerStore(), nil
	}

	store := domain.NewTrackerStore()
	if err := json.Unmarshal(data, store); err != nil {
		return nil, err
	}
	return store, nil
}

func (r *InMemoryTrackerRepository) Save(ctx context.Context, userID string, store *domain.TrackerStore) error {
	data, err := json.Marshal(store)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.docs[userID] = data
	return nil
}

// InMemoryHabitCatalog serves a fixed habit list, sufficient for tests and
// single-tenant deployments where the catalog comes from configuration.
type InMemoryHabitCatalog struct {
	habits []domain.Habit

	mu sync.RWMutex
}

func NewInMemoryHabitCatalog(habits []domain.Habit) *InMemoryHabitCatalog {
	return &InMemoryHabitCatalog{habits: habits}
}

func (c *InMemoryHabitCatalog) ListHabits(ctx context.Context, userID string) ([]domain.Habit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Habit, len(c.habits))
	copy(out, c.habits)
	return out, nil
}

func (c *InMemoryHabitCatalog) Replace(habits []domain.Habit) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.habits = make([]domain.Habit, len(habits))
	copy(c.habits, habits)
}

// StaticAdminDirectory answers admin lookups from a fixed uid list,
// for deployments without the backend database.
type StaticAdminDirectory struct {
	uids map[string]bool
}

func NewStaticAdminDirectory(uids []string) *StaticAdminDirectory {
	set := make(map[string]bool, len(uids))
	for _, uid := range uids {
		set[uid] = true
	}
	return &StaticAdminDirectory{uids: set}
}

func (d *StaticAdminDirectory) IsAdmin(ctx context.Context, uid string) (bool, error) {
	return d.uids[uid], nil
}

// InMemoryValidationMirror records mirrored validations for assertions in
// tests.
type InMemoryValidationMirror struct {
	mirrored map[string]time.Time

	failWith error
	mu       sync.Mutex
}

func NewInMemoryValidationMirror() *InMemoryValidationMirror {
	return &InMemoryValidationMirror{
		mirrored: make(map[string]time.Time),
	}
}

func (m *InMemoryValidationMirror) MirrorValidation(ctx context.Context, userID, dateKey string, validatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}

	m.mirrored[userID+"/"+dateKey] = validatedAt
	return nil
}

// FailWith makes every subsequent mirror call return err.
func (m *InMemoryValidationMirror) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// Mirrored returns the timestamp recorded for userID and dateKey, if any.
func (m *InMemoryValidationMirror) Mirrored(userID, dateKey string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	at, ok := m.mirrored[userID+"/"+dateKey]
	return at, ok
}
