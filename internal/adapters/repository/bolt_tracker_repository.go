package repository

import (
	"context"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/averel/dayloop/internal/core/domain"
)

var (
	trackerBucket = []byte("tracker")
	catalogBucket = []byte("catalog")
)

// BoltTrackerRepository persists one JSON tracker document per user inside
// a bbolt file. Every Save replaces the whole document; there are no
// partial updates, matching the single-writer read-modify-write model.
type BoltTrackerRepository struct {
	db *bolt.DB
}

// OpenBolt opens (creating if absent) the database file and the buckets
// the repositories need.
func OpenBolt(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracker database at %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{trackerBucket, catalogBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare tracker buckets: %w", err)
	}

	return db, nil
}

func NewBoltTrackerRepository(db *bolt.DB) *BoltTrackerRepository {
	return &BoltTrackerRepository{db: db}
}

func (r *BoltTrackerRepository) Load(ctx context.Context, userID string) (*domain.TrackerStore, error) {
	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}

	store := domain.NewTrackerStore()

	err := r.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(trackerBucket).Get([]byte(userID))
		if data == nil {
			// No document yet: the default empty store stands in.
			return nil
		}
		return json.Unmarshal(data, store)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load tracker document for %s: %w", userID, err)
	}

	return store, nil
}

func (r *BoltTrackerRepository) Save(ctx context.Context, userID string, store *domain.TrackerStore) error {
	if userID == "" {
		return domain.ErrInvalidUserID
	}

	data, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("failed to encode tracker document for %s: %w", userID, err)
	}

	err = r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(trackerBucket).Put([]byte(userID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save tracker document for %s: %w", userID, err)
	}

	return nil
}

// BoltHabitCatalog stores the per-user habit catalog next to the tracker
// documents. The catalog is owned by the habit pages; the tracker only
// reads it.
type BoltHabitCatalog struct {
	db *bolt.DB
}

func NewBoltHabitCatalog(db *bolt.DB) *BoltHabitCatalog {
	return &BoltHabitCatalog{db: db}
}

func (c *BoltHabitCatalog) ListHabits(ctx context.Context, userID string) ([]domain.Habit, error) {
	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}

	habits := []domain.Habit{}

	err := c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(catalogBucket).Get([]byte(userID))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &habits)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load habit catalog for %s: %w", userID, err)
	}

	return habits, nil
}

func (c *BoltHabitCatalog) SaveHabits(ctx context.Context, userID string, habits []domain.Habit) error {
	if userID == "" {
		return domain.ErrInvalidUserID
	}

	data, err := json.Marshal(habits)
	if err != nil {
		return fmt.Errorf("failed to encode habit catalog for %s: %w", userID, err)
	}

	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(catalogBucket).Put([]byte(userID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save habit catalog for %s: %w", userID, err)
	}

	return nil
}
