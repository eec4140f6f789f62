package workers

import (
	"context"
	"log"
	"time"

	"github.com/averel/dayloop/internal/core/domain"
	"github.com/averel/dayloop/internal/core/services"
)

type StreakJob struct {
	UserID string
}

// BestStreakWorker recomputes the persisted best streak in the background
// after day writes and validations. The stat only ever goes up; a job that
// finds nothing to raise writes nothing.
type BestStreakWorker struct {
	repo    domain.TrackerRepository
	catalog domain.HabitCatalog
	jobs    chan StreakJob

	// now is swappable in tests.
	now func() time.Time
}

func NewBestStreakWorker(repo domain.TrackerRepository, catalog domain.HabitCatalog) *BestStreakWorker {
	return &BestStreakWorker{
		repo:    repo,
		catalog: catalog,
		jobs:    make(chan StreakJob, 100),
		now:     time.Now,
	}
}

func (w *BestStreakWorker) Start(ctx context.Context) {
	go func() {
		log.Println("Best Streak Worker started in background...")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				log.Println("Best Streak Worker shutting down...")
				return
			}
		}
	}()
}

func (w *BestStreakWorker) Enqueue(userID string) {
	select {
	case w.jobs <- StreakJob{UserID: userID}:
	default:
		log.Printf("Best Streak Worker queue full! Dropping job for user %s", userID)
	}
}

func (w *BestStreakWorker) processJob(ctx context.Context, job StreakJob) {
	if err := w.Recompute(ctx, job.UserID); err != nil {
		log.Printf("Worker failed to recompute best streak for %s: %v", job.UserID, err)
	}
}

// Recompute runs one best-streak pass synchronously. Exposed so tests and
// admin tooling can drive it without the queue.
func (w *BestStreakWorker) Recompute(ctx context.Context, userID string) error {
	habits, err := w.catalog.ListHabits(ctx, userID)
	if err != nil {
		return err
	}

	store, err := w.repo.Load(ctx, userID)
	if err != nil {
		return err
	}

	current := services.StreakForStore(store, habits, w.now())
	if !store.RaiseBestStreak(current) {
		return nil
	}

	if err := w.repo.Save(ctx, userID, store); err != nil {
		return err
	}

	log.Printf("Best streak updated for user %s: %d", userID, store.Stats.BestStreak)
	return nil
}
