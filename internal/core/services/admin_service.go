package services

import (
	"context"
	"log"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/averel/dayloop/internal/core/domain"
)

// AdminService answers admin-status checks through an explicit TTL cache
// in front of the directory lookup. The cache is owned here, not a module
// level ambient, and single entries can be invalidated when a grant
// changes.
type AdminService struct {
	directory domain.AdminDirectory
	cache     *gocache.Cache
}

func NewAdminService(directory domain.AdminDirectory, ttl time.Duration) *AdminService {
	return &AdminService{
		directory: directory,
		cache:     gocache.New(ttl, 2*ttl),
	}
}

// IsAdmin reports whether uid is an administrator, serving from the cache
// when a fresh entry exists. Directory failures are not cached.
func (s *AdminService) IsAdmin(ctx context.Context, uid string) (bool, error) {
	if cached, found := s.cache.Get(uid); found {
		if isAdmin, ok := cached.(bool); ok {
			return isAdmin, nil
		}
		log.Printf("[ADMIN CACHE] Corrupted entry for uid %s, cleaning up", uid)
		s.cache.Delete(uid)
	}

	isAdmin, err := s.directory.IsAdmin(ctx, uid)
	if err != nil {
		return false, err
	}

	s.cache.SetDefault(uid, isAdmin)
	return isAdmin, nil
}

// Invalidate drops the cached status for a single uid, forcing the next
// check back to the directory.
func (s *AdminService) Invalidate(uid string) {
	s.cache.Delete(uid)
}
