package cached

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"profile-service/internal/adapter/cache"
	domain "profile-service/internal/domain/profile"
	"profile-service/internal/usecase/record"
)

// CachedRecordRepository implements record.Repository with caching support.
// It wraps a persistent repository (DB) and a cache implementation.
type CachedRecordRepository struct {
	dbRepo record.Repository
	cache  cache.RecordCache
	log    *zap.Logger
	group  singleflight.Group
}

// NewCachedRecordRepository creates a new instance of CachedRecordRepository.
// A nil cache disables caching.
func NewCachedRecordRepository(dbRepo record.Repository, c cache.RecordCache, log *zap.Logger) *CachedRecordRepository {
	return &CachedRecordRepository{
		dbRepo: dbRepo,
		cache:  c,
		log:    log,
	}
}

// Create delegates to the DB repository.
func (r *CachedRecordRepository) Create(ctx context.Context, rec *domain.Record) error {
	return r.dbRepo.Create(ctx, rec)
}

// GetByID retrieves a record by ID using Cache-Aside pattern.
func (r *CachedRecordRepository) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, id)
		if err != nil {
			r.log.Warn("cache get error, falling back to database", zap.String("id", id), zap.Error(err))
		} else if cached != nil {
			r.log.Debug("profile retrieved from cache", zap.String("id", id))
			return cached, nil
		}
	}

	// Cache miss or cache disabled - use single-flight to prevent stampede
	result, err, _ := r.group.Do(cache.CacheKey(id), func() (any, error) {
		// Another caller may have filled the cache while we waited
		if r.cache != nil {
			cached, err := r.cache.Get(ctx, id)
			if err == nil && cached != nil {
				r.log.Debug("profile retrieved from cache after single-flight wait", zap.String("id", id))
				return cached, nil
			}
		}

		rec, err := r.dbRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if r.cache != nil {
			if err := r.cache.Set(ctx, rec); err != nil {
				r.log.Warn("failed to cache profile", zap.String("id", id), zap.Error(err))
			}
		}

		return rec, nil
	})
	if err != nil {
		return nil, err
	}

	// Shared results must not be mutated by callers
	out := *result.(*domain.Record)
	return &out, nil
}

// Find delegates to the DB repository. Query results are not cached.
func (r *CachedRecordRepository) Find(ctx context.Context, f domain.Filter) ([]domain.Record, error) {
	return r.dbRepo.Find(ctx, f)
}

// Update updates the record in DB and invalidates the cache.
func (r *CachedRecordRepository) Update(ctx context.Context, rec *domain.Record) error {
	if err := r.dbRepo.Update(ctx, rec); err != nil {
		return err
	}
	r.invalidate(ctx, rec.ID, "update")
	return nil
}

// Delete deletes the record from DB and invalidates the cache.
func (r *CachedRecordRepository) Delete(ctx context.Context, id string) (*domain.Record, error) {
	deleted, err := r.dbRepo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, id, "delete")
	return deleted, nil
}

func (r *CachedRecordRepository) invalidate(ctx context.Context, id, op string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, id); err != nil {
		r.log.Warn("failed to invalidate cache after "+op, zap.String("id", id), zap.Error(err))
	}
}
