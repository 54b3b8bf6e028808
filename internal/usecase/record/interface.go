package record

import (
	"context"

	domain "profile-service/internal/domain/profile"
)

// Repository defines data access for stored profile records.
// Lookups of unknown ids return a *pkgerrors.NotFoundError.
type Repository interface {
	Create(ctx context.Context, r *domain.Record) error                 // Insert a new record
	GetByID(ctx context.Context, id string) (*domain.Record, error)     // Retrieve record by ID
	Find(ctx context.Context, f domain.Filter) ([]domain.Record, error) // Exact-match query, oldest first
	Update(ctx context.Context, r *domain.Record) error                 // Replace an existing record
	Delete(ctx context.Context, id string) (*domain.Record, error)      // Delete and return the removed record
}
