package profile

import (
	"context"

	domain "profile-service/internal/domain/profile"
)

// RemoteClient talks to the remote profile collection.
type RemoteClient interface {
	// Upsert updates the first record matching username (and email when the client
	// is configured to match on it) or creates a new one.
	Upsert(ctx context.Context, username string, p domain.Profile) (*domain.Profile, error)
	// Remove deletes the record with the given id.
	Remove(ctx context.Context, id string) error
}

// Store holds the current profile in memory.
type Store interface {
	Get() *domain.Profile
	Set(p domain.Profile)
	Clear()
}

// Mirror is the durable shadow of the Store.
type Mirror interface {
	Save(ctx context.Context, p *domain.Profile) error
	Load(ctx context.Context) (*domain.Profile, error) // nil, nil when empty
	Clear(ctx context.Context) error
}
