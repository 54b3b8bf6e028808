package profile

import (
	"context"
	"sync"

	"go.uber.org/zap"

	domain "profile-service/internal/domain/profile"
	pkgerrors "profile-service/pkg/errors"
	"profile-service/pkg/logger"
)

// Notices shown after a successful save.
const (
	NoticeCreated = "Profile created successfully"
	NoticeUpdated = "Profile updated successfully"
)

var (
	// ErrBusy is returned while another save or delete is in flight.
	ErrBusy = pkgerrors.NewConflictError("profile", "Another operation is in progress")
	// ErrNoProfile is returned when the store holds no profile.
	ErrNoProfile = pkgerrors.NewNotFoundError("profile", "No profile found")
	// ErrNoProfileID is returned when a delete is requested for a profile the
	// remote store never assigned an id to.
	ErrNoProfileID = pkgerrors.NewValidationError("id", "No user ID found to delete.")
)

// Usecase implements the profile form, detail, delete and logout flows.
// Store mutations and mirror writes are separate steps: every flow mutates the
// store first and then calls Persist.
type Usecase struct {
	remote    RemoteClient
	store     Store
	mirror    Mirror
	validator *FormValidator
	log       *zap.Logger
	inflight  sync.Mutex // held for the duration of a save or delete
}

// New creates a new Usecase.
func New(remote RemoteClient, store Store, mirror Mirror, validator *FormValidator, log *zap.Logger) *Usecase {
	return &Usecase{
		remote:    remote,
		store:     store,
		mirror:    mirror,
		validator: validator,
		log:       log,
	}
}

// Current returns the profile held by the store.
func (uc *Usecase) Current() (*domain.Profile, error) {
	p := uc.store.Get()
	if p == nil {
		return nil, ErrNoProfile
	}
	return p, nil
}

// Submit validates the form, upserts it remotely using the submitted name as the
// username, then replaces the stored profile with the remote result and persists it.
func (uc *Usecase) Submit(ctx context.Context, in FormInput) (*SubmitResponse, error) {
	if !uc.inflight.TryLock() {
		uc.log.Warn("submit rejected, operation in flight")
		return nil, ErrBusy
	}
	defer uc.inflight.Unlock()

	log := logger.WithContext(ctx, uc.log)
	log.Info("submitting profile", zap.String("name", in.Name), zap.String("email", in.Email))

	payload, err := uc.validator.Validate(in)
	if err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, err
	}

	created := uc.store.Get() == nil

	saved, err := uc.remote.Upsert(ctx, in.Name, *payload)
	if err != nil {
		log.Error("failed to save profile", zap.Error(err))
		return nil, err
	}

	uc.store.Set(*saved)
	if err := uc.Persist(ctx); err != nil {
		log.Warn("failed to mirror profile", zap.String("id", saved.ID), zap.Error(err))
	}

	notice := NoticeUpdated
	if created {
		notice = NoticeCreated
	}
	log.Info("profile saved", zap.String("id", saved.ID), zap.Bool("created", created))

	return &SubmitResponse{Profile: saved.Clone(), Created: created, Notice: notice}, nil
}

// Logout drops the current profile locally. The remote record is left untouched.
func (uc *Usecase) Logout(ctx context.Context) {
	uc.store.Clear()
	if err := uc.Persist(ctx); err != nil {
		logger.WithContext(ctx, uc.log).Warn("failed to clear mirror on logout", zap.Error(err))
	}
	uc.log.Info("logged out")
}

// Persist writes the store's current value to the mirror, clearing the mirror
// when the store is empty.
func (uc *Usecase) Persist(ctx context.Context) error {
	p := uc.store.Get()
	if p == nil {
		return uc.mirror.Clear(ctx)
	}
	return uc.mirror.Save(ctx, p)
}

// Restore loads the mirrored profile into the store. Used once at startup.
func (uc *Usecase) Restore(ctx context.Context) error {
	p, err := uc.mirror.Load(ctx)
	if err != nil {
		return pkgerrors.NewInternalError("failed to restore profile", err)
	}
	if p == nil {
		uc.store.Clear()
		uc.log.Info("no mirrored profile to restore")
		return nil
	}
	uc.store.Set(*p)
	uc.log.Info("profile restored from mirror", zap.String("id", p.ID), zap.String("name", p.Name))
	return nil
}
