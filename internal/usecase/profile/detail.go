package profile

import (
	"context"

	"go.uber.org/zap"

	domain "profile-service/internal/domain/profile"
	pkgerrors "profile-service/pkg/errors"
	"profile-service/pkg/logger"
)

// DetailState is the state of the profile detail view.
type DetailState string

const (
	StateNoProfile     DetailState = "no-profile"
	StateHasProfile    DetailState = "has-profile"
	StateConfirmDelete DetailState = "confirm-delete"
	StateError         DetailState = "error"
)

// DetailView is what the detail page renders.
type DetailView struct {
	State   DetailState
	Profile *domain.Profile
	Message string // set in StateError
}

// Detail returns the resting state of the detail view.
func (uc *Usecase) Detail() DetailView {
	p := uc.store.Get()
	if p == nil {
		return DetailView{State: StateNoProfile}
	}
	return DetailView{State: StateHasProfile, Profile: p}
}

// RequestDelete moves to the confirmation state, or to the error state when the
// profile has no remote id. It never calls the remote store.
func (uc *Usecase) RequestDelete() DetailView {
	p := uc.store.Get()
	if p == nil {
		return DetailView{State: StateNoProfile}
	}
	if !p.HasID() {
		return DetailView{State: StateError, Profile: p, Message: ErrNoProfileID.Message}
	}
	return DetailView{State: StateConfirmDelete, Profile: p}
}

// ConfirmDelete removes the profile remotely and, on success, clears the store and
// the mirror. On failure the profile is kept and the error state is returned along
// with the error.
func (uc *Usecase) ConfirmDelete(ctx context.Context) (DetailView, error) {
	if !uc.inflight.TryLock() {
		return uc.errorView(ErrBusy.Message), ErrBusy
	}
	defer uc.inflight.Unlock()

	p := uc.store.Get()
	if p == nil {
		return DetailView{State: StateNoProfile}, ErrNoProfile
	}
	if !p.HasID() {
		return DetailView{State: StateError, Profile: p, Message: ErrNoProfileID.Message}, ErrNoProfileID
	}

	ctx = logger.WithProfileID(ctx, p.ID)
	log := logger.WithContext(ctx, uc.log)
	log.Info("deleting profile")

	if err := uc.remote.Remove(ctx, p.ID); err != nil {
		log.Error("failed to delete profile", zap.Error(err))
		return DetailView{State: StateError, Profile: p, Message: pkgerrors.UserMessage(err)}, err
	}

	uc.store.Clear()
	if err := uc.Persist(ctx); err != nil {
		log.Warn("failed to clear mirror after delete", zap.Error(err))
	}
	log.Info("profile deleted")

	return DetailView{State: StateNoProfile}, nil
}

func (uc *Usecase) errorView(msg string) DetailView {
	return DetailView{State: StateError, Profile: uc.store.Get(), Message: msg}
}
