package record

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "profile-service/internal/domain/profile"
	pkgerrors "profile-service/pkg/errors"
	"profile-service/pkg/logger"
	"profile-service/pkg/security"
)

// Usecase implements the remote profile collection: query, get, create, replace
// and delete of stored records.
type Usecase struct {
	repo     Repository
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// New creates a new instance of Usecase.
func New(r Repository, log *zap.Logger) *Usecase {
	return &Usecase{
		repo:     r,
		log:      log,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// formatValidationError converts validator.ValidationErrors into a *pkgerrors.ValidationError.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return pkgerrors.NewInternalError("validation failed", err)
	}

	var messages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email", e.Field()))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", e.Field(), e.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}

	field := ""
	if len(validationErrors) == 1 {
		field = strings.ToLower(validationErrors[0].Field())
	}
	return pkgerrors.NewValidationError(field, strings.Join(messages, ", "))
}

// Query returns the records matching the given filters, oldest first.
func (uc *Usecase) Query(ctx context.Context, in QueryRequest) ([]RecordResponse, error) {
	username, err := security.ValidateFilterValue(in.Username)
	if err != nil {
		return nil, pkgerrors.NewValidationError("username", err.Error())
	}
	email, err := security.ValidateFilterValue(in.Email)
	if err != nil {
		return nil, pkgerrors.NewValidationError("email", err.Error())
	}

	log := logger.WithContext(ctx, uc.log)
	log.Info("querying profiles", zap.String("username", username), zap.String("email", email))

	records, err := uc.repo.Find(ctx, domain.Filter{Username: username, Email: email})
	if err != nil {
		log.Error("failed to query profiles", zap.Error(err))
		return nil, err
	}

	out := make([]RecordResponse, len(records))
	for i := range records {
		out[i] = *toResponse(&records[i])
	}
	return out, nil
}

// Get retrieves a record by id.
func (uc *Usecase) Get(ctx context.Context, id string) (*RecordResponse, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.NewValidationError("id", "id is required")
	}

	r, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		logger.WithContext(ctx, uc.log).Warn("failed to get profile", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toResponse(r), nil
}

// Create validates the request and stores a new record under a fresh UUID.
func (uc *Usecase) Create(ctx context.Context, in CreateRecordRequest) (*RecordResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("creating profile", zap.String("username", in.Username), zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	r := &domain.Record{
		ID:        uc.newID(),
		Username:  in.Username,
		Name:      in.Name,
		Email:     in.Email,
		Age:       in.Age,
		CreatedAt: uc.now(),
	}
	if err := uc.repo.Create(ctx, r); err != nil {
		log.Error("failed to create profile", zap.Error(err))
		return nil, err
	}

	log.Info("profile created", zap.String("id", r.ID))
	return toResponse(r), nil
}

// Replace overwrites the fields of an existing record. The id and creation time
// never change.
func (uc *Usecase) Replace(ctx context.Context, in ReplaceRecordRequest) (*RecordResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("replacing profile", zap.String("id", in.ID), zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	existing, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		log.Warn("profile to replace not found", zap.String("id", in.ID), zap.Error(err))
		return nil, err
	}

	r := &domain.Record{
		ID:        existing.ID,
		Username:  in.Username,
		Name:      in.Name,
		Email:     in.Email,
		Age:       in.Age,
		CreatedAt: existing.CreatedAt,
	}
	if r.Username == "" {
		r.Username = existing.Username
	}

	if err := uc.repo.Update(ctx, r); err != nil {
		log.Error("failed to replace profile", zap.String("id", in.ID), zap.Error(err))
		return nil, err
	}
	return toResponse(r), nil
}

// Delete removes a record and returns it.
func (uc *Usecase) Delete(ctx context.Context, id string) (*RecordResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("deleting profile", zap.String("id", id))

	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.NewValidationError("id", "id is required")
	}

	r, err := uc.repo.Delete(ctx, id)
	if err != nil {
		log.Warn("failed to delete profile", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toResponse(r), nil
}
