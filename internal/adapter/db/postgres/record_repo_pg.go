package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	domain "profile-service/internal/domain/profile"
	pkgerrors "profile-service/pkg/errors"
)

// RecordRepoPG implements record.Repository using GORM. It runs on PostgreSQL in
// production and on SQLite for local runs and tests.
type RecordRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewRecordRepoPG creates a new instance of RecordRepoPG.
func NewRecordRepoPG(db *gorm.DB, log *zap.Logger) *RecordRepoPG {
	return &RecordRepoPG{db: db, log: log}
}

// RecordSchema represents the database schema for the profiles table.
type RecordSchema struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Username  string    `gorm:"not null;index"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"not null;index"`
	Age       *int      // nullable
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName specifies the table name for the RecordSchema model.
func (RecordSchema) TableName() string {
	return "profiles"
}

// Migrate creates or updates the profiles table.
func (r *RecordRepoPG) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&RecordSchema{}); err != nil {
		return fmt.Errorf("failed to migrate profiles table: %w", err)
	}
	return nil
}

func toSchema(rec *domain.Record) RecordSchema {
	return RecordSchema{
		ID:        rec.ID,
		Username:  rec.Username,
		Name:      rec.Name,
		Email:     rec.Email,
		Age:       rec.Age,
		CreatedAt: rec.CreatedAt,
	}
}

func (m RecordSchema) toDomain() domain.Record {
	return domain.Record{
		ID:        m.ID,
		Username:  m.Username,
		Name:      m.Name,
		Email:     m.Email,
		Age:       m.Age,
		CreatedAt: m.CreatedAt,
	}
}

func notFound(id string) error {
	return pkgerrors.NewNotFoundError("profile", fmt.Sprintf("profile not found: id=%s", id))
}

// Create inserts a new record.
func (r *RecordRepoPG) Create(ctx context.Context, rec *domain.Record) error {
	if rec == nil {
		return errors.New("record cannot be nil")
	}

	model := toSchema(rec)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create profile in db", zap.Error(err), zap.String("username", rec.Username))
		return fmt.Errorf("failed to create profile: %w", err)
	}

	r.log.Info("profile created in db", zap.String("id", model.ID))
	return nil
}

// GetByID retrieves a record by id.
func (r *RecordRepoPG) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	var model RecordSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("profile not found", zap.String("id", id))
			return nil, notFound(id)
		}
		r.log.Error("failed to get profile from db", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	rec := model.toDomain()
	return &rec, nil
}

// Find returns records whose username and email equal the non-empty filter
// values, oldest first.
func (r *RecordRepoPG) Find(ctx context.Context, f domain.Filter) ([]domain.Record, error) {
	q := r.db.WithContext(ctx).Model(&RecordSchema{})
	if f.Username != "" {
		q = q.Where("username = ?", f.Username)
	}
	if f.Email != "" {
		q = q.Where("email = ?", f.Email)
	}

	var models []RecordSchema
	if err := q.Order("created_at ASC").Order("id ASC").Find(&models).Error; err != nil {
		r.log.Error("failed to query profiles from db", zap.Error(err), zap.String("username", f.Username), zap.String("email", f.Email))
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}

	records := make([]domain.Record, len(models))
	for i, m := range models {
		records[i] = m.toDomain()
	}
	return records, nil
}

// Update replaces the mutable fields of an existing record.
func (r *RecordRepoPG) Update(ctx context.Context, rec *domain.Record) error {
	if rec == nil {
		return errors.New("record cannot be nil")
	}

	res := r.db.WithContext(ctx).Model(&RecordSchema{}).Where("id = ?", rec.ID).Updates(map[string]any{
		"username": rec.Username,
		"name":     rec.Name,
		"email":    rec.Email,
		"age":      rec.Age,
	})
	if res.Error != nil {
		r.log.Error("failed to update profile in db", zap.Error(res.Error), zap.String("id", rec.ID))
		return fmt.Errorf("failed to update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(rec.ID)
	}

	r.log.Info("profile updated in db", zap.String("id", rec.ID))
	return nil
}

// Delete removes a record and returns it.
func (r *RecordRepoPG) Delete(ctx context.Context, id string) (*domain.Record, error) {
	var model RecordSchema
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&RecordSchema{}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(id)
		}
		r.log.Error("failed to delete profile in db", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to delete profile: %w", err)
	}

	r.log.Info("profile deleted in db", zap.String("id", id))
	rec := model.toDomain()
	return &rec, nil
}
