package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "profile-service/internal/domain/profile"
)

// EntrySchema is one row of the mirror table.
type EntrySchema struct {
	Key       string    `gorm:"column:key;primaryKey;size:128"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for EntrySchema.
func (EntrySchema) TableName() string {
	return "mirror_entries"
}

// SQLMirror keeps the profile as a JSON document in one row of mirror_entries.
// It works on any gorm dialect; sqlite and postgres are used.
type SQLMirror struct {
	db  *gorm.DB
	key string
	log *zap.Logger
}

// NewSQLMirror creates a gorm-backed mirror and makes sure its table exists.
func NewSQLMirror(db *gorm.DB, key string, log *zap.Logger) (*SQLMirror, error) {
	if err := db.AutoMigrate(&EntrySchema{}); err != nil {
		return nil, fmt.Errorf("migrate mirror table: %w", err)
	}
	return &SQLMirror{db: db, key: key, log: log}, nil
}

// Save upserts the row for the mirror key.
func (m *SQLMirror) Save(ctx context.Context, p *domain.Profile) error {
	if p == nil {
		return errors.New("cannot mirror nil profile")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	entry := EntrySchema{Key: m.key, Value: string(data), UpdatedAt: time.Now().UTC()}
	err = m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		m.log.Error("failed to save mirror", zap.String("key", m.key), zap.Error(err))
		return fmt.Errorf("save mirror: %w", err)
	}

	m.log.Debug("profile mirrored", zap.String("key", m.key), zap.String("profile_id", p.ID))
	return nil
}

// Load returns the mirrored profile, or nil when the row does not exist.
func (m *SQLMirror) Load(ctx context.Context) (*domain.Profile, error) {
	var entry EntrySchema
	err := m.db.WithContext(ctx).Where(&EntrySchema{Key: m.key}).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		m.log.Error("failed to load mirror", zap.String("key", m.key), zap.Error(err))
		return nil, fmt.Errorf("load mirror: %w", err)
	}

	return decodeProfile([]byte(entry.Value))
}

// Clear deletes the row for the mirror key.
func (m *SQLMirror) Clear(ctx context.Context) error {
	if err := m.db.WithContext(ctx).Where(&EntrySchema{Key: m.key}).Delete(&EntrySchema{}).Error; err != nil {
		m.log.Error("failed to clear mirror", zap.String("key", m.key), zap.Error(err))
		return fmt.Errorf("clear mirror: %w", err)
	}

	m.log.Debug("mirror cleared", zap.String("key", m.key))
	return nil
}
