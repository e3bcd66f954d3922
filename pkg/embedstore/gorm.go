package embedstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/code-100-precent/VoiceGate/internal/models"
)

// gormStore stores embeddings in the relational database (sqlite by default)
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a database-backed embedding store and migrates its table
func NewGormStore(db *gorm.DB) (Store, error) {
	if err := db.AutoMigrate(&models.VoiceEmbedding{}); err != nil {
		return nil, fmt.Errorf("migrate voice_embeddings failed: %w", err)
	}
	return &gormStore{db: db}, nil
}

// Put stores the vector for a speaker, replacing any prior record
func (s *gormStore) Put(ctx context.Context, name string, vector []float32) error {
	record := models.VoiceEmbedding{SpeakerName: name}
	record.SetVector(vector)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.VoiceEmbedding
		err := tx.Where("speaker_name = ?", name).First(&existing).Error
		switch {
		case err == nil:
			// 重复注册覆盖旧向量
			existing.Vector = record.Vector
			existing.Dimension = record.Dimension
			return tx.Save(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&record).Error
		default:
			return err
		}
	})
}

// Get returns the record for a speaker, ErrNotFound if absent
func (s *gormStore) Get(ctx context.Context, name string) (*Record, error) {
	var row models.VoiceEmbedding
	err := s.db.WithContext(ctx).Where("speaker_name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	vector, err := row.GetVector()
	if err != nil {
		return nil, err
	}
	return &Record{SpeakerName: row.SpeakerName, Vector: vector, CreatedAt: row.CreatedAt}, nil
}

// List returns all registered speaker names
func (s *gormStore) List(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&models.VoiceEmbedding{}).
		Order("speaker_name asc").
		Pluck("speaker_name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Records returns all stored records ordered by speaker name
func (s *gormStore) Records(ctx context.Context) ([]Record, error) {
	var rows []models.VoiceEmbedding
	err := s.db.WithContext(ctx).Order("speaker_name asc").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		vector, err := row.GetVector()
		if err != nil {
			return nil, err
		}
		records = append(records, Record{
			SpeakerName: row.SpeakerName,
			Vector:      vector,
			CreatedAt:   row.CreatedAt,
		})
	}
	return records, nil
}

// Delete removes the record for a speaker
func (s *gormStore) Delete(ctx context.Context, name string) error {
	result := s.db.WithContext(ctx).Where("speaker_name = ?", name).Delete(&models.VoiceEmbedding{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
