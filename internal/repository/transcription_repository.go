package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"audioscribe/internal/model"
)

type TranscriptionRepository struct {
	db *gorm.DB
}

func NewTranscriptionRepository(db *gorm.DB) *TranscriptionRepository {
	return &TranscriptionRepository{db: db}
}

func (r *TranscriptionRepository) Create(t *model.Transcription) error {
	if err := r.db.Create(t).Error; err != nil {
		return fmt.Errorf("create transcription failed: %w", err)
	}
	return nil
}

func (r *TranscriptionRepository) GetByIDAndUserID(id, userID uint) (*model.Transcription, error) {
	var t model.Transcription
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query transcription failed: %w", err)
	}
	return &t, nil
}

func (r *TranscriptionRepository) ListByUserID(userID uint, skip, limit int) ([]model.Transcription, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var items []model.Transcription
	if err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list transcriptions failed: %w", err)
	}
	return items, nil
}

func (r *TranscriptionRepository) CountByUserID(userID uint) (int64, error) {
	var total int64
	if err := r.db.Model(&model.Transcription{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count transcriptions failed: %w", err)
	}
	return total, nil
}

func (r *TranscriptionRepository) Save(t *model.Transcription) error {
	if err := r.db.Save(t).Error; err != nil {
		return fmt.Errorf("save transcription failed: %w", err)
	}
	return nil
}

func (r *TranscriptionRepository) Delete(id, userID uint) error {
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Transcription{}).Error; err != nil {
		return fmt.Errorf("delete transcription failed: %w", err)
	}
	return nil
}
