package repository

import (
	"fmt"

	"gorm.io/gorm"

	"audioscribe/internal/model"
)

type UsageEventRepository struct {
	db *gorm.DB
}

func NewUsageEventRepository(db *gorm.DB) *UsageEventRepository {
	return &UsageEventRepository{db: db}
}

func (r *UsageEventRepository) Create(event *model.UsageEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("create usage event failed: %w", err)
	}
	return nil
}

func (r *UsageEventRepository) ListByUserID(userID uint, limit int) ([]model.UsageEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var events []model.UsageEvent
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list usage events failed: %w", err)
	}
	return events, nil
}
