package model

import "time"

const (
	UsageKindUpload     = "upload"
	UsageKindRegenerate = "regenerate"
)

type UsageEvent struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	TranscriptionID  uint      `gorm:"not null;index" json:"transcription_id"`
	Kind             string    `gorm:"size:16;not null" json:"kind"`
	FileSize         int64     `json:"file_size"`
	DurationSeconds  float64   `json:"duration_seconds"`
	EstimatedCostUSD float64   `json:"estimated_cost_usd"`
	CreatedAt        time.Time `json:"created_at"`
}
