package model

import (
	"encoding/json"
	"time"
)

type Transcription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Filename     string    `gorm:"size:255;not null" json:"filename"`
	OriginalText string    `gorm:"type:text;not null" json:"text"`
	Summary      string    `gorm:"type:text" json:"summary"`
	Duration     *float64  `json:"duration"`
	FileSize     *int64    `json:"file_size"`
	Language     *string   `gorm:"size:10" json:"language"`
	Tags         string    `gorm:"type:text" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TagList deserializes the stored tags. Empty or malformed data yields an
// empty list rather than an error.
func (t *Transcription) TagList() []string {
	if t.Tags == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(t.Tags), &tags); err != nil {
		return []string{}
	}
	if tags == nil {
		return []string{}
	}
	return tags
}

func (t *Transcription) SetTagList(tags []string) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return
	}
	t.Tags = string(raw)
}
