package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"audioscribe/internal/model"
)

type TranscriptionCache struct {
	client         *redisv9.Client
	recordTTL      time.Duration
	dirtyMarkerTTL time.Duration
}

// cachedRecord carries Tags explicitly: the model hides the serialized tags
// from API responses with json:"-", so marshaling the record alone would
// lose them on the way through redis.
type cachedRecord struct {
	Record model.Transcription `json:"record"`
	Tags   string              `json:"tags"`
}

func encodeRecord(record *model.Transcription) ([]byte, error) {
	payload, err := json.Marshal(cachedRecord{Record: *record, Tags: record.Tags})
	if err != nil {
		return nil, fmt.Errorf("marshal transcription cache failed: %w", err)
	}
	return payload, nil
}

func decodeRecord(raw []byte) (*model.Transcription, error) {
	var envelope cachedRecord
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal cached transcription failed: %w", err)
	}
	record := envelope.Record
	record.Tags = envelope.Tags
	return &record, nil
}

func NewTranscriptionCache(client *redisv9.Client, recordTTL, dirtyMarkerTTL time.Duration) *TranscriptionCache {
	if recordTTL <= 0 {
		recordTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &TranscriptionCache{
		client:         client,
		recordTTL:      recordTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *TranscriptionCache) GetRecord(ctx context.Context, id uint) (*model.Transcription, bool, error) {
	raw, err := c.client.Get(ctx, c.recordKey(id)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get transcription failed: %w", err)
	}

	record, err := decodeRecord([]byte(raw))
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

func (c *TranscriptionCache) SetRecord(ctx context.Context, record *model.Transcription) error {
	payload, err := encodeRecord(record)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.recordKey(record.ID), payload, c.recordTTL).Err(); err != nil {
		return fmt.Errorf("redis set transcription failed: %w", err)
	}
	return nil
}

func (c *TranscriptionCache) DeleteRecord(ctx context.Context, id uint) error {
	if err := c.client.Del(ctx, c.recordKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete transcription failed: %w", err)
	}
	return nil
}

func (c *TranscriptionCache) MarkDirty(ctx context.Context, id uint) error {
	if err := c.client.Set(ctx, c.dirtyKey(id), "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *TranscriptionCache) IsDirty(ctx context.Context, id uint) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *TranscriptionCache) recordKey(id uint) string {
	return fmt.Sprintf("audio:transcription:%d", id)
}

func (c *TranscriptionCache) dirtyKey(id uint) string {
	return fmt.Sprintf("audio:transcription:dirty:%d", id)
}
