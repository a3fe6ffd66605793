package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audioscribe/internal/model"
)

// Tags are hidden from API JSON with json:"-", so the cache payload must
// carry them on its own. A record must survive redis byte-for-byte.
func TestRecordEncodingRoundTripKeepsTags(t *testing.T) {
	duration := 42.5
	size := int64(1024)
	language := "pt"

	record := &model.Transcription{
		ID:           7,
		UserID:       3,
		Filename:     "reuniao.mp3",
		OriginalText: "texto completo da reunião",
		Summary:      "ATA DE REUNIÃO",
		Duration:     &duration,
		FileSize:     &size,
		Language:     &language,
		CreatedAt:    time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC),
	}
	record.SetTagList([]string{"planejamento", "q3"})

	payload, err := encodeRecord(record)
	require.NoError(t, err)

	decoded, err := decodeRecord(payload)
	require.NoError(t, err)

	assert.Equal(t, record.ID, decoded.ID)
	assert.Equal(t, record.UserID, decoded.UserID)
	assert.Equal(t, record.OriginalText, decoded.OriginalText)
	assert.Equal(t, record.Summary, decoded.Summary)
	assert.Equal(t, []string{"planejamento", "q3"}, decoded.TagList())
}

func TestRecordEncodingRoundTripEmptyTags(t *testing.T) {
	record := &model.Transcription{ID: 1, UserID: 1, Filename: "a.mp3"}

	payload, err := encodeRecord(record)
	require.NoError(t, err)

	decoded, err := decodeRecord(payload)
	require.NoError(t, err)
	assert.Equal(t, []string{}, decoded.TagList())
}

func TestDecodeRecordMalformedPayload(t *testing.T) {
	_, err := decodeRecord([]byte("{not json"))
	assert.Error(t, err)
}
