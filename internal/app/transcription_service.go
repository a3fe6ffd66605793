package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"path/filepath"
	"strings"
	"time"

	"audioscribe/internal/ai"
	"audioscribe/internal/model"
	"audioscribe/internal/repository"
)

var ErrTranscriptionNotFound = errors.New("transcription not found")

// ValidationError carries the user-facing message for rejected input so
// handlers can return it verbatim with a 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var supportedFormats = []string{".mp3", ".wav", ".m4a", ".ogg", ".webm", ".mp4", ".mpeg", ".mpga"}

const (
	// Whisper rejects requests above 25MB. Files between that cap and the
	// configured maximum are still rejected upstream; no chunking happens here.
	openAIRequestLimitMB = 25

	recommendedMaxMinutes = 30
	pricePerMinuteUSD     = 0.006
	estimatedMBPerMinute  = 1.0
)

type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, filename string) (*ai.TranscriptionResult, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text string, meetingTime *time.Time) (string, error)
	SummarizeWithKeywords(ctx context.Context, text string) (*ai.KeywordSummary, error)
}

type UsagePublisher interface {
	Publish(ctx context.Context, event model.UsageEvent) error
}

type RecordCache interface {
	GetRecord(ctx context.Context, id uint) (*model.Transcription, bool, error)
	SetRecord(ctx context.Context, record *model.Transcription) error
	DeleteRecord(ctx context.Context, id uint) error
	MarkDirty(ctx context.Context, id uint) error
	IsDirty(ctx context.Context, id uint) (bool, error)
}

type TranscriptionService struct {
	repo          *repository.TranscriptionRepository
	transcriber   Transcriber
	summarizer    Summarizer
	newSummarizer func(apiKey string) Summarizer
	publisher     UsagePublisher
	cache         RecordCache
	maxFileSize   int64
}

type UpdateTranscriptionInput struct {
	Filename *string
	Tags     []string
}

type TranscriptionPage struct {
	Items []model.Transcription
	Total int64
}

type CostEstimate struct {
	FileSizeMB               float64  `json:"file_size_mb"`
	EstimatedDurationMinutes float64  `json:"estimated_duration_minutes"`
	EstimatedCostUSD         float64  `json:"estimated_cost_usd"`
	EstimatedCostBRL         float64  `json:"estimated_cost_brl"`
	PricePerMinuteUSD        float64  `json:"price_per_minute_usd"`
	MaxAllowedMinutes        int      `json:"max_allowed_minutes"`
	MaxAllowedMB             int      `json:"max_allowed_mb"`
	ExceedsLimit             bool     `json:"exceeds_limit"`
	Warnings                 []string `json:"warnings"`
	Note                     string   `json:"note"`
}

func NewTranscriptionService(
	repo *repository.TranscriptionRepository,
	transcriber Transcriber,
	summarizer Summarizer,
	newSummarizer func(apiKey string) Summarizer,
	publisher UsagePublisher,
	cache RecordCache,
	maxFileSize int64,
) *TranscriptionService {
	if maxFileSize <= 0 {
		maxFileSize = 30 * 1024 * 1024
	}
	return &TranscriptionService{
		repo:          repo,
		transcriber:   transcriber,
		summarizer:    summarizer,
		newSummarizer: newSummarizer,
		publisher:     publisher,
		cache:         cache,
		maxFileSize:   maxFileSize,
	}
}

// Upload runs the full pipeline: validate, transcribe, persist the transcript,
// summarize with the record's creation time, persist the summary. A summary
// failure after the first persist is surfaced to the caller but the record
// survives with an empty summary; regeneration can fill it later.
func (s *TranscriptionService) Upload(ctx context.Context, user *model.User, filename string, data []byte) (*model.Transcription, error) {
	if user == nil || user.ID == 0 {
		return nil, ErrInvalidInput
	}
	if err := s.validateUpload(filename, int64(len(data))); err != nil {
		return nil, err
	}

	result, err := s.transcriber.Transcribe(ctx, data, filename)
	if err != nil {
		return nil, err
	}

	size := int64(len(data))
	record := &model.Transcription{
		UserID:       user.ID,
		Filename:     filename,
		OriginalText: result.Text,
		Summary:      "",
		FileSize:     &size,
	}
	if result.Language != "" {
		record.Language = &result.Language
	}
	if result.Duration > 0 {
		record.Duration = &result.Duration
	}
	if err := s.repo.Create(record); err != nil {
		return nil, err
	}

	summary, err := s.summarizerFor(user).Summarize(ctx, result.Text, &record.CreatedAt)
	if err != nil {
		return nil, err
	}

	record.Summary = summary
	if err := s.repo.Save(record); err != nil {
		return nil, err
	}

	s.publishUsage(ctx, record, model.UsageKindUpload)
	if s.cache != nil {
		_ = s.cache.SetRecord(ctx, record)
	}
	return record, nil
}

func (s *TranscriptionService) List(userID uint, skip, limit int) (*TranscriptionPage, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}

	items, err := s.repo.ListByUserID(userID, skip, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountByUserID(userID)
	if err != nil {
		return nil, err
	}
	return &TranscriptionPage{Items: items, Total: total}, nil
}

func (s *TranscriptionService) Get(ctx context.Context, userID, id uint) (*model.Transcription, error) {
	if userID == 0 || id == 0 {
		return nil, ErrInvalidInput
	}

	if s.cache != nil {
		if dirty, err := s.cache.IsDirty(ctx, id); err == nil && !dirty {
			if cached, hit, cacheErr := s.cache.GetRecord(ctx, id); cacheErr == nil && hit && cached.UserID == userID {
				return cached, nil
			}
		}
	}

	record, err := s.repo.GetByIDAndUserID(id, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrTranscriptionNotFound
	}

	if s.cache != nil {
		if dirty, err := s.cache.IsDirty(ctx, id); err == nil && !dirty {
			_ = s.cache.SetRecord(ctx, record)
		}
	}
	return record, nil
}

func (s *TranscriptionService) Update(ctx context.Context, userID, id uint, input UpdateTranscriptionInput) (*model.Transcription, error) {
	if userID == 0 || id == 0 {
		return nil, ErrInvalidInput
	}

	record, err := s.repo.GetByIDAndUserID(id, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrTranscriptionNotFound
	}

	if input.Filename != nil {
		filename := strings.TrimSpace(*input.Filename)
		if filename == "" {
			return nil, &ValidationError{Message: "Nome do arquivo é obrigatório"}
		}
		record.Filename = filename
	}
	if input.Tags != nil {
		record.SetTagList(input.Tags)
	}

	if err := s.repo.Save(record); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return record, nil
}

func (s *TranscriptionService) Delete(ctx context.Context, userID, id uint) error {
	if userID == 0 || id == 0 {
		return ErrInvalidInput
	}

	record, err := s.repo.GetByIDAndUserID(id, userID)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrTranscriptionNotFound
	}

	if err := s.repo.Delete(id, userID); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.DeleteRecord(ctx, id)
	}
	return nil
}

// RegenerateSummary reruns the summarization step against the stored text and
// the original creation time, overwriting the previous summary.
func (s *TranscriptionService) RegenerateSummary(ctx context.Context, user *model.User, id uint) (*model.Transcription, error) {
	if user == nil || user.ID == 0 || id == 0 {
		return nil, ErrInvalidInput
	}

	record, err := s.repo.GetByIDAndUserID(id, user.ID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrTranscriptionNotFound
	}

	summary, err := s.summarizerFor(user).Summarize(ctx, record.OriginalText, &record.CreatedAt)
	if err != nil {
		return nil, err
	}

	record.Summary = summary
	if err := s.repo.Save(record); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.publishUsage(ctx, record, model.UsageKindRegenerate)
	return record, nil
}

// EstimateCost is a pure calculation over the Whisper pricing model: no I/O.
func (s *TranscriptionService) EstimateCost(fileSizeMB float64) *CostEstimate {
	maxMB := int(s.maxFileSize / (1024 * 1024))

	estimatedMinutes := fileSizeMB / estimatedMBPerMinute
	estimatedCost := estimatedMinutes * pricePerMinuteUSD

	warnings := []string{}
	exceedsLimit := false

	switch {
	case fileSizeMB > float64(maxMB):
		exceedsLimit = true
		warnings = append(warnings, fmt.Sprintf("⚠️ Arquivo excede o limite de %dMB", maxMB))
	case fileSizeMB > openAIRequestLimitMB:
		warnings = append(warnings, "⚠️ Arquivo próximo do limite da API OpenAI (25MB). Pode falhar.")
	case estimatedMinutes > recommendedMaxMinutes:
		warnings = append(warnings, fmt.Sprintf("⚠️ Duração estimada (%.1fmin) excede o recomendado (%dmin)", estimatedMinutes, recommendedMaxMinutes))
	case estimatedMinutes > 25:
		warnings = append(warnings, fmt.Sprintf("ℹ️ Arquivo grande (%.1fmin). Transcrição pode demorar.", estimatedMinutes))
	}

	return &CostEstimate{
		FileSizeMB:               fileSizeMB,
		EstimatedDurationMinutes: roundTo(estimatedMinutes, 1),
		EstimatedCostUSD:         roundTo(estimatedCost, 4),
		EstimatedCostBRL:         roundTo(estimatedCost*5.0, 2),
		PricePerMinuteUSD:        pricePerMinuteUSD,
		MaxAllowedMinutes:        recommendedMaxMinutes,
		MaxAllowedMB:             maxMB,
		ExceedsLimit:             exceedsLimit,
		Warnings:                 warnings,
		Note:                     "Estimativa baseada em taxa média de 1 MB/minuto. O custo real pode variar.",
	}
}

func (s *TranscriptionService) validateUpload(filename string, size int64) error {
	if strings.TrimSpace(filename) == "" {
		return &ValidationError{Message: "Nome do arquivo é obrigatório"}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !isSupportedFormat(ext) {
		return &ValidationError{
			Message: fmt.Sprintf("Formato não suportado. Formatos aceitos: %s", strings.Join(supportedFormats, ", ")),
		}
	}

	if size > s.maxFileSize {
		return &ValidationError{
			Message: fmt.Sprintf("Arquivo muito grande. Tamanho máximo: %dMB", s.maxFileSize/(1024*1024)),
		}
	}
	return nil
}

func (s *TranscriptionService) summarizerFor(user *model.User) Summarizer {
	if user.OpenAIAPIKey != "" && s.newSummarizer != nil {
		return s.newSummarizer(user.OpenAIAPIKey)
	}
	return s.summarizer
}

func (s *TranscriptionService) publishUsage(ctx context.Context, record *model.Transcription, kind string) {
	if s.publisher == nil {
		return
	}

	event := model.UsageEvent{
		UserID:          record.UserID,
		TranscriptionID: record.ID,
		Kind:            kind,
	}
	if record.FileSize != nil {
		event.FileSize = *record.FileSize
	}
	if record.Duration != nil {
		event.DurationSeconds = *record.Duration
		event.EstimatedCostUSD = roundTo(*record.Duration/60.0*pricePerMinuteUSD, 4)
	}

	// Usage accounting must not fail the request.
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("publish usage event failed: %v", err)
	}
}

func (s *TranscriptionService) invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	_ = s.cache.MarkDirty(ctx, id)
	_ = s.cache.DeleteRecord(ctx, id)
}

func isSupportedFormat(ext string) bool {
	for _, supported := range supportedFormats {
		if ext == supported {
			return true
		}
	}
	return false
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
