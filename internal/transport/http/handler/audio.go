package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"audioscribe/internal/ai"
	"audioscribe/internal/app"
	"audioscribe/internal/model"
	"audioscribe/internal/transport/http/response"
)

type AudioHandler struct {
	transcriptionService *app.TranscriptionService
}

type UpdateTranscriptionRequest struct {
	Filename *string  `json:"filename"`
	Tags     []string `json:"tags"`
}

func NewAudioHandler(transcriptionService *app.TranscriptionService) *AudioHandler {
	return &AudioHandler{transcriptionService: transcriptionService}
}

func (h *AudioHandler) Upload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "Arquivo de áudio é obrigatório")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "Falha ao ler o arquivo enviado")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "Falha ao ler o arquivo enviado")
		return
	}

	record, err := h.transcriptionService.Upload(c.Request.Context(), user, fileHeader.Filename, data)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.OK(c, gin.H{
		"id":         record.ID,
		"filename":   record.Filename,
		"text":       record.OriginalText,
		"summary":    record.Summary,
		"duration":   record.Duration,
		"language":   record.Language,
		"created_at": record.CreatedAt,
	})
}

func (h *AudioHandler) ListTranscriptions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	skip := queryInt(c, "skip", 0)
	limit := queryInt(c, "limit", 100)

	page, err := h.transcriptionService.List(user.ID, skip, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]gin.H, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, transcriptionJSON(&page.Items[i]))
	}

	response.OK(c, gin.H{
		"transcriptions": items,
		"total":          page.Total,
	})
}

func (h *AudioHandler) GetTranscription(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	record, err := h.transcriptionService.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.OK(c, transcriptionJSON(record))
}

func (h *AudioHandler) UpdateTranscription(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateTranscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	record, err := h.transcriptionService.Update(c.Request.Context(), user.ID, id, app.UpdateTranscriptionInput{
		Filename: req.Filename,
		Tags:     req.Tags,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.OK(c, transcriptionJSON(record))
}

func (h *AudioHandler) DeleteTranscription(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.transcriptionService.Delete(c.Request.Context(), user.ID, id); err != nil {
		h.writeError(c, err)
		return
	}

	response.OK(c, gin.H{"message": "Transcrição deletada com sucesso"})
}

func (h *AudioHandler) RegenerateSummary(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	record, err := h.transcriptionService.RegenerateSummary(c.Request.Context(), user, id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.OK(c, gin.H{
		"id":         record.ID,
		"filename":   record.Filename,
		"text":       record.OriginalText,
		"summary":    record.Summary,
		"duration":   record.Duration,
		"language":   record.Language,
		"updated_at": record.UpdatedAt,
	})
}

func (h *AudioHandler) EstimateCost(c *gin.Context) {
	raw := c.Query("file_size_mb")
	if raw == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file_size_mb é obrigatório")
		return
	}
	fileSizeMB, err := strconv.ParseFloat(raw, 64)
	if err != nil || fileSizeMB < 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file_size_mb inválido")
		return
	}

	response.OK(c, h.transcriptionService.EstimateCost(fileSizeMB))
}

func (h *AudioHandler) writeError(c *gin.Context, err error) {
	var validationErr *app.ValidationError
	var upstreamErr *ai.UpstreamError

	switch {
	case errors.As(err, &validationErr):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, validationErr.Message)
	case errors.Is(err, app.ErrTranscriptionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Transcrição não encontrada")
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.As(err, &upstreamErr):
		response.Error(c, http.StatusInternalServerError, response.CodeUpstreamFailure, fmt.Sprintf("Erro interno do servidor: %v", upstreamErr))
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "Erro interno do servidor")
	}
}

func transcriptionJSON(t *model.Transcription) gin.H {
	return gin.H{
		"id":         t.ID,
		"filename":   t.Filename,
		"text":       t.OriginalText,
		"summary":    t.Summary,
		"duration":   t.Duration,
		"language":   t.Language,
		"file_size":  t.FileSize,
		"tags":       t.TagList(),
		"created_at": t.CreatedAt,
		"updated_at": t.UpdatedAt,
	}
}

func pathID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid transcription id")
		return 0, false
	}
	return uint(parsed), true
}
