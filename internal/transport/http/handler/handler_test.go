package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"audioscribe/internal/ai"
	"audioscribe/internal/app"
	"audioscribe/internal/model"
	"audioscribe/internal/repository"
	"audioscribe/internal/transport/http/middleware"
)

const testJWTSecret = "handler-test-secret"

type fakeTranscriber struct {
	calls int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (*ai.TranscriptionResult, error) {
	f.calls++
	return &ai.TranscriptionResult{
		Text:     "Bom dia a todos, vamos começar a reunião de planejamento do próximo trimestre com a pauta completa.",
		Language: "pt",
		Duration: 12.5,
	}, nil
}

type fakeSummarizer struct{}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string, _ *time.Time) (string, error) {
	return "ATA DE REUNIÃO\n\nResumo gerado.", nil
}

func (f *fakeSummarizer) SummarizeWithKeywords(_ context.Context, _ string) (*ai.KeywordSummary, error) {
	return &ai.KeywordSummary{Summary: "resumo", Keywords: []string{}}, nil
}

type testEnv struct {
	router      *gin.Engine
	transcriber *fakeTranscriber
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Transcription{}, &model.UsageEvent{}))

	authService := app.NewAuthService(repository.NewUserRepository(db), testJWTSecret, 30*time.Minute)
	transcriber := &fakeTranscriber{}
	transcriptionService := app.NewTranscriptionService(
		repository.NewTranscriptionRepository(db),
		transcriber,
		&fakeSummarizer{},
		nil,
		nil,
		nil,
		30*1024*1024,
	)

	authHandler := NewAuthHandler(authService)
	audioHandler := NewAudioHandler(transcriptionService)
	authRequired := middleware.AuthJWT(testJWTSecret, authService)

	router := gin.New()
	api := router.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authRequired, authHandler.Me)
	authGroup.PATCH("/me", authRequired, authHandler.UpdateMe)
	authGroup.GET("/users", authRequired, authHandler.ListUsers)

	audioGroup := api.Group("/audio")
	audioGroup.Use(authRequired)
	audioGroup.POST("/upload", audioHandler.Upload)
	audioGroup.GET("/transcriptions", audioHandler.ListTranscriptions)
	audioGroup.GET("/transcriptions/:id", audioHandler.GetTranscription)
	audioGroup.PATCH("/transcriptions/:id", audioHandler.UpdateTranscription)
	audioGroup.DELETE("/transcriptions/:id", audioHandler.DeleteTranscription)
	audioGroup.POST("/transcriptions/:id/regenerate-summary", audioHandler.RegenerateSummary)
	audioGroup.GET("/estimate-cost", audioHandler.EstimateCost)

	return &testEnv{router: router, transcriber: transcriber}
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) registerAndLogin(t *testing.T) string {
	t.Helper()

	rec := e.doJSON(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "ana@example.com",
		"name":     "Ana",
		"password": "segredo-forte",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.doJSON(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "ana@example.com",
		"password": "segredo-forte",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "bearer", body.TokenType)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func (e *testEnv) uploadFile(t *testing.T, token, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/audio/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t)

	rec := env.doJSON(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "ana@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t)

	rec := env.doJSON(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "ana@example.com",
		"name":     "Outra Ana",
		"password": "outro-segredo",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t)

	rec := env.doJSON(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "ana@example.com",
		"password": "senha-errada",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.doJSON(t, http.MethodGet, "/api/auth/me", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateMeStoresAPIKey(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t)

	rec := env.doJSON(t, http.MethodPatch, "/api/auth/me", token, gin.H{
		"openai_api_key": "sk-user-key",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	// The key is write-only: it must never come back in a response body.
	assert.NotContains(t, rec.Body.String(), "sk-user-key")
}

func TestUploadUnsupportedFormatRejectedWithoutExternalCall(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t)

	rec := env.uploadFile(t, token, "notas.txt", []byte("texto"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Formato não suportado")
	assert.Zero(t, env.transcriber.calls)
}

func TestUploadRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.uploadFile(t, "invalid", "reuniao.mp3", []byte("audio"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, env.transcriber.calls)
}

func TestUploadAndFetchTranscription(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t)

	rec := env.uploadFile(t, token, "reuniao.mp3", []byte("fake-audio-bytes"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var uploaded struct {
		ID      uint   `json:"id"`
		Text    string `json:"text"`
		Summary string `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	assert.NotZero(t, uploaded.ID)
	assert.NotEmpty(t, uploaded.Text)
	assert.NotEmpty(t, uploaded.Summary)

	rec = env.doJSON(t, http.MethodGet, "/api/audio/transcriptions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Transcriptions []json.RawMessage `json:"transcriptions"`
		Total          int64             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Transcriptions, 1)
	assert.Equal(t, int64(1), page.Total)
}

func TestGetTranscriptionNotFound(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t)

	rec := env.doJSON(t, http.MethodGet, "/api/audio/transcriptions/999", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Transcrição não encontrada")
}

func TestUpdateTranscriptionTags(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t)

	rec := env.uploadFile(t, token, "reuniao.mp3", []byte("fake-audio-bytes"))
	require.Equal(t, http.StatusOK, rec.Code)

	var uploaded struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))

	rec = env.doJSON(t, http.MethodPatch, "/api/audio/transcriptions/1", token, gin.H{
		"tags": []string{"planejamento", "q3"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated struct {
		Tags []string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, []string{"planejamento", "q3"}, updated.Tags)
}

func TestDeleteTranscription(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t)

	rec := env.uploadFile(t, token, "reuniao.mp3", []byte("fake-audio-bytes"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSON(t, http.MethodDelete, "/api/audio/transcriptions/1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Transcrição deletada com sucesso")

	rec = env.doJSON(t, http.MethodDelete, "/api/audio/transcriptions/1", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEstimateCostEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t)

	rec := env.doJSON(t, http.MethodGet, "/api/audio/estimate-cost?file_size_mb=10", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var estimate app.CostEstimate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &estimate))
	assert.Equal(t, 10.0, estimate.EstimatedDurationMinutes)
	assert.Equal(t, 0.06, estimate.EstimatedCostUSD)
	assert.False(t, estimate.ExceedsLimit)
	assert.Empty(t, estimate.Warnings)

	rec = env.doJSON(t, http.MethodGet, "/api/audio/estimate-cost?file_size_mb=31", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &estimate))
	assert.True(t, estimate.ExceedsLimit)

	rec = env.doJSON(t, http.MethodGet, "/api/audio/estimate-cost", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEstimateCostInvalidParam(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t)

	rec := env.doJSON(t, http.MethodGet, "/api/audio/estimate-cost?file_size_mb=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "file_size_mb"))
}
