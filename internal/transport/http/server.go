package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"audioscribe/internal/ai"
	appsvc "audioscribe/internal/app"
	"audioscribe/internal/bootstrap"
	"audioscribe/internal/cache"
	"audioscribe/internal/platform/rabbitmq"
	"audioscribe/internal/repository"
	"audioscribe/internal/transport/http/handler"
	"audioscribe/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	userRepo := repository.NewUserRepository(app.MySQL)
	transcriptionRepo := repository.NewTranscriptionRepository(app.MySQL)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)

	transcriber := ai.NewTranscriber(app.Config.OpenAI.APIKey, app.Config.OpenAI.WhisperModel)
	summarizer := ai.NewSummarizer(app.Config.OpenAI.APIKey, app.Config.OpenAI.ChatModel)
	chatModel := app.Config.OpenAI.ChatModel
	newSummarizer := func(apiKey string) appsvc.Summarizer {
		return ai.NewSummarizer(apiKey, chatModel)
	}

	usagePublisher := rabbitmq.NewUsagePublisher(app.MQConn, app.Config.RabbitMQ.UsagePersistQueue)
	recordCache := cache.NewTranscriptionCache(
		app.Redis,
		time.Duration(app.Config.Redis.RecordTTLSecond)*time.Second,
		time.Duration(app.Config.Redis.DirtyTTLSecond)*time.Second,
	)

	transcriptionService := appsvc.NewTranscriptionService(
		transcriptionRepo,
		transcriber,
		summarizer,
		newSummarizer,
		usagePublisher,
		recordCache,
		app.Config.MaxFileSizeBytes(),
	)

	authHandler := handler.NewAuthHandler(authService)
	audioHandler := handler.NewAudioHandler(transcriptionService)
	healthHandler := handler.NewHealthHandler(app)

	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.Check)

	authRequired := middleware.AuthJWT(app.Config.Auth.JWTSecret, authService)

	api := router.Group("/api")
	api.GET("/test-openai", healthHandler.TestOpenAI)

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

	return router
}
