package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "admitbot/internal/app"
	"admitbot/internal/bootstrap"
	"admitbot/internal/cache"
	"admitbot/internal/chunker"
	"admitbot/internal/ingest"
	rabbitmqClient "admitbot/internal/platform/rabbitmq"
	"admitbot/internal/repository"
	"admitbot/internal/responder"
	"admitbot/internal/rewrite"
	"admitbot/internal/router"
	"admitbot/internal/transport/http/handler"
	"admitbot/internal/vectorindex"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	engine.GET("/healthz", healthHandler.Check)

	docRepo := repository.NewDocumentRepository(app.MySQL)
	chunkRepo := repository.NewChunkRepository(app.MySQL)
	transcriptRepo := repository.NewTranscriptRepository(app.MySQL)

	index := vectorindex.New(chunkRepo, app.Embedder)
	pipeline := ingest.New(
		chunker.New(app.Config.Chunking.Size, app.Config.Chunking.Overlap),
		index,
		docRepo,
	)

	queryRouter := router.New(app.Gateway, app.Config.Router.Keywords, app.Config.Router.FallbackKeywords)
	rewriter := rewrite.New(app.Gateway)
	ragResponder := responder.New(index, app.Gateway, responder.Options{
		TopK:           app.Config.Retrieval.TopK,
		ContextChunks:  app.Config.Retrieval.ContextChunks,
		ChunkCharLimit: app.Config.Retrieval.ChunkCharLimit,
	})

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	publisher := rabbitmqClient.NewTranscriptPublisher(app.MQConn, app.Config.RabbitMQ.TranscriptPersistQueue)

	chatService := appsvc.NewChatService(
		queryRouter,
		rewriter,
		ragResponder,
		app.Gateway,
		transcriptRepo,
		publisher,
		historyCache,
		app.Config.Retrieval.HistoryMessages,
		app.Config.App.DefaultLanguage,
	)

	chatHandler := handler.NewChatHandler(chatService)
	docHandler := handler.NewDocumentHandler(pipeline, docRepo)

	v1 := engine.Group("/api/v1")

	chatGroup := v1.Group("/chat")
	chatGroup.POST("", chatHandler.Chat)
	chatGroup.POST("/feedback", chatHandler.Feedback)
	chatGroup.GET("/history", chatHandler.History)

	docGroup := v1.Group("/documents")
	docGroup.POST("", docHandler.Upload)
	docGroup.GET("", docHandler.List)
	docGroup.DELETE("/:id", docHandler.Delete)
	docGroup.POST("/reindex", docHandler.Reindex)

	return engine
}
