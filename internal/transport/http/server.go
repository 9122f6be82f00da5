package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	appsvc "research-assistant/internal/app"
	"research-assistant/internal/bootstrap"
	"research-assistant/internal/cache"
	"research-assistant/internal/ingest"
	"research-assistant/internal/pkg/filestore"
	"research-assistant/internal/platform/rabbitmq"
	"research-assistant/internal/rag"
	"research-assistant/internal/repository"
	"research-assistant/internal/transport/http/handler"
	"research-assistant/internal/transport/http/middleware"
	"research-assistant/internal/transport/http/response"
)

type Services struct {
	Documents     *appsvc.DocumentService
	Conversations *appsvc.ConversationService
	Insights      *appsvc.InsightService
}

// NewServices wires the application services onto the resources held by app.
func NewServices(app *bootstrap.App) (Services, error) {
	cfg := app.Config
	files, err := filestore.NewLocalStore(cfg.Storage.UploadDir)
	if err != nil {
		return Services{}, err
	}

	docRepo := repository.NewDocumentRepository(app.DB)
	convRepo := repository.NewConversationRepository(app.DB)

	// optional backends stay untyped nil so the services can test for them
	var historyCache appsvc.HistoryCache
	if app.Redis != nil {
		historyCache = cache.NewHistoryCache(app.Redis, time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second)
	}
	var events appsvc.EventPublisher
	if app.MQConn != nil {
		events = rabbitmq.NewEventPublisher(app.MQConn, cfg.RabbitMQ.EventQueue)
	}
	var audit appsvc.EventLog
	if app.EventWorker != nil {
		audit = repository.NewEventRepository(app.DB)
	}

	return Services{
		Documents: appsvc.NewDocumentService(appsvc.DocumentDeps{
			Documents:     docRepo,
			Conversations: convRepo,
			Index:         app.Index,
			Files:         files,
			Ingestor:      ingest.NewPipeline(app.LLM, cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap, cfg.Ingest.EmbeddingBatchSize),
			Summarizer:    rag.NewSummarizer(app.LLM, cfg.Ingest.SummaryInputChars),
			Events:        events,
			Audit:         audit,
			Cache:         historyCache,
			Logger:        app.Logger,
		}, cfg.Storage.MaxUploadSize),
		Conversations: appsvc.NewConversationService(appsvc.ConversationDeps{
			Documents:     docRepo,
			Conversations: convRepo,
			Index:         app.Index,
			Embedder:      app.LLM,
			Answerer:      rag.NewAnswerer(app.LLM),
			Events:        events,
			Cache:         historyCache,
			Logger:        app.Logger,
		}, cfg.Retrieval),
		Insights: appsvc.NewInsightService(appsvc.InsightDeps{
			Documents:     docRepo,
			Conversations: convRepo,
			Index:         app.Index,
			Embedder:      app.LLM,
			Comparer:      rag.NewComparer(app.LLM),
			Cache:         historyCache,
			Logger:        app.Logger,
		}, cfg.Retrieval),
	}, nil
}

func NewRouter(app *bootstrap.App) (*gin.Engine, error) {
	svc, err := NewServices(app)
	if err != nil {
		return nil, err
	}
	return NewEngine(app, svc), nil
}

func NewEngine(app *bootstrap.App, svc Services) *gin.Engine {
	cfg := app.Config
	gin.SetMode(cfg.App.GinMode)
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(app.Logger),
		middleware.Recovery(app.Logger),
		cors.New(cors.Config{
			AllowOrigins:     cfg.App.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.Tracing(cfg.App.Name),
	)
	router.NoRoute(func(c *gin.Context) {
		response.Error(c, 404, response.CodeNotFound, "route not found")
	})

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	sessions := middleware.NewSessions(cfg.Session, app.Logger)
	documentHandler := handler.NewDocumentHandler(svc.Documents, cfg.Storage.MaxUploadSize)
	conversationHandler := handler.NewConversationHandler(svc.Conversations, sessions)
	insightHandler := handler.NewInsightHandler(svc.Insights)

	v1 := router.Group("/api/v1")
	v1.Use(sessions.Middleware(), middleware.EnrichTrace())

	documents := v1.Group("/documents")
	documents.POST("", documentHandler.Upload)
	documents.GET("", documentHandler.List)
	documents.GET("/:id", documentHandler.Get)
	documents.DELETE("/:id", documentHandler.Delete)
	documents.GET("/:id/events", documentHandler.Events)

	v1.POST("/ask", conversationHandler.Ask)
	v1.GET("/conversations", conversationHandler.History)
	v1.GET("/conversations/export", conversationHandler.Export)
	v1.POST("/session/clear", conversationHandler.Clear)

	v1.POST("/compare", insightHandler.Compare)
	v1.POST("/search", insightHandler.Search)

	return router
}
