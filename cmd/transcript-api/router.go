package main

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/transcript-api/api/swagger"
	"github.com/noah-isme/transcript-api/internal/handler"
	internalmiddleware "github.com/noah-isme/transcript-api/internal/middleware"
	"github.com/noah-isme/transcript-api/internal/repository"
	"github.com/noah-isme/transcript-api/internal/service"
	"github.com/noah-isme/transcript-api/pkg/config"
	"github.com/noah-isme/transcript-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/transcript-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/transcript-api/pkg/middleware/requestid"
)

// newRouter wires repositories, services and handlers onto a gin engine. A
// nil redis client disables caching.
func newRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client) *gin.Engine {
	metricsSvc := service.NewMetricsService()

	var (
		cacheRepo *repository.CacheRepository
		cacheSvc  *service.CacheService
	)
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, true)
	}

	transcriptRepo := repository.NewTranscriptRepository(db, metricsSvc)
	transcriptSvc := service.NewTranscriptService(service.TranscriptServiceParams{
		Repo:      transcriptRepo,
		Cache:     cacheSvc,
		Metrics:   metricsSvc,
		Validator: validator.New(),
		Logger:    logr,
		Config: service.TranscriptServiceConfig{
			MaxInputBytes:      cfg.Parser.MaxInputBytes,
			LineSplitThreshold: cfg.Parser.LineSplitThreshold,
			LineTolerance:      cfg.Parser.LineTolerance,
			DefaultDegree:      cfg.Parser.DefaultDegree,
			Institution:        cfg.Parser.Institution,
			CacheTTL:           cfg.Cache.TTL,
		},
	})

	checks := map[string]handler.ReadinessCheck{"database": db.PingContext}
	if cacheRepo != nil {
		checks["cache"] = cacheRepo.Ping
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	transcriptHandler := handler.NewTranscriptHandler(transcriptSvc, cfg.Parser.MaxInputBytes)

	identityHeader := cfg.Identity.Header
	if identityHeader == "" {
		identityHeader = internalmiddleware.DefaultIdentityHeader
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, identityHeader))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/health", "/ready", "/metrics"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/summary", metricsHandler.Summary)

	transcripts := api.Group("/transcripts", internalmiddleware.Identity(identityHeader), internalmiddleware.WithResponseMeta())
	transcripts.POST("/parse", transcriptHandler.Parse)
	transcripts.GET("", transcriptHandler.Get)
	transcripts.POST("", transcriptHandler.Save)
	transcripts.PUT("", transcriptHandler.Save)
	transcripts.GET("/insights", transcriptHandler.Insights)
	transcripts.GET("/export", transcriptHandler.Export)
	transcripts.POST("/terms", transcriptHandler.AddTerm)
	transcripts.DELETE("/terms/:termCode", transcriptHandler.RemoveTerm)
	transcripts.POST("/terms/:termCode/courses", transcriptHandler.AddCourse)
	transcripts.PUT("/terms/:termCode/courses/:index", transcriptHandler.UpdateCourse)
	transcripts.DELETE("/terms/:termCode/courses/:index", transcriptHandler.RemoveCourse)

	return r
}
