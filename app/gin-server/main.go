package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/plagiafix/plagiafix/config"
	"github.com/plagiafix/plagiafix/internal/api/handlers"
	"github.com/plagiafix/plagiafix/internal/api/middleware"
	"github.com/plagiafix/plagiafix/internal/api/routes"
	"github.com/plagiafix/plagiafix/internal/cache"
	"github.com/plagiafix/plagiafix/internal/extract"
	"github.com/plagiafix/plagiafix/internal/logger"
	"github.com/plagiafix/plagiafix/internal/models"
	"github.com/plagiafix/plagiafix/internal/payments"
	"github.com/plagiafix/plagiafix/internal/pipeline"
	"github.com/plagiafix/plagiafix/internal/providers/llm"
	"github.com/plagiafix/plagiafix/internal/providers/stt"
	"github.com/plagiafix/plagiafix/internal/providers/tts"
	mongorepo "github.com/plagiafix/plagiafix/internal/repositories/mongo"
	pgrepo "github.com/plagiafix/plagiafix/internal/repositories/postgres"
	"github.com/plagiafix/plagiafix/internal/services"
	"github.com/plagiafix/plagiafix/internal/storage"
	"github.com/plagiafix/plagiafix/internal/telemetry"
	"github.com/plagiafix/plagiafix/internal/workers"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	ctx := context.Background()

	// Datastores
	mongoClient, err := config.NewMongo(ctx)
	if err != nil {
		log.WithError(err).Fatal("MongoDB init error")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	mongoDB := config.MongoDatabase(mongoClient)
	if err := config.EnsureMongoIndexes(mongoDB); err != nil {
		log.WithError(err).Fatal("Mongo index error")
	}

	db, err := config.NewPostgres()
	if err != nil {
		log.WithError(err).Fatal("PostgreSQL init error")
	}
	if err := db.AutoMigrate(&models.Report{}, &models.Document{}, &models.Account{}, &models.CreditEntry{}); err != nil {
		log.WithError(err).Fatal("PostgreSQL migrate error")
	}

	rdb, err := config.NewRedis(ctx)
	if err != nil {
		log.WithError(err).Fatal("Redis init error")
	}

	// Providers
	gemini, err := llm.NewVertexGemini(ctx,
		os.Getenv("VERTEX_PROJECT_ID"),
		os.Getenv("VERTEX_LOCATION"),
		os.Getenv("VERTEX_MODEL"),
	)
	if err != nil {
		log.WithError(err).Fatal("Vertex init error")
	}
	defer gemini.Close()

	speech, err := stt.NewGoogleSpeech(ctx)
	if err != nil {
		log.WithError(err).Fatal("Speech init error")
	}
	defer speech.Close()

	var voice tts.Provider
	if os.Getenv("TTS_DISABLED") != "true" {
		polly, err := tts.NewPolly(ctx, os.Getenv("AWS_REGION"))
		if err != nil {
			log.WithError(err).Warn("Polly init failed, readback disabled")
		} else {
			voice = polly
			defer polly.Close()
		}
	}

	store, err := storage.NewGCS(ctx, os.Getenv("GCS_BUCKET"))
	if err != nil {
		log.WithError(err).Fatal("GCS init error")
	}
	defer store.Close()

	// Pipeline
	recorder := telemetry.NewMongoRecorder(mongoDB, log, 0)
	engine := &pipeline.Engine{
		Classify:  gemini.Classify,
		Rewrite:   gemini.Rewrite,
		Telemetry: recorder,
		Logger:    log,
	}

	// Repositories and services
	reportRepo := pgrepo.NewReportRepo(db)
	documentRepo := pgrepo.NewDocumentRepo(db)
	creditRepo := pgrepo.NewCreditRepo(db)
	sessionRepo := mongorepo.NewSessionRepo(mongoDB)
	chunkRepo := mongorepo.NewChunkRepo(mongoDB)

	verifiers := map[string]payments.Verifier{
		"paystack": payments.NewPaystack(os.Getenv("PAYSTACK_SECRET_KEY")),
	}
	if addr := os.Getenv("BTC_RECEIVE_ADDRESS"); addr != "" {
		base := os.Getenv("BTC_EXPLORER_URL")
		if base == "" {
			base = "https://blockstream.info/api"
		}
		verifiers["bitcoin"] = payments.NewBlockExplorer(base, addr)
	}

	creditSvc := services.NewCreditService(creditRepo, verifiers)
	documentSvc := services.NewDocumentService(
		engine,
		extract.NewRegistry(),
		reportRepo,
		documentRepo,
		creditSvc,
		cache.NewRedisCache(rdb),
		store,
		log,
	)
	sessionSvc := services.NewSessionService(sessionRepo)
	chunkSvc := services.NewChunkService(chunkRepo, 24*time.Hour)

	// Live audio workers
	pool := &workers.AudioWorkerPool{
		Redis:    rdb,
		Chunks:   chunkSvc,
		Sessions: sessionSvc,
		STT:      speech,
		Rewrite:  gemini,
		TTS:      voice,
		Logger:   log,
	}
	if err := pool.Start(ctx); err != nil {
		log.WithError(err).Fatal("worker pool error")
	}

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Document:  handlers.NewDocumentHandler(documentSvc, store),
		Credit:    handlers.NewCreditHandler(creditSvc),
		Session:   handlers.NewSessionHandler(sessionSvc),
		Telemetry: handlers.NewTelemetryHandler(recorder),
		WS:        handlers.NewWSHandler(sessionSvc, chunkSvc, rdb),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
