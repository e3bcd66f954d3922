package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/code-100-precent/VoiceGate/internal/models"
	"github.com/code-100-precent/VoiceGate/internal/service"
	"github.com/code-100-precent/VoiceGate/internal/stream"
	"github.com/code-100-precent/VoiceGate/pkg/archive"
	"github.com/code-100-precent/VoiceGate/pkg/cache"
	"github.com/code-100-precent/VoiceGate/pkg/config"
	"github.com/code-100-precent/VoiceGate/pkg/embedder"
	"github.com/code-100-precent/VoiceGate/pkg/embedstore"
	"github.com/code-100-precent/VoiceGate/pkg/logger"
	"github.com/code-100-precent/VoiceGate/pkg/transcoder"
	"github.com/code-100-precent/VoiceGate/pkg/utils"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	cfg := config.GlobalConfig

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if err := logger.Init(&cfg.Log, cfg.Server.Mode); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer logger.Sync()

	db, err := utils.InitDatabase(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("init database failed", zap.Error(err))
	}
	if err := db.AutoMigrate(&models.VoiceEmbedding{}); err != nil {
		logger.Fatal("migrate database failed", zap.Error(err))
	}

	cacheClient, err := cache.NewCache(cfg.Cache)
	if err != nil {
		logger.Fatal("init cache failed", zap.Error(err))
	}
	defer cacheClient.Close()

	store, err := embedstore.NewStore(cfg.Services.Store, db)
	if err != nil {
		logger.Fatal("init embedding store failed", zap.Error(err))
	}

	embedClient, err := embedder.NewClient(&embedder.Config{
		BaseURL:    cfg.Services.Embedder.BaseURL,
		APIKey:     cfg.Services.Embedder.APIKey,
		Timeout:    cfg.Services.Embedder.Timeout,
		Dimension:  cfg.Services.Embedder.Dimension,
		LogEnabled: cfg.Services.Embedder.LogEnabled,
	})
	if err != nil {
		logger.Fatal("init embedder client failed", zap.Error(err))
	}
	defer embedClient.Close()

	converter := transcoder.NewFFmpeg(cfg.Services.Stream.FFmpegPath)
	uploader := archive.NewUploader(config.GlobalStore, cfg.Services.Storage.Bucket)

	orchestrator, err := service.NewOrchestrator(
		store,
		embedClient,
		converter,
		uploader,
		cacheClient,
		cfg.Services.Stream.UploadDir,
		cfg.Services.Stream.ListCacheTTL,
	)
	if err != nil {
		logger.Fatal("init orchestrator failed", zap.Error(err))
	}

	registry := stream.NewRegistry(cfg.Services.Stream.MaxConnections)
	dispatcher := stream.NewDispatcher(registry, orchestrator)
	streamServer := stream.NewServer(registry, dispatcher)

	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	streamServer.RegisterRoutes(router)
	router.Static("/static", cfg.Server.StaticDir)
	router.GET("/", func(c *gin.Context) {
		c.File(cfg.Server.StaticDir + "/index.html")
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": registry.Size()})
	})

	logger.Info("server starting",
		zap.String("addr", cfg.Server.Addr),
		zap.Bool("ssl", cfg.Server.SSLEnabled),
		zap.Int("max_connections", cfg.Services.Stream.MaxConnections))

	if cfg.Server.SSLEnabled {
		err = router.RunTLS(cfg.Server.Addr, cfg.Server.SSLCertFile, cfg.Server.SSLKeyFile)
	} else {
		err = router.Run(cfg.Server.Addr)
	}
	if err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
