package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nakupenda/backend/internal/config"
	"nakupenda/backend/internal/health"
	"nakupenda/backend/internal/logger"
	"nakupenda/backend/internal/monitoring"
	"nakupenda/backend/internal/service"
	"nakupenda/backend/internal/storage"
	"nakupenda/backend/internal/storage/blob"
	"nakupenda/backend/internal/storage/memory"
	"nakupenda/backend/internal/storage/postgres"
	"nakupenda/backend/internal/storage/redis"
	sqlstore "nakupenda/backend/internal/storage/sql"
	httptransport "nakupenda/backend/internal/transport/http"
)

// main 启动信件分享 HTTP 服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		LogFile:     "",
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      28,
		Compress:    true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log.Info("starting nakupenda server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 初始化存储层
	store, err := initializeStorage(cfg, log)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize storage: %v", err))
	}
	defer store.Close()

	// 初始化附件二进制存储（照片与语音留言落盘）
	blobBaseURL := cfg.Blob.PublicBaseURL
	serveAttachments := blobBaseURL == ""
	if serveAttachments {
		// 未配置外部附件地址时由本服务自行托管
		blobBaseURL = strings.TrimRight(cfg.Letter.PublicBaseURL, "/") + "/attachments"
	}
	blobs, err := blob.NewStore(cfg.Blob.Path, blobBaseURL)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize blob storage: %v", err))
	}
	log.Info("blob storage initialized",
		zap.String("path", blobs.BasePath()),
		zap.String("public_base_url", blobBaseURL),
	)

	// 初始化 Redis（可选，用于创建限流计数）
	var redisClient *redis.Client
	var rateLimits storage.RateLimitRepository
	if cfg.Redis.Address != "" {
		redisClient, err = redis.New(&cfg.Redis, log)
		if err != nil {
			log.Warn("failed to connect to redis, falling back to in-memory rate limiting", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			rateLimits = redisClient
			log.Info("redis rate limiting enabled", zap.String("address", cfg.Redis.Address))
		}
	}

	// Redis 不可用时，支持计数的存储实现可以顶替限流仓库
	if rateLimits == nil {
		if counter, ok := store.(storage.RateLimitRepository); ok {
			rateLimits = counter
		}
	}

	// 初始化监控系统
	metrics := monitoring.NewMetrics()

	// 初始化健康检查
	var cachePinger health.Pinger
	if redisClient != nil {
		cachePinger = redisClient
	}
	healthChecker := health.NewHealthChecker(store, cachePinger, log)
	for name, status := range healthChecker.CheckHealth() {
		log.Info("startup health check", zap.String("check", name), zap.String("status", status))
	}

	// 初始化服务层
	letterService := service.NewLetterService(store, blobs, log)

	// 创建 HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	blobDir := ""
	if serveAttachments {
		blobDir = blobs.BasePath()
	}
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:        cfg,
		LetterService: letterService,
		RateLimits:    rateLimits,
		Metrics:       metrics,
		Health:        healthChecker,
		BlobDir:       blobDir,
		Logger:        log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 运行时指标采集 goroutine
	group.Go(func() error {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		startedAt := time.Now()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				metrics.UpdateSystemUptime(time.Since(startedAt))
				if err := store.Health(); err == nil {
					metrics.UpdateDatabaseConnections(1)
				} else {
					metrics.UpdateDatabaseConnections(0)
				}
				if redisClient != nil {
					pingCtx, cancel := context.WithTimeout(groupCtx, 2*time.Second)
					if err := redisClient.Ping(pingCtx); err == nil {
						metrics.UpdateRedisConnections(1)
					} else {
						metrics.UpdateRedisConnections(0)
					}
					cancel()
				}
			}
		}
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		log.Info("server stopped")
		return nil
	})

	// 等待所有 goroutine 完成
	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}

// initializeStorage 根据配置选择信件存储实现。
//
// database.type 为空时使用内存存储（开发环境）；
// "postgres" 走 pgx 连接池实现；"mysql" 走 database/sql 实现。
func initializeStorage(cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	switch cfg.Database.Type {
	case "":
		log.Info("using memory storage (development mode)")
		return memory.NewStore(), nil
	case "postgres":
		client, err := postgres.NewClient(&cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres client: %w", err)
		}
		store, err := postgres.NewStore(client)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to initialize postgres storage: %w", err)
		}
		log.Info("using postgres storage")
		return store, nil
	case "mysql":
		store, err := sqlstore.NewStore(
			cfg.Database.Type,
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mysql storage: %w", err)
		}
		log.Info("using mysql storage")
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}
