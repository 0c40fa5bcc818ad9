package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"nakupenda/backend/internal/config"
	"nakupenda/backend/internal/health"
	"nakupenda/backend/internal/middleware"
	"nakupenda/backend/internal/monitoring"
	"nakupenda/backend/internal/service"
	"nakupenda/backend/internal/storage"
)

// Handler 聚合所有 HTTP 处理逻辑。
type Handler struct {
	letters *service.LetterService
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config        *config.Config
	LetterService *service.LetterService
	RateLimits    storage.RateLimitRepository // 可为 nil，此时退化为进程内限流
	Metrics       *monitoring.Metrics         // 可为 nil（测试时）
	Health        *health.HealthChecker       // 可为 nil（测试时）
	BlobDir       string                      // 附件静态目录，空则不挂载
	Logger        *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	// 使用自定义中间件替代默认中间件
	var onPanic func()
	if deps.Metrics != nil {
		onPanic = deps.Metrics.RecordPanic
	}
	router.Use(middleware.RecoveryHandler(log, onPanic))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler(log))
	router.Use(middleware.SecurityHeaders())

	// 按路由区分请求体上限：信件提交带附件，其余端点保持小体积
	router.Use(middleware.DynamicBodySizeLimit(map[string]int64{
		"/api/letters": middleware.UploadBodyLimit,
	}, middleware.DefaultBodyLimit))

	if deps.Metrics != nil {
		mm := middleware.NewMonitoringMiddleware(deps.Metrics, log)
		router.Use(mm.HTTPMetrics())
		router.Use(mm.RateLimitMetrics())
	}

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	handler := &Handler{
		letters: deps.LetterService,
		metrics: deps.Metrics,
		logger:  log,
	}

	// 创建端点限流：公开写接口按 IP 计数
	createLimit := middleware.NewRateLimiter(
		deps.RateLimits,
		int64(deps.Config.Letter.CreateRateMax),
		deps.Config.Letter.CreateRateSpan,
		deps.Metrics,
		log,
	)

	// Swagger 文档
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查
	if deps.Health != nil {
		router.GET("/healthz", gin.WrapF(deps.Health.LiveEndpoint))
		router.GET("/readyz", gin.WrapF(deps.Health.ReadyEndpoint))
	} else {
		router.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	// Prometheus 指标
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	// 附件静态文件
	if deps.BlobDir != "" {
		router.Static("/attachments", deps.BlobDir)
	}

	// ========== Letter Routes ==========
	api := router.Group("/api")
	{
		api.POST("/letters", createLimit.Limit("letter_create"), handler.createLetter)
		api.GET("/letters/:slug", handler.getLetter)
	}

	return router
}
