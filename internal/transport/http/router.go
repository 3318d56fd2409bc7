package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"photosite/backend/internal/auth"
	"photosite/backend/internal/config"
	"photosite/backend/internal/health"
	"photosite/backend/internal/middleware"
	"photosite/backend/internal/monitoring"
	"photosite/backend/internal/service"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config         *config.Config
	ContactService *service.ContactService
	TicketManager  *auth.TicketManager
	RateLimiter    *middleware.IPRateLimiter // 可选，为空时按配置创建
	Metrics        *monitoring.Metrics
	Health         *health.HealthChecker // 可选
	Logger         *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = monitoring.NewMetrics(nil)
	}

	router := gin.New()

	monitor := middleware.NewMonitoringMiddleware(metrics, logger)
	router.Use(monitor.PanicRecovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodySizeLimit(middleware.DefaultBodyLimit))

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins: deps.Config.CORS.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", HeaderVisitorTicket},
		ExposeHeaders: []string{
			"Content-Length",
			"Retry-After",
			"X-RateLimit-Limit",
		},
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
	router.Use(monitor.HTTPMetrics())

	limiter := deps.RateLimiter
	if limiter == nil {
		limiter = middleware.NewIPRateLimiter(deps.Config.Server.RateLimit, metrics, logger)
	}

	contactHandler := NewContactHandler(deps.ContactService, deps.Config.Server.SiteURL, logger)
	publicHandler := NewPublicHandler(deps.ContactService.Policy())
	ticketAuth := middleware.NewTicketAuth(deps.TicketManager, logger)

	// Swagger 文档
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		c.JSON(http.StatusOK, deps.Health.CheckHealth(c.Request.Context()))
	})
	if deps.Health != nil {
		router.GET("/health/live", gin.WrapF(deps.Health.LiveEndpoint))
		router.GET("/health/ready", gin.WrapF(deps.Health.ReadyEndpoint))
	}

	// Prometheus 指标
	router.GET("/metrics", gin.WrapH(metrics.HTTPHandler()))

	// V1 API
	v1 := router.Group("/v1")
	{
		// ========== Public Routes（无需认证的公开API） ==========
		publicRoutes := v1.Group("/public")
		{
			publicRoutes.GET("/config", publicHandler.GetFormConfig) // 获取表单配置
		}

		// ========== Contact Routes ==========
		contactRoutes := v1.Group("/contact")
		contactRoutes.Use(limiter.Middleware())
		contactRoutes.Use(middleware.BodySizeLimit(middleware.ContactBodyLimit))
		{
			contactRoutes.POST("/sessions", contactHandler.Mount)
			contactRoutes.POST("/submissions",
				middleware.ValidateContentType("application/json"),
				ticketAuth.RequireSessionTicket(),
				contactHandler.Submit,
			)
		}
	}

	return router
}
