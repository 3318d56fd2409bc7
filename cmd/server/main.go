package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "photosite/backend/docs"
	"photosite/backend/internal/auth"
	"photosite/backend/internal/config"
	"photosite/backend/internal/dispatch"
	"photosite/backend/internal/dispatch/emailjs"
	"photosite/backend/internal/dispatch/smtprelay"
	"photosite/backend/internal/gate"
	"photosite/backend/internal/health"
	"photosite/backend/internal/logger"
	"photosite/backend/internal/middleware"
	"photosite/backend/internal/monitoring"
	"photosite/backend/internal/service"
	"photosite/backend/internal/storage"
	"photosite/backend/internal/storage/memory"
	redisstore "photosite/backend/internal/storage/redis"
	httptransport "photosite/backend/internal/transport/http"
)

// main 启动联系表单 HTTP 服务。
//
// @title           Photosite Contact API
// @version         1.0
// @description     Contact form backend for the photography site: session mount, gated submission and relay delivery.
// @BasePath        /
// @securityDefinitions.apikey SessionTicket
// @in header
// @name Authorization
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
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting photosite contact server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
		zap.String("relay", cfg.Relay.Provider),
	)

	// 初始化存储层
	var store storage.Store
	if cfg.Redis.Address != "" {
		client, err := redisstore.New(&cfg.Redis, log)
		if err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		store = redisstore.NewStore(client)
		log.Info("using redis storage", zap.String("address", cfg.Redis.Address))
	} else {
		// 使用内存存储（单实例部署）
		store = memory.NewStore()
		log.Info("using memory storage (single instance)")
	}
	defer store.Close()

	// 初始化监控系统
	metrics := monitoring.NewMetrics(nil)

	// 初始化邮件中继
	sender, templates, err := newRelay(cfg)
	if err != nil {
		log.Fatal("failed to initialize relay", zap.Error(err))
	}
	dispatcher := dispatch.NewDispatcher(sender, templates,
		dispatch.WithTimeout(cfg.Relay.Timeout),
		dispatch.WithRecorder(metrics),
		dispatch.WithLogger(log),
	)

	tickets := auth.NewTicketManager(
		cfg.Session.TicketSecret,
		cfg.Session.TicketIssuer,
		cfg.Session.TicketTTL,
		cfg.Session.SessionTTL,
	)

	contactService := service.NewContactService(service.ContactServiceOptions{
		Store: store,
		Gate: gate.New(gate.Policy{
			MinDwell:           cfg.Gate.MinDwell,
			Cooldown:           cfg.Gate.Cooldown,
			AllowedEmailDomain: cfg.Gate.AllowedEmailDomain,
			PhoneDigits:        cfg.Gate.PhoneDigits,
			DefaultCountryCode: cfg.Gate.DefaultCountryCode,
		}),
		Dispatcher: dispatcher,
		Tickets:    tickets,
		SessionTTL: cfg.Session.SessionTTL,
		OwnerName:  cfg.Relay.OwnerName,
		Recorder:   metrics,
		Logger:     log,

		DeliveryTimeout: cfg.Relay.Timeout,
	})

	log.Info("gate configuration",
		zap.Duration("min_dwell", cfg.Gate.MinDwell),
		zap.Duration("cooldown", cfg.Gate.Cooldown),
		zap.String("email_domain", cfg.Gate.AllowedEmailDomain),
		zap.Int("phone_digits", cfg.Gate.PhoneDigits),
	)

	// 初始化健康检查
	relayAddr := ""
	if cfg.Relay.Provider == "smtp" {
		relayAddr = cfg.SMTP.Addr
	}
	healthChecker := health.NewHealthChecker(store, relayAddr, log)

	limiter := middleware.NewIPRateLimiter(cfg.Server.RateLimit, metrics, log)

	// 创建 HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:         cfg,
		ContactService: contactService,
		TicketManager:  tickets,
		RateLimiter:    limiter,
		Metrics:        metrics,
		Health:         healthChecker,
		Logger:         log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 定时清理限流表 goroutine
	group.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				if removed := limiter.Cleanup(); removed > 0 {
					log.Debug("idle rate limit entries removed", zap.Int("count", removed))
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
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}

// newRelay 根据配置创建邮件中继与模板 ID
//
// SMTP 中继使用内置模板，配置中的模板 ID 会被注册为内置模板的别名。
func newRelay(cfg *config.Config) (dispatch.Sender, dispatch.Templates, error) {
	templates := dispatch.Templates{
		Owner:     cfg.Relay.OwnerTemplateID,
		AutoReply: cfg.Relay.AutoReplyTemplateID,
	}

	switch cfg.Relay.Provider {
	case "smtp":
		if cfg.SMTP.Addr == "" {
			return nil, templates, errors.New("smtp.addr is required for the smtp relay")
		}
		sender, err := smtprelay.NewSender(cfg.SMTP, smtprelay.DefaultTemplates())
		if err != nil {
			return nil, templates, err
		}

		if templates.Owner == "" {
			templates.Owner = smtprelay.TemplateOwner
		} else if err := sender.Register(templates.Owner, smtprelay.TemplateOwner); err != nil {
			return nil, templates, err
		}
		if templates.AutoReply != "" {
			if err := sender.Register(templates.AutoReply, smtprelay.TemplateAutoReply); err != nil {
				return nil, templates, err
			}
		}
		return sender, templates, nil

	default:
		if cfg.Relay.ServiceID == "" || cfg.Relay.PublicKey == "" || templates.Owner == "" {
			return nil, templates, errors.New("relay.service_id, relay.public_key and relay.owner_template_id are required for emailjs")
		}
		return emailjs.NewClient(&cfg.Relay, nil), templates, nil
	}
}
