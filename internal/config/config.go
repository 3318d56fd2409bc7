package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// defaultTicketSecret 占位密钥，生产环境禁止使用
const defaultTicketSecret = "change-me-in-production"

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host      string // 监听地址，默认 "0.0.0.0"
	Port      int    // 监听端口，默认 8080
	SiteURL   string // 站点根地址，用于 page_url 与 sitemap
	RateLimit int    // 单个 IP 每分钟允许的请求数
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	File        string // 日志文件路径，留空只输出到控制台
}

// GateConfig 定义联系表单提交闸门的业务阈值
type GateConfig struct {
	MinDwell           time.Duration // 表单可交互到提交之间的最短停留时间，默认 3s
	Cooldown           time.Duration // 两次成功提交之间的冷却时间，默认 30s
	AllowedEmailDomain string        // 唯一允许的邮箱域名，默认 gmail.com
	PhoneDigits        int           // 本地电话号码位数，默认 10
	DefaultCountryCode string        // 未选择国家区号时使用的区号，默认 +1
}

// SessionConfig 定义表单会话与访客票据配置
type SessionConfig struct {
	TicketSecret string        // 票据签名密钥，必须至少 32 字符
	TicketIssuer string        // 票据签发者标识
	TicketTTL    time.Duration // 票据有效期（访客标识随票据续期）
	SessionTTL   time.Duration // 单个表单会话在存储中的保留时间
}

// RelayConfig 定义第三方邮件中继配置
type RelayConfig struct {
	Provider            string        // 中继类型: "emailjs" 或 "smtp"
	Endpoint            string        // EmailJS REST 接口地址
	ServiceID           string        // EmailJS 服务 ID
	PublicKey           string        // EmailJS 公钥 (user_id)
	AccessToken         string        // EmailJS 私钥，可选
	OwnerTemplateID     string        // 站长通知模板
	AutoReplyTemplateID string        // 自动回复模板，留空则不发送
	OwnerName           string        // 模板中的 to_name
	Timeout             time.Duration // 单次投递超时，必须大于 0
}

// SMTPConfig 定义 SMTP 中继配置（Relay.Provider 为 smtp 时生效）
type SMTPConfig struct {
	Addr         string // SMTP 服务地址，格式 "host:port"
	Username     string // 认证用户名，留空则不认证
	Password     string // 认证密码
	From         string // 发件人地址
	OwnerAddress string // 站长收件地址
}

// RedisConfig 定义 Redis 状态存储配置
type RedisConfig struct {
	Address  string // Redis 服务地址，留空使用内存存储
	Password string // Redis 认证密码，留空表示无密码
	DB       int    // Redis 数据库编号，默认 0
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server  ServerConfig
	CORS    CORSConfig
	Log     LogConfig
	Gate    GateConfig
	Session SessionConfig
	Relay   RelayConfig
	SMTP    SMTPConfig
	Redis   RedisConfig
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: PHOTOSITE_，例如 PHOTOSITE_GATE_COOLDOWN、PHOTOSITE_SESSION_TICKET_SECRET
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetEnvPrefix("photosite")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.site_url", "https://www.example.com")
	v.SetDefault("server.rate_limit", 60)
	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", "")
	v.SetDefault("gate.min_dwell", "3s")
	v.SetDefault("gate.cooldown", "30s")
	v.SetDefault("gate.allowed_email_domain", "gmail.com")
	v.SetDefault("gate.phone_digits", 10)
	v.SetDefault("gate.default_country_code", "+1")
	v.SetDefault("session.ticket_secret", defaultTicketSecret)
	v.SetDefault("session.ticket_issuer", "photosite")
	v.SetDefault("session.ticket_ttl", "720h")
	v.SetDefault("session.session_ttl", "2h")
	v.SetDefault("relay.provider", "emailjs")
	v.SetDefault("relay.endpoint", "https://api.emailjs.com/api/v1.0/email/send")
	v.SetDefault("relay.service_id", "")
	v.SetDefault("relay.public_key", "")
	v.SetDefault("relay.access_token", "")
	v.SetDefault("relay.owner_template_id", "")
	v.SetDefault("relay.auto_reply_template_id", "")
	v.SetDefault("relay.owner_name", "Dakoda")
	v.SetDefault("relay.timeout", "30s")
	v.SetDefault("smtp.addr", "")
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("smtp.owner_address", "")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	minDwell, err := time.ParseDuration(v.GetString("gate.min_dwell"))
	if err != nil {
		return nil, fmt.Errorf("invalid gate.min_dwell: %w", err)
	}
	cooldown, err := time.ParseDuration(v.GetString("gate.cooldown"))
	if err != nil {
		return nil, fmt.Errorf("invalid gate.cooldown: %w", err)
	}
	if minDwell < 0 || cooldown < 0 {
		return nil, fmt.Errorf("gate thresholds must not be negative")
	}

	phoneDigits := v.GetInt("gate.phone_digits")
	if phoneDigits <= 0 {
		phoneDigits = 10
	}

	emailDomain := strings.ToLower(strings.TrimSpace(v.GetString("gate.allowed_email_domain")))
	if emailDomain == "" {
		return nil, fmt.Errorf("gate.allowed_email_domain must not be empty")
	}

	ticketTTL, err := time.ParseDuration(v.GetString("session.ticket_ttl"))
	if err != nil {
		ticketTTL = 30 * 24 * time.Hour
	}
	sessionTTL, err := time.ParseDuration(v.GetString("session.session_ttl"))
	if err != nil {
		sessionTTL = 2 * time.Hour
	}

	relayTimeout, err := time.ParseDuration(v.GetString("relay.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid relay.timeout: %w", err)
	}
	// 投递必须有上限，投递占用的过期时间由它推导
	if relayTimeout <= 0 {
		return nil, fmt.Errorf("relay.timeout must be positive")
	}

	provider := strings.ToLower(v.GetString("relay.provider"))
	if provider != "emailjs" && provider != "smtp" {
		return nil, fmt.Errorf("unsupported relay.provider %q", provider)
	}

	ticketSecret := v.GetString("session.ticket_secret")

	// 安全检查：禁止使用默认的票据密钥
	if ticketSecret == defaultTicketSecret {
		return nil, fmt.Errorf("SECURITY ERROR: ticket secret cannot be the default value. Please set PHOTOSITE_SESSION_TICKET_SECRET environment variable")
	}
	if len(ticketSecret) < 32 {
		return nil, fmt.Errorf("SECURITY ERROR: ticket secret must be at least 32 characters long")
	}

	corsOrigins := parseList(v.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	rateLimit := v.GetInt("server.rate_limit")
	if rateLimit <= 0 {
		rateLimit = 60
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:      v.GetString("server.host"),
			Port:      v.GetInt("server.port"),
			SiteURL:   strings.TrimRight(v.GetString("server.site_url"), "/"),
			RateLimit: rateLimit,
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
			File:        v.GetString("log.file"),
		},
		Gate: GateConfig{
			MinDwell:           minDwell,
			Cooldown:           cooldown,
			AllowedEmailDomain: emailDomain,
			PhoneDigits:        phoneDigits,
			DefaultCountryCode: v.GetString("gate.default_country_code"),
		},
		Session: SessionConfig{
			TicketSecret: ticketSecret,
			TicketIssuer: v.GetString("session.ticket_issuer"),
			TicketTTL:    ticketTTL,
			SessionTTL:   sessionTTL,
		},
		Relay: RelayConfig{
			Provider:            provider,
			Endpoint:            v.GetString("relay.endpoint"),
			ServiceID:           v.GetString("relay.service_id"),
			PublicKey:           v.GetString("relay.public_key"),
			AccessToken:         v.GetString("relay.access_token"),
			OwnerTemplateID:     v.GetString("relay.owner_template_id"),
			AutoReplyTemplateID: v.GetString("relay.auto_reply_template_id"),
			OwnerName:           v.GetString("relay.owner_name"),
			Timeout:             relayTimeout,
		},
		SMTP: SMTPConfig{
			Addr:         v.GetString("smtp.addr"),
			Username:     v.GetString("smtp.username"),
			Password:     v.GetString("smtp.password"),
			From:         v.GetString("smtp.from"),
			OwnerAddress: v.GetString("smtp.owner_address"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
	}

	return cfg, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片，已去除空白字符
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 加载顺序：
//  1. 当前目录的 .env
//  2. 父目录的 .env
//
// 文件不存在时静默跳过，已存在的环境变量不会被覆盖。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
