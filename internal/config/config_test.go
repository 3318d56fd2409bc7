package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-development-32-chars-long-at-least"

// clearEnv 清除测试涉及的环境变量，测试结束后由 t.Setenv 自动恢复
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PHOTOSITE_SERVER_HOST",
		"PHOTOSITE_SERVER_PORT",
		"PHOTOSITE_SERVER_SITE_URL",
		"PHOTOSITE_GATE_MIN_DWELL",
		"PHOTOSITE_GATE_COOLDOWN",
		"PHOTOSITE_GATE_ALLOWED_EMAIL_DOMAIN",
		"PHOTOSITE_GATE_PHONE_DIGITS",
		"PHOTOSITE_RELAY_PROVIDER",
		"PHOTOSITE_RELAY_TIMEOUT",
		"PHOTOSITE_RELAY_AUTO_REPLY_TEMPLATE_ID",
		"PHOTOSITE_CORS_ALLOWED_ORIGINS",
		"PHOTOSITE_LOG_LEVEL",
		"PHOTOSITE_LOG_DEVELOPMENT",
		"PHOTOSITE_REDIS_ADDRESS",
	}
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad(t *testing.T) {
	t.Run("加载默认配置成功", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PHOTOSITE_SESSION_TICKET_SECRET", testSecret)

		cfg, err := Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "https://www.example.com", cfg.Server.SiteURL)
		assert.Equal(t, 60, cfg.Server.RateLimit)
		assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.False(t, cfg.Log.Development)

		assert.Equal(t, 3*time.Second, cfg.Gate.MinDwell)
		assert.Equal(t, 30*time.Second, cfg.Gate.Cooldown)
		assert.Equal(t, "gmail.com", cfg.Gate.AllowedEmailDomain)
		assert.Equal(t, 10, cfg.Gate.PhoneDigits)
		assert.Equal(t, "+1", cfg.Gate.DefaultCountryCode)

		assert.Equal(t, "emailjs", cfg.Relay.Provider)
		assert.Equal(t, 30*time.Second, cfg.Relay.Timeout)
		assert.Equal(t, "Dakoda", cfg.Relay.OwnerName)
		assert.Empty(t, cfg.Redis.Address)
		assert.Equal(t, 30*24*time.Hour, cfg.Session.TicketTTL)
	})

	t.Run("加载自定义配置成功", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PHOTOSITE_SESSION_TICKET_SECRET", testSecret)
		t.Setenv("PHOTOSITE_SERVER_PORT", "9090")
		t.Setenv("PHOTOSITE_SERVER_SITE_URL", "https://studio.example/")
		t.Setenv("PHOTOSITE_GATE_MIN_DWELL", "5s")
		t.Setenv("PHOTOSITE_GATE_COOLDOWN", "1m")
		t.Setenv("PHOTOSITE_GATE_ALLOWED_EMAIL_DOMAIN", "Example.COM")
		t.Setenv("PHOTOSITE_RELAY_PROVIDER", "SMTP")
		t.Setenv("PHOTOSITE_RELAY_TIMEOUT", "15s")
		t.Setenv("PHOTOSITE_CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://studio.example")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "https://studio.example", cfg.Server.SiteURL)
		assert.Equal(t, 5*time.Second, cfg.Gate.MinDwell)
		assert.Equal(t, time.Minute, cfg.Gate.Cooldown)
		assert.Equal(t, "example.com", cfg.Gate.AllowedEmailDomain)
		assert.Equal(t, "smtp", cfg.Relay.Provider)
		assert.Equal(t, 15*time.Second, cfg.Relay.Timeout)
		assert.Equal(t, []string{"http://localhost:5173", "https://studio.example"}, cfg.CORS.AllowedOrigins)
	})

	t.Run("票据密钥太短失败", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PHOTOSITE_SESSION_TICKET_SECRET", "short-key")

		cfg, err := Load()
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("使用默认票据密钥失败", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PHOTOSITE_SESSION_TICKET_SECRET", defaultTicketSecret)

		cfg, err := Load()
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "cannot be the default value")
	})

	t.Run("无效冷却时间失败", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PHOTOSITE_SESSION_TICKET_SECRET", testSecret)
		t.Setenv("PHOTOSITE_GATE_COOLDOWN", "thirty")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "gate.cooldown")
	})

	t.Run("投递时限为零失败", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PHOTOSITE_SESSION_TICKET_SECRET", testSecret)
		t.Setenv("PHOTOSITE_RELAY_TIMEOUT", "0s")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "relay.timeout must be positive")
	})

	t.Run("不支持的中继类型失败", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PHOTOSITE_SESSION_TICKET_SECRET", testSecret)
		t.Setenv("PHOTOSITE_RELAY_PROVIDER", "carrier-pigeon")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "relay.provider")
	})
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseList(" a , ,b,"))
	assert.Empty(t, parseList(""))
}
