package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photosite/backend/internal/auth"
	"photosite/backend/internal/monitoring"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func okHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func TestIPRateLimiter(t *testing.T) {
	metrics := monitoring.NewMetrics(nil)
	limiter := NewIPRateLimiter(60, metrics, nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	router := gin.New()
	router.Use(limiter.Middleware())
	router.GET("/", okHandler)

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 60; i++ {
		require.Equal(t, http.StatusOK, do("10.0.0.1").Code, "request %d", i)
	}

	blocked := do("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "1", blocked.Header().Get("Retry-After"))
	assert.Equal(t, "60", blocked.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RateLimitBlocks.WithLabelValues("ip")))

	// 其他 IP 不受影响
	assert.Equal(t, http.StatusOK, do("10.0.0.2").Code)

	// 令牌按速率恢复
	now = now.Add(2 * time.Second)
	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)
}

func TestIPRateLimiter_Cleanup(t *testing.T) {
	limiter := NewIPRateLimiter(10, nil, nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.reserve(ClientKey("10.0.0.1"))
	now = now.Add(5 * time.Minute)
	limiter.reserve(ClientKey("10.0.0.2"))
	now = now.Add(6 * time.Minute)

	assert.Equal(t, 1, limiter.Cleanup())
	assert.Len(t, limiter.clients, 1)
}

func TestClientKey(t *testing.T) {
	key := ClientKey("203.0.113.7")
	assert.Len(t, key, 16)
	assert.Equal(t, key, ClientKey("203.0.113.7"))
	assert.NotEqual(t, key, ClientKey("203.0.113.8"))
	assert.NotContains(t, key, "203")
}

func TestRequireSessionTicket(t *testing.T) {
	tickets := auth.NewTicketManager("0123456789abcdef0123456789abcdef", "photosite", time.Hour, time.Hour)
	ta := NewTicketAuth(tickets, nil)

	router := gin.New()
	router.POST("/submit", ta.RequireSessionTicket(), func(c *gin.Context) {
		claims, ok := TicketClaims(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.SessionID)
	})

	sessionTicket, err := tickets.IssueSession("visitor-1", "session-1")
	require.NoError(t, err)
	visitorTicket, err := tickets.IssueVisitor("visitor-1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"有效会话票据", "Bearer " + sessionTicket, http.StatusOK, "session-1"},
		{"小写 bearer", "bearer " + sessionTicket, http.StatusOK, "session-1"},
		{"缺少票据", "", http.StatusUnauthorized, "session ticket required"},
		{"认证方案错误", "Basic " + sessionTicket, http.StatusUnauthorized, "session ticket required"},
		{"访客票据不能用于提交", "Bearer " + visitorTicket, http.StatusUnauthorized, "invalid session ticket"},
		{"无法解析的票据", "Bearer abc", http.StatusUnauthorized, "invalid session ticket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/submit", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestBodySizeLimit(t *testing.T) {
	router := gin.New()
	router.Use(BodySizeLimit(16))
	router.POST("/", okHandler)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "16", rec.Header().Get("X-Max-Body-Size"))
}

func TestValidateContentType(t *testing.T) {
	router := gin.New()
	router.Use(ValidateContentType("application/json"))
	router.POST("/", okHandler)
	router.GET("/", okHandler)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPanicRecovery(t *testing.T) {
	metrics := monitoring.NewMetrics(nil)
	mm := NewMonitoringMiddleware(metrics, nil)

	router := gin.New()
	router.Use(mm.PanicRecovery(), mm.HTTPMetrics(), SecurityHeaders())
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PanicsTotal))
}
