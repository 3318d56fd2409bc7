package middleware

import (
	"encoding/hex"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/time/rate"

	"photosite/backend/internal/monitoring"
)

// ClientKey 将客户端 IP 哈希为短标识，日志和限流表中不保存原始 IP
func ClientKey(ip string) string {
	sum := blake2b.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter 按客户端 IP 的令牌桶限流器
type IPRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
	perMin  int
	idleTTL time.Duration
	metrics *monitoring.Metrics
	log     *zap.Logger
	now     func() time.Time
}

// NewIPRateLimiter 创建限流器
//
// 参数:
//   - perMinute: 每个 IP 每分钟允许的请求数，同时作为突发容量
//   - metrics: 可选，记录被限流的请求
func NewIPRateLimiter(perMinute int, metrics *monitoring.Metrics, log *zap.Logger) *IPRateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &IPRateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   perMinute,
		perMin:  perMinute,
		idleTTL: 10 * time.Minute,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
}

// reserve 为客户端预留一个令牌，返回是否允许以及需要等待的时间
func (l *IPRateLimiter) reserve(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	client, ok := l.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = client
	}
	client.lastSeen = now

	if client.limiter.AllowN(now, 1) {
		return true, 0
	}

	r := client.limiter.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait
}

// Cleanup 清理长时间未访问的客户端，返回清理数量
func (l *IPRateLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idleTTL)
	removed := 0
	for key, client := range l.clients {
		if client.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

// Middleware 返回 gin 限流中间件
func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ClientKey(c.ClientIP())
		allowed, wait := l.reserve(key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.perMin))

		if !allowed {
			retryAfter := int(math.Ceil(wait.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			if l.metrics != nil {
				l.metrics.RecordRateLimitBlock("ip")
			}
			l.log.Warn("rate limit exceeded", zap.String("client", key))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code": http.StatusTooManyRequests,
				"msg":  "too many requests",
			})
			return
		}

		c.Next()
	}
}
