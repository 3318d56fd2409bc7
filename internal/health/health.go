package health

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"
)

// Pinger 可探测连通性的依赖，如状态存储
type Pinger interface {
	Ping(ctx context.Context) error
}

// 健康检查阈值
const (
	maxGoroutines = 1000
	checkTimeout  = 2 * time.Second
)

// HealthChecker 健康检查器
type HealthChecker struct {
	health healthcheck.Handler
	store  Pinger
	logger *zap.Logger
}

// NewHealthChecker 创建健康检查器
//
// relayAddr 为 SMTP 中继地址 (host:port)，非空时加入 DNS 就绪检查。
func NewHealthChecker(store Pinger, relayAddr string, logger *zap.Logger) *HealthChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	hc := &HealthChecker{
		health: healthcheck.NewHandler(),
		store:  store,
		logger: logger,
	}

	// 添加健康检查
	hc.addChecks(relayAddr)

	return hc
}

// addChecks 添加健康检查
func (hc *HealthChecker) addChecks(relayAddr string) {
	hc.health.AddLivenessCheck("goroutines", healthcheck.GoroutineCountCheck(maxGoroutines))

	// 状态存储不可用时无法挂载表单
	hc.health.AddReadinessCheck("store", healthcheck.Timeout(hc.pingStore, checkTimeout))

	if relayAddr != "" {
		host, _, err := net.SplitHostPort(relayAddr)
		if err != nil {
			host = relayAddr
		}
		hc.health.AddReadinessCheck("relay-dns", healthcheck.DNSResolveCheck(host, checkTimeout))
	}
}

func (hc *HealthChecker) pingStore() error {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	if err := hc.store.Ping(ctx); err != nil {
		hc.logger.Warn("store health check failed", zap.Error(err))
		return err
	}
	return nil
}

// Handler 返回健康检查处理器，提供 /live 与 /ready 端点
func (hc *HealthChecker) Handler() http.Handler {
	return hc.health
}

// LiveEndpoint 存活检查
func (hc *HealthChecker) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.health.LiveEndpoint(w, r)
}

// ReadyEndpoint 就绪检查
func (hc *HealthChecker) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.health.ReadyEndpoint(w, r)
}

// CheckHealth 执行健康检查，返回各依赖状态摘要
func (hc *HealthChecker) CheckHealth(ctx context.Context) map[string]string {
	results := make(map[string]string)

	if err := hc.store.Ping(ctx); err != nil {
		results["store"] = fmt.Sprintf("ERROR: %v", err)
	} else {
		results["store"] = "OK"
	}

	results["timestamp"] = time.Now().Format(time.RFC3339)

	return results
}
