package storage

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"photosite/backend/internal/domain"
)

var (
	// ErrSessionNotFound 表单会话不存在或已过期
	ErrSessionNotFound = errors.New("form session not found")
)

// LastSubmitKeyPrefix 访客最近一次成功提交时间的键前缀
const LastSubmitKeyPrefix = "last_submit_ts:"

// SessionRepository 定义表单会话（令牌 + 开始时间）的存取操作。
type SessionRepository interface {
	SaveSession(ctx context.Context, session *domain.FormSession, ttl time.Duration) error
	GetSession(ctx context.Context, id string) (*domain.FormSession, error)
	DeleteSession(ctx context.Context, id string) error
}

// CooldownRepository 定义访客冷却时间的存取操作。
//
// 每个访客只保存一条记录，成功投递后覆盖写入。
type CooldownRepository interface {
	// GetLastAccepted 返回最近一次成功提交的时间，从未提交过时返回零值
	GetLastAccepted(ctx context.Context, visitorID string) (time.Time, error)
	// SetLastAccepted 写入成功提交时间，ttl 不短于冷却时间
	SetLastAccepted(ctx context.Context, visitorID string, at time.Time, ttl time.Duration) error
}

// InFlightGuard 保证同一会话同一时刻只有一次提交在投递中。
//
// 占用值为请求级的 owner，释放时只删除仍属于该 owner 的占用，
// 占用过期后被其他请求接手时不会被原请求误删。
type InFlightGuard interface {
	// AcquireInFlight 尝试占用会话，已被占用时返回 false
	AcquireInFlight(ctx context.Context, sessionID, owner string, ttl time.Duration) (bool, error)
	// ReleaseInFlight 释放 owner 持有的占用，占用已易主时不做任何事
	ReleaseInFlight(ctx context.Context, sessionID, owner string) error
}

// Store 聚合联系表单需要的全部存储能力。
type Store interface {
	SessionRepository
	CooldownRepository
	InFlightGuard

	Ping(ctx context.Context) error
	Close() error
}

// LastSubmitKey 返回访客冷却记录的键
func LastSubmitKey(visitorID string) string {
	return LastSubmitKeyPrefix + visitorID
}

// EncodeTimestamp 将时间编码为毫秒时间戳字符串
func EncodeTimestamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// DecodeTimestamp 解析毫秒时间戳字符串
//
// 无法解析的值按从未提交处理，返回零值。
func DecodeTimestamp(raw string) time.Time {
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
