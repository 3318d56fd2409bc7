package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"photosite/backend/internal/cache"
	"photosite/backend/internal/domain"
	"photosite/backend/internal/storage"
)

const (
	sessionKeyPrefix  = "form_session:"
	inFlightKeyPrefix = "in_flight:"
)

// Store 使用内存保存表单会话与冷却记录，适用于单实例部署和开发验证。
type Store struct {
	kv *cache.LocalCache
}

// NewStore 创建一个内存存储实例。
//
// 所有条目按写入时的 TTL 过期。
func NewStore() *Store {
	return &Store{
		kv: cache.NewLocalCache(0, time.Minute),
	}
}

var _ storage.Store = (*Store)(nil)

// SaveSession 保存表单会话
func (s *Store) SaveSession(ctx context.Context, session *domain.FormSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	s.kv.Set(sessionKeyPrefix+session.ID, string(data), ttl)
	return nil
}

// GetSession 获取表单会话
func (s *Store) GetSession(ctx context.Context, id string) (*domain.FormSession, error) {
	raw, ok := s.kv.Get(sessionKeyPrefix + id)
	if !ok {
		return nil, storage.ErrSessionNotFound
	}

	var session domain.FormSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// DeleteSession 删除表单会话
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.kv.Delete(sessionKeyPrefix + id)
	return nil
}

// GetLastAccepted 获取访客最近一次成功提交的时间
func (s *Store) GetLastAccepted(ctx context.Context, visitorID string) (time.Time, error) {
	raw, ok := s.kv.Get(storage.LastSubmitKey(visitorID))
	if !ok {
		return time.Time{}, nil
	}
	return storage.DecodeTimestamp(raw), nil
}

// SetLastAccepted 覆盖写入访客最近一次成功提交的时间
func (s *Store) SetLastAccepted(ctx context.Context, visitorID string, at time.Time, ttl time.Duration) error {
	s.kv.Set(storage.LastSubmitKey(visitorID), storage.EncodeTimestamp(at), ttl)
	return nil
}

// AcquireInFlight 占用会话的投递权
func (s *Store) AcquireInFlight(ctx context.Context, sessionID, owner string, ttl time.Duration) (bool, error) {
	return s.kv.SetNX(inFlightKeyPrefix+sessionID, owner, ttl), nil
}

// ReleaseInFlight 释放 owner 持有的投递权
func (s *Store) ReleaseInFlight(ctx context.Context, sessionID, owner string) error {
	s.kv.DeleteIfValue(inFlightKeyPrefix+sessionID, owner)
	return nil
}

// Ping 内存存储始终可用
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Close 停止后台清理
func (s *Store) Close() error {
	s.kv.Close()
	return nil
}
