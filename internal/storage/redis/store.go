package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"photosite/backend/internal/domain"
	"photosite/backend/internal/storage"
)

const (
	sessionKeyPrefix  = "form_session:"
	inFlightKeyPrefix = "in_flight:"
)

// releaseScript 仅当值仍为调用方的 owner 时删除占用
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Store 基于 Redis 的表单状态存储，多实例部署时共享冷却记录和投递占用。
type Store struct {
	*Client
}

// NewStore 使用已连接的客户端创建存储
func NewStore(client *Client) *Store {
	return &Store{Client: client}
}

var _ storage.Store = (*Store)(nil)

// SaveSession 保存表单会话
func (s *Store) SaveSession(ctx context.Context, session *domain.FormSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKeyPrefix+session.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// GetSession 获取表单会话
func (s *Store) GetSession(ctx context.Context, id string) (*domain.FormSession, error) {
	data, err := s.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session domain.FormSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// DeleteSession 删除表单会话
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+id).Err()
}

// GetLastAccepted 获取访客最近一次成功提交的时间
func (s *Store) GetLastAccepted(ctx context.Context, visitorID string) (time.Time, error) {
	raw, err := s.rdb.Get(ctx, storage.LastSubmitKey(visitorID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("get last accepted: %w", err)
	}
	return storage.DecodeTimestamp(raw), nil
}

// SetLastAccepted 覆盖写入访客最近一次成功提交的时间
func (s *Store) SetLastAccepted(ctx context.Context, visitorID string, at time.Time, ttl time.Duration) error {
	return s.rdb.Set(ctx, storage.LastSubmitKey(visitorID), storage.EncodeTimestamp(at), ttl).Err()
}

// AcquireInFlight 使用 SETNX 占用会话的投递权
func (s *Store) AcquireInFlight(ctx context.Context, sessionID, owner string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, inFlightKeyPrefix+sessionID, owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire in-flight: %w", err)
	}
	return ok, nil
}

// ReleaseInFlight 释放 owner 持有的投递权，比较与删除在脚本内原子完成
func (s *Store) ReleaseInFlight(ctx context.Context, sessionID, owner string) error {
	if err := releaseScript.Run(ctx, s.rdb, []string{inFlightKeyPrefix + sessionID}, owner).Err(); err != nil {
		return fmt.Errorf("release in-flight: %w", err)
	}
	return nil
}
