package account

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SlpAus/aom-parse-server/internal/platform/database"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	sessionKeyPrefix = "session:"
	// sessionCacheMaxTTL 限制缓存条目的寿命，会话本身的过期时间通常长得多
	sessionCacheMaxTTL = 24 * time.Hour
)

// SessionCache 是会话令牌到用户的只读缓存。
// 缓存失败不会影响请求，所有写操作仍以数据库为准。
// 删除失败的令牌记在 pending 中，在成功从Redis删除之前一律视为未命中。
type SessionCache struct {
	rdb *redis.Client

	mu      sync.Mutex
	pending map[string]time.Time
}

// NewSessionCache 创建缓存，rdb为nil时返回nil，调用方无需区分
func NewSessionCache(rdb *redis.Client) *SessionCache {
	if rdb == nil {
		return nil
	}
	return &SessionCache{rdb: rdb, pending: make(map[string]time.Time)}
}

type cachedSession struct {
	UserID    string
	ExpiresAt *time.Time
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

func (c *SessionCache) get(ctx context.Context, token string) (cachedSession, bool) {
	if c == nil || !database.IsRedisHealthy() {
		return cachedSession{}, false
	}
	if !c.evictPending(ctx) || c.isPending(token) {
		return cachedSession{}, false
	}
	fields, err := c.rdb.HGetAll(ctx, sessionKey(token)).Result()
	if err != nil {
		c.fail("读取会话缓存失败", err)
		return cachedSession{}, false
	}
	database.UpdateRedisStatus(true)

	userID := fields["userId"]
	if userID == "" {
		return cachedSession{}, false
	}
	s := cachedSession{UserID: userID}
	if raw := fields["expiresAt"]; raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return cachedSession{}, false
		}
		s.ExpiresAt = &t
	}
	return s, true
}

func (c *SessionCache) put(ctx context.Context, s Session, now time.Time) {
	if c == nil {
		return
	}
	ttl := sessionCacheMaxTTL
	expiresAt := ""
	if s.ExpiresAt != nil {
		remaining := s.ExpiresAt.Sub(now)
		if remaining <= 0 {
			return
		}
		if remaining < ttl {
			ttl = remaining
		}
		expiresAt = s.ExpiresAt.UTC().Format(time.RFC3339Nano)
	}

	key := sessionKey(s.SessionToken)
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, "userId", s.UserID, "expiresAt", expiresAt)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.fail("写入会话缓存失败", err)
		return
	}
	database.UpdateRedisStatus(true)
}

func (c *SessionCache) del(ctx context.Context, tokens ...string) {
	if c == nil || len(tokens) == 0 {
		return
	}
	keys := make([]string, len(tokens))
	for i, t := range tokens {
		keys[i] = sessionKey(t)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.markPending(tokens)
		c.fail("删除会话缓存失败", err)
		return
	}
	database.UpdateRedisStatus(true)
}

func (c *SessionCache) markPending(tokens []string) {
	deadline := time.Now().Add(sessionCacheMaxTTL)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tokens {
		c.pending[t] = deadline
	}
}

func (c *SessionCache) isPending(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[token]
	return ok
}

// evictPending 重试删除之前失败的缓存条目，全部清除后返回true。
// 超过 sessionCacheMaxTTL 的记录对应的条目已自然过期，直接丢弃。
func (c *SessionCache) evictPending(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return true
	}

	now := time.Now()
	keys := make([]string, 0, len(c.pending))
	for t, deadline := range c.pending {
		if now.After(deadline) {
			delete(c.pending, t)
			continue
		}
		keys = append(keys, sessionKey(t))
	}
	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			c.fail("重试删除会话缓存失败", err)
			return false
		}
	}
	clear(c.pending)
	return true
}

func (c *SessionCache) fail(msg string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	zap.L().Warn(msg, zap.Error(err))
	database.UpdateRedisStatus(false)
}
