package database

import (
	"context"
	"fmt"
	"time"

	"github.com/SlpAus/aom-parse-server/internal/platform/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RDB 是全局的Redis客户端实例，未配置地址时为nil
var RDB *redis.Client

const redisPingTimeout = 2 * time.Second

// InitRedis 初始化与Redis的连接。地址为空时不启用缓存，RDB保持为nil。
func InitRedis(cfg config.RedisConfig) error {
	if cfg.Address == "" {
		zap.L().Info("未配置Redis地址，会话缓存已禁用")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("无法连接到Redis: %w", err)
	}

	RDB = client
	UpdateRedisStatus(true)
	zap.L().Info("Redis 连接成功", zap.String("address", cfg.Address))
	return nil
}

// CloseRedis 关闭全局Redis连接
func CloseRedis() error {
	if RDB == nil {
		return nil
	}
	return RDB.Close()
}
