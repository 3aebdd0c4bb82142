package database

import (
	"sync"

	"go.uber.org/zap"
)

// statusManager 负责线程安全地记录Redis最近一次操作的结果。
// 状态只在请求路径上被动更新，不做后台轮询。
type statusManager struct {
	mu             sync.RWMutex
	isRedisHealthy bool
}

var globalStatus = &statusManager{
	isRedisHealthy: true,
}

// IsRedisHealthy 返回最近一次Redis操作是否成功
func IsRedisHealthy() bool {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.isRedisHealthy
}

// UpdateRedisStatus 更新Redis健康状态，仅在状态变化时记录日志
func UpdateRedisStatus(isHealthy bool) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()

	if globalStatus.isRedisHealthy == isHealthy {
		return
	}
	globalStatus.isRedisHealthy = isHealthy
	if isHealthy {
		zap.L().Info("Redis服务状态已更新为 [可用]")
	} else {
		zap.L().Warn("Redis服务状态已更新为 [不可用]，会话查询将直接访问数据库")
	}
}
