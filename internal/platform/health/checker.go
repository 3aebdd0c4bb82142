package health

import (
	"context"
	"time"

	"github.com/SlpAus/aom-parse-server/internal/platform/database"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

// Checker 在被调用时探测数据库和Redis，不在后台运行
type Checker struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewChecker 创建检查器，rdb可以为nil（未启用缓存）
func NewChecker(db *gorm.DB, rdb *redis.Client) *Checker {
	return &Checker{db: db, rdb: rdb}
}

// Check 并发探测数据库和Redis并返回状态
func (c *Checker) Check(ctx context.Context) (State, Report) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	var dbErr, cacheErr error
	var g errgroup.Group
	g.Go(func() error {
		dbErr = c.pingDB(ctx)
		return nil
	})
	if c.rdb != nil {
		g.Go(func() error {
			cacheErr = c.rdb.Ping(ctx).Err()
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Database: "ok", Cache: "disabled"}
	state := StateHealthy

	if dbErr != nil {
		zap.L().Error("健康检查: 数据库不可用", zap.Error(dbErr))
		report.Database = "unavailable"
		state = StateUnavailable
	}

	if c.rdb != nil {
		database.UpdateRedisStatus(cacheErr == nil)
		if cacheErr != nil {
			report.Cache = "unavailable"
			if state == StateHealthy {
				state = StateDegraded
			}
		} else {
			report.Cache = "ok"
		}
	}

	report.Status = state.String()
	return state, report
}

func (c *Checker) pingDB(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
