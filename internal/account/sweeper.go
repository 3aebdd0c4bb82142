package account

import (
	"context"
	"fmt"
	"time"

	"github.com/SlpAus/aom-parse-server/pkg/lifecycle"
	"go.uber.org/zap"
)

// PurgeExpiredSessions 删除所有已过期的会话。缓存中的条目不会超过会话的有效期，无需同步删除。
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at IS NOT NULL AND expires_at <= ?", s.now()).Delete(&Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("清理过期会话失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SessionSweeper 返回一个定期清理过期会话的后台任务
func (s *Service) SessionSweeper(interval time.Duration) func(h *lifecycle.Handle) {
	return func(h *lifecycle.Handle) {
		for h.Sleep(interval) == nil {
			n, err := s.PurgeExpiredSessions(h.Ctx())
			if err != nil {
				zap.L().Warn("会话清理失败", zap.Error(err))
				continue
			}
			if n > 0 {
				zap.L().Info("已清理过期会话", zap.Int64("count", n))
			}
		}
	}
}
