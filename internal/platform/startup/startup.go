package startup

import (
	"github.com/SlpAus/aom-parse-server/internal/account"
	"github.com/SlpAus/aom-parse-server/internal/battle"
	"github.com/SlpAus/aom-parse-server/internal/coupon"
	"github.com/SlpAus/aom-parse-server/internal/friend"
	"github.com/SlpAus/aom-parse-server/internal/gamedata"
	"github.com/SlpAus/aom-parse-server/internal/mail"
	"github.com/SlpAus/aom-parse-server/internal/notice"
	"github.com/SlpAus/aom-parse-server/internal/summary"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InitializeApplication 是应用启动时执行的总入口，按模块依次迁移表结构
func InitializeApplication(db *gorm.DB) error {
	zap.L().Info("开始初始化数据库表结构...")

	steps := []struct {
		name    string
		migrate func(*gorm.DB) error
	}{
		{"account", account.MigrateDB},
		{"summary", summary.MigrateDB},
		{"gamedata", gamedata.MigrateDB},
		{"friend", friend.MigrateDB},
		{"battle", battle.MigrateDB},
		{"notice", notice.MigrateDB},
		{"mail", mail.MigrateDB},
		{"coupon", coupon.MigrateDB},
	}
	for _, step := range steps {
		if err := step.migrate(db); err != nil {
			return err
		}
		zap.L().Debug("模块迁移完成", zap.String("module", step.name))
	}

	zap.L().Info("数据库初始化完成！")
	return nil
}
