package notice

import (
	"fmt"

	"gorm.io/gorm"
)

// MigrateDB 负责自动迁移数据库表结构
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Notice{}); err != nil {
		return fmt.Errorf("无法迁移notices表: %w", err)
	}
	return nil
}
