package mail

import (
	"fmt"

	"gorm.io/gorm"
)

// MigrateDB 负责自动迁移数据库表结构
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&DropBox{}); err != nil {
		return fmt.Errorf("无法迁移drop_boxes表: %w", err)
	}
	return nil
}
