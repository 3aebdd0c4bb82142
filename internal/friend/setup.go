package friend

import (
	"fmt"

	"gorm.io/gorm"
)

// MigrateDB 负责自动迁移数据库表结构
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&FriendRelation{}); err != nil {
		return fmt.Errorf("无法迁移friend_relations表: %w", err)
	}
	return nil
}
