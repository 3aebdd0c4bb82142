package database

import (
	"fmt"
	"time"

	"github.com/SlpAus/aom-parse-server/internal/platform/config"
	"github.com/SlpAus/aom-parse-server/pkg/token"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// ObjectModel 是所有Parse类共用的主键和时间戳字段
type ObjectModel struct {
	ObjectID  string `gorm:"primarykey;type:varchar(10)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate 在插入前分配10位objectId
func (m *ObjectModel) BeforeCreate(tx *gorm.DB) error {
	if m.ObjectID == "" {
		m.ObjectID = token.NewObjectID()
	}
	return nil
}

// GormConfig 返回统一的GORM配置：所有时间以UTC写入，并把驱动错误翻译为GORM错误
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	}
}

// Open 按配置选择驱动并建立连接
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		dialector = sqlite.Open(cfg.Sqlite.Path + "?_busy_timeout=5000")
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return nil, fmt.Errorf("database.postgres.dsn 未配置")
		}
		dialector = postgres.Open(cfg.Postgres.DSN)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}
	return db, nil
}

// InitDB 初始化全局数据库连接
func InitDB(cfg config.DatabaseConfig) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	DB = db
	zap.L().Info("数据库连接成功", zap.String("driver", cfg.Driver))
	return nil
}

// Close 关闭全局数据库连接
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
