package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Parse    ParseConfig    `mapstructure:"parse"`
	Client   ClientConfig   `mapstructure:"client"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode    string     `mapstructure:"mode"`
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Sqlite   SqliteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// SqliteConfig 定义了SQLite数据库文件的位置
type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig 定义了PostgreSQL的连接串
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 定义了Redis的配置，Address为空时不启用会话缓存
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ParseConfig 定义了Parse协议兼容相关的配置
type ParseConfig struct {
	ApplicationID string        `mapstructure:"applicationId"`
	MasterKey     string        `mapstructure:"masterKey"`
	SessionTTL    time.Duration `mapstructure:"sessionTTL"`

	// SessionSweepInterval 是后台清理过期会话的间隔，0表示不启用
	SessionSweepInterval time.Duration `mapstructure:"sessionSweepInterval"`
}

// ClientConfig 定义了 /parse/config 返回给客户端的参数
type ClientConfig struct {
	VersionAndroid     string `mapstructure:"versionAndroid"`
	VersionIOS         string `mapstructure:"versionIOS"`
	MaintenanceMode    bool   `mapstructure:"maintenanceMode"`
	MaintenanceMessage string `mapstructure:"maintenanceMessage"`
	ServerVersion      string `mapstructure:"serverVersion"`
	// ExtraParamsFile 指向一个JSON文件，其中的键值会原样合并进参数表。
	// viper会把键名转为小写，而客户端参数名大小写敏感，所以额外参数不放在yaml中。
	ExtraParamsFile string `mapstructure:"extraParamsFile"`
}

// Params 构造客户端参数表。返回的是新map，调用方可以随意持有。
func (c ClientConfig) Params() (map[string]any, error) {
	params := map[string]any{
		"Version_Android":    c.VersionAndroid,
		"Version_iOS":        c.VersionIOS,
		"maintenanceMode":    c.MaintenanceMode,
		"maintenanceMessage": c.MaintenanceMessage,
		"serverVersion":      c.ServerVersion,
	}
	if c.ExtraParamsFile == "" {
		return params, nil
	}

	raw, err := os.ReadFile(c.ExtraParamsFile)
	if err != nil {
		return nil, fmt.Errorf("无法读取客户端参数文件 %s: %w", c.ExtraParamsFile, err)
	}
	var extra map[string]any
	if err := json.Unmarshal(raw, &extra); err != nil {
		return nil, fmt.Errorf("客户端参数文件 %s 不是合法的JSON对象: %w", c.ExtraParamsFile, err)
	}
	for k, v := range extra {
		params[k] = v
	}
	return params, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.address", ":1337")
	v.SetDefault("server.cors.allowedOrigins", []string{"*"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite.path", "aom.db")
	v.SetDefault("database.postgres.dsn", "")
	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("parse.applicationId", "game.ignite.aom.prd")
	v.SetDefault("parse.masterKey", "")
	v.SetDefault("parse.sessionTTL", 365*24*time.Hour)
	v.SetDefault("parse.sessionSweepInterval", time.Duration(0))

	v.SetDefault("client.versionAndroid", "2.5.2")
	v.SetDefault("client.versionIOS", "2.5.0")
	v.SetDefault("client.maintenanceMode", false)
	v.SetDefault("client.maintenanceMessage", "")
	v.SetDefault("client.serverVersion", "1.0.0")
	v.SetDefault("client.extraParamsFile", "")
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件，找不到时使用内置默认值
func LoadConfig() (*Config, error) {
	// 先加载 .env，使其中的变量可以被 AutomaticEnv 读取
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("无法加载.env文件: %w", err)
	}

	v := viper.New()

	// 1. 设置配置文件名和类型
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// 2. 添加配置文件搜索路径
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 3. 允许通过环境变量覆盖配置，例如 DATABASE_DRIVER=postgres
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// 4. 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// 5. 将配置反序列化到结构体中
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.Parse.SessionTTL <= 0 {
		return nil, fmt.Errorf("parse.sessionTTL 必须为正数，当前为 %v", cfg.Parse.SessionTTL)
	}

	Cfg = &cfg
	return Cfg, nil
}
