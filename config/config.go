package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Drive    DriveConfig    `mapstructure:"drive"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Name         string `mapstructure:"name"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	SSLMode      string `mapstructure:"sslmode"`
	Timezone     string `mapstructure:"timezone"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 会话令牌配置
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	AdminTokenTTL  time.Duration `mapstructure:"admin_token_ttl"`
}

// AdminConfig 管理员初始口令配置
// 仅在 admin_configs 表为空时用于播种初始口令哈希
type AdminConfig struct {
	InitialPassword string `mapstructure:"initial_password"`
}

// DriveConfig Google Drive 存储配置
type DriveConfig struct {
	ServiceAccountKey   string        `mapstructure:"service_account_key"`      // 服务账号 JSON（原文或 base64）
	ServiceAccountFile  string        `mapstructure:"service_account_key_file"` // 服务账号 JSON 文件路径
	FolderIDs           []string      `mapstructure:"folder_ids"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	DownloadConcurrency int           `mapstructure:"download_concurrency"` // 打包下载时的并发抓取上限
}

// LimitsConfig 下载请求限额配置
type LimitsConfig struct {
	MaxPendingRequests int           `mapstructure:"max_pending_requests"`
	MaxRequestsPerHour int           `mapstructure:"max_requests_per_hour"`
	RateWindow         time.Duration `mapstructure:"rate_window"`
	DownloadWindow     time.Duration `mapstructure:"download_window"` // 审批通过后的下载有效期
}

// CacheConfig 缩略图缓存配置
type CacheConfig struct {
	ThumbnailMaxEntries int           `mapstructure:"thumbnail_max_entries"`
	ThumbnailTTL        time.Duration `mapstructure:"thumbnail_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "village_photos")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Seoul")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "24h")
	v.SetDefault("auth.admin_token_ttl", "2h")

	v.SetDefault("drive.request_timeout", "30s")
	v.SetDefault("drive.download_concurrency", 4)

	v.SetDefault("limits.max_pending_requests", 3)
	v.SetDefault("limits.max_requests_per_hour", 3)
	v.SetDefault("limits.rate_window", "1h")
	v.SetDefault("limits.download_window", "168h") // 7 天

	v.SetDefault("cache.thumbnail_max_entries", 100)
	v.SetDefault("cache.thumbnail_ttl", "30m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("VP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if len(c.Drive.FolderIDs) == 0 {
		return fmt.Errorf("配置校验失败: drive.folder_ids 不能为空")
	}
	if c.Drive.DownloadConcurrency <= 0 {
		return fmt.Errorf("配置校验失败: drive.download_concurrency 必须大于 0")
	}
	return nil
}
