package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Mailbox   MailboxConfig   `mapstructure:"mailbox"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
	Admin     AdminConfig     `mapstructure:"admin"`
}

type ServerConfig struct {
	Port          string `mapstructure:"port"`
	Mode          string `mapstructure:"mode"`
	SessionSecret string `mapstructure:"session_secret"`
	SessionName   string `mapstructure:"session_name"`
}

type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"` // postgres, sqlite
	DSN         string `mapstructure:"dsn"`
	ReadRetries int    `mapstructure:"read_retries"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type MailboxConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

// RateLimitConfig 发信频率限制，ComposePerMinute <= 0 表示不限制
type RateLimitConfig struct {
	ComposePerMinute int `mapstructure:"compose_per_minute"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text, json
}

// AdminConfig 启动时自动创建的超级管理员，Username 为空则跳过
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.session_secret", "secret_key_change_me")
	v.SetDefault("server.session_name", "clubhub_session")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=clubhub port=5432 sslmode=disable")
	v.SetDefault("database.read_retries", 2)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", 24*time.Hour)

	v.SetDefault("mailbox.default_limit", 10)
	v.SetDefault("mailbox.max_limit", 100)

	v.SetDefault("rate_limit.compose_per_minute", 30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("admin.username", "")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
}

// Load 读取 .env、可选的配置文件以及 CLUBHUB_ 前缀的环境变量。
// configPath 为空时只使用默认值与环境变量。
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, reading env vars from system")
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CLUBHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查互相依赖的配置项
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Mailbox.DefaultLimit <= 0 || c.Mailbox.MaxLimit <= 0 {
		return errors.New("mailbox limits must be positive")
	}
	if c.Mailbox.DefaultLimit > c.Mailbox.MaxLimit {
		return errors.New("mailbox.default_limit exceeds mailbox.max_limit")
	}
	if c.Database.ReadRetries < 0 {
		return errors.New("database.read_retries must not be negative")
	}
	return nil
}
