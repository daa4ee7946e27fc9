// Package config 集中管理服务配置：默认值 < 配置文件 < 环境变量
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，键中的 "." 替换为 "_"，例如 STOREFRONT_DB_DSN
const EnvPrefix = "STOREFRONT"

// Config 服务配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	DB       DBConfig       `mapstructure:"db"`
	Commerce CommerceConfig `mapstructure:"commerce"`
	Postal   PostalConfig   `mapstructure:"postal"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Wizard   WizardConfig   `mapstructure:"wizard"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DBConfig struct {
	Driver   string `mapstructure:"driver"` // postgres | sqlite
	DSN      string `mapstructure:"dsn"`
	LogLevel string `mapstructure:"log_level"` // silent | error | warn | info
}

// CommerceConfig 远程商城 API
type CommerceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Debug   bool          `mapstructure:"debug"`
}

// PostalConfig 邮编查询 API
type PostalConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig 图片暂存
type StorageConfig struct {
	Provider  string `mapstructure:"provider"` // local | s3
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Endpoint  string `mapstructure:"endpoint"`
	BasePath  string `mapstructure:"base_path"`
}

// AuthConfig 为空时只解析令牌不校验签名，身份由外部提供方负责
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type WizardConfig struct {
	TTL         time.Duration `mapstructure:"ttl"`
	CleanupCron string        `mapstructure:"cleanup_cron"`
	MaxPictures int           `mapstructure:"max_pictures"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "storefront.db")
	v.SetDefault("db.log_level", "warn")

	v.SetDefault("commerce.base_url", "http://localhost:3333")
	v.SetDefault("commerce.timeout", 20*time.Second)
	v.SetDefault("commerce.debug", false)

	v.SetDefault("postal.base_url", "https://brasilapi.com.br")
	v.SetDefault("postal.timeout", 10*time.Second)

	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.base_path", "./uploads")

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("wizard.ttl", 24*time.Hour)
	v.SetDefault("wizard.cleanup_cron", "0 0/30 * * * *")
	v.SetDefault("wizard.max_pictures", 12)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load 加载配置，path 为空时尝试当前目录下的 storefront.yml
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" && fileExists("storefront.yml") {
		path = "storefront.yml"
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported db.driver %q", c.DB.Driver)
	}
	switch c.Storage.Provider {
	case "local", "s3":
	default:
		return fmt.Errorf("unsupported storage.provider %q", c.Storage.Provider)
	}
	if c.Commerce.BaseURL == "" {
		return fmt.Errorf("commerce.base_url is required")
	}
	if c.Wizard.TTL <= 0 {
		return fmt.Errorf("wizard.ttl must be positive")
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
