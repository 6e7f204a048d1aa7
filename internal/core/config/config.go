package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	// 单请求处理超时 / 并发上限 / 请求体上限
	HandlerTimeoutSec int
	MaxConcurrent     int64
	MaxBodyBytes      int64
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

// IsLocal 本地开发环境（cookie 不加 Secure）
func (a App) IsLocal() bool {
	switch strings.ToLower(a.Env) {
	case "", "local", "dev", "development":
		return true
	}
	return false
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

func (j JWT) TTL() time.Duration { return time.Duration(j.AccessTokenTTLMin) * time.Minute }

type Cookie struct {
	Name   string
	Domain string
}

type CORS struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string
}

type Config struct {
	App    App
	Log    Log
	JWT    JWT
	Cookie Cookie
	CORS   CORS `mapstructure:"cors"`
	DB     DB
	Redis  Redis `mapstructure:"redis"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "taskboard")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 5000)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 10)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.http.handlertimeoutsec", 10)
	v.SetDefault("app.http.maxconcurrent", 300)
	v.SetDefault("app.http.maxbodybytes", 1<<20)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 5001)
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.issuer", "taskboard")
	v.SetDefault("jwt.accesstokenttlmin", 8*60)
	v.SetDefault("cookie.name", "token")
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 10)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.loglevel", "warn")
}

// Load 读取 YAML 配置，APP_ 前缀环境变量覆盖（如 APP_JWT_SECRET）
func Load(path string) *Config {
	c, err := LoadE(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return c
}

func LoadE(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 16 {
		return fmt.Errorf("jwt.secret must be at least 16 bytes")
	}
	if c.JWT.AccessTokenTTLMin <= 0 {
		return fmt.Errorf("jwt.accesstokenttlmin must be positive")
	}
	// 携带凭证的跨域请求不允许通配 origin
	for _, o := range c.CORS.AllowOrigins {
		if strings.TrimSpace(o) == "*" {
			return fmt.Errorf("cors.allow_origins must list explicit origins, \"*\" is not allowed with credentials")
		}
	}
	return nil
}
