package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Guard    GuardConfig    `mapstructure:"guard"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topics  Topics   `mapstructure:"topics"`
}

type Topics struct {
	ReviewEvents string `mapstructure:"review_events"`
	UserEvents   string `mapstructure:"user_events"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_time"`
}

// StorageConfig 本地对象存储，上传文件落盘后通过 public_base_url 对外暴露
type StorageConfig struct {
	LocalDir       string `mapstructure:"local_dir"`
	PublicBaseURL  string `mapstructure:"public_base_url"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
	JPEGQuality    int    `mapstructure:"jpeg_quality"`
	MaxImages      int    `mapstructure:"max_images"`
}

// 资料未补全时拦截策略
const (
	GuardFailOpen   = "open"
	GuardFailClosed = "closed"
)

// GuardConfig 资料补全门禁。FailPolicy 决定查询用户资料失败时放行还是拒绝
type GuardConfig struct {
	FailPolicy string        `mapstructure:"fail_policy"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

type CatalogConfig struct {
	ExploreLimit int           `mapstructure:"explore_limit"`
	SearchLimit  int           `mapstructure:"search_limit"`
	PageSize     int           `mapstructure:"page_size"`
	TrendingSize int           `mapstructure:"trending_size"`
	StatsTTL     time.Duration `mapstructure:"stats_ttl"`
}

const defaultConfigYAML = `server:
  port: ":8080"
  mode: "debug"
  read_timeout: 10s
  write_timeout: 10s

database:
  host: "localhost"
  port: 5432
  user: "postgres"
  password: "postgres"
  dbname: "reviewhub"
  sslmode: "disable"
  max_open_conns: 25
  max_idle_conns: 5

redis:
  host: "localhost"
  port: 6379
  password: ""
  db: 0
  pool_size: 10
  min_idle_conns: 2

kafka:
  brokers:
    - "localhost:9092"
  topics:
    review_events: "review-events"
    user_events: "user-events"

jwt:
  secret: "change-me"
  expire_time: 24h

storage:
  local_dir: "./data/uploads"
  public_base_url: "http://localhost:8080/uploads"
  max_upload_bytes: 10485760
  jpeg_quality: 80
  max_images: 5

guard:
  fail_policy: "open"
  cache_ttl: 5m

catalog:
  explore_limit: 100
  search_limit: 50
  page_size: 10
  trending_size: 50
  stats_ttl: 10m
`

// writeDefaultConfig 首次启动时生成默认配置文件
func writeDefaultConfig(configPath string) error {
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	return nil
}

func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := writeDefaultConfig(configPath); err != nil {
			return nil, err
		}
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
