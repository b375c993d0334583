package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Graph     GraphConfig     `mapstructure:"graph"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxUploadSize  int64         `mapstructure:"max_upload_size"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
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
	GroupID string   `mapstructure:"group_id"`
}

type Topics struct {
	UserEvents   string `mapstructure:"user_events"`
	SocialEvents string `mapstructure:"social_events"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_time"`
}

// StorageConfig 图片存储，driver 为 local 或 gcs
type StorageConfig struct {
	Driver          string `mapstructure:"driver"`
	LocalDir        string `mapstructure:"local_dir"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	GCSBucket       string `mapstructure:"gcs_bucket"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type GraphConfig struct {
	OperationTimeout time.Duration `mapstructure:"operation_timeout"` // 关注、级联删除等多步操作的超时
}

type ReconcileConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("server.max_upload_size", 5<<20)
	v.SetDefault("log.level", "info")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("redis.pool_size", 100)
	v.SetDefault("redis.min_idle_conns", 10)
	v.SetDefault("kafka.topics.user_events", "user-events")
	v.SetDefault("kafka.topics.social_events", "social-events")
	v.SetDefault("kafka.group_id", "reconcile-worker-group")
	v.SetDefault("jwt.expire_time", 24*time.Hour)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_dir", "uploads")
	v.SetDefault("storage.public_base_url", "/uploads")
	v.SetDefault("graph.operation_timeout", 5*time.Second)
	v.SetDefault("reconcile.interval", time.Minute)
	v.SetDefault("reconcile.stale_after", 5*time.Minute)
}

// LoadConfig 读取 CONFIG_PATH 指定的配置文件，XCLONE_ 前缀的环境变量可覆盖配置
func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("XCLONE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt.secret is required")
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

// WriteDefault 写入默认配置文件。jwt.secret 留空，未设置时启动失败。
func WriteDefault(path string) error {
	return os.WriteFile(path, []byte(defaultConfig), 0644)
}

const defaultConfig = `server:
  port: ":8080"
  mode: "debug"
  read_timeout: 30s
  write_timeout: 30s
  request_timeout: 10s
  max_upload_size: 5242880

log:
  level: "info"

database:
  host: "localhost"
  port: 5432
  user: "xclone"
  password: "xclone"
  dbname: "xclone"
  sslmode: "disable"
  max_open_conns: 100
  max_idle_conns: 10

redis:
  host: "localhost"
  port: 6379
  password: ""
  db: 0
  pool_size: 100
  min_idle_conns: 10

kafka:
  brokers:
    - "localhost:9092"
  topics:
    user_events: "user-events"
    social_events: "social-events"
  group_id: "reconcile-worker-group"

jwt:
  secret: ""               # 必填，或通过 XCLONE_JWT_SECRET 设置
  expire_time: 24h

storage:
  driver: "local"          # local 或 gcs
  local_dir: "uploads"
  public_base_url: "/uploads"
  gcs_bucket: ""
  credentials_file: ""

graph:
  operation_timeout: 5s    # 关注、级联删除等多步操作的超时

reconcile:
  interval: 1m
  stale_after: 5m`
