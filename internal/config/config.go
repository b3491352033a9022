package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	viper "github.com/spf13/viper"
)

/*
把init config跟read config分開
init : 需要設置viper watch 與 onConfigChange
read config : 一般讀取  需要使用讀寫鎖
*/
var configSingleton *ConfigSingleton
var muonce sync.Once

const ConfigPathEnv = "GROCERY_CONFIG"

type ConfigSingleton struct {
	Config *Config
	mu     sync.RWMutex
}

type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	Env        string `mapstructure:"ENV"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	StoreDriver string `mapstructure:"STORE_DRIVER"`
	StorePrefix string `mapstructure:"STORE_PREFIX"`
	DbName      string `mapstructure:"POSTGRES_DB"`
	DbHost      string `mapstructure:"POSTGRES_HOST"`
	DbPort      string `mapstructure:"POSTGRES_PORT"`
	DbUser      string `mapstructure:"POSTGRES_USER"`
	DbPas       string `mapstructure:"POSTGRES_PASSWORD"`
	MysqlDsn    string `mapstructure:"MYSQL_DSN"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`
	RedisPas    string `mapstructure:"REDIS_PASSWORD"`
	RedisDB     int    `mapstructure:"REDIS_DB"`

	TokenSecret            string `mapstructure:"TOKEN_SECRET"`
	PasswordHasher         string `mapstructure:"PASSWORD_HASHER"`
	SeedDemoData           bool   `mapstructure:"SEED_DEMO_DATA"`
	OrderStrictTransitions bool   `mapstructure:"ORDER_STRICT_TRANSITIONS"`
	LoginLatencyMs         int    `mapstructure:"LOGIN_LATENCY_MS"`
	OrderLatencyMs         int    `mapstructure:"ORDER_LATENCY_MS"`
	CatalogPath            string `mapstructure:"CATALOG_PATH"`

	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	KafkaOrderTopic string `mapstructure:"KAFKA_ORDER_TOPIC"`
	KafkaLogTopic   string `mapstructure:"KAFKA_LOG_TOPIC"`
	EventStoreUrl   string `mapstructure:"EVENTSTORE_URL"`

	RateLimitCapacity int    `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitRefillMs int    `mapstructure:"RATE_LIMIT_REFILL_MS"`
	RateLimitDriver   string `mapstructure:"RATE_LIMIT_DRIVER"`
}

func (c *Config) LoginLatency() time.Duration {
	return time.Duration(c.LoginLatencyMs) * time.Millisecond
}

func (c *Config) OrderLatency() time.Duration {
	return time.Duration(c.OrderLatencyMs) * time.Millisecond
}

func (c *Config) RateLimitRefill() time.Duration {
	return time.Duration(c.RateLimitRefillMs) * time.Millisecond
}

// KafkaBrokerList 以逗號分隔, 空字串代表不啟用kafka
func (c *Config) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func GetConfig() *Config {
	initConfig()
	configSingleton.mu.RLock()
	defer configSingleton.mu.RUnlock()
	return configSingleton.Config
}

func initConfig() {
	muonce.Do(func() {
		configSingleton = &ConfigSingleton{}
		path := configPath()
		v := viper.New()
		cf, err := loadConfig(v, path)
		if err != nil {
			log.Fatalf("error read config: %v", err)
		}
		configSingleton.Config = cf

		if _, err := os.Stat(path); err != nil {
			return
		}
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			cf, err := loadConfig(v, path)
			if err != nil {
				log.Printf("failed to reload config file %s: %v", e.Name, err)
				return
			}
			configSingleton.mu.Lock()
			configSingleton.Config = cf
			configSingleton.mu.Unlock()
		})
	})
}

// LoadConfig 讀取指定路徑的 .env, 不設置 watch
func LoadConfig(path string) (*Config, error) {
	return loadConfig(viper.New(), path)
}

/*
單純回傳錯誤  由外部決定要不要Fatal, 畢竟有可能有替代方案
設定檔不存在時只使用環境變數與預設值
*/
func loadConfig(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cf, nil
}

func configPath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	return ".env"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", "memory")
	v.SetDefault("STORE_PREFIX", "grocery")
	v.SetDefault("POSTGRES_DB", "grocery")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "")
	v.SetDefault("POSTGRES_PASSWORD", "")
	v.SetDefault("MYSQL_DSN", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("TOKEN_SECRET", "grocery-dev-secret-change-me")
	v.SetDefault("PASSWORD_HASHER", "bcrypt")
	v.SetDefault("SEED_DEMO_DATA", true)
	v.SetDefault("ORDER_STRICT_TRANSITIONS", true)
	v.SetDefault("LOGIN_LATENCY_MS", 1000)
	v.SetDefault("ORDER_LATENCY_MS", 1500)
	v.SetDefault("CATALOG_PATH", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_ORDER_TOPIC", "grocery.order.events")
	v.SetDefault("KAFKA_LOG_TOPIC", "")
	v.SetDefault("EVENTSTORE_URL", "")
	v.SetDefault("RATE_LIMIT_CAPACITY", 10)
	v.SetDefault("RATE_LIMIT_REFILL_MS", 6000)
	v.SetDefault("RATE_LIMIT_DRIVER", "memory")
}
