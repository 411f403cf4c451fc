package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/constants"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

/*
把 init 跟 read 分開
init : 設置 viper watch 與 onConfigChange
read : 一般讀取，需要使用讀寫鎖
*/
var configSingleton *ConfigSingleton
var muonce sync.Once

const (
	ConfigPathEnv     = "KIOSK_CONFIG"
	DefaultConfigPath = ".env"
)

type ConfigSingleton struct {
	Config   *Config
	v        *viper.Viper
	mu       sync.RWMutex
	onChange []func(*Config)
}

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	ShopName string `mapstructure:"SHOP_NAME"`
	// http
	ServerPort        string        `mapstructure:"SERVER_PORT"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	RateLimitCapacity int           `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitRefill   time.Duration `mapstructure:"RATE_LIMIT_REFILL"`
	// db
	DbDriver   string `mapstructure:"DB_DRIVER"`
	SqlitePath string `mapstructure:"SQLITE_PATH"`
	DbName     string `mapstructure:"POSTGRES_DB"`
	DbHost     string `mapstructure:"POSTGRES_HOST"`
	DbPort     string `mapstructure:"POSTGRES_PORT"`
	DbUser     string `mapstructure:"POSTGRES_USER"`
	DbPas      string `mapstructure:"POSTGRES_PASSWORD"`
	// gateway
	PaywayBaseURL       string        `mapstructure:"PAYWAY_BASE_URL"`
	PaywayMerchantID    string        `mapstructure:"PAYWAY_MERCHANT_ID"`
	PaywayAPIKey        string        `mapstructure:"PAYWAY_API_KEY"`
	PaywayCallbackURL   string        `mapstructure:"PAYWAY_CALLBACK_URL"`
	PaywayTimeout       time.Duration `mapstructure:"PAYWAY_TIMEOUT"`
	PaywayQRLifetime    int           `mapstructure:"PAYWAY_QR_LIFETIME"`
	PaywayQRTemplate    string        `mapstructure:"PAYWAY_QR_TEMPLATE"`
	PaywayCurrency      string        `mapstructure:"PAYWAY_CURRENCY"`
	PaywayPaymentOption string        `mapstructure:"PAYWAY_PAYMENT_OPTION"`
	// redis，空字串代表不啟用 poll gate
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	PollMinInterval time.Duration `mapstructure:"POLL_MIN_INTERVAL"`
	// kafka，空字串代表不送事件
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`
}

func (c *Config) IsDevelopment() bool {
	return constants.ENV(c.AppEnv) == constants.Dev
}

func (c *Config) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", string(constants.Prod))
	v.SetDefault("SHOP_NAME", "Rabbit Cafe")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RATE_LIMIT_CAPACITY", 20)
	v.SetDefault("RATE_LIMIT_REFILL", "1s")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("SQLITE_PATH", "kiosk.db")
	v.SetDefault("POSTGRES_DB", "kiosk")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "")
	v.SetDefault("POSTGRES_PASSWORD", "")
	v.SetDefault("PAYWAY_BASE_URL", "https://checkout-sandbox.payway.com.kh/api/payment-gateway/v1")
	v.SetDefault("PAYWAY_MERCHANT_ID", "")
	v.SetDefault("PAYWAY_API_KEY", "")
	v.SetDefault("PAYWAY_CALLBACK_URL", "")
	v.SetDefault("PAYWAY_TIMEOUT", "30s")
	v.SetDefault("PAYWAY_QR_LIFETIME", 30)
	v.SetDefault("PAYWAY_QR_TEMPLATE", "template4_color")
	v.SetDefault("PAYWAY_CURRENCY", "USD")
	v.SetDefault("PAYWAY_PAYMENT_OPTION", "abapay_khqr")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("POLL_MIN_INTERVAL", "2s")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "kiosk.payments")
}

/*
LoadConfig 單純回傳錯誤，由外部決定要不要 Fatal
設定檔不存在時只使用預設值與環境變數
*/
func LoadConfig(path string) (*Config, error) {
	_, cf, err := load(path)
	return cf, err
}

func load(path string) (*viper.Viper, *Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, nil, err
	}
	return v, cf, nil
}

func ConfigPath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	return DefaultConfigPath
}

// GetConfig 第一次呼叫時載入並開始監看設定檔
func GetConfig() *Config {
	return InitConfig(ConfigPath())
}

// InitConfig 只有第一次呼叫的 path 有效
func InitConfig(path string) *Config {
	initConfig(path)
	configSingleton.mu.RLock()
	defer configSingleton.mu.RUnlock()
	return configSingleton.Config
}

// OnChange 設定檔重新載入後呼叫，目前只有 log level 會即時生效
func OnChange(fn func(*Config)) {
	initConfig(ConfigPath())
	configSingleton.mu.Lock()
	defer configSingleton.mu.Unlock()
	configSingleton.onChange = append(configSingleton.onChange, fn)
}

func initConfig(path string) {
	muonce.Do(func() {
		configSingleton = &ConfigSingleton{}
		v, cf, err := load(path)
		if err != nil {
			log.Fatal().Err(err).Msg("error read config")
		}
		configSingleton.Config = cf
		configSingleton.v = v

		if _, statErr := os.Stat(path); statErr != nil {
			return
		}
		v.OnConfigChange(func(e fsnotify.Event) {
			_, cf, err := load(path)
			if err != nil {
				log.Error().Err(err).Str("file", e.Name).Msg("failed to reload config file")
				return
			}
			configSingleton.mu.Lock()
			configSingleton.Config = cf
			hooks := append([]func(*Config){}, configSingleton.onChange...)
			configSingleton.mu.Unlock()

			for _, fn := range hooks {
				fn(cf)
			}
			log.Info().Str("file", e.Name).Msg("config reloaded")
		})
		v.WatchConfig()
	})
}
