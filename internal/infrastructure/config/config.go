package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"recipe-scanner/internal/pkg/common"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Recipe    RecipeConfig    `mapstructure:"recipe"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Store     StoreConfig     `mapstructure:"store"`
	Session   SessionConfig   `mapstructure:"session"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Image     ImageConfig     `mapstructure:"image"`
	LogLevel  string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// GeminiConfig 推論服務配置
type GeminiConfig struct {
	APIURL        string        `mapstructure:"api_url"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	RetryMaxDelay time.Duration `mapstructure:"retry_max_delay"`
}

// RecipeConfig 食材與食譜生成限制
type RecipeConfig struct {
	MaxRecipes          int `mapstructure:"max_recipes"`
	MaxIngredients      int `mapstructure:"max_ingredients"`
	MinIngredientLength int `mapstructure:"min_ingredient_length"`
	MaxIngredientLength int `mapstructure:"max_ingredient_length"`
}

// QueueConfig 推論呼叫排隊配置
type QueueConfig struct {
	MaxSize int `mapstructure:"max_size"`
	Workers int `mapstructure:"workers"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"` // memory | redis
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// StoreConfig 文件儲存設定
type StoreConfig struct {
	Driver     string `mapstructure:"driver"` // memory | redis | sqlite
	SQLitePath string `mapstructure:"sqlite_path"`
}

// SessionConfig 分析流程 session 設定
type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
	Burst    int           `mapstructure:"burst"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
	Quality      int   `mapstructure:"quality"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 不存在時僅使用環境變數
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"gemini.api_url":     "GEMINI_API_URL",
		"gemini.api_key":     "GEMINI_API_KEY",
		"gemini.timeout":     "GEMINI_TIMEOUT",
		"gemini.max_retries": "MAX_API_RETRIES",
		"gemini.retry_delay": "RETRY_DELAY",
		"cache.enabled":      "CACHE_ENABLED",
		"cache.backend":      "CACHE_BACKEND",
		"redis.addr":         "REDIS_ADDR",
		"redis.password":     "REDIS_PASSWORD",
		"store.driver":       "STORE_DRIVER",
		"store.sqlite_path":  "SQLITE_PATH",
		"rate_limit.enabled": "RATE_LIMIT_ENABLED",
		"log_level":          "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// logger 尚未初始化，改用 fmt.Println
	fmt.Println("Loading configuration", "gemini_api_key:", maskAPIKey(v.GetString("gemini.api_key")), "store_driver:", v.GetString("store.driver"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-scanner")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "80s")
	v.SetDefault("server.max_body_bytes", 12<<20)

	// 推論服務：URL 與 Key 無預設值，缺少時啟動失敗
	v.SetDefault("gemini.api_url", "")
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.timeout", "30s")
	v.SetDefault("gemini.max_retries", 2)
	v.SetDefault("gemini.retry_delay", "1s")
	v.SetDefault("gemini.retry_max_delay", "8s")

	v.SetDefault("recipe.max_recipes", 3)
	v.SetDefault("recipe.max_ingredients", 10)
	v.SetDefault("recipe.min_ingredient_length", 2)
	v.SetDefault("recipe.max_ingredient_length", 50)

	v.SetDefault("queue.max_size", 100)
	v.SetDefault("queue.workers", 5)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 500)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_interval", "10m")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "recipe-scanner")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.sqlite_path", "data/recipes.db")

	v.SetDefault("session.ttl", "30m")
	v.SetDefault("session.cleanup_interval", "5m")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB
	v.SetDefault("image.quality", 80)

	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if strings.TrimSpace(config.Gemini.APIURL) == "" {
		return common.NewConfigurationError("GEMINI_API_URL", "inference endpoint URL is required")
	}
	if strings.TrimSpace(config.Gemini.APIKey) == "" {
		return common.NewConfigurationError("GEMINI_API_KEY", "inference API key is required")
	}
	if config.Gemini.Timeout <= 0 {
		return common.NewConfigurationError("gemini.timeout", "must be positive")
	}
	if config.Gemini.MaxRetries < 0 {
		return common.NewConfigurationError("gemini.max_retries", "must not be negative")
	}

	if config.Server.Port == 0 {
		return common.NewConfigurationError("server.port", "server port is required")
	}

	if config.Recipe.MaxRecipes <= 0 || config.Recipe.MaxIngredients <= 0 {
		return common.NewConfigurationError("recipe", "limits must be positive")
	}
	if config.Recipe.MinIngredientLength > config.Recipe.MaxIngredientLength {
		return common.NewConfigurationError("recipe.min_ingredient_length", "must not exceed max_ingredient_length")
	}

	if config.Queue.Workers <= 0 || config.Queue.MaxSize < 0 {
		return common.NewConfigurationError("queue", "workers must be positive and max_size must not be negative")
	}

	if config.Cache.Enabled {
		if config.Cache.Backend != "memory" && config.Cache.Backend != "redis" {
			return common.NewConfigurationError("cache.backend", fmt.Sprintf("unsupported backend %q", config.Cache.Backend))
		}
		if config.Cache.MaxSize <= 0 {
			return common.NewConfigurationError("cache.max_size", "invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return common.NewConfigurationError("cache.ttl", "invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return common.NewConfigurationError("cache.cleanup_interval", "invalid cache cleanup interval")
		}
	}

	switch config.Store.Driver {
	case "memory", "redis":
	case "sqlite":
		if config.Store.SQLitePath == "" {
			return common.NewConfigurationError("store.sqlite_path", "required for the sqlite driver")
		}
	default:
		return common.NewConfigurationError("store.driver", fmt.Sprintf("unsupported driver %q", config.Store.Driver))
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return common.NewConfigurationError("rate_limit", "requests and window must be positive")
	}

	return nil
}
