// Package config loads the gateway's environment-driven settings (§6.5),
// mirroring the teacher's env-tag + getStringOrDefault/getIntOrDefault/
// getBoolOrDefault pattern so every field boots with a usable default even
// with zero configuration present.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/alispeech/streaming-gateway/pkg/cache"
	"github.com/alispeech/streaming-gateway/pkg/logger"
)

// Config is the process-wide settings object populated by Load.
type Config struct {
	Host  string `env:"HOST"`
	Port  string `env:"PORT"`
	Debug bool   `env:"DEBUG"`
	Mode  string `env:"MODE"`

	AppToken string `env:"APPTOKEN"`
	AppKey   string `env:"APPKEY"`

	ASRGpus string `env:"ASR_GPUS"`
	TTSGpus string `env:"TTS_GPUS"`

	ASRModelMode string `env:"ASR_MODEL_MODE"`
	TTSModelMode string `env:"TTS_MODEL_MODE"`

	ASREnableRealtimePunc        bool    `env:"ASR_ENABLE_REALTIME_PUNC"`
	ASREnableNearfieldFilter     bool    `env:"ASR_ENABLE_NEARFIELD_FILTER"`
	ASRNearfieldRMSThreshold     float64 `env:"ASR_NEARFIELD_RMS_THRESHOLD"`
	ASRNearfieldFilterLogEnabled bool    `env:"ASR_NEARFIELD_FILTER_LOG_ENABLED"`

	InferenceThreadPoolSize int `env:"INFERENCE_THREAD_POOL_SIZE"`
	Workers                 int `env:"WORKERS"`

	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`
	TempDir  string `env:"TEMP_DIR"`

	AsyncTTSCallbackTimeout time.Duration
	AsyncTTSReapAfter       time.Duration
	AsyncTTSPollInterval    time.Duration

	Log   logger.LogConfig
	Cache cache.Config
}

var GlobalConfig *Config

// Load reads .env (if present; absence is not fatal) and populates
// GlobalConfig with environment values, falling back to defaults for every
// field so the process boots with zero configuration.
func Load() error {
	env := os.Getenv("APP_ENV")
	envFile := ".env"
	if env != "" {
		envFile = ".env." + env
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("Note: %s not found or failed to load: %v (using default values)", envFile, err)
	}

	GlobalConfig = &Config{
		Host:  getStringOrDefault("HOST", "0.0.0.0"),
		Port:  getStringOrDefault("PORT", "8000"),
		Debug: getBoolOrDefault("DEBUG", false),
		Mode:  getStringOrDefault("MODE", "development"),

		AppToken: getStringOrDefault("APPTOKEN", ""),
		AppKey:   getStringOrDefault("APPKEY", ""),

		ASRGpus: getStringOrDefault("ASR_GPUS", ""),
		TTSGpus: getStringOrDefault("TTS_GPUS", ""),

		ASRModelMode: getStringOrDefault("ASR_MODEL_MODE", "all"),
		TTSModelMode: getStringOrDefault("TTS_MODEL_MODE", "all"),

		ASREnableRealtimePunc:        getBoolOrDefault("ASR_ENABLE_REALTIME_PUNC", true),
		ASREnableNearfieldFilter:     getBoolOrDefault("ASR_ENABLE_NEARFIELD_FILTER", false),
		ASRNearfieldRMSThreshold:     getFloatOrDefault("ASR_NEARFIELD_RMS_THRESHOLD", 0.01),
		ASRNearfieldFilterLogEnabled: getBoolOrDefault("ASR_NEARFIELD_FILTER_LOG_ENABLED", false),

		InferenceThreadPoolSize: getIntOrDefault("INFERENCE_THREAD_POOL_SIZE", 0),
		Workers:                 getIntOrDefault("WORKERS", 1),

		DBDriver: getStringOrDefault("DB_DRIVER", "sqlite"),
		DSN:      getStringOrDefault("DSN", "./gateway.db"),
		TempDir:  getStringOrDefault("TEMP_DIR", "./tmp"),

		AsyncTTSCallbackTimeout: 30 * time.Second,
		AsyncTTSReapAfter:       7 * 24 * time.Hour,
		AsyncTTSPollInterval:    2 * time.Second,

		Log: logger.LogConfig{
			Level:      getStringOrDefault("LOG_LEVEL", "info"),
			Filename:   getStringOrDefault("LOG_FILENAME", "./logs/app.log"),
			MaxSize:    getIntOrDefault("LOG_MAX_SIZE", 100),
			MaxAge:     getIntOrDefault("LOG_MAX_AGE", 30),
			MaxBackups: getIntOrDefault("LOG_MAX_BACKUPS", 5),
			Daily:      getBoolOrDefault("LOG_DAILY", true),
		},
		Cache: loadCacheConfig(),
	}
	return nil
}

func getStringOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

func getIntOrDefault(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}

func loadCacheConfig() cache.Config {
	cacheType := getStringOrDefault("CACHE_TYPE", "local")
	return cache.Config{
		Type: cacheType,
		Redis: cache.RedisConfig{
			Addr:         getStringOrDefault("REDIS_ADDR", "localhost:6379"),
			Password:     getStringOrDefault("REDIS_PASSWORD", ""),
			DB:           getIntOrDefault("REDIS_DB", 0),
			PoolSize:     getIntOrDefault("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntOrDefault("REDIS_MIN_IDLE_CONNS", 5),
			DialTimeout:  parseDurationOrDefault("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  parseDurationOrDefault("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: parseDurationOrDefault("REDIS_WRITE_TIMEOUT", 3*time.Second),
			IdleTimeout:  parseDurationOrDefault("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		Local: cache.LocalConfig{
			MaxSize:           getIntOrDefault("LOCAL_CACHE_MAX_SIZE", 1000),
			DefaultExpiration: parseDurationOrDefault("LOCAL_CACHE_DEFAULT_EXPIRATION", 5*time.Minute),
			CleanupInterval:   parseDurationOrDefault("LOCAL_CACHE_CLEANUP_INTERVAL", 10*time.Minute),
		},
	}
}
