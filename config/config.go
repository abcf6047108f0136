package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerURL         string
	DownloadDir       string
	DownloadBucket    string
	DownloadPrefix    string
	S3Region          string
	S3Endpoint        string
	S3AccessKey       string
	S3SecretKey       string
	LogDir            string
	LogLevel          string
	LogFormat         string
	RequestTimeout    time.Duration
	RateLimit         int
	RateLimitInterval time.Duration
	DefaultCRF        string
	DefaultBitrate    string
	TracingEnabled    bool
}

func LoadConfig() *Config {
	return &Config{
		ServerURL:         GetEnv("SERVER_URL", "http://localhost:5000"),
		DownloadDir:       GetEnv("DOWNLOAD_DIR", "."),
		DownloadBucket:    GetEnv("DOWNLOAD_BUCKET", ""),
		DownloadPrefix:    GetEnv("DOWNLOAD_PREFIX", "webm-fix"),
		S3Region:          GetEnv("S3_REGION", "us-east-1"),
		S3Endpoint:        GetEnv("S3_ENDPOINT", ""),
		S3AccessKey:       GetEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:       GetEnv("S3_SECRET_KEY", ""),
		LogDir:            GetEnv("LOG_DIR", defaultLogDir()),
		LogLevel:          GetEnv("LOG_LEVEL", "info"),
		LogFormat:         GetEnv("LOG_FORMAT", "text"),
		RequestTimeout:    getEnvAsDuration("REQUEST_TIMEOUT", 0),
		RateLimit:         getEnvAsInt("RATE_LIMIT", 1),
		RateLimitInterval: getEnvAsDuration("RATE_LIMIT_INTERVAL", 1*time.Second),
		DefaultCRF:        GetEnv("DEFAULT_CRF", "30"),
		DefaultBitrate:    GetEnv("DEFAULT_BITRATE", "1M"),
		TracingEnabled:    getEnvAsBool("TRACING_ENABLED", false),
	}
}

func defaultLogDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "webm-fix")
	}
	return os.TempDir()
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid boolean, using default")
	}
	return defaultValue
}

func ValidateConfig(cfg *Config) error {
	if cfg.ServerURL == "" {
		return errors.New("server URL is required")
	}
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return errors.Wrap(err, "invalid server URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("server URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("server URL must have a host")
	}
	if cfg.DownloadDir == "" && cfg.DownloadBucket == "" {
		return errors.New("download directory or bucket is required")
	}
	if cfg.RequestTimeout < 0 {
		return errors.New("request timeout must not be negative")
	}
	if cfg.RateLimit <= 0 {
		return errors.New("rate limit must be greater than 0")
	}
	if cfg.RateLimitInterval <= 0 {
		return errors.New("rate limit interval must be greater than 0")
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return errors.Errorf("log format must be text or json, got %q", cfg.LogFormat)
	}
	return nil
}
