package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `json:"server"`
	Redis    RedisConfig    `json:"redis"`
	Portal   PortalConfig   `json:"portal"`
	Queue    QueueConfig    `json:"queue"`
	Log      LogConfig      `json:"log"`
	Security SecurityConfig `json:"security"`
	Crypto   CryptoConfig   `json:"crypto"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int    `json:"port"`
	Environment  string `json:"environment"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	IdleTimeout  int    `json:"idle_timeout"`
}

// RedisConfig holds Redis configuration. Redis backs the case/session/
// name-search stores as well as both work queues and the alert topic.
type RedisConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// PortalConfig holds the upstream court portal configuration
type PortalConfig struct {
	BaseURL          string        `json:"base_url"`
	CaseURLPath      string        `json:"case_url_path"`
	RequestTimeout   time.Duration `json:"request_timeout"`
	StoreTimeout     time.Duration `json:"store_timeout"`
	SessionMargin    time.Duration `json:"session_margin"`     // refresh session if less than this remains
	DefaultSessionTTL time.Duration `json:"default_session_ttl"`
	RefreshWindow    time.Duration `json:"refresh_window"`     // re-queue a failed case older than this
}

// QueueConfig holds queue visibility/retry configuration
type QueueConfig struct {
	SearchStreamKey    string        `json:"search_stream_key"`
	CaseDataStreamKey  string        `json:"case_data_stream_key"`
	VisibilityTimeout  time.Duration `json:"visibility_timeout"`
	StalenessMultiple  int           `json:"staleness_multiple"` // reclaimers sweep every N x visibility
	MaxDeliveries      int64         `json:"max_deliveries"`
	ReclaimInterval    time.Duration `json:"reclaim_interval"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `json:"rate_limit"`
	CORS      CORSConfig      `json:"cors"`
	JWTPublicKey string       `json:"-"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	BurstSize         int           `json:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// CryptoConfig holds at-rest encryption configuration for portal credentials
type CryptoConfig struct {
	KeyID string `json:"key_id"`
	Key   string `json:"-"` // 32-byte key material, hex or base64 resolved by KeyProvider
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvAsInt("PORT", 8080),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 30),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 30),
			IdleTimeout:  getEnvAsInt("IDLE_TIMEOUT", 60),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 20),
			DialTimeout:  time.Duration(getEnvAsInt("REDIS_DIAL_TIMEOUT", 5)) * time.Second,
			ReadTimeout:  time.Duration(getEnvAsInt("REDIS_READ_TIMEOUT", 3)) * time.Second,
			WriteTimeout: time.Duration(getEnvAsInt("REDIS_WRITE_TIMEOUT", 3)) * time.Second,
		},
		Portal: PortalConfig{
			BaseURL:            getEnv("PORTAL_URL", "https://portal.example-court.gov"),
			CaseURLPath:        getEnv("PORTAL_CASE_URL", "/Portal/Case/CaseDetail"),
			RequestTimeout:     time.Duration(getEnvAsInt("PORTAL_REQUEST_TIMEOUT", 20)) * time.Second,
			StoreTimeout:       time.Duration(getEnvAsInt("STORE_TIMEOUT", 10)) * time.Second,
			SessionMargin:      time.Duration(getEnvAsInt("SESSION_MARGIN_MINUTES", 60)) * time.Minute,
			DefaultSessionTTL:  time.Duration(getEnvAsInt("DEFAULT_SESSION_TTL_HOURS", 24)) * time.Hour,
			RefreshWindow:      time.Duration(getEnvAsInt("REFRESH_WINDOW_MINUTES", 5)) * time.Minute,
		},
		Queue: QueueConfig{
			SearchStreamKey:   getEnv("SEARCH_QUEUE_URL", "zipcase:queue:search"),
			CaseDataStreamKey: getEnv("CASE_DATA_QUEUE_URL", "zipcase:queue:casedata"),
			VisibilityTimeout: time.Duration(getEnvAsInt("QUEUE_VISIBILITY_TIMEOUT_SECONDS", 30)) * time.Second,
			StalenessMultiple: getEnvAsInt("QUEUE_STALENESS_MULTIPLE", 10),
			MaxDeliveries:     int64(getEnvAsInt("QUEUE_MAX_DELIVERIES", 5)),
			ReclaimInterval:   time.Duration(getEnvAsInt("QUEUE_RECLAIM_INTERVAL_SECONDS", 15)) * time.Second,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 100),
				BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
				CleanupInterval:   time.Duration(getEnvAsInt("RATE_LIMIT_CLEANUP", 60)) * time.Second,
			},
			CORS: CORSConfig{
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: false,
			},
			JWTPublicKey: getEnv("JWT_PUBLIC_KEY", ""),
		},
		Crypto: CryptoConfig{
			KeyID: getEnv("CREDENTIALS_ENCRYPTION_KEY_ID", "default"),
			Key:   getEnv("CREDENTIALS_ENCRYPTION_KEY", ""),
		},
	}

	if cfg.Crypto.Key == "" && cfg.Server.Environment == "production" {
		return nil, fmt.Errorf("CREDENTIALS_ENCRYPTION_KEY is required in production")
	}

	return cfg, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
