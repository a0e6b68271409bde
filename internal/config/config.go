package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Queue    QueueConfig
	Auth     AuthConfig
	Media    MediaConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
	Tracing  TracingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
	MaxUploadSize   int64
}

// DatabaseConfig holds database configuration. URL takes precedence over the
// discrete fields when set.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
	Migrate  bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	UseSSL          bool
	PublicBaseURL   string
}

// QueueConfig holds message queue configuration
type QueueConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	Vhost      string
	MaxRetries int
}

// AuthConfig holds token and session configuration
type AuthConfig struct {
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenSecret string
	RefreshTokenExpiry time.Duration
	AdminPassword      string
	AdminTokenSecret   string
	AdminTokenExpiry   time.Duration
	BcryptCost         int
	SecureCookies      bool
	LoginAttempts      int64
	LoginWindow        time.Duration
}

// MediaConfig holds upload and media processing configuration
type MediaConfig struct {
	TempDir     string
	FFmpegPath  string
	FFprobePath string
	StatsTTL    time.Duration
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// MetricsConfig holds the metrics server configuration
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// TracingConfig holds Jaeger configuration
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

// envBindings maps config keys to the environment variable names operators
// already use for this service.
var envBindings = map[string]string{
	"server.port":             "PORT",
	"database.url":            "DATABASE_URL",
	"database.dbname":         "DATABASE_NAME",
	"auth.accessTokenSecret":  "ACCESS_TOKEN_SECRET",
	"auth.accessTokenExpiry":  "ACCESS_TOKEN_EXPIRY",
	"auth.refreshTokenSecret": "REFRESH_TOKEN_SECRET",
	"auth.refreshTokenExpiry": "REFRESH_TOKEN_EXPIRY",
	"auth.adminPassword":      "ADMIN_PASSWORD",
	"auth.adminTokenSecret":   "ADMIN_TOKEN_SECRET",
	"storage.accessKeyID":     "STORAGE_ACCESS_KEY",
	"storage.secretAccessKey": "STORAGE_SECRET_KEY",
	"storage.bucketName":      "STORAGE_BUCKET",
	"storage.publicBaseURL":   "STORAGE_PUBLIC_BASE_URL",
}

// Load reads configuration from an optional file and environment variables.
// An empty configPath skips the file.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Validate reports configuration that would make the API unusable
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.AccessTokenSecret == "" {
		errs = append(errs, errors.New("auth.accessTokenSecret is required"))
	}
	if c.Auth.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("auth.refreshTokenSecret is required"))
	}
	if c.Auth.AccessTokenSecret != "" && c.Auth.AccessTokenSecret == c.Auth.RefreshTokenSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.Auth.AdminTokenSecret == "" {
		errs = append(errs, errors.New("auth.adminTokenSecret is required"))
	}
	if c.Auth.AccessTokenExpiry <= 0 || c.Auth.RefreshTokenExpiry <= 0 {
		errs = append(errs, errors.New("token expiries must be positive"))
	}
	if c.Storage.BucketName == "" {
		errs = append(errs, errors.New("storage.bucketName is required"))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "5m")
	v.SetDefault("server.shutdownTimeout", "10s")
	v.SetDefault("server.rateLimitRPS", 20)
	v.SetDefault("server.rateLimitBurst", 40)
	v.SetDefault("server.maxUploadSize", 512*1024*1024) // 512MB

	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "vidtube")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxConns", 25)
	v.SetDefault("database.minConns", 5)
	v.SetDefault("database.migrate", true)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Storage defaults
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.accessKeyID", "minioadmin")
	v.SetDefault("storage.secretAccessKey", "minioadmin")
	v.SetDefault("storage.bucketName", "vidtube")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.useSSL", false)
	v.SetDefault("storage.publicBaseURL", "")

	// Queue defaults
	v.SetDefault("queue.host", "localhost")
	v.SetDefault("queue.port", 5672)
	v.SetDefault("queue.user", "guest")
	v.SetDefault("queue.password", "guest")
	v.SetDefault("queue.vhost", "/")
	v.SetDefault("queue.maxRetries", 5)

	// Auth defaults
	v.SetDefault("auth.accessTokenSecret", "")
	v.SetDefault("auth.accessTokenExpiry", "24h")
	v.SetDefault("auth.refreshTokenSecret", "")
	v.SetDefault("auth.refreshTokenExpiry", "240h")
	v.SetDefault("auth.adminPassword", "")
	v.SetDefault("auth.adminTokenSecret", "")
	v.SetDefault("auth.adminTokenExpiry", "1h")
	v.SetDefault("auth.bcryptCost", 10)
	v.SetDefault("auth.secureCookies", true)
	v.SetDefault("auth.loginAttempts", 10)
	v.SetDefault("auth.loginWindow", "1m")

	// Media defaults
	v.SetDefault("media.tempDir", "./public/temp")
	v.SetDefault("media.ffmpegPath", "ffmpeg")
	v.SetDefault("media.ffprobePath", "ffprobe")
	v.SetDefault("media.statsTTL", "1m")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Metrics and tracing defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "vidtube-api")
	v.SetDefault("tracing.endpoint", "http://localhost:14268/api/traces")
}
