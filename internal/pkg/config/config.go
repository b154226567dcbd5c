// internal/pkg/config/config.go
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingRequiredConfig is returned when a required setting is empty.
var ErrMissingRequiredConfig = errors.New("missing required configuration")

// Config holds all application configuration
type Config struct {
	// Application
	App AppConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Asynq
	Asynq AsynqConfig

	// AWS
	AWS AWSConfig

	// Secrets
	Secrets SecretsConfig

	// Security
	Security SecurityConfig

	// Server
	Server ServerConfig

	// Warehouse API
	Warehouse WarehouseConfig

	// Shopify Admin API
	Shopify ShopifyConfig

	// Sync scheduling and guards
	Sync SyncConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Version     string
	LogLevel    string
	LogFormat   string // json, text
	Debug       bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	StatementCacheMode string
	EnableQueryLogging bool
	AutoMigrate        bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host            string
	Port            string
	Password        string
	DB              int
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	TTL             time.Duration
}

// AsynqConfig holds Asynq configuration
type AsynqConfig struct {
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	Concurrency     int
	Queues          map[string]int // queue name -> priority
	StrictPriority  bool
	RetryMax        int
	ShutdownTimeout time.Duration
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string // For MinIO in development
	UsePathStyle    bool   // For MinIO compatibility
}

// SecretsConfig selects where credentials are resolved from.
type SecretsConfig struct {
	Provider   string `validate:"oneof=env aws"`
	SecretName string `validate:"required_if=Provider aws"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	SecureHeaders     bool
	RequestIDHeader   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	GracefulTimeout time.Duration
	SyncTimeout     time.Duration
}

// WarehouseLocation maps a warehouse location id to its human-readable label.
type WarehouseLocation struct {
	ID   string `validate:"required"`
	Name string `validate:"required"`
}

// WarehouseConfig configures the warehouse inventory client.
type WarehouseConfig struct {
	Mode             string              `validate:"oneof=static http"`
	BaseURL          string              `validate:"required_if=Mode http,omitempty,url"`
	Token            string              `validate:"required_if=Mode http"`
	Locations        []WarehouseLocation `validate:"required_if=Mode http,dive"`
	PageSize         int                 `validate:"gte=1,lte=500"`
	Timeout          time.Duration       `validate:"gt=0"`
	Concurrency      int                 `validate:"gte=1,lte=16"`
	RetryMax         int                 `validate:"gte=1,lte=10"`
	RetryInitial     time.Duration       `validate:"gt=0"`
	RetryMaxInterval time.Duration       `validate:"gtefield=RetryInitial"`
	FixturePath      string
}

// ShopifyConfig configures the per-shop Admin GraphQL client.
type ShopifyConfig struct {
	APIVersion       string `validate:"required"`
	AppSecret        string
	SignatureMaxAge  time.Duration `validate:"gt=0"`
	Timeout          time.Duration `validate:"gt=0"`
	MutationInterval time.Duration `validate:"gte=0"`
	MutationBurst    int           `validate:"gte=1"`
	PauseEvery       int           `validate:"gte=0"`
	PauseDuration    time.Duration `validate:"gte=0"`
	LocationPageSize int           `validate:"gte=1,lte=250"`
	RetryMax         int           `validate:"gte=1,lte=10"`
	RetryInitial     time.Duration `validate:"gt=0"`
	RetryMaxInterval time.Duration `validate:"gtefield=RetryInitial"`
}

// SyncConfig configures scheduling and run guards.
type SyncConfig struct {
	Schedule    string        `validate:"required"`
	Queue       string        `validate:"required"`
	TaskTimeout time.Duration `validate:"gt=0"`
	UniqueFor   time.Duration `validate:"gte=0"`
	LockTTL     time.Duration `validate:"gt=0"`
	SummaryTTL  time.Duration `validate:"gt=0"`
	// StaleAfter marks the health check degraded when no run started within
	// it. Zero disables the check.
	StaleAfter     time.Duration `validate:"gte=0"`
	ArchiveReports bool
	ReportPrefix   string
	// ReportDir receives archived reports when no S3 bucket is configured.
	ReportDir string
}

// Load loads configuration from environment variables
func Load(logger *slog.Logger) (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Load .env file in development
	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Warn("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded successfully")
		}
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetTypeByDefaultValue(true)

	setDefaults()

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "stocksync"),
			Environment: env,
			Version:     getEnv("APP_VERSION", "dev"),
			LogLevel:    getEnv("LOG_LEVEL", viper.GetString("log.level")),
			LogFormat:   getEnv("LOG_FORMAT", viper.GetString("log.format")),
			Debug:       getBoolEnv("APP_DEBUG", env == "development"),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", "stocksync"),
			Password:           getEnv("DB_PASSWORD", "stocksync_dev"),
			Name:               getEnv("DB_NAME", "stocksync"),
			SSLMode:            getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:     int32(getIntEnv("DB_MAX_CONNECTIONS", 10)),
			MinConnections:     int32(getIntEnv("DB_MIN_CONNECTIONS", 2)),
			MaxConnLifetime:    getDurationEnv("DB_CONNECTION_LIFETIME", time.Hour),
			MaxConnIdleTime:    getDurationEnv("DB_IDLE_TIME", 30*time.Minute),
			HealthCheckPeriod:  getDurationEnv("DB_HEALTH_CHECK_PERIOD", time.Minute),
			ConnectTimeout:     getDurationEnv("DB_CONNECT_TIMEOUT", 10*time.Second),
			StatementCacheMode: getEnv("DB_STATEMENT_CACHE_MODE", "describe"),
			EnableQueryLogging: getBoolEnv("DB_QUERY_LOGGING", env == "development"),
			AutoMigrate:        getBoolEnv("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Host:            getEnv("REDIS_HOST", "localhost"),
			Port:            getEnv("REDIS_PORT", "6379"),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              getIntEnv("REDIS_DB", 0),
			MaxRetries:      getIntEnv("REDIS_MAX_RETRIES", 3),
			MinRetryBackoff: getDurationEnv("REDIS_MIN_RETRY_BACKOFF", 8*time.Millisecond),
			MaxRetryBackoff: getDurationEnv("REDIS_MAX_RETRY_BACKOFF", 512*time.Millisecond),
			DialTimeout:     getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:     getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:    getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolSize:        getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns:    getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			PoolTimeout:     getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			TTL:             getDurationEnv("REDIS_TTL", time.Hour),
		},
		Asynq: AsynqConfig{
			RedisAddr:       fmt.Sprintf("%s:%s", getEnv("REDIS_HOST", "localhost"), getEnv("REDIS_PORT", "6379")),
			RedisPassword:   getEnv("REDIS_PASSWORD", ""),
			RedisDB:         getIntEnv("ASYNQ_REDIS_DB", 0),
			Concurrency:     getIntEnv("ASYNQ_CONCURRENCY", 4),
			Queues:          parseQueues(getEnv("ASYNQ_QUEUES", "critical:6,default:3,low:1")),
			StrictPriority:  getBoolEnv("ASYNQ_STRICT_PRIORITY", false),
			RetryMax:        getIntEnv("ASYNQ_RETRY_MAX", 3),
			ShutdownTimeout: getDurationEnv("ASYNQ_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "stocksync-reports"),
			S3Endpoint:      getEnv("AWS_S3_ENDPOINT", ""),
			UsePathStyle:    getBoolEnv("AWS_S3_PATH_STYLE", env == "development"),
		},
		Secrets: SecretsConfig{
			Provider:   getEnv("SECRETS_PROVIDER", "env"),
			SecretName: getEnv("SECRETS_NAME", ""),
		},
		Security: SecurityConfig{
			RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 100),
			RateLimitDuration: getDurationEnv("RATE_LIMIT_DURATION", time.Minute),
			AllowedOrigins:    getSliceEnv("ALLOWED_ORIGINS", []string{"*"}),
			SecureHeaders:     getBoolEnv("SECURE_HEADERS", env == "production"),
			RequestIDHeader:   getEnv("REQUEST_ID_HEADER", "X-Request-ID"),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Minute),
			IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			MaxHeaderBytes:  getIntEnv("SERVER_MAX_HEADER_BYTES", 1<<20), // 1 MB
			GracefulTimeout: getDurationEnv("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
			SyncTimeout:     getDurationEnv("SERVER_SYNC_TIMEOUT", 9*time.Minute),
		},
		Warehouse: WarehouseConfig{
			Mode:             getEnv("WAREHOUSE_MODE", defaultWarehouseMode(env)),
			BaseURL:          strings.TrimRight(getEnv("WAREHOUSE_BASE_URL", ""), "/"),
			Token:            getEnv("WAREHOUSE_TOKEN", ""),
			Locations:        parseWarehouseLocations(getEnv("WAREHOUSE_LOCATIONS", "")),
			PageSize:         getIntEnv("WAREHOUSE_PAGE_SIZE", 100),
			Timeout:          getDurationEnv("WAREHOUSE_TIMEOUT", 30*time.Second),
			Concurrency:      getIntEnv("WAREHOUSE_CONCURRENCY", 1),
			RetryMax:         getIntEnv("WAREHOUSE_RETRY_MAX", 3),
			RetryInitial:     getDurationEnv("WAREHOUSE_RETRY_INITIAL", time.Second),
			RetryMaxInterval: getDurationEnv("WAREHOUSE_RETRY_MAX_INTERVAL", 10*time.Second),
			FixturePath:      getEnv("WAREHOUSE_FIXTURE_PATH", ""),
		},
		Shopify: ShopifyConfig{
			APIVersion:       getEnv("SHOPIFY_API_VERSION", "2024-10"),
			AppSecret:        getEnv("SHOPIFY_API_SECRET", ""),
			SignatureMaxAge:  getDurationEnv("SHOPIFY_SIGNATURE_MAX_AGE", 5*time.Minute),
			Timeout:          getDurationEnv("SHOPIFY_TIMEOUT", 30*time.Second),
			MutationInterval: getDurationEnv("SHOPIFY_MUTATION_INTERVAL", 500*time.Millisecond),
			MutationBurst:    getIntEnv("SHOPIFY_MUTATION_BURST", 1),
			PauseEvery:       getIntEnv("SHOPIFY_PAUSE_EVERY", 50),
			PauseDuration:    getDurationEnv("SHOPIFY_PAUSE_DURATION", 2*time.Second),
			LocationPageSize: getIntEnv("SHOPIFY_LOCATION_PAGE_SIZE", 50),
			RetryMax:         getIntEnv("SHOPIFY_RETRY_MAX", 3),
			RetryInitial:     getDurationEnv("SHOPIFY_RETRY_INITIAL", time.Second),
			RetryMaxInterval: getDurationEnv("SHOPIFY_RETRY_MAX_INTERVAL", 10*time.Second),
		},
		Sync: SyncConfig{
			Schedule:       getEnv("SYNC_SCHEDULE", "@every 1h"),
			Queue:          getEnv("SYNC_QUEUE", "default"),
			TaskTimeout:    getDurationEnv("SYNC_TASK_TIMEOUT", 30*time.Minute),
			UniqueFor:      getDurationEnv("SYNC_UNIQUE_FOR", 55*time.Minute),
			LockTTL:        getDurationEnv("SYNC_LOCK_TTL", 30*time.Minute),
			SummaryTTL:     getDurationEnv("SYNC_SUMMARY_TTL", 24*time.Hour),
			StaleAfter:     getDurationEnv("SYNC_STALE_AFTER", 3*time.Hour),
			ArchiveReports: getBoolEnv("SYNC_ARCHIVE_REPORTS", false),
			ReportPrefix:   getEnv("SYNC_REPORT_PREFIX", "sync-runs"),
			ReportDir:      getEnv("SYNC_REPORT_DIR", "reports"),
		},
	}

	if cfg.Secrets.Provider == "aws" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		sm, err := NewAWSSecretsManager(ctx, cfg.AWS.Region, cfg.Secrets.SecretName, logger)
		if err != nil {
			return nil, err
		}
		if err := ApplySecrets(ctx, cfg, sm); err != nil {
			return nil, fmt.Errorf("failed to resolve secrets: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("%w: database host", ErrMissingRequiredConfig)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("%w: database name", ErrMissingRequiredConfig)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("%w: server port", ErrMissingRequiredConfig)
	}

	if c.Database.MaxConnections < c.Database.MinConnections {
		return fmt.Errorf("max connections must be >= min connections")
	}
	if c.Security.RateLimitRequests <= 0 {
		return fmt.Errorf("rate limit requests must be positive")
	}

	if err := ValidateSections(c); err != nil {
		return err
	}

	if c.IsProduction() {
		return (&ProductionValidator{}).Validate(c)
	}
	return nil
}

// GetDatabaseURL returns the formatted database connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// GetRedisAddress returns host:port of the Redis server
func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

// Helper functions

func setDefaults() {
	viper.SetDefault("app.name", "stocksync")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func defaultWarehouseMode(env string) string {
	if env == "development" || env == "local" || env == "test" {
		return "static"
	}
	return "http"
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	pairs := strings.Split(queuesStr, ",")
	for _, pair := range pairs {
		parts := strings.Split(pair, ":")
		if len(parts) == 2 {
			name := strings.TrimSpace(parts[0])
			priority, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err == nil {
				queues[name] = priority
			}
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}

// parseWarehouseLocations reads "id:name,id:name". Order is preserved; it is
// the order locations are merged in.
func parseWarehouseLocations(value string) []WarehouseLocation {
	var locations []WarehouseLocation
	for _, pair := range strings.Split(value, ",") {
		id, name, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		id = strings.TrimSpace(id)
		name = strings.TrimSpace(name)
		if id == "" || name == "" {
			continue
		}
		locations = append(locations, WarehouseLocation{ID: id, Name: name})
	}
	return locations
}
