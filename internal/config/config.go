package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/straye-as/commission-api/internal/secrets"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	DataWarehouse DataWarehouseConfig
	JobFeed       JobFeedConfig
	Sync          SyncConfig
	Notification  NotificationConfig
	Auth          AuthConfig
	ApiKey        ApiKeyConfig
	Secrets       SecretsConfig
	Logging       LoggingConfig
	Metrics       MetricsConfig
	Server        ServerConfig
	CORS          CORSConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	AutoMigrate     bool
}

// DataWarehouseConfig holds configuration for the MS SQL Server data warehouse
// that mirrors the CRM's job export. It is only read when jobFeed.source is "warehouse".
type DataWarehouseConfig struct {
	// Enabled controls whether the data warehouse connection is attempted
	Enabled bool
	// URL is the connection URL in format host:port/database
	URL      string
	User     string
	Password string
	// JobsTable is the table or view holding exported CRM jobs
	JobsTable       string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
	QueryTimeout    int // seconds
}

// JobFeed sources
const (
	JobFeedSourceJobNimbus = "jobnimbus"
	JobFeedSourceWarehouse = "warehouse"
)

// JobFeedConfig selects and configures the external job feed
type JobFeedConfig struct {
	Source  string
	BaseURL string
	Token   string
	Timeout int // seconds
}

// SyncConfig controls the scheduled customer and commission sync
type SyncConfig struct {
	Enabled      bool
	Cron         string
	Timeout      int // seconds
	Concurrency  int
	RunOnStartup bool
}

// NotificationConfig holds SMTP settings for sync failure e-mails
type NotificationConfig struct {
	Enabled  bool
	SMTPHost string
	SMTPPort int
	Username string
	Password string
	From     string
	To       []string
}

// AuthConfig holds settings for locally issued JWTs
type AuthConfig struct {
	JWTSecret string
	TokenTTL  int // seconds
	Issuer    string
}

type ApiKeyConfig struct {
	Value string // Loaded from secrets or environment
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	// "auto" uses environment in development, vault in staging/production
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	ReferrerPolicy        string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	WhitelistIPs      []string
	WhitelistPaths    []string
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// URL builds a postgres URL for the migration tool
func (d *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DataWarehouseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// QueryTimeoutDuration returns query timeout as duration
func (d *DataWarehouseConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(d.QueryTimeout) * time.Second
}

// TimeoutDuration returns the feed request timeout as duration
func (j *JobFeedConfig) TimeoutDuration() time.Duration {
	return time.Duration(j.Timeout) * time.Second
}

// TimeoutDuration returns the sync run timeout as duration
func (s *SyncConfig) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// TokenTTLDuration returns the JWT lifetime as duration
func (a *AuthConfig) TokenTTLDuration() time.Duration {
	return time.Duration(a.TokenTTL) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// Validate checks settings that would otherwise fail at first use
func (c *Config) Validate() error {
	switch c.JobFeed.Source {
	case JobFeedSourceJobNimbus, JobFeedSourceWarehouse:
	default:
		return fmt.Errorf("unknown jobFeed.source %q", c.JobFeed.Source)
	}
	if c.JobFeed.Source == JobFeedSourceWarehouse && !c.DataWarehouse.Enabled {
		return fmt.Errorf("jobFeed.source is warehouse but dataWarehouse.enabled is false")
	}
	if c.Sync.Concurrency < 1 {
		return fmt.Errorf("sync.concurrency must be at least 1")
	}
	if c.Sync.Timeout <= 0 {
		return fmt.Errorf("sync.timeout must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.tokenTTL must be positive")
	}
	return nil
}

// Load loads configuration from file and environment variables
// This is a basic load that doesn't fetch secrets from vault
// Use LoadWithSecrets for full secret resolution
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Legacy variable names used by the previous deployment
	if cfg.JobFeed.Token == "" {
		cfg.JobFeed.Token = v.GetString("JOBNIMBUSTOKEN")
	}
	if cfg.ApiKey.Value == "" {
		cfg.ApiKey.Value = v.GetString("ADMIN_API_KEY")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	cfg.JobFeed.Source = strings.ToLower(cfg.JobFeed.Source)

	return &cfg, nil
}

// LoadWithSecrets loads configuration and resolves secrets from the configured source.
// In development secrets come from env vars; in staging/production from Azure Key Vault.
// An explicitly set environment variable always wins over the vault.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	source := secrets.ResolveSource(secrets.SecretSource(cfg.Secrets.Source), cfg.App.Environment)
	if source == secrets.SourceEnvironment {
		logger.Info("Using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, cfg.Validate()
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when secrets.source is vault")
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       source,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	logger.Info("Loading secrets from Azure Key Vault",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)

	bindings := []secrets.Binding{
		{SecretName: "POSTGRES-MAIN-HOST", EnvName: "DATABASE_HOST", Target: &cfg.Database.Host},
		{SecretName: "POSTGRES-MAIN-USER", EnvName: "DATABASE_USER", Target: &cfg.Database.User},
		{SecretName: "POSTGRES-MAIN-PASSWORD", EnvName: "DATABASE_PASSWORD", Target: &cfg.Database.Password},
		{SecretName: "jobnimbus-token", EnvName: "JOBFEED_TOKEN", Target: &cfg.JobFeed.Token},
		{SecretName: "jwt-secret", EnvName: "AUTH_JWTSECRET", Target: &cfg.Auth.JWTSecret},
		{SecretName: "admin-api-key", EnvName: "ADMIN_API_KEY", Target: &cfg.ApiKey.Value},
		{SecretName: "smtp-password", EnvName: "NOTIFICATION_PASSWORD", Target: &cfg.Notification.Password},
	}
	if cfg.DataWarehouse.Enabled {
		bindings = append(bindings,
			secrets.Binding{SecretName: "WAREHOUSE-URL", EnvName: "DATAWAREHOUSE_URL", Target: &cfg.DataWarehouse.URL},
			secrets.Binding{SecretName: "WAREHOUSE-USERNAME", EnvName: "DATAWAREHOUSE_USER", Target: &cfg.DataWarehouse.User},
			secrets.Binding{SecretName: "WAREHOUSE-PASSWORD", EnvName: "DATAWAREHOUSE_PASSWORD", Target: &cfg.DataWarehouse.Password},
		)
	}

	if missing := provider.Resolve(ctx, bindings); len(missing) > 0 {
		logger.Warn("Some secrets were not found, keeping configured values",
			zap.Strings("missing", missing),
		)
	}

	logger.Info("Secrets loaded from vault successfully")
	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Commission API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "commissions")
	v.SetDefault("database.user", "commission_user")
	v.SetDefault("database.password", "commission_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)
	v.SetDefault("database.autoMigrate", false)

	// Data warehouse defaults (MS SQL Server - optional, read-only)
	v.SetDefault("dataWarehouse.enabled", false)
	v.SetDefault("dataWarehouse.jobsTable", "dbo.jobnimbus_jobs")
	v.SetDefault("dataWarehouse.maxOpenConns", 10)
	v.SetDefault("dataWarehouse.maxIdleConns", 2)
	v.SetDefault("dataWarehouse.connMaxLifetime", 300)
	v.SetDefault("dataWarehouse.queryTimeout", 30)

	// Job feed defaults
	v.SetDefault("jobFeed.source", JobFeedSourceJobNimbus)
	v.SetDefault("jobFeed.baseURL", "https://app.jobnimbus.com/api1")
	v.SetDefault("jobFeed.token", "")
	v.SetDefault("jobFeed.timeout", 60)

	// Sync defaults - daily at midnight (seconds field enabled)
	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.cron", "0 0 0 * * *")
	v.SetDefault("sync.timeout", 900)
	v.SetDefault("sync.concurrency", 4)
	v.SetDefault("sync.runOnStartup", false)

	// Notification defaults
	v.SetDefault("notification.enabled", false)
	v.SetDefault("notification.smtpPort", 587)
	v.SetDefault("notification.to", []string{})

	// Auth defaults
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.tokenTTL", 3600)
	v.SetDefault("auth.issuer", "commission-api")

	// Secrets defaults
	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)

	// CORS defaults - restrictive by default
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	// Security header defaults
	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 120)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/metrics"})
}
