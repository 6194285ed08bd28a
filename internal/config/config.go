package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadHost        string        `mapstructure:"read_host"`
	ReadPort        int           `mapstructure:"read_port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration.
// Publishing is disabled when URL is empty.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// SolanaConfig holds ledger RPC configuration
type SolanaConfig struct {
	RPCURL            string        `mapstructure:"rpc_url"`
	Commitment        string        `mapstructure:"commitment"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// IngestionConfig holds the ingestion coordinator settings
type IngestionConfig struct {
	ProgramID               string        `mapstructure:"program_id"`
	PollInterval            time.Duration `mapstructure:"poll_interval"`
	BackfillLimit           int           `mapstructure:"backfill_limit"`
	PollLimit               int           `mapstructure:"poll_limit"`
	MaxRetries              int           `mapstructure:"max_retries"`
	RetryDelay              time.Duration `mapstructure:"retry_delay"` // multiplied by the attempt number
	MaxConcurrentProcessing int           `mapstructure:"max_concurrent_processing"`
	RateLimitDelay          time.Duration `mapstructure:"rate_limit_delay"` // pause between signature submissions
	MaxCacheSize            int           `mapstructure:"max_cache_size"`
	CacheRetention          time.Duration `mapstructure:"cache_retention"`
	CacheCleanupInterval    time.Duration `mapstructure:"cache_cleanup_interval"`
	VerifyOwnershipOnWrite  bool          `mapstructure:"verify_ownership_on_write"`
}

// ReconciliationConfig holds the ownership reconciliation sweep settings
type ReconciliationConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Schedule         string        `mapstructure:"schedule"` // cron expression, e.g. "@every 1h"
	BatchSize        int           `mapstructure:"batch_size"`
	MaxBatches       int           `mapstructure:"max_batches"`
	VerificationAge  time.Duration `mapstructure:"verification_age"`
	ConcurrentChecks int           `mapstructure:"concurrent_checks"`
	RPCDelay         time.Duration `mapstructure:"rpc_delay"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// IndexerConfig holds configuration for the indexer program
type IndexerConfig struct {
	BaseConfig     `mapstructure:",squash"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Solana         SolanaConfig         `mapstructure:"solana"`
	Ingestion      IngestionConfig      `mapstructure:"ingestion"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
	NATS           NATSConfig           `mapstructure:"nats"`
	Server         ServerConfig         `mapstructure:"server"`
}

// SweeperConfig holds configuration for the standalone sweeper program
type SweeperConfig struct {
	BaseConfig     `mapstructure:",squash"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Solana         SolanaConfig         `mapstructure:"solana"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
}

// LoadIndexerConfig loads configuration for the indexer program
func LoadIndexerConfig(configFile string, envPath string) (*IndexerConfig, error) {
	v := configureViper("indexer", configFile, envPath)

	setDatabaseDefaults(v)
	setSolanaDefaults(v)
	setReconciliationDefaults(v)
	v.SetDefault("ingestion.poll_interval", "30s")
	v.SetDefault("ingestion.backfill_limit", 20)
	v.SetDefault("ingestion.poll_limit", 20)
	v.SetDefault("ingestion.max_retries", 5)
	v.SetDefault("ingestion.retry_delay", "2s")
	v.SetDefault("ingestion.max_concurrent_processing", 3)
	v.SetDefault("ingestion.rate_limit_delay", "100ms")
	v.SetDefault("ingestion.max_cache_size", 100000)
	v.SetDefault("ingestion.cache_retention", "24h")
	v.SetDefault("ingestion.cache_cleanup_interval", "1h")
	v.SetDefault("ingestion.verify_ownership_on_write", true)
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "LEDGER_EVENTS")
	v.SetDefault("nats.connection_name", "ledger-indexer")
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)

	if err := readInConfig(v); err != nil {
		return nil, err
	}

	var cfg IndexerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if err := validateDatabase(cfg.Database); err != nil {
		return nil, err
	}
	if cfg.Solana.RPCURL == "" {
		return nil, errors.New("solana.rpc_url is required")
	}
	if cfg.Ingestion.ProgramID == "" {
		return nil, errors.New("ingestion.program_id is required")
	}
	if cfg.Ingestion.MaxConcurrentProcessing < 1 {
		return nil, errors.New("ingestion.max_concurrent_processing must be at least 1")
	}
	if cfg.Ingestion.MaxCacheSize < 1 {
		return nil, errors.New("ingestion.max_cache_size must be at least 1")
	}

	return &cfg, nil
}

// LoadSweeperConfig loads configuration for the standalone sweeper program
func LoadSweeperConfig(configFile string, envPath string) (*SweeperConfig, error) {
	v := configureViper("sweeper", configFile, envPath)

	setDatabaseDefaults(v)
	setSolanaDefaults(v)
	setReconciliationDefaults(v)
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)

	if err := readInConfig(v); err != nil {
		return nil, err
	}

	var cfg SweeperConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if err := validateDatabase(cfg.Database); err != nil {
		return nil, err
	}
	if cfg.Solana.RPCURL == "" {
		return nil, errors.New("solana.rpc_url is required")
	}

	return &cfg, nil
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
}

func setSolanaDefaults(v *viper.Viper) {
	v.SetDefault("solana.commitment", "confirmed")
	v.SetDefault("solana.request_timeout", "30s")
	v.SetDefault("solana.requests_per_second", 10)
	v.SetDefault("solana.burst", 5)
}

func setReconciliationDefaults(v *viper.Viper) {
	v.SetDefault("reconciliation.enabled", true)
	v.SetDefault("reconciliation.schedule", "@every 1h")
	v.SetDefault("reconciliation.batch_size", 50)
	v.SetDefault("reconciliation.max_batches", 20)
	v.SetDefault("reconciliation.verification_age", "24h") // 1 day
	v.SetDefault("reconciliation.concurrent_checks", 10)
	v.SetDefault("reconciliation.rpc_delay", "50ms")
}

func validateDatabase(db DatabaseConfig) error {
	if db.Host == "" {
		return errors.New("database.host is required")
	}
	if db.DBName == "" {
		return errors.New("database.dbname is required")
	}
	return nil
}

// readInConfig reads the config file, falling back to environment variables when no file is found
func readInConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search order: current directory, service directory, config directory
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("LEDGER_INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.read_host",
		"database.read_port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Solana
		"solana.rpc_url",
		"solana.commitment",
		"solana.request_timeout",
		"solana.requests_per_second",
		"solana.burst",
		// Ingestion
		"ingestion.program_id",
		"ingestion.poll_interval",
		"ingestion.backfill_limit",
		"ingestion.poll_limit",
		"ingestion.max_retries",
		"ingestion.retry_delay",
		"ingestion.max_concurrent_processing",
		"ingestion.rate_limit_delay",
		"ingestion.max_cache_size",
		"ingestion.cache_retention",
		"ingestion.cache_cleanup_interval",
		"ingestion.verify_ownership_on_write",
		// Reconciliation
		"reconciliation.enabled",
		"reconciliation.schedule",
		"reconciliation.batch_size",
		"reconciliation.max_batches",
		"reconciliation.verification_age",
		"reconciliation.concurrent_checks",
		"reconciliation.rpc_delay",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Server
		"server.enabled",
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Shared base first, then local, then optional per-service local
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile)) // later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ReadDSN returns the read-replica database connection string.
// If ReadPort is not configured, it falls back to Port.
func (c *DatabaseConfig) ReadDSN() string {
	port := c.ReadPort
	if port == 0 {
		port = c.Port
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.ReadHost, port, c.User, c.Password, c.DBName, c.SSLMode)
}

// HasReadReplica reports whether a read replica is configured
func (c *DatabaseConfig) HasReadReplica() bool {
	return c.ReadHost != ""
}
