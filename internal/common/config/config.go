// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Selection SelectionConfig         `mapstructure:"selection"`
	Logging   LoggingConfig           `mapstructure:"logging"`
	Metrics   MetricsConfig           `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	CatalogIndex  string   `mapstructure:"catalog_index"`
	OverrideIndex string   `mapstructure:"override_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
	MaxBatchSize  int  `mapstructure:"max_batch_size"`
}

// SelectionConfig tunes the actuator selection engine and its catalog backend.
type SelectionConfig struct {
	DefaultSafetyFactor  float64 `mapstructure:"default_safety_factor"`
	TemperatureSurcharge float64 `mapstructure:"temperature_surcharge"` // fraction, 0.05 = 5%
	BatchConcurrency     int     `mapstructure:"batch_concurrency"`
	CatalogBackend       string  `mapstructure:"catalog_backend"` // postgres | elasticsearch | file
	CatalogFile          string  `mapstructure:"catalog_file"`
	CacheEnabled         bool    `mapstructure:"cache_enabled"`
	CacheTTL             int     `mapstructure:"cache_ttl"` // seconds
	CacheRefreshCron     string  `mapstructure:"cache_refresh_cron"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the health/metrics listener settings.
type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

const (
	CatalogBackendPostgres      = "postgres"
	CatalogBackendElasticsearch = "elasticsearch"
	CatalogBackendFile          = "file"
)
