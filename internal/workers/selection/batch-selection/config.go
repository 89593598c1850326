// internal/workers/selection/batch-selection/config.go
package batchselection

import (
	"fmt"
	"time"

	"actuator-workers/internal/common/config"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxBatchSize  int           `mapstructure:"max_batch_size"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 2,
		Timeout:       2 * time.Minute,
		MaxBatchSize:  500,
	}
}

// LoadConfig overlays the workers.batch-selection section on the defaults.
func LoadConfig(appConfig *config.Config) *Config {
	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}
	if workerCfg, exists := appConfig.Workers[TaskType]; exists {
		cfg.Enabled = workerCfg.Enabled
		if workerCfg.MaxJobsActive > 0 {
			cfg.MaxJobsActive = workerCfg.MaxJobsActive
		}
		if workerCfg.Timeout > 0 {
			cfg.Timeout = time.Duration(workerCfg.Timeout) * time.Millisecond
		}
		if workerCfg.MaxBatchSize > 0 {
			cfg.MaxBatchSize = workerCfg.MaxBatchSize
		}
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive")
	}
	return nil
}
