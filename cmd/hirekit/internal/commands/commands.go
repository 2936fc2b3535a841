package commands

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hirekit/hirekit/internal/service"
	"github.com/hirekit/hirekit/internal/store/postgres"
)

type Globals struct {
	Debug   bool
	Version string
}

// Config is the on-disk configuration shared by the commands.
type Config struct {
	Database postgres.PoolConfig `yaml:"database"`

	// TransferCancelWindowSeconds overrides how long an initiated transfer
	// stays cancellable. Zero keeps the service default.
	TransferCancelWindowSeconds int `yaml:"transfer_cancel_window_seconds"`

	// StageChangeMaxTries bounds the optimistic-lock retry loop for stage
	// changes. Zero keeps the service default.
	StageChangeMaxTries uint `yaml:"stage_change_max_tries"`
}

// ServiceConfig translates the file settings into the service layer's config.
func (c *Config) ServiceConfig() service.Config {
	return service.Config{
		TransferCancelWindow: time.Duration(c.TransferCancelWindowSeconds) * time.Second,
		StageChangeMaxTries:  c.StageChangeMaxTries,
	}
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}
