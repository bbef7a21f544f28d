package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/Parthita/train-delay-backend/core/metrics"
	"github.com/Parthita/train-delay-backend/core/pipeline"
	"github.com/Parthita/train-delay-backend/core/queue"
	"github.com/Parthita/train-delay-backend/core/training"
	"github.com/Parthita/train-delay-backend/infra/etrain"
	"github.com/Parthita/train-delay-backend/infra/monitoring"
	"github.com/Parthita/train-delay-backend/infra/notify"
)

type Config struct {
	Server   ServerConfig      `json:"server"`
	Pipeline pipeline.Config   `json:"pipeline"`
	Ingest   etrain.Config     `json:"ingest"`
	Training training.Params   `json:"training"`
	Queue    queue.Config      `json:"queue"`
	Metrics  metrics.Config    `json:"metrics"`
	Notify   notify.Config     `json:"notify"`
	Sentry   monitoring.Config `json:"sentry"`
	RunLog   RunLogConfig      `json:"runlog"`
	Storage  StorageConfig     `json:"storage"`
	Stations StationsConfig    `json:"stations"`
}

// Default returns a configuration with every default applied, for runs
// without a config file.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("TD_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "td_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	c.Server.SetDefaults()
	c.Pipeline.SetDefaults()
	c.Ingest.SetDefaults()
	c.Training.SetDefaults()
	c.Queue.SetDefaults()
	c.Metrics.SetDefaults()
	c.Notify.SetDefaults()
	c.RunLog.SetDefaults()
	c.Storage.SetDefaults()
}

// Validate checks every section that can reject its settings.
func (c Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if err := c.Ingest.Validate(); err != nil {
		return err
	}
	if err := c.Training.Validate(); err != nil {
		return err
	}
	if err := c.Queue.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Notify.Validate(); err != nil {
		return err
	}
	if c.Storage.KPIFile != "" {
		for _, s := range c.Metrics.Sinks {
			if s.Type == "punctuality" {
				return fmt.Errorf("storage.kpi_file already adds the punctuality sink, remove it from metrics.sinks")
			}
		}
	}
	return c.RunLog.Validate()
}
