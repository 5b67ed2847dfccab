package config

import (
	"encoding/json"
	"fmt"

	"github.com/rileyhilliard/gpumon/internal/errors"
	"gopkg.in/yaml.v3"
)

// view is the printable form of Config; durations are rendered as strings.
type view struct {
	Servers     []string `yaml:"servers" json:"servers"`
	Port        int      `yaml:"port" json:"port"`
	Endpoint    string   `yaml:"endpoint" json:"endpoint"`
	Interval    string   `yaml:"interval" json:"interval"`
	HistorySize int      `yaml:"history_size" json:"history_size"`
	LogDir      string   `yaml:"log_dir" json:"log_dir"`
	Timeout     string   `yaml:"timeout" json:"timeout"`
}

// Render formats the config as "yaml" or "json".
func Render(cfg *Config, format string) ([]byte, error) {
	v := view{
		Servers:     cfg.Servers,
		Port:        cfg.Port,
		Endpoint:    cfg.Endpoint,
		Interval:    cfg.Interval.String(),
		HistorySize: cfg.HistorySize,
		LogDir:      cfg.LogDir,
		Timeout:     cfg.Timeout.String(),
	}

	switch format {
	case "", "yaml":
		return yaml.Marshal(v)
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown format '%s'", format),
			"Use yaml or json")
	}
}
