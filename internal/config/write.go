package config

import (
	"os"
	"path/filepath"

	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/spf13/viper"
)

// Write saves the endpoint part of cfg as a servers.json file.
// Optional keys are only written when they differ from the defaults.
// An existing file is left alone unless overwrite is set.
func Write(path string, cfg *Config, overwrite bool) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Can't create config directory "+dir,
				"Check your permissions.")
		}
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set("servers", cfg.Servers)
	v.Set("port", cfg.Port)
	v.Set("endpoint", cfg.Endpoint)
	if cfg.Interval != 0 && cfg.Interval != DefaultInterval {
		v.Set("interval", cfg.Interval.String())
	}
	if cfg.HistorySize != 0 && cfg.HistorySize != DefaultHistorySize {
		v.Set("history_size", cfg.HistorySize)
	}
	if cfg.LogDir != "" && cfg.LogDir != DefaultLogDir {
		v.Set("log_dir", cfg.LogDir)
	}
	if cfg.Timeout != 0 && cfg.Timeout != DefaultTimeout {
		v.Set("timeout", cfg.Timeout.String())
	}

	var err error
	if overwrite {
		err = v.WriteConfigAs(path)
	} else {
		err = v.SafeWriteConfigAs(path)
	}
	if err != nil {
		if _, ok := err.(viper.ConfigFileAlreadyExistsError); ok {
			return errors.New(errors.ErrConfig,
				"Config file already exists: "+path,
				"Use --force to overwrite")
		}
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Can't write config "+path,
			"Check your permissions.")
	}
	return nil
}
