package config

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/gpumon/internal/errors"
)

// Validate checks a loaded config. A config that fails validation is
// treated by Resolve as if the file did not exist.
func Validate(cfg *Config) error {
	if len(cfg.Servers) == 0 {
		return errors.New(errors.ErrConfig,
			"No servers configured",
			"Add at least one host to the 'servers' list")
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Port %d is out of range", cfg.Port),
			"Use a port between 1 and 65535 (the status reporters default to 9999)")
	}

	if cfg.Endpoint != "" && !strings.HasPrefix(cfg.Endpoint, "/") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Endpoint '%s' must start with '/'", cfg.Endpoint),
			"Try something like /gpu-status")
	}

	if cfg.Interval < 0 {
		return errors.New(errors.ErrConfig,
			"Interval can't be negative",
			"Use a duration like 1s or 5s")
	}

	if cfg.HistorySize < 0 {
		return errors.New(errors.ErrConfig,
			"history_size can't be negative",
			fmt.Sprintf("Leave it out to keep the default of %d points per series", DefaultHistorySize))
	}

	if cfg.Timeout < 0 {
		return errors.New(errors.ErrConfig,
			"Timeout can't be negative",
			"Leave it out or use 0 for the default of 60s")
	}

	return nil
}
