package config

import (
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/logger"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the config file looked up in each search location.
	ConfigFileName = "servers.json"
	// GlobalConfigDir is the directory for the per-user config.
	GlobalConfigDir = ".config/gpumon"
)

var log = logger.NewEnvLogger("[config]")

// Attempt records the outcome of trying one config source.
type Attempt struct {
	Path string
	Err  error
}

// Resolved is the result of config resolution.
type Resolved struct {
	Config *Config
	// Source is the file that won, or empty when built-in defaults are used.
	Source   string
	Attempts []Attempt
}

// IsDefault reports whether the built-in defaults were used.
func (r *Resolved) IsDefault() bool {
	return r.Source == ""
}

// Load reads and validates config from the specified path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found: "+path,
				"Run 'gpumon init' to create one, or point --config at an existing file")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Can't access config file: "+path,
			"Check file permissions")
	}

	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file "+path,
			"Check the file is valid JSON with servers, port and endpoint")
	}

	return parseConfig(v, path)
}

// SearchPaths returns the config locations in lookup order:
//  1. Explicit path (from --config)
//  2. servers.json in the working directory
//  3. servers.json next to the directory holding the executable
//  4. ~/.config/gpumon/servers.json
//
// Duplicate locations are listed once.
func SearchPaths(explicit string) []string {
	var paths []string
	if explicit != "" {
		paths = append(paths, explicit)
	}

	paths = append(paths, filepath.Join(".", ConfigFileName))

	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), "..", ConfigFileName))
	}

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ConfigFileName))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, GlobalConfigDir, ConfigFileName))
	}

	return dedupe(paths)
}

// Resolve finds the first config source that exists and parses, falling
// back to DefaultConfig. It never fails.
func Resolve(explicit string) *Resolved {
	return ResolveFrom(SearchPaths(explicit))
}

// ResolveFrom is Resolve over an explicit list of candidate paths.
func ResolveFrom(paths []string) *Resolved {
	res := &Resolved{}
	for _, p := range paths {
		cfg, err := Load(p)
		res.Attempts = append(res.Attempts, Attempt{Path: p, Err: err})
		if err != nil {
			log.Debug("skipping config %s: %v", p, shortErr(err))
			continue
		}
		res.Config = cfg
		res.Source = p
		log.Debug("using config %s (%d servers)", p, len(cfg.Servers))
		return res
	}

	log.Debug("no config found, using built-in defaults")
	res.Config = DefaultConfig()
	res.Config.LogDir = ExpandTilde(res.Config.LogDir)
	return res
}

// parseConfig converts viper config to our Config struct and validates it.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the JSON in "+path)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	cfg.LogDir = ExpandTilde(cfg.LogDir)
	return cfg, nil
}

// setDefaults registers values for the optional keys.
func setDefaults(v *viper.Viper) {
	v.SetDefault("endpoint", DefaultEndpoint)
	v.SetDefault("interval", DefaultInterval.String())
	v.SetDefault("history_size", DefaultHistorySize)
	v.SetDefault("log_dir", DefaultLogDir)
	v.SetDefault("timeout", DefaultTimeout.String())
}

// decodeHook accepts durations either as strings ("5s") or as plain
// numbers of seconds.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		secondsToDurationHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func secondsToDurationHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch n := data.(type) {
	case float64:
		return time.Duration(n * float64(time.Second)), nil
	case int:
		return time.Duration(n) * time.Second, nil
	case int64:
		return time.Duration(n) * time.Second, nil
	}
	return data, nil
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		key := p
		if abs, err := filepath.Abs(p); err == nil {
			key = abs
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

func shortErr(err error) string {
	if e, ok := err.(*errors.Error); ok {
		return e.Short()
	}
	return err.Error()
}
