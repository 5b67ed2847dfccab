package config

import (
	"fmt"
	"time"
)

// Built-in fallback values used when no config source can be read.
const (
	DefaultPort        = 9999
	DefaultEndpoint    = "/gpu-status"
	DefaultInterval    = time.Second
	DefaultHistorySize = 60
	DefaultLogDir      = "~/.gpumon/logs"
	// DefaultTimeout bounds a single status request, matching the request
	// timeout of common HTTP stacks used by the status reporters' clients.
	DefaultTimeout = 60 * time.Second
)

// DefaultServers are the hosts polled when no config file is found.
var DefaultServers = []string{"192.168.5.40", "192.168.5.46", "192.168.6.40"}

// Config represents a servers.json configuration file.
// Only servers, port and endpoint are required by the wire contract; the
// remaining keys are optional tuning knobs.
type Config struct {
	Servers     []string      `yaml:"servers" json:"servers" mapstructure:"servers"`
	Port        int           `yaml:"port" json:"port" mapstructure:"port"`
	Endpoint    string        `yaml:"endpoint" json:"endpoint" mapstructure:"endpoint"`
	Interval    time.Duration `yaml:"interval" json:"interval" mapstructure:"interval"`
	HistorySize int           `yaml:"history_size" json:"history_size" mapstructure:"history_size"`
	LogDir      string        `yaml:"log_dir" json:"log_dir" mapstructure:"log_dir"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
}

// EndpointConfig is the immutable description of where status requests go.
// It is built once from a Config and shared by every fetch.
type EndpointConfig struct {
	hosts []string
	port  int
	path  string
}

// NewEndpointConfig builds an EndpointConfig. The host slice is copied.
func NewEndpointConfig(hosts []string, port int, path string) EndpointConfig {
	h := make([]string, len(hosts))
	copy(h, hosts)
	return EndpointConfig{hosts: h, port: port, path: path}
}

// Hosts returns a copy of the configured hosts in config order.
func (e EndpointConfig) Hosts() []string {
	h := make([]string, len(e.hosts))
	copy(h, e.hosts)
	return h
}

// Port returns the status port shared by all hosts.
func (e EndpointConfig) Port() int { return e.port }

// Path returns the status endpoint path.
func (e EndpointConfig) Path() string { return e.path }

// URL returns the status URL for a host. The result is not validated.
func (e EndpointConfig) URL(host string) string {
	return fmt.Sprintf("http://%s:%d%s", host, e.port, e.path)
}

// Endpoints returns the immutable endpoint view of the config.
func (c *Config) Endpoints() EndpointConfig {
	return NewEndpointConfig(c.Servers, c.Port, c.Endpoint)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	servers := make([]string, len(DefaultServers))
	copy(servers, DefaultServers)
	return &Config{
		Servers:     servers,
		Port:        DefaultPort,
		Endpoint:    DefaultEndpoint,
		Interval:    DefaultInterval,
		HistorySize: DefaultHistorySize,
		LogDir:      DefaultLogDir,
		Timeout:     DefaultTimeout,
	}
}
