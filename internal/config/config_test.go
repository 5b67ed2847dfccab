package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, []string{"192.168.5.40", "192.168.5.46", "192.168.6.40"}, cfg.Servers)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "/gpu-status", cfg.Endpoint)
	assert.Equal(t, time.Second, cfg.Interval)
	assert.Equal(t, 60, cfg.HistorySize)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)

	// Mutating one default must not leak into the next.
	cfg.Servers[0] = "changed"
	assert.Equal(t, "192.168.5.40", DefaultConfig().Servers[0])
}

func TestEndpointConfig(t *testing.T) {
	hosts := []string{"a", "b"}
	ep := NewEndpointConfig(hosts, 9999, "/gpu-status")

	assert.Equal(t, "http://a:9999/gpu-status", ep.URL("a"))
	assert.Equal(t, 9999, ep.Port())
	assert.Equal(t, "/gpu-status", ep.Path())

	hosts[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, ep.Hosts())

	got := ep.Hosts()
	got[1] = "mutated"
	assert.Equal(t, []string{"a", "b"}, ep.Hosts())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "servers.json", `{
  "servers": ["gpu-01", "gpu-02"],
  "port": 8080,
  "endpoint": "/status",
  "interval": "5s",
  "history_size": 120,
  "log_dir": "/var/log/gpumon"
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"gpu-01", "gpu-02"}, cfg.Servers)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/status", cfg.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.Equal(t, 120, cfg.HistorySize)
	assert.Equal(t, "/var/log/gpumon", cfg.LogDir)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "servers.json", `{"servers": ["a"], "port": 9999}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.Equal(t, DefaultHistorySize, cfg.HistorySize)
	assert.Equal(t, ExpandTilde(DefaultLogDir), cfg.LogDir)
}

func TestLoadNumericDurations(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "servers.json", `{"servers": ["a"], "port": 9999, "interval": 2, "timeout": 0.5}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.Equal(t, 500*time.Millisecond, cfg.Timeout)
}

func TestLoadWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "gpumon-config", `{"servers": ["a"], "port": 9999, "endpoint": "/gpu-status"}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, cfg.Servers)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		create  bool
	}{
		{name: "missing file", create: false},
		{name: "invalid json", content: `{"servers": [`, create: true},
		{name: "no servers", content: `{"servers": [], "port": 9999}`, create: true},
		{name: "port out of range", content: `{"servers": ["a"], "port": 70000}`, create: true},
		{name: "missing port", content: `{"servers": ["a"]}`, create: true},
		{name: "endpoint without slash", content: `{"servers": ["a"], "port": 1, "endpoint": "gpu"}`, create: true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "cfg"+string(rune('a'+i))+".json")
			if tt.create {
				writeFile(t, dir, filepath.Base(path), tt.content)
			}

			cfg, err := Load(path)
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
		})
	}
}

func TestResolveFrom(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.json", `not json`)
	good := writeFile(t, dir, "good.json", `{"servers": ["good"], "port": 9999, "endpoint": "/gpu-status"}`)
	later := writeFile(t, dir, "later.json", `{"servers": ["later"], "port": 9999, "endpoint": "/gpu-status"}`)
	missing := filepath.Join(dir, "missing.json")

	t.Run("first existing and parseable wins", func(t *testing.T) {
		res := ResolveFrom([]string{missing, broken, good, later})

		assert.Equal(t, good, res.Source)
		assert.False(t, res.IsDefault())
		assert.Equal(t, []string{"good"}, res.Config.Servers)
		require.Len(t, res.Attempts, 3)
		assert.Error(t, res.Attempts[0].Err)
		assert.Error(t, res.Attempts[1].Err)
		assert.NoError(t, res.Attempts[2].Err)
	})

	t.Run("falls back to defaults", func(t *testing.T) {
		res := ResolveFrom([]string{missing, broken})

		assert.True(t, res.IsDefault())
		assert.Equal(t, DefaultServers, res.Config.Servers)
		assert.Equal(t, DefaultPort, res.Config.Port)
		assert.Equal(t, DefaultEndpoint, res.Config.Endpoint)
		assert.Equal(t, ExpandTilde(DefaultLogDir), res.Config.LogDir)
		assert.Len(t, res.Attempts, 2)
	})

	t.Run("no candidates", func(t *testing.T) {
		res := ResolveFrom(nil)
		assert.True(t, res.IsDefault())
		assert.NotNil(t, res.Config)
	})
}

func TestResolveExplicitFirst(t *testing.T) {
	dir := t.TempDir()
	explicit := writeFile(t, dir, "custom.json", `{"servers": ["explicit"], "port": 9999, "endpoint": "/gpu-status"}`)

	res := Resolve(explicit)
	assert.Equal(t, explicit, res.Source)
	assert.Equal(t, []string{"explicit"}, res.Config.Servers)
}

func TestSearchPaths(t *testing.T) {
	paths := SearchPaths("/etc/gpumon/servers.json")

	require.NotEmpty(t, paths)
	assert.Equal(t, "/etc/gpumon/servers.json", paths[0])
	assert.Equal(t, filepath.Join(".", ConfigFileName), paths[1])

	// ./servers.json and <cwd>/servers.json are the same file.
	seen := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		require.NoError(t, err)
		assert.False(t, seen[abs], "duplicate search path %s", p)
		seen[abs] = true
	}

	assert.Equal(t, filepath.Join(".", ConfigFileName), SearchPaths("")[0])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"no servers", func(c *Config) { c.Servers = nil }, "No servers"},
		{"zero port", func(c *Config) { c.Port = 0 }, "out of range"},
		{"empty endpoint allowed", func(c *Config) { c.Endpoint = "" }, ""},
		{"relative endpoint", func(c *Config) { c.Endpoint = "status" }, "must start with '/'"},
		{"negative interval", func(c *Config) { c.Interval = -time.Second }, "Interval"},
		{"negative history", func(c *Config) { c.HistorySize = -1 }, "history_size"},
		{"negative timeout", func(c *Config) { c.Timeout = -1 }, "Timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "servers.json")

	cfg := DefaultConfig()
	cfg.Servers = []string{"gpu-01", "gpu-02"}
	cfg.Interval = 5 * time.Second

	require.NoError(t, Write(path, cfg, false))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Servers, loaded.Servers)
	assert.Equal(t, cfg.Port, loaded.Port)
	assert.Equal(t, cfg.Endpoint, loaded.Endpoint)
	assert.Equal(t, 5*time.Second, loaded.Interval)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "history_size", "defaults should not be written")
}

func TestWriteRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "servers.json", `{"servers": ["keep"], "port": 9999}`)

	cfg := DefaultConfig()
	err := Write(path, cfg, false)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, loaded.Servers)

	require.NoError(t, Write(path, cfg, true))
	loaded, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultServers, loaded.Servers)
}

func TestWriteRejectsInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Servers = nil
	err := Write(filepath.Join(t.TempDir(), "servers.json"), cfg, false)
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	cfg := DefaultConfig()

	out, err := Render(cfg, "yaml")
	require.NoError(t, err)
	assert.Contains(t, string(out), "port: 9999")
	assert.Contains(t, string(out), "interval: 1s")
	assert.Contains(t, string(out), "- 192.168.5.40")

	out, err = Render(cfg, "json")
	require.NoError(t, err)
	assert.Contains(t, string(out), `"endpoint": "/gpu-status"`)
	assert.True(t, strings.HasSuffix(string(out), "\n"))

	_, err = Render(cfg, "toml")
	assert.Error(t, err)
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "", ExpandTilde(""))
	assert.Equal(t, home, ExpandTilde("~"))
	assert.Equal(t, filepath.Join(home, "logs"), ExpandTilde("~/logs"))
	assert.Equal(t, "/abs/path", ExpandTilde("/abs/path"))
	assert.Equal(t, "~other/x", ExpandTilde("~other/x"))
}
