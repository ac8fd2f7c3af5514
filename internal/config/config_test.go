package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	return &cfg
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := defaultConfig(t)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint64(10000), cfg.Program.MaxContributionBps)
	assert.Equal(t, "postgres", cfg.Database.Driver)

	id, err := cfg.Program.ProgramID()
	require.NoError(t, err)
	token, err := cfg.Program.TokenProgram()
	require.NoError(t, err)
	assert.NotEqual(t, id, token)

	system, err := cfg.Program.SystemProgram()
	require.NoError(t, err)
	assert.True(t, system.IsZero())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero bps", func(c *Config) { c.Program.MaxContributionBps = 0 }},
		{"bps above scale", func(c *Config) { c.Program.MaxContributionBps = 10001 }},
		{"bad program id", func(c *Config) { c.Program.ID = "0x1234" }},
		{"same program and token", func(c *Config) { c.Program.TokenProgramID = c.Program.ID }},
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"zero interval", func(c *Config) { c.Task.Interval = 0 }},
		{"zero workers", func(c *Config) { c.Task.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "9090"
  mode: release
database:
  driver: sqlite
  path: ":memory:"
program:
  max_contribution_bps: 2500
task:
  workers: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, uint64(2500), cfg.Program.MaxContributionBps)
	assert.Equal(t, 3, cfg.Task.Workers)
	// 未配置的键取默认值
	assert.Equal(t, 60, cfg.Task.Interval)
	assert.Equal(t, uint64(6960), cfg.Rent.LamportsPerByte)
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600))
	t.Setenv("FUNDRAISER_SERVER_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("program:\n  max_contribution_bps: 0\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
