package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ferro.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "data_dir: /tmp/ferro-test\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/ferro-test", cfg.DataDir)
	assert.Equal(t, 1, cfg.ClusterSize)
	assert.Equal(t, 2113, cfg.HTTPEndpoint.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.ReadOnlyReplica)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
data_dir: /var/lib/ferro
cluster_size: 3
http_endpoint: {host: 10.0.0.5, port: 2113}
internal_tcp: {host: 10.0.0.5, port: 1112}
external_tcp: {host: 203.0.113.5, port: 1113}
advertised_host: db.example.com
advertised_tcp_port: 31113
ops_addr: 0.0.0.0:2114
log_level: debug
json_logs: true
timeouts:
  leader_discovery: 10s
  shutdown: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.ClusterSize)
	assert.Equal(t, "10.0.0.5", cfg.HTTPEndpoint.Host)
	assert.Equal(t, "db.example.com", cfg.AdvertisedHost)
	assert.Equal(t, 31113, cfg.AdvertisedTCPPort)
	assert.True(t, cfg.JSONLogs)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.LeaderDiscovery)
	assert.Equal(t, 2*time.Second, cfg.Timeouts.Shutdown)
	assert.Zero(t, cfg.Timeouts.Commit, "unset timeouts stay zero for defaulting")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "default is valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty data dir",
			mutate:  func(c *Config) { c.DataDir = "" },
			wantErr: "data_dir",
		},
		{
			name:    "zero cluster size",
			mutate:  func(c *Config) { c.ClusterSize = 0 },
			wantErr: "cluster_size",
		},
		{
			name:    "read-only single node",
			mutate:  func(c *Config) { c.ReadOnlyReplica = true },
			wantErr: "read-only replica",
		},
		{
			name: "read-only in cluster is valid",
			mutate: func(c *Config) {
				c.ReadOnlyReplica = true
				c.ClusterSize = 3
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
