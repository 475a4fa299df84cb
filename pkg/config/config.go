package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ferrodb/ferro/pkg/mesh"
	"gopkg.in/yaml.v3"
)

// TimeoutConfig overrides the controller's internal timeouts. Zero
// values keep the defaults.
type TimeoutConfig struct {
	LeaderDiscovery         time.Duration `yaml:"leader_discovery"`
	LeaderReconnectionDelay time.Duration `yaml:"leader_reconnection_delay"`
	SubscriptionRetryDelay  time.Duration `yaml:"subscription_retry_delay"`
	SubscriptionWatchdog    time.Duration `yaml:"subscription_watchdog"`
	Shutdown                time.Duration `yaml:"shutdown"`
	Prepare                 time.Duration `yaml:"prepare"`
	Commit                  time.Duration `yaml:"commit"`
}

// Config is the node configuration file
type Config struct {
	DataDir         string `yaml:"data_dir"`
	ClusterSize     int    `yaml:"cluster_size"`
	ReadOnlyReplica bool   `yaml:"read_only_replica"`

	HTTPEndpoint      mesh.Endpoint  `yaml:"http_endpoint"`
	InternalTCP       mesh.Endpoint  `yaml:"internal_tcp"`
	InternalSecureTCP *mesh.Endpoint `yaml:"internal_secure_tcp"`
	ExternalTCP       *mesh.Endpoint `yaml:"external_tcp"`
	ExternalSecureTCP *mesh.Endpoint `yaml:"external_secure_tcp"`

	AdvertisedHost     string `yaml:"advertised_host"`
	AdvertisedTCPPort  int    `yaml:"advertised_tcp_port"`
	AdvertisedHTTPPort int    `yaml:"advertised_http_port"`

	OpsAddr string `yaml:"ops_addr"`

	LogLevel string `yaml:"log_level"`
	JSONLogs bool   `yaml:"json_logs"`

	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// Default returns the stock single-node configuration
func Default() *Config {
	return &Config{
		DataDir:      "/var/lib/ferro",
		ClusterSize:  1,
		HTTPEndpoint: mesh.Endpoint{Host: "127.0.0.1", Port: 2113},
		InternalTCP:  mesh.Endpoint{Host: "127.0.0.1", Port: 1112},
		ExternalTCP:  &mesh.Endpoint{Host: "127.0.0.1", Port: 1113},
		OpsAddr:      "127.0.0.1:2114",
		LogLevel:     "info",
	}
}

// Load reads and validates a config file, applying defaults for
// unset fields.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for obvious mistakes
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	if c.ClusterSize < 1 {
		return fmt.Errorf("cluster_size must be at least 1, got %d", c.ClusterSize)
	}
	if c.HTTPEndpoint.IsZero() {
		return fmt.Errorf("http_endpoint must be set")
	}
	if c.InternalTCP.IsZero() {
		return fmt.Errorf("internal_tcp must be set")
	}
	if c.ReadOnlyReplica && c.ClusterSize < 2 {
		return fmt.Errorf("a read-only replica needs a cluster to follow")
	}
	return nil
}
