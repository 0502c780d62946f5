package etcd

import (
	"errors"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Config is the configuration for etcd client connection.
type Config struct {
	// Endpoints is the list of etcd node addresses.
	Endpoints []string `yaml:"endpoints" json:"endpoints" toml:"endpoints"`

	// DialTimeout is the connection timeout (default: 5s).
	DialTimeout time.Duration `yaml:"dialTimeout" json:"dialTimeout" toml:"dialTimeout"`

	// Username is the etcd username (optional).
	Username string `yaml:"username" json:"username" toml:"username"`

	// Password is the etcd password (optional).
	Password string `yaml:"password" json:"password" toml:"password"`
}

// WatchConfig selects the key holding a serialized logging configuration.
//
// Example:
//
//	etcd:
//	  endpoints: [127.0.0.1:2379]
//	  key: /logkit/service-a/logging
//	  base: /var/log/service-a/run
type WatchConfig struct {
	Config `yaml:",inline"`

	// Key is the etcd key watched for configuration changes.
	Key string `yaml:"key" json:"key" toml:"key"`

	// Base is used when the stored configuration does not set one.
	Base string `yaml:"base" json:"base" toml:"base"`
}

// ClientV3Config returns a clientv3.Config for creating an etcd client.
func (c *Config) ClientV3Config() (*clientv3.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cfg := &clientv3.Config{
		Endpoints:   c.Endpoints,
		DialTimeout: 5 * time.Second,
	}
	if c.DialTimeout > 0 {
		cfg.DialTimeout = c.DialTimeout
	}

	if c.Username != "" {
		cfg.Username = c.Username
		cfg.Password = c.Password
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("etcd: config is nil")
	}
	if len(c.Endpoints) == 0 {
		return errors.New("etcd: endpoints not configured")
	}
	return nil
}

// Validate validates the connection settings and the watched key.
func (c *WatchConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.Key == "" {
		return errors.New("etcd: watch key not configured")
	}
	return nil
}

// NewClient connects to etcd. It fails when no endpoints are configured.
func NewClient(cfg *Config) (*clientv3.Client, error) {
	clientV3Config, err := cfg.ClientV3Config()
	if err != nil {
		return nil, err
	}
	client, err := clientv3.New(*clientV3Config)
	if err != nil {
		return nil, fmt.Errorf("etcd: failed to connect to %v: %w", cfg.Endpoints, err)
	}
	return client, nil
}
