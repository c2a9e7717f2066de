package tx

import (
	"os"
	"time"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defines structs describing transaction configuration.

// Config defines properties that configure transaction behaviour.
type Config struct {
	// Defines the time in seconds that a transaction will wait for a datastore lock to be granted.
	LockTimeoutSecs int `yaml:"lockTimeoutSecs"`
	// Defines the time in seconds that a transaction will wait for the reply to any other rpc.
	RPCTimeoutSecs int `yaml:"rpcTimeoutSecs"`
	// Suppresses the rollback-on-error error option, even when the device advertises it.
	DisableRollbackOnError bool `yaml:"disableRollbackOnError"`
}

var DefaultConfig = &Config{
	LockTimeoutSecs: 60,
	RPCTimeoutSecs:  60,
}

// LockTimeout delivers the lock timeout as a duration.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutSecs) * time.Second
}

// RPCTimeout delivers the rpc timeout as a duration.
func (c *Config) RPCTimeout() time.Duration {
	return time.Duration(c.RPCTimeoutSecs) * time.Second
}

func resolveConfig(cfg *Config) *Config {
	resolved := &Config{}
	if cfg != nil {
		*resolved = *cfg
	}
	_ = mergo.Merge(resolved, DefaultConfig)
	return resolved
}

// ParseConfig decodes a YAML configuration document, applying defaults to unset properties.
func ParseConfig(b []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, errors.Wrap(err, "invalid transaction configuration")
	}
	if cfg.LockTimeoutSecs < 0 || cfg.RPCTimeoutSecs < 0 {
		return nil, errors.New("invalid transaction configuration: timeouts must not be negative")
	}
	return resolveConfig(cfg), nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return ParseConfig(b)
}
