// Package config loads the TOML configuration of a multi-process sort.
//
// Every worker reads the same file and picks its own address from the
// cluster list by its rank:
//
//	[cluster]
//	workers = ["10.0.0.1:7070", "10.0.0.2:7070"]
//	dialTimeout = "30s"
//
//	[input]
//	path = "values.bin"
//	format = "binary"
//
//	[output]
//	path = "sorted.bin"
//	format = "binary"
//	verify = true
//
//	[metrics]
//	pushgateway = "http://pushgateway:9091"
//	job = "dsort"
package config

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/exascience/dsort/floatio"
	"github.com/pkg/errors"
)

// DefaultDialTimeout is used when the cluster section sets no dial timeout.
const DefaultDialTimeout = 30 * time.Second

// ClusterConfig lists the worker addresses, indexed by rank.
type ClusterConfig struct {
	Workers     []string      `toml:"workers"`
	DialTimeout time.Duration `toml:"dialTimeout"`
}

// InputConfig names the file the coordinator sorts.
type InputConfig struct {
	Path   string `toml:"path"`
	Format string `toml:"format"`
}

// OutputConfig names the file the coordinator writes, and whether the
// result is verified first.
type OutputConfig struct {
	Path   string `toml:"path"`
	Format string `toml:"format"`
	Verify bool   `toml:"verify"`
}

// MetricsConfig enables pushing metrics when Pushgateway is set.
type MetricsConfig struct {
	Pushgateway string `toml:"pushgateway"`
	Job         string `toml:"job"`
}

// Config is the configuration shared by all workers of a run.
type Config struct {
	Cluster ClusterConfig `toml:"cluster"`
	Input   InputConfig   `toml:"input"`
	Output  OutputConfig  `toml:"output"`
	Metrics MetricsConfig `toml:"metrics"`
}

// Load reads the configuration file at path. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, errors.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if cfg.Cluster.DialTimeout == 0 {
		cfg.Cluster.DialTimeout = DefaultDialTimeout
	}
	return &cfg, nil
}

// Validate checks the configuration for the worker of the given rank. Only
// the coordinator, rank 0, needs input and output paths.
func (c *Config) Validate(rank int) error {
	if len(c.Cluster.Workers) == 0 {
		return errors.New("cluster: no workers")
	}
	for i, addr := range c.Cluster.Workers {
		if addr == "" {
			return errors.Errorf("cluster: empty address for worker %d", i)
		}
	}
	if rank < 0 || rank >= len(c.Cluster.Workers) {
		return errors.Errorf("rank %d out of range for %d workers", rank, len(c.Cluster.Workers))
	}
	if c.Cluster.DialTimeout < 0 {
		return errors.Errorf("cluster: negative dial timeout %v", c.Cluster.DialTimeout)
	}
	if _, err := c.InputFormat(); err != nil {
		return errors.Wrap(err, "input")
	}
	if _, err := c.OutputFormat(); err != nil {
		return errors.Wrap(err, "output")
	}
	if rank == 0 {
		if c.Input.Path == "" {
			return errors.New("input: path is required on rank 0")
		}
		if c.Output.Path == "" {
			return errors.New("output: path is required on rank 0")
		}
	}
	return nil
}

// InputFormat parses the input format name.
func (c *Config) InputFormat() (floatio.Format, error) {
	return floatio.ParseFormat(c.Input.Format)
}

// OutputFormat parses the output format name.
func (c *Config) OutputFormat() (floatio.Format, error) {
	return floatio.ParseFormat(c.Output.Format)
}
