package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/regginator/hashbrute/crack"
	"github.com/regginator/hashbrute/keyspace"
)

// Search and feed settings: defaults, then an optional YAML file. Flags set on the command line
// are applied on top by the caller

// Holds the config file path when --config isn't given
const EnvVar = "HASHBRUTE_CONFIG"

// Which engines a run executes
type Mode string

const (
	ModeBoth       Mode = "both"
	ModeSequential Mode = "sequential"
	ModeParallel   Mode = "parallel"
)

var modes = []Mode{ModeBoth, ModeSequential, ModeParallel}

type Config struct {
	// Ordered alphabet candidates are drawn from
	Charset string `yaml:"charset"`

	Length int `yaml:"length"`

	// Parallel engine worker count
	Threads int `yaml:"threads"`

	Mode Mode `yaml:"mode"`

	// Candidates between progress updates
	Batch uint64 `yaml:"batch"`

	Feed FeedConfig `yaml:"feed"`
}

// Remote hash list settings (http, https, ws, wss)
type FeedConfig struct {
	Proxy string `yaml:"proxy"` // e.g. "socks5://127.0.0.1:1080"

	// File of proxy URLs, used round robin across retries. Takes precedence over Proxy
	Proxies string `yaml:"proxies"`

	// Extra attempts after a failed fetch
	Retries int `yaml:"retries"`

	UserAgent string `yaml:"user_agent"`

	// Bounds the connection handshake
	Timeout time.Duration `yaml:"timeout"`
}

// a-z, length 5, 4 threads
func Default() *Config {
	return &Config{
		Charset: keyspace.DefaultCharset,
		Length:  keyspace.DefaultLength,
		Threads: 4,
		Mode:    ModeBoth,
		Batch:   crack.DefaultBatch,
		Feed: FeedConfig{
			Retries: 2,
			Timeout: 30 * time.Second,
		},
	}
}

// Read the file named by HASHBRUTE_CONFIG, or the defaults when it's unset
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Read a YAML config file over the defaults. Keys missing from the file keep their default
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Keyspace(); err != nil {
		errs = append(errs, fmt.Errorf("charset/length: %w", err))
	}

	if c.Threads < 1 {
		errs = append(errs, fmt.Errorf("threads must be at least 1, got %d", c.Threads))
	}

	if !slices.Contains(modes, c.Mode) {
		errs = append(errs, fmt.Errorf("mode must be one of: %v, got %q", modes, c.Mode))
	}

	if c.Batch == 0 {
		errs = append(errs, fmt.Errorf("batch must be at least 1"))
	}

	if c.Feed.Retries < 0 {
		errs = append(errs, fmt.Errorf("feed.retries must not be negative, got %d", c.Feed.Retries))
	}

	if c.Feed.Timeout < 0 {
		errs = append(errs, fmt.Errorf("feed.timeout must not be negative, got %s", c.Feed.Timeout))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (c *Config) Keyspace() (*keyspace.Keyspace, error) {
	return keyspace.New(c.Charset, c.Length)
}

func (c *Config) RunsSequential() bool {
	return c.Mode == ModeBoth || c.Mode == ModeSequential
}

func (c *Config) RunsParallel() bool {
	return c.Mode == ModeBoth || c.Mode == ModeParallel
}
