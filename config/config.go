package config

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/rs/zerolog/log"
	yaml "gopkg.in/yaml.v2"
)

// Config is the configuration of the TeamCity client
type Config struct {
	Server   ServerConfig   `yaml:"server,omitempty"`
	Resolver ResolverConfig `yaml:"resolver,omitempty"`
	Queue    QueueConfig    `yaml:"queue,omitempty"`
}

// ServerConfig holds the location and credentials of the TeamCity server
type ServerConfig struct {
	URL     string        `yaml:"url,omitempty"`
	Token   string        `yaml:"token,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ResolverConfig configures caching and fuzzy matching of build configurations
type ResolverConfig struct {
	CacheTTL       time.Duration `yaml:"cacheTTL,omitempty"`
	CacheSize      int           `yaml:"cacheSize,omitempty"`
	FuzzyThreshold float64       `yaml:"fuzzyThreshold,omitempty"`
}

// QueueConfig configures submission retries and build monitoring
type QueueConfig struct {
	MaxRetries      *int          `yaml:"maxRetries,omitempty"`
	RetryDelay      time.Duration `yaml:"retryDelay,omitempty"`
	PollInterval    time.Duration `yaml:"pollInterval,omitempty"`
	MonitorTimeout  time.Duration `yaml:"monitorTimeout,omitempty"`
	AllowPartial    bool          `yaml:"allowPartial,omitempty"`
	MaxPollInterval time.Duration `yaml:"-"`
	MaxTimeout      time.Duration `yaml:"-"`
}

// SetDefaults fills in every value that isn't configured
func (c *Config) SetDefaults() {
	if c.Server.Timeout <= 0 {
		c.Server.Timeout = 30 * time.Second
	}
	c.Resolver.SetDefaults()
	c.Queue.SetDefaults()
}

// SetDefaults fills in every resolver value that isn't configured
func (c *ResolverConfig) SetDefaults() {
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 100
	}
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		c.FuzzyThreshold = 0.7
	}
}

// SetDefaults fills in every queue value that isn't configured; a zero MaxRetries is kept
func (c *QueueConfig) SetDefaults() {
	if c.MaxRetries == nil || *c.MaxRetries < 0 {
		maxRetries := 3
		c.MaxRetries = &maxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.MonitorTimeout <= 0 {
		c.MonitorTimeout = time.Hour
	}
	if c.MaxPollInterval <= 0 {
		c.MaxPollInterval = time.Hour
	}
	if c.MaxTimeout <= 0 {
		c.MaxTimeout = 24 * time.Hour
	}
}

// Validate checks the values that can't be defaulted
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("TeamCity server url is not configured")
	}
	return nil
}

// UnmarshalYAML parses the config file contents into a Config
func (c *Config) UnmarshalYAML(data []byte) error {
	return yaml.UnmarshalStrict(data, c)
}

// ReadConfigFromFile reads and defaults the config file; a missing file results in a defaulted empty config
func ReadConfigFromFile(configPath string) (config Config, err error) {

	if configPath != "" {
		log.Debug().Msgf("Reading %v file...", configPath)

		data, err := ioutil.ReadFile(configPath)
		if err != nil {
			return config, err
		}

		// unmarshal strict, so non-defined properties or incorrect nesting will fail
		if err := config.UnmarshalYAML(data); err != nil {
			return config, fmt.Errorf("Failed unmarshalling %v: %w", configPath, err)
		}
	}

	config.SetDefaults()

	return config, nil
}
