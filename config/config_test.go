package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetDefaults(t *testing.T) {

	t.Run("SetsDefaultsForEmptyConfig", func(t *testing.T) {

		config := Config{}

		// act
		config.SetDefaults()

		assert.Equal(t, 5*time.Minute, config.Resolver.CacheTTL)
		assert.Equal(t, 100, config.Resolver.CacheSize)
		assert.Equal(t, 0.7, config.Resolver.FuzzyThreshold)
		assert.Equal(t, 3, *config.Queue.MaxRetries)
		assert.Equal(t, time.Second, config.Queue.RetryDelay)
		assert.Equal(t, 5*time.Second, config.Queue.PollInterval)
		assert.Equal(t, time.Hour, config.Queue.MonitorTimeout)
	})

	t.Run("KeepsZeroMaxRetries", func(t *testing.T) {

		zero := 0
		config := Config{Queue: QueueConfig{MaxRetries: &zero}}

		// act
		config.SetDefaults()

		assert.Equal(t, 0, *config.Queue.MaxRetries)
	})
}

func TestReadConfigFromFile(t *testing.T) {

	t.Run("ReadsDurationsAndKeepsConfiguredValues", func(t *testing.T) {

		dir, err := ioutil.TempDir("", "config")
		assert.Nil(t, err)
		defer os.RemoveAll(dir)
		path := filepath.Join(dir, "teamcity.yaml")
		ioutil.WriteFile(path, []byte(`
server:
  url: https://teamcity.example.com
  timeout: 10s
resolver:
  cacheTTL: 1m
  fuzzyThreshold: 0.8
queue:
  maxRetries: 5
  pollInterval: 2s
`), 0644)

		// act
		config, err := ReadConfigFromFile(path)

		assert.Nil(t, err)
		assert.Equal(t, "https://teamcity.example.com", config.Server.URL)
		assert.Equal(t, 10*time.Second, config.Server.Timeout)
		assert.Equal(t, time.Minute, config.Resolver.CacheTTL)
		assert.Equal(t, 0.8, config.Resolver.FuzzyThreshold)
		assert.Equal(t, 100, config.Resolver.CacheSize)
		assert.Equal(t, 5, *config.Queue.MaxRetries)
		assert.Equal(t, 2*time.Second, config.Queue.PollInterval)
		assert.Nil(t, config.Validate())
	})

	t.Run("ReturnsErrorForUnknownFields", func(t *testing.T) {

		dir, err := ioutil.TempDir("", "config")
		assert.Nil(t, err)
		defer os.RemoveAll(dir)
		path := filepath.Join(dir, "teamcity.yaml")
		ioutil.WriteFile(path, []byte("servr:\n  url: x\n"), 0644)

		// act
		_, err = ReadConfigFromFile(path)

		assert.NotNil(t, err)
	})

	t.Run("ReturnsDefaultedConfigWithoutPath", func(t *testing.T) {

		// act
		config, err := ReadConfigFromFile("")

		assert.Nil(t, err)
		assert.Equal(t, 100, config.Resolver.CacheSize)
		assert.NotNil(t, config.Validate())
	})
}
