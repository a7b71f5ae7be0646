package resolver

import (
	"strings"
	"time"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const nameSeparator = "::"

func idKey(id string) string {
	return "id:" + id
}

func nameKey(projectName, buildTypeName, disambiguation string) string {
	return "name:" + projectName + nameSeparator + buildTypeName + nameSeparator + disambiguation
}

// configurationCache hands out copies so callers can't alter cached configurations
type configurationCache struct {
	lru *expirable.LRU[string, *api.Configuration]
}

func newConfigurationCache(size int, ttl time.Duration) *configurationCache {
	return &configurationCache{
		lru: expirable.NewLRU[string, *api.Configuration](size, nil, ttl),
	}
}

// get doesn't touch recency, so eviction follows insertion and update order
func (c *configurationCache) get(key string) (*api.Configuration, bool) {
	configuration, ok := c.lru.Peek(key)
	if !ok {
		return nil, false
	}
	return configuration.Clone(), true
}

func (c *configurationCache) add(key string, configuration *api.Configuration) {
	c.lru.Add(key, configuration.Clone())
}

// invalidate removes the id entry and every name entry that resolved to the same configuration
func (c *configurationCache) invalidate(id string) (removed int) {
	for _, key := range c.lru.Keys() {
		if key == idKey(id) {
			if c.lru.Remove(key) {
				removed++
			}
			continue
		}
		if !strings.HasPrefix(key, "name:") {
			continue
		}
		if configuration, ok := c.lru.Peek(key); ok && configuration.ID == id {
			if c.lru.Remove(key) {
				removed++
			}
		}
	}
	return
}

func (c *configurationCache) purge() {
	c.lru.Purge()
}

func (c *configurationCache) len() int {
	return c.lru.Len()
}
