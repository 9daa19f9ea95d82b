package config

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// ReportCache keeps encoded report responses for the API server.
type ReportCache struct {
	c *cache.Cache
}

// NewReportCache creates a cache whose entries live for ttl. Expired entries
// are purged every 2*ttl.
func NewReportCache(ttl time.Duration) *ReportCache {
	return &ReportCache{c: cache.New(ttl, 2*ttl)}
}

func (rc *ReportCache) Get(key string) ([]byte, bool) {
	v, ok := rc.c.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (rc *ReportCache) Set(key string, body []byte) {
	rc.c.Set(key, body, cache.DefaultExpiration)
}

func (rc *ReportCache) Delete(key string) {
	rc.c.Delete(key)
}

// CacheKey joins a prefix and parameters with colons.
func CacheKey(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key += ":" + fmt.Sprintf("%v", param)
	}
	return key
}
