package logging

import "time"

// CacheObserver logs store expirations and producer results on the
// operational logger. It satisfies cache.Observer.
type CacheObserver struct{}

func (CacheObserver) Hit(string)  {}
func (CacheObserver) Miss(string) {}

func (CacheObserver) Expire(key string) {
	Op().Debug("cache entry expired", "key", key)
}

func (CacheObserver) Load(key string, d time.Duration, err error) {
	if err != nil {
		Op().Warn("cache load failed", "key", key, "duration", d, "error", err)
		return
	}
	Op().Debug("cache entry loaded", "key", key, "duration", d)
}
