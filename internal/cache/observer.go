package cache

import "time"

// Observer receives store events. Calls are made outside the store lock and
// may come from any goroutine.
type Observer interface {
	// Hit is called when Get, Pop or GetOrLoad finds a live entry.
	Hit(key string)

	// Miss is called when Get, Pop or GetOrLoad finds nothing live.
	Miss(key string)

	// Expire is called for each expired entry the store removes.
	Expire(key string)

	// Load is called after a GetOrLoad producer returns.
	Load(key string, d time.Duration, err error)
}

// NoopObserver ignores every event.
type NoopObserver struct{}

func (NoopObserver) Hit(string)                        {}
func (NoopObserver) Miss(string)                       {}
func (NoopObserver) Expire(string)                     {}
func (NoopObserver) Load(string, time.Duration, error) {}

// Observers fans every event out to each non-nil observer in order.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

type multiObserver []Observer

func (m multiObserver) Hit(key string) {
	for _, o := range m {
		o.Hit(key)
	}
}

func (m multiObserver) Miss(key string) {
	for _, o := range m {
		o.Miss(key)
	}
}

func (m multiObserver) Expire(key string) {
	for _, o := range m {
		o.Expire(key)
	}
}

func (m multiObserver) Load(key string, d time.Duration, err error) {
	for _, o := range m {
		o.Load(key, d, err)
	}
}
