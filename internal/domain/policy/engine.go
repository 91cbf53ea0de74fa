package policy

import "context"

// ConfigProvider supplies the current PolicyConfig. Concrete sources (file
// watcher, Consul KV poller, ...) are external collaborators; this package
// only defines the capability a provider must expose. Implementations are
// required to be safe for concurrent use, since Get may be called from
// whichever goroutine triggers a refresh. No type in this repository
// implements it; the host reads policy files through internal/policydoc.
type ConfigProvider interface {
	// Get returns the current PolicyConfig, or an error if the source is
	// unavailable. Implementations must not block indefinitely; honor
	// ctx cancellation.
	Get(ctx context.Context) (*Config, error)

	// Watch optionally returns a channel that is sent to whenever the
	// provider believes the config may have changed, so a caller can
	// trigger an out-of-band reload instead of relying purely on polling.
	// Implementations without push notification support may return nil.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
