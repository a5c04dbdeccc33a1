package fs

import (
	"context"
	"strings"

	"github.com/apex/log"
	pkgErrors "github.com/pkg/errors"

	"github.com/uob-dice/dice-lib/internal/cache"
)

// Factory constructs a FileSystem backend. Factories which block, e.g. to
// contact a remote service, must return once ctx is done.
type Factory func(ctx context.Context) (FileSystem, error)

// RegistryEntry associates a protocol prefix with the factory of its backend.
type RegistryEntry struct {
	Protocol string
	Factory  Factory
}

// Registry resolves paths to FileSystem backends by protocol prefix.
//
// Backends are constructed on first use and then cached for the lifetime of
// the Registry. A failed construction is returned to the caller and retried
// on the next Resolve. Construction runs with the context of the Resolve
// call which triggered it.
type Registry struct {
	entries         []RegistryEntry
	defaultProtocol string

	backends cache.ExpiringCache[string, FileSystem]
	logger   log.Interface
}

// NewRegistry returns a Registry which tries entries in order. Paths not
// matching any entry resolve to the entry whose protocol is defaultProtocol.
func NewRegistry(logger log.Interface, defaultProtocol string, entries ...RegistryEntry) (*Registry, error) {
	if logger == nil {
		logger = log.Log
	}

	r := &Registry{
		entries:         entries,
		defaultProtocol: defaultProtocol,
		logger: logger.WithFields(log.Fields{
			"package":   "fs",
			"component": "Registry",
		}),
	}

	if _, ok := r.factory(defaultProtocol); !ok {
		return nil, pkgErrors.Wrapf(ErrConfiguration, "NewRegistry: no entry for default protocol %s", defaultProtocol)
	}

	r.backends.TTL = -1

	return r, nil
}

// Protocols returns the protocol prefixes of all entries in resolution order.
func (r *Registry) Protocols() []string {
	protocols := make([]string, len(r.entries))
	for ind, entry := range r.entries {
		protocols[ind] = entry.Protocol
	}
	return protocols
}

// ProtocolOf returns the protocol prefix of the backend responsible for path.
func (r *Registry) ProtocolOf(path string) string {
	for _, entry := range r.entries {
		if strings.HasPrefix(path, entry.Protocol) {
			return entry.Protocol
		}
	}

	return r.defaultProtocol
}

// Resolve returns the backend responsible for path.
func (r *Registry) Resolve(ctx context.Context, path string) (FileSystem, error) {
	return r.Backend(ctx, r.ProtocolOf(path))
}

// Backend returns the backend registered for protocol, constructing it if
// required.
func (r *Registry) Backend(ctx context.Context, protocol string) (FileSystem, error) {
	return r.backends.LookupFunc(protocol, func(protocol string) (FileSystem, error) {
		return r.construct(ctx, protocol)
	})
}

// Backends returns all backends constructed so far.
func (r *Registry) Backends() []FileSystem {
	var backends []FileSystem
	r.backends.Range(func(_ string, backend FileSystem) bool {
		backends = append(backends, backend)
		return true
	})
	return backends
}

func (r *Registry) factory(protocol string) (Factory, bool) {
	for _, entry := range r.entries {
		if entry.Protocol == protocol {
			return entry.Factory, true
		}
	}
	return nil, false
}

func (r *Registry) construct(ctx context.Context, protocol string) (FileSystem, error) {
	factory, ok := r.factory(protocol)
	if !ok {
		return nil, pkgErrors.Wrapf(ErrConfiguration, "no backend registered for protocol %s", protocol)
	}

	if err := ctx.Err(); err != nil {
		return nil, pkgErrors.Wrapf(err, "construct backend for protocol %s", protocol)
	}

	backend, err := factory(ctx)
	if err != nil {
		r.logger.WithError(err).WithField("protocol", protocol).Error("Encountered error while constructing backend")
		return nil, err
	}

	r.logger.WithField("protocol", protocol).Debug("Constructed backend")

	return backend, nil
}
