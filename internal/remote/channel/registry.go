// Package channel caches TRACE32 channel descriptors per endpoint.
//
// A multi-core setup runs one TRACE32 instance per core, each reachable on
// its own (host, port). The Remote API addresses them through channel
// descriptors: opaque buffers sized and initialized by the remote side and
// then selected with SetChannel. The registry creates a descriptor the first
// time an endpoint is used and only switches to it afterwards.
package channel

import (
	"fmt"

	"github.com/dshills/t32remote/internal/remote/native"
	"github.com/dshills/t32remote/internal/remote/status"
)

// Endpoint identifies a TRACE32 instance.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// Channel is a cached descriptor. The descriptor bytes never leave this
// package.
type Channel struct {
	endpoint Endpoint
	desc     []byte
}

// Endpoint returns the endpoint the channel belongs to.
func (c *Channel) Endpoint() Endpoint { return c.endpoint }

// Registry maps endpoints to channels for the lifetime of a client.
//
// Registry does no locking of its own; callers serialize GetOrCreate.
type Registry struct {
	api      native.Native
	check    status.CheckFunc
	channels map[Endpoint]*Channel
}

// NewRegistry creates an empty registry issuing calls on api and
// converting statuses with check.
func NewRegistry(api native.Native, check status.CheckFunc) *Registry {
	return &Registry{
		api:      api,
		check:    check,
		channels: make(map[Endpoint]*Channel),
	}
}

// GetOrCreate selects the channel of ep, creating it on first use. The
// returned flag reports whether the channel was created by this call.
//
// Nothing is cached when any step of the creation fails.
func (r *Registry) GetOrCreate(ep Endpoint) (*Channel, bool, error) {
	if ch, ok := r.channels[ep]; ok {
		if err := r.check(native.OpSetChannel, r.api.SetChannel(ch.desc)); err != nil {
			return nil, false, err
		}
		return ch, false, nil
	}

	size := r.api.GetChannelSize()
	if size <= 0 {
		if err := r.check(native.OpGetChannelSize, size); err != nil {
			return nil, false, err
		}
		return nil, false, status.Unknown(native.OpGetChannelSize, size)
	}

	ch := &Channel{endpoint: ep, desc: make([]byte, size)}
	if err := r.check(native.OpGetChannelDefaults, r.api.GetChannelDefaults(ch.desc)); err != nil {
		return nil, false, err
	}
	if err := r.check(native.OpSetChannel, r.api.SetChannel(ch.desc)); err != nil {
		return nil, false, err
	}

	r.channels[ep] = ch
	return ch, true, nil
}

// Lookup returns the cached channel of ep without selecting it.
func (r *Registry) Lookup(ep Endpoint) (*Channel, bool) {
	ch, ok := r.channels[ep]
	return ch, ok
}

// Forget drops the cached channel of ep, so the next GetOrCreate sets up a
// fresh one.
func (r *Registry) Forget(ep Endpoint) { delete(r.channels, ep) }

// Len returns the number of cached channels.
func (r *Registry) Len() int { return len(r.channels) }
