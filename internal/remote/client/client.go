// Package client is the Go face of the TRACE32 Remote API.
//
// Every operation follows the same envelope: marshal the arguments into the
// fixed-width and NUL-terminated forms the API expects, issue exactly one
// entry point, resolve the returned status and either raise a *status.Error
// or decode the outputs. Operations block until the entry point returns.
package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dshills/t32remote/internal/remote/channel"
	"github.com/dshills/t32remote/internal/remote/charset"
	"github.com/dshills/t32remote/internal/remote/guard"
	"github.com/dshills/t32remote/internal/remote/native"
	"github.com/dshills/t32remote/internal/remote/status"
)

// ErrNotConnected is returned by operations that need Init to have
// succeeded.
var ErrNotConnected = errors.New("not connected to TRACE32")

// Options configures a Client. The zero value is usable.
type Options struct {
	// Charset encodes text arguments and decodes text results. Defaults to
	// GBK.
	Charset *charset.Codec

	// Resolver maps status codes to kinds. Defaults to the shared resolver.
	Resolver *status.Resolver

	// StrictStatus turns unknown nonzero status codes into errors instead
	// of logging and ignoring them.
	StrictStatus bool

	// Logger receives one debug entry per call.
	Logger logrus.FieldLogger

	// Metrics, when set, records per-call metrics.
	Metrics *Metrics

	// ChunkSize is the default buffer size for window content reads.
	ChunkSize int

	// MaxRounds bounds window content reads. Zero is unbounded.
	MaxRounds int

	// Retry governs Init attempts in Connect.
	Retry guard.RetryConfig
}

// Client issues Remote API calls on a native implementation.
//
// Calls may be made from several goroutines; the remote side serializes
// them. SetChannel is serialized by the client.
type Client struct {
	api      native.Native
	resolver *status.Resolver
	codec    *charset.Codec
	strict   bool
	log      logrus.FieldLogger
	metrics  *Metrics
	id       string

	chunkSize int
	maxRounds int
	retry     guard.RetryConfig

	chanMu   sync.Mutex
	channels *channel.Registry

	connected atomic.Bool
}

// New creates a client over api.
func New(api native.Native, opts Options) *Client {
	if opts.Charset == nil {
		opts.Charset = charset.Default()
	}
	if opts.Resolver == nil {
		opts.Resolver = status.DefaultResolver()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = guard.ConnectRetryConfig()
	}

	c := &Client{
		api:       api,
		resolver:  opts.Resolver,
		codec:     opts.Charset,
		strict:    opts.StrictStatus,
		metrics:   opts.Metrics,
		id:        uuid.NewString(),
		chunkSize: opts.ChunkSize,
		maxRounds: opts.MaxRounds,
		retry:     opts.Retry,
	}
	c.log = opts.Logger.WithField("client_id", c.id)
	c.channels = channel.NewRegistry(api, c.check)
	return c
}

// ID returns the identifier attached to the client's log entries.
func (c *Client) ID() string { return c.id }

// Connected reports whether Init succeeded and neither Exit nor Terminate
// was called since.
func (c *Client) Connected() bool { return c.connected.Load() }

// call issues one entry point and converts its status.
func (c *Client) call(op string, fn func() int32) error {
	start := time.Now()
	code := fn()
	c.metrics.observe(op, time.Since(start))
	return c.check(op, code)
}

// check converts code into an error, logging and counting the outcome.
func (c *Client) check(op string, code int32) error {
	err := c.resolver.Check(op, code, c.strict)
	c.metrics.record(op, err)

	entry := c.log.WithFields(logrus.Fields{"op": op, "code": code})
	switch {
	case code == 0:
		entry.Debug("call succeeded")
	case err == nil:
		entry.Warn("ignoring unknown status code")
	default:
		entry.WithError(err).Debug("call failed")
	}
	return err
}

// cstr encodes s as a NUL-terminated argument.
func (c *Client) cstr(s string) []byte { return c.codec.CString(s) }

// Connect configures the connection, initializes it (retrying while the
// debugger does not answer) and attaches to device. A failed attach exits
// the connection again.
func (c *Client) Connect(ctx context.Context, cfg RemoteConfig, device native.DeviceType) error {
	if err := c.Configure(cfg); err != nil {
		return err
	}

	retry := c.retry
	if retry.Retryable == nil {
		retry.Retryable = guard.CommunicationFailure
	}
	err := guard.RetryFunc(ctx, retry, func() error {
		err := c.Init()
		if err != nil {
			c.log.WithError(err).Info("TRACE32 not answering, retrying")
		}
		return err
	})
	if err != nil {
		return err
	}

	if err := c.Attach(device); err != nil {
		// Init succeeded, so the debugger holds a session for us.
		if exitErr := c.Exit(); exitErr != nil {
			return errors.Join(err, exitErr)
		}
		return err
	}
	c.log.WithFields(logrus.Fields{"node": cfg.Node, "port": cfg.Port, "device": device.String()}).Info("attached")
	return nil
}

// Close exits the connection if it is up.
func (c *Client) Close() error {
	if !c.Connected() {
		return nil
	}
	return c.Exit()
}
