// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Typed framework configuration with defaults and environment overrides.

package control

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/momentics/hioload-net/api"
)

// Config holds every knob the facade and examples need.
type Config struct {
	ListenAddr       string        // address the acceptor binds, e.g. ":9001" ("": client only)
	PoolSize         int           // number of execution contexts (<=0: NumCPU)
	PinCPUs          bool          // pin loop i to CPU i
	ReusePort        bool          // SO_REUSEPORT on the listening socket
	DialTimeout      time.Duration // outbound connect deadline (0: none)
	RecvBufferSize   int           // initial per-session receive buffer
	SendQueueSize    int           // per-session queued writes before Send fails
	AcceptBackoffMax time.Duration // upper bound between failing accepts
	NoDelay          bool          // TCP_NODELAY on every socket
	KeepAlive        time.Duration // keep-alive period (0: OS default, <0: off)
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:       ":9001",
		PoolSize:         0,
		DialTimeout:      5 * time.Second,
		RecvBufferSize:   4096,
		SendQueueSize:    256,
		AcceptBackoffMax: time.Second,
		NoDelay:          true,
	}
}

// ApplyEnv overrides fields from HIOLOAD_* environment variables.
// Unparsable values are reported together; valid ones are still applied.
func (c *Config) ApplyEnv() error {
	return c.apply(os.LookupEnv)
}

func (c *Config) apply(lookup func(string) (string, bool)) error {
	var errs error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = multierr.Append(errs, errors.Wrap(err, key))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = multierr.Append(errs, errors.Wrap(err, key))
				return
			}
			*dst = b
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = multierr.Append(errs, errors.Wrap(err, key))
				return
			}
			*dst = d
		}
	}

	str("HIOLOAD_LISTEN_ADDR", &c.ListenAddr)
	num("HIOLOAD_POOL_SIZE", &c.PoolSize)
	flag("HIOLOAD_PIN_CPUS", &c.PinCPUs)
	flag("HIOLOAD_REUSE_PORT", &c.ReusePort)
	dur("HIOLOAD_DIAL_TIMEOUT", &c.DialTimeout)
	num("HIOLOAD_RECV_BUFFER", &c.RecvBufferSize)
	num("HIOLOAD_SEND_QUEUE", &c.SendQueueSize)
	dur("HIOLOAD_ACCEPT_BACKOFF_MAX", &c.AcceptBackoffMax)
	flag("HIOLOAD_NODELAY", &c.NoDelay)
	dur("HIOLOAD_KEEPALIVE", &c.KeepAlive)
	return errs
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs error
	if c.DialTimeout < 0 {
		errs = multierr.Append(errs, api.NewError(api.ErrCodeInvalidArgument, "dial timeout is negative").
			WithContext("dial_timeout", c.DialTimeout))
	}
	if c.RecvBufferSize <= 0 {
		errs = multierr.Append(errs, api.NewError(api.ErrCodeInvalidArgument, "receive buffer size must be positive").
			WithContext("recv_buffer", c.RecvBufferSize))
	}
	if c.SendQueueSize <= 0 {
		errs = multierr.Append(errs, api.NewError(api.ErrCodeInvalidArgument, "send queue size must be positive").
			WithContext("send_queue", c.SendQueueSize))
	}
	if c.AcceptBackoffMax <= 0 {
		errs = multierr.Append(errs, api.NewError(api.ErrCodeInvalidArgument, "accept backoff max must be positive").
			WithContext("accept_backoff_max", c.AcceptBackoffMax))
	}
	return errs
}
