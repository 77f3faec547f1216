package control

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func envOf(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.apply(envOf(map[string]string{
		"HIOLOAD_LISTEN_ADDR":        "127.0.0.1:7000",
		"HIOLOAD_POOL_SIZE":          "3",
		"HIOLOAD_PIN_CPUS":           "true",
		"HIOLOAD_DIAL_TIMEOUT":       "250ms",
		"HIOLOAD_RECV_BUFFER":        "8192",
		"HIOLOAD_ACCEPT_BACKOFF_MAX": "2s",
		"HIOLOAD_NODELAY":            "false",
	}))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", cfg.ListenAddr)
	assert.Equal(t, 3, cfg.PoolSize)
	assert.True(t, cfg.PinCPUs)
	assert.Equal(t, 250*time.Millisecond, cfg.DialTimeout)
	assert.Equal(t, 8192, cfg.RecvBufferSize)
	assert.Equal(t, 2*time.Second, cfg.AcceptBackoffMax)
	assert.False(t, cfg.NoDelay)
}

func TestConfigApplyEnvCollectsErrors(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.apply(envOf(map[string]string{
		"HIOLOAD_POOL_SIZE":    "many",
		"HIOLOAD_DIAL_TIMEOUT": "soon",
		"HIOLOAD_LISTEN_ADDR":  ":1234",
	}))
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, ":1234", cfg.ListenAddr)
	assert.Equal(t, 0, cfg.PoolSize)
}

func TestConfigApplyEnvErrorNamesKey(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.apply(envOf(map[string]string{"HIOLOAD_RECV_BUFFER": "lots"}))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "HIOLOAD_RECV_BUFFER: "), err.Error())

	var numErr *strconv.NumError
	require.True(t, errors.As(err, &numErr))
	assert.Equal(t, "lots", numErr.Num)
	assert.Same(t, numErr, errors.Cause(err))
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{DialTimeout: -time.Second}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
	assert.NoError(t, (&Config{RecvBufferSize: 1, SendQueueSize: 1, AcceptBackoffMax: time.Second}).Validate())
}
