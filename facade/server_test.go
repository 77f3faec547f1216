package facade_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
	"github.com/momentics/hioload-net/facade"
	"github.com/momentics/hioload-net/session"
)

func loopbackConfig() *control.Config {
	cfg := control.DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.PoolSize = 2
	cfg.DialTimeout = 2 * time.Second
	return cfg
}

func TestServer_ClientOnly(t *testing.T) {
	srv, err := facade.New(nil, facade.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.Nil(t, srv.Acceptor())
	assert.NotContains(t, srv.Debug().DumpState(), "acceptor.state")

	err = srv.Serve().AddEstablishHandler(func(*session.Session) {}).Start()
	require.ErrorIs(t, err, api.ErrNoAcceptor)

	require.NoError(t, srv.Shutdown())
	require.NoError(t, srv.Shutdown())
	assert.True(t, srv.Pool().Closed())
}

func TestServer_RejectsInvalidConfig(t *testing.T) {
	cfg := loopbackConfig()
	cfg.RecvBufferSize = 0
	_, err := facade.New(cfg)
	require.Error(t, err)
	assert.Equal(t, api.ErrCodeInvalidArgument, api.CodeOf(err))
}

func TestServer_EchoRoundTrip(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv, err := facade.New(loopbackConfig(),
		facade.WithLogger(zaptest.NewLogger(t)),
		facade.WithRegisterer(reg))
	require.NoError(t, err)
	defer srv.Shutdown()

	require.NoError(t, srv.Serve().
		AddEstablishHandler(func(*session.Session) {}).
		WithDataHandler(func(s *session.Session, data []byte) int {
			_ = s.Send(append([]byte(nil), data...))
			return len(data)
		}).
		Start())
	assert.Equal(t, api.AcceptorAccepting, srv.Acceptor().State())

	echoed := make(chan string, 1)
	require.NoError(t, srv.Dial(srv.Acceptor().Addr().String()).
		WithFailedHandler(func(err error) { t.Errorf("dial failed: %v", err) }).
		AddEstablishHandler(func(s *session.Session) { _ = s.Send([]byte("ping")) }).
		WithDataHandler(func(_ *session.Session, data []byte) int {
			if len(data) < 4 {
				return 0
			}
			echoed <- string(data)
			return len(data)
		}).
		AsyncConnect())

	select {
	case got := <-echoed:
		assert.Equal(t, "ping", got)
	case <-time.After(3 * time.Second):
		t.Fatal("no echo")
	}

	assert.Eventually(t, func() bool { return srv.Sessions().Len() == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, srv.Debug().DumpState()["sessions.active"])
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.Metrics().Accepted))
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.Metrics().Connected))

	require.NoError(t, srv.Shutdown())
	assert.Equal(t, 0, srv.Sessions().Len())
	assert.Equal(t, api.AcceptorClosed, srv.Acceptor().State())
}

func TestServer_StoreReloadUpdatesBackoff(t *testing.T) {
	srv, err := facade.New(loopbackConfig(), facade.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	defer srv.Shutdown()

	assert.Equal(t, time.Second, srv.Acceptor().BackoffMax())
	srv.Store().Set(map[string]any{control.KeyAcceptBackoffMax: 250 * time.Millisecond})
	assert.Equal(t, 250*time.Millisecond, srv.Acceptor().BackoffMax())

	srv.Store().Set(map[string]any{control.KeyDialTimeout: 10 * time.Millisecond})
	assert.Equal(t, 10*time.Millisecond, srv.Store().Duration(control.KeyDialTimeout, 0))
}
