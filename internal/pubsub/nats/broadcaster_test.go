package nats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	loggerCfg "gitlab.com/nevasik7/alerting/config"
	"gitlab.com/nevasik7/alerting/logger"

	"poolstats/internal/config"
	"poolstats/internal/domain"
)

func newTestLogger() logger.Logger {
	return logger.New(loggerCfg.LoggerCfg{
		Level:  "error",
		Format: "json",
	})
}

// ------------------------ tests not real connection ------------------------

func TestNew_NilConfig(t *testing.T) {
	client, err := New(newTestLogger(), nil)

	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Equal(t, "nats config is required", err.Error())
}

func TestNew_EmptyURL(t *testing.T) {
	client, err := New(newTestLogger(), &config.NATSConfig{})

	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Equal(t, "nats url is required", err.Error())
}

func TestReady_NilConnection(t *testing.T) {
	client := &Client{nc: nil, log: newTestLogger()}
	assert.False(t, client.Ready())
}

func TestStatus_NilConnection(t *testing.T) {
	client := &Client{nc: nil, log: newTestLogger()}
	assert.Equal(t, nats.DISCONNECTED, client.Status())
}

func TestClose_NilConnection(t *testing.T) {
	client := &Client{nc: nil, log: newTestLogger()}
	assert.NoError(t, client.Close())
}

func TestPublish_NilConnection(t *testing.T) {
	client := &Client{nc: nil, log: newTestLogger()}
	err := client.Publish(context.Background(), "x", map[string]string{})
	assert.Error(t, err)
}

// ------------------------ tests in-memory nats connection ------------------------

func runTestWithInMemoryNATS(t *testing.T, testFunc func(*testing.T, *server.Server, string)) {
	t.Helper()

	opts := natsserver.DefaultTestOptions
	opts.Port = -1 // random port
	s := natsserver.RunServer(&opts)
	defer s.Shutdown()

	testFunc(t, s, s.ClientURL())
}

func TestNew_Success(t *testing.T) {
	runTestWithInMemoryNATS(t, func(t *testing.T, s *server.Server, url string) {
		client, err := New(newTestLogger(), &config.NATSConfig{URL: url})

		require.NoError(t, err)
		require.NotNil(t, client)
		assert.True(t, client.Ready())
		assert.Equal(t, nats.CONNECTED, client.Status())
		assert.NoError(t, client.Health(context.Background()))

		client.nc.Close()
	})
}

func TestPublish_PrefixedSubject(t *testing.T) {
	runTestWithInMemoryNATS(t, func(t *testing.T, s *server.Server, url string) {
		client, err := New(newTestLogger(), &config.NATSConfig{
			URL:             url,
			BroadcastPrefix: "poolstats.patch",
		})
		require.NoError(t, err)
		defer client.nc.Close()

		sub, err := client.nc.SubscribeSync("poolstats.patch.token.0xaa")
		require.NoError(t, err)

		patch := &domain.TokenStatsPatch{Topic: "token.0xaa", Token: "0xaa"}
		require.NoError(t, client.Publish(context.Background(), "token.0xaa", patch))

		msg, err := sub.NextMsg(2 * time.Second)
		require.NoError(t, err)

		var got domain.TokenStatsPatch
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, "0xaa", got.Token)
	})
}

func TestPublish_NoPrefix(t *testing.T) {
	runTestWithInMemoryNATS(t, func(t *testing.T, s *server.Server, url string) {
		client, err := New(newTestLogger(), &config.NATSConfig{URL: url})
		require.NoError(t, err)
		defer client.nc.Close()

		sub, err := client.nc.SubscribeSync("bare.subject")
		require.NoError(t, err)

		require.NoError(t, client.Publish(context.Background(), "bare.subject", map[string]int{"n": 1}))

		_, err = sub.NextMsg(2 * time.Second)
		assert.NoError(t, err)
	})
}

func TestClose_Idempotent(t *testing.T) {
	runTestWithInMemoryNATS(t, func(t *testing.T, s *server.Server, url string) {
		client, err := New(newTestLogger(), &config.NATSConfig{URL: url})
		require.NoError(t, err)

		assert.NoError(t, client.Close())
		assert.NoError(t, client.Close())

		assert.False(t, client.Ready())
		assert.Equal(t, nats.CLOSED, client.Status())
		assert.Error(t, client.Health(context.Background()))
	})
}
