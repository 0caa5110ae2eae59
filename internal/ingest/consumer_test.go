package ingest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
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

type captureHandler struct {
	mu     sync.Mutex
	events []domain.PoolEvent
}

func (h *captureHandler) ProcessPoolEvent(_ context.Context, ev *domain.PoolEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, *ev)
	return nil
}

func (h *captureHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func (h *captureHandler) first() domain.PoolEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.events[0]
}

func runConsumerTest(t *testing.T, cfg config.IngestConfig, testFunc func(t *testing.T, nc *nats.Conn, h *captureHandler)) {
	t.Helper()

	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	s := natsserver.RunServer(&opts)
	defer s.Shutdown()

	nc, err := nats.Connect(s.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	h := &captureHandler{}
	c, err := NewConsumer(newTestLogger(), nc, cfg, h)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.Start(ctx))
	defer func() { _ = c.Stop() }()

	testFunc(t, nc, h)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestNewConsumer_Validation(t *testing.T) {
	t.Parallel()

	lg := newTestLogger()
	h := &captureHandler{}
	cfg := config.IngestConfig{Subject: "events"}

	_, err := NewConsumer(lg, nil, cfg, h)
	assert.Error(t, err)

	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	s := natsserver.RunServer(&opts)
	defer s.Shutdown()

	nc, err := nats.Connect(s.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	_, err = NewConsumer(lg, nc, cfg, nil)
	assert.Error(t, err)

	_, err = NewConsumer(lg, nc, config.IngestConfig{}, h)
	assert.Error(t, err)
}

func TestConsumer_DeliversDecodedEvents(t *testing.T) {
	cfg := config.IngestConfig{Subject: "test.pool.events"}

	runConsumerTest(t, cfg, func(t *testing.T, nc *nats.Conn, h *captureHandler) {
		ev := domain.PoolEvent{
			ChainID:        1,
			TxHash:         "0xabc",
			LogIndex:       4,
			EventID:        "1:0xabc:4",
			Kind:           domain.EventSwap,
			PoolAddress:    "0xpool",
			PoolLiquidity:  decimal.RequireFromString("1000"),
			BlockTimestamp: 1_700_000_000,
			SchemaVer:      1,
		}
		b, err := json.Marshal(&ev)
		require.NoError(t, err)

		require.NoError(t, nc.Publish(cfg.Subject, b))

		waitFor(t, func() bool { return h.count() == 1 })

		got := h.first()
		assert.Equal(t, "1:0xabc:4", got.EventID)
		assert.Equal(t, domain.EventSwap, got.Kind)
		assert.True(t, got.PoolLiquidity.Equal(decimal.RequireFromString("1000")))
	})
}

func TestConsumer_MalformedPayloadIgnored(t *testing.T) {
	cfg := config.IngestConfig{Subject: "test.pool.malformed"}

	runConsumerTest(t, cfg, func(t *testing.T, nc *nats.Conn, h *captureHandler) {
		require.NoError(t, nc.Publish(cfg.Subject, []byte("{not json")))

		good := domain.PoolEvent{EventID: "1:0xgood:0", Kind: domain.EventJoin}
		b, err := json.Marshal(&good)
		require.NoError(t, err)
		require.NoError(t, nc.Publish(cfg.Subject, b))

		waitFor(t, func() bool { return h.count() == 1 })
		assert.Equal(t, "1:0xgood:0", h.first().EventID)
	})
}

func TestConsumer_QueueGroupSingleDelivery(t *testing.T) {
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	s := natsserver.RunServer(&opts)
	defer s.Shutdown()

	nc, err := nats.Connect(s.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	cfg := config.IngestConfig{Subject: "test.pool.queue", QueueGroup: "workers"}

	h1 := &captureHandler{}
	h2 := &captureHandler{}

	ctx := context.Background()

	c1, err := NewConsumer(newTestLogger(), nc, cfg, h1)
	require.NoError(t, err)
	require.NoError(t, c1.Start(ctx))
	defer func() { _ = c1.Stop() }()

	c2, err := NewConsumer(newTestLogger(), nc, cfg, h2)
	require.NoError(t, err)
	require.NoError(t, c2.Start(ctx))
	defer func() { _ = c2.Stop() }()

	const n = 20
	for i := 0; i < n; i++ {
		ev := domain.PoolEvent{EventID: domain.MakeEventID(1, "0xqueued", uint32(i))}
		b, err := json.Marshal(&ev)
		require.NoError(t, err)
		require.NoError(t, nc.Publish(cfg.Subject, b))
	}

	waitFor(t, func() bool { return h1.count()+h2.count() == n })

	// queue group: each message goes to exactly one member
	assert.Equal(t, n, h1.count()+h2.count())
}

func TestConsumer_StopDrains(t *testing.T) {
	cfg := config.IngestConfig{Subject: "test.pool.stop"}

	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	s := natsserver.RunServer(&opts)
	defer s.Shutdown()

	nc, err := nats.Connect(s.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	h := &captureHandler{}
	c, err := NewConsumer(newTestLogger(), nc, cfg, h)
	require.NoError(t, err)

	require.NoError(t, c.Start(context.Background()))
	assert.NoError(t, c.Stop())

	// Stop on a never-started consumer is a no-op
	idle, err := NewConsumer(newTestLogger(), nc, cfg, h)
	require.NoError(t, err)
	assert.NoError(t, idle.Stop())
}
