package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grafana/pyroscope-go"
	lgcfg "gitlab.com/nevasik7/alerting/config"
	"gitlab.com/nevasik7/alerting/logger"

	httpapi "poolstats/internal/api/http"
	"poolstats/internal/api/http/handlers"
	"poolstats/internal/api/http/mw"
	"poolstats/internal/config"
	"poolstats/internal/dedupe"
	rdsdedupe "poolstats/internal/dedupe/redis"
	"poolstats/internal/erc20"
	"poolstats/internal/ingest"
	"poolstats/internal/metrics"
	"poolstats/internal/price"
	"poolstats/internal/pubsub/nats"
	"poolstats/internal/registry"
	"poolstats/internal/security"
	"poolstats/internal/service"
	"poolstats/internal/stats"
	"poolstats/internal/store"
	"poolstats/internal/stores/clickhouse"
	"poolstats/internal/stores/redis"
)

type Container struct {
	app *App

	// infra
	redis *redis.Client
	ch    *clickhouse.Conn
	nc    *nats.Client

	// servers
	httpSrv *httpapi.Server

	// metrics
	profiler *pyroscope.Profiler
}

func (c *Container) Start() error {
	return c.app.Start()
}

func (c *Container) Stop(ctx context.Context) error {
	if err := c.app.Shutdown(ctx); err != nil {
		return fmt.Errorf("app shutdown is failed, error=%w", err)
	}
	return nil
}

// Construct image app
func Build(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	lg := logger.New(lgcfg.LoggerCfg{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	lg.Info("Successfully initialize logger")

	profiler, err := metrics.InitPProf(cfg.App.InstanceID, &cfg.Metrics.Pyroscope)
	if err != nil {
		return nil, nil, fmt.Errorf("pyroscope initialize failed: %w", err)
	}
	if profiler != nil {
		lg.Infof("Successfully initialize Pyroscope to %s as %s", cfg.Metrics.Pyroscope.ServerAddr, cfg.Metrics.Pyroscope.AppName)
	}

	// Redis client
	rdb, err := redis.New(ctx, &cfg.Stores.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize redis client: %w", err)
	}
	lg.Infof("Successfully initialize redis client, addr=%s", cfg.Stores.Redis.Addr)

	// Dedupe
	var deduper dedupe.Deduplicator

	if cfg.Dedupe.Bloom.Enabled {
		bloom, err := rdsdedupe.NewBloom(&cfg.Dedupe.Bloom, rdb)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize bloom: %w", err)
		}
		if err = bloom.Ensure(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to reserve bloom filter: %w", err)
		}
		lg.Infof("Successfully initialize Bloom by key=%s, cap=%d, errRate=%f", bloom.Key, bloom.Capacity, bloom.ErrRate)

		if deduper, err = rdsdedupe.NewRedisDeduper(lg, &cfg.Dedupe, rdb, bloom); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis deduper: %w", err)
		}
	} else {
		if deduper, err = rdsdedupe.NewRedisDeduper(lg, &cfg.Dedupe, rdb, nil); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis deduper: %w", err)
		}
	}
	lg.Infof("Successfully initialize Deduper by prefix %s", cfg.Dedupe.Prefix)

	// Entity store
	var entityStore store.EntityStore
	switch cfg.Stores.Entity {
	case "redis":
		entityStore, err = store.NewRedisStore(rdb.Client, cfg.Stores.Redis.Prefix)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis entity store: %w", err)
		}
	case "", "memory":
		entityStore = store.NewMemoryStore()
	default:
		return nil, nil, fmt.Errorf("unknown entity store backend: %s", cfg.Stores.Entity)
	}
	lg.Infof("Successfully initialize entity store, backend=%s", cfg.Stores.Entity)

	// NATS (ingest + fan-out)
	natsCl, err := nats.New(lg, &cfg.PubSub.NATS)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize nats client: %w", err)
	}
	lg.Infof("Successfully initialize nats client, url=%s", cfg.PubSub.NATS.URL)

	// ClickHouse Client
	ch, err := clickhouse.New(ctx, &cfg.Stores.ClickHouse)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize clickhouse client: %w", err)
	}
	url := strings.Split(cfg.Stores.ClickHouse.DSN, "?")
	lg.Infof("Successfully initialize clickhouse client, url=%s", url[0])

	// ClickHouse Writer
	chWriter := clickhouse.NewWriter(lg, cfg.Stores.ClickHouse, ch.Native)
	lg.Info("Successfully initialize clickhouse writer")

	// Token metadata source. On-chain calls are done by the decoding
	// stage upstream; here a static table seeded out-of-band is enough.
	caller := erc20.NewStaticCaller()

	reg, err := registry.New(lg, entityStore, caller, cfg.Protocol.FactoryID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize token registry: %w", err)
	}

	acc, err := stats.NewAccumulator(lg, entityStore)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize stats accumulator: %w", err)
	}

	resolver, err := price.NewResolver(lg, entityStore, cfg.Protocol.WrappedNative, cfg.Protocol.Stablecoin)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize price resolver: %w", err)
	}

	// Service Layer
	aggService := service.NewAggregatorService(lg, entityStore, reg, acc, resolver, natsCl, chWriter, deduper)

	// Ingest Consumer
	consumer, err := ingest.NewConsumer(lg, natsCl.Conn(), cfg.Ingest, aggService)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize ingest consumer: %w", err)
	}
	lg.Infof("Successfully initialize ingest consumer, subject=%s", cfg.Ingest.Subject)

	// Security
	var jwtMW *mw.JWTMiddleware
	var verifier *security.RS256Verifier
	if cfg.Security.JWT.Enabled {
		if verifier, err = security.NewRS256Verifier(&cfg.Security.JWT); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize JWT verifier: %w", err)
		}
		jwtMW = mw.NewJWTMiddleware(verifier)
		lg.Info("Successfully initialize JWT-Verifier")
	}

	// HTTP Server
	rateLimitMW := mw.NewRateLimit(rdb.Client, mw.RateLimitConfig{
		ByJWT: mw.RateBucket{
			RefillPerSec: cfg.RateLimit.ByJWT.RefillPerSec,
			Burst:        cfg.RateLimit.ByJWT.Burst,
		},
		ByIP: mw.RateBucket{
			RefillPerSec: cfg.RateLimit.ByIP.RefillPerSec,
			Burst:        cfg.RateLimit.ByIP.Burst,
		},
		Verifier: verifier,
	})

	var corsMW *mw.CORSMiddleware
	if cfg.API.HTTP.CORS.Enabled {
		corsMW = mw.NewCORSConfig(&cfg.API.HTTP.CORS)
	}

	router := httpapi.BuildRouter(
		handlers.NewHandler(lg, aggService),
		mw.NewLogging(lg),
		mw.NewGzip(0, lg),
		rateLimitMW,
		jwtMW,
		corsMW,
	)

	httpSrv := httpapi.NewServer(lg, cfg.API.HTTP, router)
	lg.Info("Successfully initialize HTTP server")

	c := &Container{
		app:      New(lg, httpSrv, consumer),
		redis:    rdb,
		ch:       ch,
		nc:       natsCl,
		httpSrv:  httpSrv,
		profiler: profiler,
	}

	cleanupF := func() {
		ctxClean, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if c.profiler != nil {
			if err := c.profiler.Stop(); err != nil {
				lg.Errorf("Failed to stop profiler: %v", err)
			}
		}

		if err := chWriter.Close(ctxClean); err != nil {
			lg.Errorf("Failed to close by cleanupF clickhouse writer: %v", err)
		}

		if err := ch.Close(); err != nil {
			lg.Errorf("Failed to close by cleanupF clickhouse client: %v", err)
		}

		if err := natsCl.Close(); err != nil {
			lg.Errorf("Failed to close by cleanupF nats client: %v", err)
		}

		if err := rdb.Close(); err != nil {
			lg.Errorf("Failed to close by cleanupF redis client: %v", err)
		}

		lg.Info("Successfully cleaned up dependency")
	}

	lg.Info("Successfully initialize Wiring")
	return c, cleanupF, nil
}
