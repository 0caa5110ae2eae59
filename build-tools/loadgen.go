//go:build ignore

// Run: go run ./build-tools/loadgen.go -nats nats://localhost:4222 -subject chain.events.pools -rps 1000 -duration 60s

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	mrand "math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
)

type TokenDelta struct {
	TokenAddress string `json:"token_address"`
	AmountUnits  string `json:"amount_units"`
	AmountUSD    string `json:"amount_usd"`
}

type PoolEvent struct {
	ChainID        uint32       `json:"chain_id"`
	TxHash         string       `json:"tx_hash"`
	LogIndex       uint32       `json:"log_index"`
	EventID        string       `json:"event_id"`
	Kind           string       `json:"kind"`
	PoolAddress    string       `json:"pool_address"`
	TokenAddresses []string     `json:"token_addresses"`
	Deltas         []TokenDelta `json:"deltas"`
	PoolLiquidity  string       `json:"pool_liquidity"`
	HasUsdPrice    bool         `json:"has_usd_price"`
	BlockTimestamp int64        `json:"block_timestamp"`
	BlockNumber    uint64       `json:"block_number"`
	Removed        bool         `json:"removed"`
	SchemaVer      uint16       `json:"schema_version"`
}

func main() {
	var (
		natsURL  = flag.String("nats", "nats://localhost:4222", "NATS server URL")
		subject  = flag.String("subject", "chain.events.pools", "subject to publish to")
		rps      = flag.Int("rps", 1000, "events per second target")
		duration = flag.Duration("duration", 30*time.Second, "how long to run")
		pools    = flag.Int("pools", 16, "distinct pools to simulate")
		chainID  = flag.Uint("chain", 1, "chain id")
	)
	flag.Parse()

	nc, err := nats.Connect(*natsURL, nats.Name("poolstats-loadgen"))
	if err != nil {
		fmt.Printf("nats connect error: %v\n", err)
		os.Exit(1)
	}
	defer nc.Close()

	// fixed pool/token universe so the aggregator actually accumulates
	type poolDef struct {
		addr   string
		tokens []string
	}
	universe := make([]poolDef, 0, *pools)
	for i := 0; i < *pools; i++ {
		universe = append(universe, poolDef{
			addr:   "0x" + randHex(40),
			tokens: []string{"0x" + randHex(40), "0x" + randHex(40)},
		})
	}

	fmt.Printf("loadgen → nats=%s subject=%s rps=%d duration=%s pools=%d\n", *natsURL, *subject, *rps, duration.String(), *pools)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	end := start.Add(*duration)

	// steady pace with a little drift
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	perTick := float64(*rps) / 10.0 // 10 ticks in sec
	accum := 0.0

loop:
	for {
		select {
		case <-ctx.Done():
			fmt.Println("signal received, stopping…")
			break loop
		case now := <-tick.C:
			if now.After(end) {
				break loop
			}

			accum += perTick
			batch := int(math.Floor(accum))
			if batch <= 0 {
				continue
			}
			accum -= float64(batch)

			for i := 0; i < batch; i++ {
				p := universe[mrand.Intn(len(universe))]
				ev := randomEvent(uint32(*chainID), p.addr, p.tokens)
				val, _ := json.Marshal(ev)
				if err := nc.Publish(*subject, val); err != nil {
					fmt.Printf("publish error: %v\n", err)
				}
			}
		}
	}

	fmt.Println("flushing…")
	_ = nc.Flush()
	fmt.Println("done")
}

func randomEvent(chainID uint32, pool string, tokens []string) *PoolEvent {
	now := time.Now().UTC()

	tx := "0x" + randHex(64)
	logIndex := uint32(mrand.Intn(20))
	eventID := fmt.Sprintf("%d:%s:%d", chainID, tx, logIndex)

	kinds := []string{"swap", "swap", "swap", "join", "exit"}
	kind := kinds[mrand.Intn(len(kinds))]

	deltas := make([]TokenDelta, 0, len(tokens))
	for _, t := range tokens {
		units := 10 + mrand.Float64()*1000
		usd := 10 + mrand.Float64()*10000
		if kind == "exit" || (kind == "swap" && mrand.Intn(2) == 0) {
			units = -units
			usd = -usd
		}
		deltas = append(deltas, TokenDelta{
			TokenAddress: t,
			AmountUnits:  fmt.Sprintf("%.6f", units),
			AmountUSD:    fmt.Sprintf("%.2f", usd),
		})
	}

	return &PoolEvent{
		ChainID:        chainID,
		TxHash:         tx,
		LogIndex:       logIndex,
		EventID:        eventID,
		Kind:           kind,
		PoolAddress:    pool,
		TokenAddresses: tokens,
		Deltas:         deltas,
		PoolLiquidity:  fmt.Sprintf("%.2f", 100_000+mrand.Float64()*1_000_000),
		HasUsdPrice:    true,
		BlockTimestamp: now.Unix(),
		BlockNumber:    uint64(20_000_000 + mrand.Intn(1_000_000)),
		Removed:        false,
		SchemaVer:      1,
	}
}

func randHex(n int) string {
	b := make([]byte, n/2)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
