package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/MrEthical07/tokenauth"
)

type tokenState struct {
	header  string
	payload tokenauth.Payload
	mu      sync.Mutex
}

type loadConfig struct {
	tokens      int
	concurrency int
	ops         int
	step        time.Duration
	secret      string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var cfg loadConfig
	flagSet := pflag.NewFlagSet("tokenauth-loadtest", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.IntVar(&cfg.tokens, "tokens", 10000, "number of tokens to seed")
	flagSet.IntVar(&cfg.concurrency, "concurrency", 256, "number of concurrent workers")
	flagSet.IntVar(&cfg.ops, "ops", 200000, "operations per phase (validate + renew)")
	flagSet.DurationVar(&cfg.step, "step", 15*time.Minute, "stp claim carried by seeded tokens")
	flagSet.StringVar(&cfg.secret, "secret", "", "signing secret; a fixed load-test secret is used when empty")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if cfg.tokens <= 0 || cfg.concurrency <= 0 || cfg.ops <= 0 {
		fmt.Fprintln(stderr, "tokens, concurrency, and ops must be > 0")
		return 2
	}
	if cfg.secret == "" {
		cfg.secret = "tokenauth-loadtest-secret"
	}

	auth, err := tokenauth.New(tokenauth.Config{
		Secret:  cfg.secret,
		Metrics: tokenauth.MetricsConfig{Enabled: true, EnableLatencyHistograms: true},
	}, tokenauth.WithLogger(zap.NewNop()))
	if err != nil {
		fmt.Fprintf(stderr, "failed to build authority: %v\n", err)
		return 1
	}

	ctx := context.Background()
	states := make([]tokenState, cfg.tokens)
	fmt.Fprintf(stdout, "seeding %d tokens...\n", cfg.tokens)
	startSeed := time.Now()
	for i := 0; i < cfg.tokens; i++ {
		payload := tokenauth.Payload{
			"uid":               fmt.Sprintf("user-%d", i),
			tokenauth.ClaimStep: int64(cfg.step / time.Second),
		}
		header, err := auth.Create(payload, tokenauth.SignOptions{ExpiresIn: 24 * time.Hour})
		if err != nil {
			fmt.Fprintf(stderr, "create failed: %v\n", err)
			return 1
		}
		states[i] = tokenState{header: header, payload: payload}
	}
	fmt.Fprintf(stdout, "seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	validateStats := runValidatePhase(ctx, auth, states, cfg.ops, cfg.concurrency)
	renewStats := runRenewPhase(ctx, auth, states, cfg.ops, cfg.concurrency)

	fmt.Fprintln(stdout, "---- results ----")
	printStats(stdout, "validate", validateStats)
	printStats(stdout, "renew", renewStats)
	return 0
}

func runValidatePhase(ctx context.Context, auth *tokenauth.Authority, states []tokenState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				state := &states[r.Intn(len(states))]
				state.mu.Lock()
				header := state.header
				state.mu.Unlock()

				t0 := time.Now()
				_, err := auth.Validate(ctx, header, true)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// runRenewPhase validates the current token of a random slot, renews it and
// stores the result back, so every slot walks its own chain of renewals.
func runRenewPhase(ctx context.Context, auth *tokenauth.Authority, states []tokenState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				state := &states[r.Intn(len(states))]

				state.mu.Lock()
				t0 := time.Now()
				payload, err := auth.Validate(ctx, state.header, true)
				if err == nil {
					var (
						header string
						next   tokenauth.Payload
					)
					header, next, err = auth.Renew(payload)
					if err == nil {
						state.header, state.payload = header, next
					}
				}
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				state.mu.Unlock()

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	opsPerS := 0.0
	if total > 0 {
		opsPerS = float64(len(samples)) / total.Seconds()
	}
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  opsPerS,
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(w io.Writer, name string, s phaseStats) {
	fmt.Fprintf(w, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
