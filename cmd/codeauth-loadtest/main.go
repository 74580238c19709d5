// Command codeauth-loadtest drives the code login path against Redis and
// reports latency percentiles for issuance and redemption.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	codeAuth "github.com/MrEthical07/codeAuth"
	"github.com/MrEthical07/codeAuth/internal"
	"github.com/MrEthical07/codeAuth/notify"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type options struct {
	configPath  string
	identities  int
	concurrency int
	redisAddr   string
	logFormat   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "codeauth-loadtest",
		Short:         "Load test code issuance and redemption",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.identities <= 0 || opts.concurrency <= 0 {
				return fmt.Errorf("identities and concurrency must be > 0")
			}
			cfg, err := codeAuth.LoadConfig(opts.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.configPath, "config", "", "YAML config file")
	fs.IntVar(&opts.identities, "identities", 10000, "number of identities to seed")
	fs.IntVar(&opts.concurrency, "concurrency", 64, "number of concurrent workers")
	fs.StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	fs.StringVar(&opts.logFormat, "log-format", "text", "log output format: text or json")
	codeAuth.RegisterFlags(fs)

	return cmd
}

func run(ctx context.Context, cfg codeAuth.Config, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(opts.logFormat)

	client, cleanup, err := openRedis(opts.redisAddr)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := ensureKeys(&cfg); err != nil {
		return err
	}
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	identities := codeAuth.NewMemoryIdentityStore()
	emails := make([]string, opts.identities)
	for i := range emails {
		emails[i] = fmt.Sprintf("load-%d@example.com", i)
		identities.Put(codeAuth.Identity{
			ID:     fmt.Sprintf("u-%d", i),
			Email:  emails[i],
			Active: true,
			Role:   codeAuth.RoleUser,
		})
	}

	notifier := notify.NewMemoryNotifier()
	engine, err := codeAuth.New().
		WithConfig(cfg).
		WithRedis(client).
		WithIdentityStore(identities).
		WithNotifier(notifier).
		WithLogger(logger).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	issue := runPhase(ctx, emails, opts.concurrency, func(ctx context.Context, email string) error {
		return engine.RequestLogin(ctx, email)
	})
	redeem := runPhase(ctx, emails, opts.concurrency, func(ctx context.Context, email string) error {
		n, ok := notifier.Last(email)
		if !ok {
			return fmt.Errorf("no code for %s", email)
		}
		_, err := engine.LoginByCode(ctx, email, n.Code)
		return err
	})

	fmt.Println("---- results ----")
	printStats("issue", issue)
	printStats("redeem", redeem)

	snap := engine.MetricsSnapshot()
	fmt.Printf("counters: issued=%d redeemed=%d redeem_failures=%d\n",
		snap.Counters[codeAuth.MetricCodeIssued],
		snap.Counters[codeAuth.MetricCodeRedeemed],
		snap.Counters[codeAuth.MetricCodeRedeemFailure],
	)
	return nil
}

func newLogger(format string) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, handlerOpts))
}

func openRedis(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

// ensureKeys fills in throwaway keys when the config names none.
func ensureKeys(cfg *codeAuth.Config) error {
	if len(cfg.Token.PrivateKey) == 0 {
		secret, err := internal.NewSecret(32)
		if err != nil {
			return err
		}
		cfg.Token.SigningMethod = "hs256"
		cfg.Token.PrivateKey = secret
	}
	if len(cfg.Credential.BindingKey) == 0 {
		key, err := internal.NewSecret(32)
		if err != nil {
			return err
		}
		cfg.Credential.BindingKey = key
	}
	return nil
}

func runPhase(ctx context.Context, emails []string, concurrency int, op func(context.Context, string) error) phaseStats {
	var (
		failures  int64
		mu        sync.Mutex
		latencies = make([]time.Duration, 0, len(emails))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	start := time.Now()
	for _, email := range emails {
		g.Go(func() error {
			t0 := time.Now()
			err := op(gctx, email)
			d := time.Since(t0)
			if err != nil {
				atomic.AddInt64(&failures, 1)
			}
			mu.Lock()
			latencies = append(latencies, d)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return computeStats(time.Since(start), latencies, failures)
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
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
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

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
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
