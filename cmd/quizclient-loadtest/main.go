package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	quizClient "github.com/MrEthical07/quizClient"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		identities  = flag.Int("identities", 1000, "number of distinct user identities to cycle through")
		concurrency = flag.Int("concurrency", 256, "number of concurrent readers")
		ops         = flag.Int("ops", 200000, "operations per phase")
		transitions = flag.Int("transitions", 2000, "session transitions in the transition phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "qs", "session key prefix")
	)
	flag.Parse()

	if *identities <= 0 || *concurrency <= 0 || *ops <= 0 || *transitions <= 0 {
		fmt.Fprintln(os.Stderr, "identities, concurrency, ops and transitions must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := quizClient.DefaultConfig()
	cfg.Session.KeyPrefix = *prefix
	cfg.Avatar.Enabled = false
	cfg.Metrics.EnableLatencyHistograms = true

	m, err := quizClient.New().
		WithConfig(cfg).
		WithRedis(client).
		WithLogger(slog.New(slog.DiscardHandler)).
		WithPrompter(quizClient.PrompterFunc(func(context.Context, quizClient.Prompt) {})).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build manager: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	if err := m.EndSession(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "reset session keys: %v\n", err)
		os.Exit(1)
	}

	transitionStats := runTransitionPhase(ctx, m, *identities, *transitions)
	readStats := runReadPhase(ctx, m, *identities, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("transition", transitionStats)
	printStats("read", readStats)

	snap := m.MetricsSnapshot()
	fmt.Printf("established=%d ended=%d loaded=%d storage_write_failures=%d\n",
		snap.Counters[quizClient.MetricSessionEstablished],
		snap.Counters[quizClient.MetricSessionEnded],
		snap.Counters[quizClient.MetricSessionLoaded],
		snap.Counters[quizClient.MetricStorageWriteFailure],
	)
}

// runTransitionPhase measures establish, reload and end round trips against the store.
// Transitions are serialised by the manager, so a single caller gives the true cost.
func runTransitionPhase(ctx context.Context, m *quizClient.Manager, identities, ops int) phaseStats {
	var (
		failures  int64
		latencies = make([]time.Duration, 0, ops)
	)

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	start := time.Now()
	for i := 0; i < ops; i++ {
		id := r.Intn(identities)
		t0 := time.Now()
		var err error
		switch i % 3 {
		case 0:
			err = m.EstablishSession(ctx, tokenFor(id), userFor(id), "USER")
		case 1:
			err = m.LoadSession(ctx)
		default:
			err = m.EndSession(ctx)
		}
		latencies = append(latencies, time.Since(t0))
		if err != nil {
			failures++
		}
	}
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// runReadPhase measures state reads while a writer keeps switching identities.
func runReadPhase(ctx context.Context, m *quizClient.Manager, identities, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	stop := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			id := i % identities
			_ = m.EstablishSession(ctx, tokenFor(id), userFor(id), "USER")
		}
	}()

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				st := m.State()
				sess, ok := m.Session()
				d := time.Since(t0)
				// A half-populated session must never be observable.
				if auth, isAuth := st.(quizClient.Authenticated); isAuth && !auth.Session.Complete() {
					atomic.AddInt64(&failures, 1)
				}
				if ok && !sess.Complete() {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	close(stop)
	<-writerDone
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

func tokenFor(id int) string {
	return fmt.Sprintf("load-token-%d", id)
}

func userFor(id int) string {
	return fmt.Sprintf("%d", id+1)
}
