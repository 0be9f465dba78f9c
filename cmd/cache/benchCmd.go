package cache

import (
	"fmt"
	"github.com/ValentinKolb/kvcache/cmd/util"
	"github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	benchN          int
	benchThreads    int
	benchValueSize  int
	benchPrometheus bool

	benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Measures the latency of instrumented Cache.store calls",
		Long:  "Starts a new session and calls Cache.store n times from the given number of goroutines. Every call increments the counter and appends to both logs, so this measures the full cost of recording on the selected backend.",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
)

func init() {
	benchCmd.Flags().IntVar(&benchN, "n", 1000, util.WrapString("Number of calls"))
	benchCmd.Flags().IntVar(&benchThreads, "threads", 4, util.WrapString("Number of goroutines calling Cache.store"))
	benchCmd.Flags().IntVar(&benchValueSize, "value-size", 16, util.WrapString("Size of each stored value in bytes"))
	benchCmd.Flags().BoolVar(&benchPrometheus, "prometheus", false, util.WrapString("Print the collected call metrics in Prometheus text format"))
}

func runBench(_ *cobra.Command, _ []string) error {
	if benchN <= 0 || benchThreads <= 0 {
		return fmt.Errorf("n and threads must be positive")
	}

	c, err := newCache()
	if err != nil {
		return err
	}

	fmt.Println("Benchmarking Cache.store")
	fmt.Printf("Backend: %s, Calls: %d, Threads: %d, Value size: %d B\n", viper.GetString("backend"), benchN, benchThreads, benchValueSize)
	if viper.GetString("backend") == util.BackendRPC {
		fmt.Printf("Transport: %s\n", viper.GetString("transport"))
		fmt.Print(util.GetClientConfig().String())
	}
	fmt.Println()

	value := strings.Repeat("x", benchValueSize)
	timer := gometrics.NewTimer()
	errCount := gometrics.NewCounter()

	// distribute the calls over the goroutines
	var wg sync.WaitGroup
	calls := make(chan struct{}, benchN)
	for range benchN {
		calls <- struct{}{}
	}
	close(calls)

	start := time.Now()
	for range benchThreads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range calls {
				begin := time.Now()
				if _, err := c.Store(value); err != nil {
					errCount.Inc(1)
					continue
				}
				timer.UpdateSince(begin)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	printTimer(timer.Snapshot(), errCount.Count(), elapsed)

	if benchPrometheus {
		fmt.Println()
		metrics.WritePrometheus(os.Stdout, false)
	}

	if errCount.Count() > 0 {
		return fmt.Errorf("%d of %d calls failed", errCount.Count(), benchN)
	}
	return nil
}

func printTimer(t gometrics.Timer, failed int64, elapsed time.Duration) {
	ps := t.Percentiles([]float64{0.5, 0.95, 0.99})
	fmt.Printf("  %-10s %d\n", "ok:", t.Count())
	fmt.Printf("  %-10s %d\n", "failed:", failed)
	fmt.Printf("  %-10s %s\n", "mean:", time.Duration(t.Mean()))
	fmt.Printf("  %-10s %s\n", "p50:", time.Duration(ps[0]))
	fmt.Printf("  %-10s %s\n", "p95:", time.Duration(ps[1]))
	fmt.Printf("  %-10s %s\n", "p99:", time.Duration(ps[2]))
	fmt.Printf("  %-10s %s\n", "max:", time.Duration(t.Max()))
	fmt.Printf("  %-10s %.1f calls/s\n", "rate:", float64(t.Count())/elapsed.Seconds())
}
