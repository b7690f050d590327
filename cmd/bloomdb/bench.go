package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/bloomdb"
	"github.com/hupe1980/bloomdb/codec"
	"github.com/hupe1980/bloomdb/internal/bitarray"
	"github.com/hupe1980/bloomdb/internal/hash"
	"github.com/hupe1980/bloomdb/testutil"
)

// benchStat summarizes the per-run ns/op of one benchmark.
type benchStat struct {
	Avg float64 `json:"avg"`
	P50 uint64  `json:"p50"`
	P90 uint64  `json:"p90"`
	P99 uint64  `json:"p99"`
}

type benchResult struct {
	Name string
	Stat benchStat
}

type benchConfig struct {
	runs int
	ops  int
}

var sink uint64

func newBenchCmd(a *app) *cobra.Command {
	var (
		cfg  benchConfig
		out  string
		bits uint64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time bit setting, hashing, insertion and lookup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.runs <= 0 || cfg.ops <= 0 {
				return fmt.Errorf("--runs and --ops must be positive")
			}

			results, err := runBenchmarks(cfg, bits, a.hashes, a.seed)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			report := make(map[string]benchStat, len(results))
			for _, r := range results {
				report[r.Name] = r.Stat
				if !a.jsonOut {
					printStat(w, r)
				}
			}

			if a.jsonOut {
				if err := writeJSON(w, report); err != nil {
					return err
				}
			}

			if out != "" {
				data, err := codec.Default.MarshalIndent(report)
				if err != nil {
					return fmt.Errorf("failed to encode results: %w", err)
				}
				if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
				a.logger.Info("benchmark results exported", "path", out)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&cfg.runs, "runs", 50, "repetitions per benchmark")
	f.IntVar(&cfg.ops, "ops", 1_000_000, "operations per repetition")
	f.Uint64Var(&bits, "filter-bits", 1<<20, "bits in the benchmarked filter")
	f.StringVar(&out, "out", "", "export results as JSON to this file")
	return cmd
}

func runBenchmarks(cfg benchConfig, bits uint64, numHashes int, seed uint64) ([]benchResult, error) {
	keys := testutil.SequentialKeys("key", cfg.ops)

	arr := make([]byte, 4096)
	const arrMask = 4096*8 - 1

	f, err := bloomdb.New(bits, numHashes, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter: %w", err)
	}
	defer f.Close()

	sample := []byte("hello_world_123")

	benches := []struct {
		name string
		op   func(i int)
	}{
		{"bitarray_set", func(i int) { bitarray.Set(arr, uint64(i)&arrMask) }},
		{"hash64", func(i int) { sink ^= hash.Hash64(sample, uint64(i)) }},
		{"bloomdb_insert", func(i int) { _ = f.Insert(keys[i]) }},
		{"bloomdb_might_contain", func(i int) {
			if ok, _ := f.MightContain(keys[i]); ok {
				sink++
			}
		}},
	}

	results := make([]benchResult, 0, len(benches))
	for _, b := range benches {
		results = append(results, benchResult{Name: b.name, Stat: measure(cfg, b.op)})
	}
	return results, nil
}

// measure runs op cfg.ops times per run after one warmup run.
func measure(cfg benchConfig, op func(i int)) benchStat {
	for i := 0; i < cfg.ops; i++ {
		op(i)
	}

	times := make([]uint64, cfg.runs)
	for r := range times {
		start := time.Now()
		for i := 0; i < cfg.ops; i++ {
			op(i)
		}
		times[r] = uint64(time.Since(start).Nanoseconds()) / uint64(cfg.ops)
	}
	return computeStat(times)
}

func computeStat(times []uint64) benchStat {
	slices.Sort(times)

	var total float64
	for _, t := range times {
		total += float64(t)
	}

	n := len(times)
	return benchStat{
		Avg: total / float64(n),
		P50: times[n*50/100],
		P90: times[n*90/100],
		P99: times[n*99/100],
	}
}

func printStat(w io.Writer, r benchResult) {
	fmt.Fprintf(w, "\n=== %s ===\n", r.Name)
	fmt.Fprintf(w, "Average: %.2f ns/op\n", r.Stat.Avg)
	fmt.Fprintf(w, "P50:     %d ns/op\n", r.Stat.P50)
	fmt.Fprintf(w, "P90:     %d ns/op\n", r.Stat.P90)
	fmt.Fprintf(w, "P99:     %d ns/op\n", r.Stat.P99)
}
