package benchmark

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"testing"
)

// EntryCounts are the snapshot sizes used by the scale benchmarks.
var EntryCounts = []int{1000, 10000, 100000, 500000}

// SmallEntryCounts are used where each iteration parses or stores the
// whole snapshot.
var SmallEntryCounts = []int{1000, 10000}

func entryKey(i int) string {
	return fmt.Sprintf("svc-%03d/setting-%06d", i%100, i)
}

// makeSnapshot returns n entries whose values carry gen.
func makeSnapshot(n, gen int) map[string]string {
	m := make(map[string]string, n)
	for i := 0; i < n; i++ {
		m[entryKey(i)] = fmt.Sprintf("value-%d-%d", i, gen)
	}
	return m
}

// mutate changes every step-th entry of m to a value carrying gen.
func mutate(m map[string]string, step, gen int) {
	for i := 0; i < len(m); i += step {
		m[entryKey(i)] = fmt.Sprintf("value-%d-%d", i, gen)
	}
}

// yamlDocument renders n flat entries as a YAML document.
func yamlDocument(n, gen int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "setting_%06d: value-%d-%d\n", i, i, gen)
	}
	return sb.String()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// reportMemory reports heap usage after a GC.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithEntryCounts runs benchFn once per snapshot size.
func runWithEntryCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("entries_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
