package metrics

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// RuntimeMetrics exposes Go runtime and process statistics as gauges. The
// gauges hold the values captured by the most recent Update call; the
// reporter invokes Update before every export.
type RuntimeMetrics struct {
	memory     *Gauge[int64]
	goroutines *Gauge[int64]
	gcRuns     *Gauge[int64]
	gcPauseNs  *Gauge[int64]
	openFDs    *Gauge[int64]
	logger     *zap.Logger
}

// NewRuntimeMetrics creates the runtime gauges and registers them in reg.
func NewRuntimeMetrics(reg *Registry, logger *zap.Logger) *RuntimeMetrics {
	return &RuntimeMetrics{
		memory: NewInt64In(reg, "/process/memory_bytes",
			Metadata{Description: "Process memory usage by region", Unit: "bytes"},
			StringField("region")),
		goroutines: NewInt64In(reg, "/process/goroutines",
			Metadata{Description: "Number of live goroutines"}),
		gcRuns: NewInt64In(reg, "/process/gc_runs",
			Metadata{Description: "Completed GC cycles since process start"}),
		gcPauseNs: NewInt64In(reg, "/process/gc_pause_ns",
			Metadata{Description: "Cumulative GC pause time", Unit: "nanoseconds"}),
		openFDs: NewInt64In(reg, "/process/open_fds",
			Metadata{Description: "Open file descriptors"}),
		logger: logger,
	}
}

// Update samples the runtime and sets every gauge.
func (m *RuntimeMetrics) Update() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m.memory.Set(int64(ms.Alloc), String("alloc"))
	m.memory.Set(int64(ms.Sys), String("sys"))
	m.memory.Set(int64(ms.HeapAlloc), String("heap_alloc"))
	m.memory.Set(int64(ms.HeapInuse), String("heap_inuse"))
	m.memory.Set(int64(ms.HeapSys), String("heap_sys"))
	m.memory.Set(int64(ms.StackInuse), String("stack_inuse"))
	m.memory.Set(int64(ms.StackSys), String("stack_sys"))

	m.goroutines.Set(int64(runtime.NumGoroutine()))
	m.gcRuns.Set(int64(ms.NumGC))
	m.gcPauseNs.Set(int64(ms.PauseTotalNs))

	if rss := getProcessRSS(); rss > 0 {
		m.memory.Set(int64(rss), String("rss"))
	}
	if fdCount := getOpenFileDescriptors(); fdCount > 0 {
		m.openFDs.Set(int64(fdCount))
	}
}

// getProcessRSS returns the RSS (Resident Set Size) memory usage in bytes
func getProcessRSS() uint64 {
	// Try to read from /proc/self/status on Linux
	if data, err := os.ReadFile("/proc/self/status"); err == nil {
		lines := strings.Split(string(data), "\n")
		for _, line := range lines {
			if strings.HasPrefix(line, "VmRSS:") {
				fields := strings.Fields(line)
				if len(fields) >= 2 {
					if kb, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
						return kb * 1024 // Convert KB to bytes
					}
				}
			}
		}
	}
	return 0
}

// getOpenFileDescriptors returns the number of open file descriptors
func getOpenFileDescriptors() uint64 {
	// Try to count files in /proc/self/fd on Linux
	if entries, err := os.ReadDir("/proc/self/fd"); err == nil {
		return uint64(len(entries))
	}
	return 0
}
