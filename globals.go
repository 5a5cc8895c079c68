package metrics

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Global reporter instance. The pointer is atomic so that Shutdown and
// GlobalReporter can race a first Init safely.
var (
	globalReporter atomic.Pointer[Reporter]
	globalRuntime  *RuntimeMetrics
	initOnce       sync.Once
)

// Init initializes the process-wide reporter over DefaultRegistry and
// starts the export loop. It is idempotent: only the first call takes
// effect, later calls return the first call's error.
func Init(config Config) error {
	var initErr error

	initOnce.Do(func() {
		if config.Registry == nil {
			config.Registry = DefaultRegistry
		}

		rep, err := NewReporter(config)
		if err != nil {
			initErr = err
			return
		}

		globalRuntime = NewRuntimeMetrics(config.Registry, config.Logger)
		rep.RegisterSampler(globalRuntime.Update)

		if err := rep.Start(); err != nil {
			initErr = err
			return
		}

		globalReporter.Store(rep)

		if config.Logger != nil {
			config.Logger.Info("metrics reporter initialized",
				zap.String("namespace", config.Namespace),
				zap.String("subsystem", config.Subsystem),
				zap.String("service", config.ServiceName))
		}
	})

	return initErr
}

// Shutdown stops the global reporter if one was started.
func Shutdown() {
	if rep := globalReporter.Load(); rep != nil {
		rep.Stop()
	}
}

// GlobalReporter returns the reporter created by Init, or nil before Init.
func GlobalReporter() *Reporter {
	return globalReporter.Load()
}
