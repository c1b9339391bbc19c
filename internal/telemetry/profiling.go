package telemetry

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/grafana/pyroscope-go"
)

// ProfilingConfig configures Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the Pyroscope server URL, e.g. "http://localhost:4040".
	Endpoint string

	// ProfileTypes lists the profiles to collect. See ProfileTypeNames.
	ProfileTypes []string
}

var profileTypes = map[string]pyroscope.ProfileType{
	"cpu":            pyroscope.ProfileCPU,
	"alloc_objects":  pyroscope.ProfileAllocObjects,
	"alloc_space":    pyroscope.ProfileAllocSpace,
	"inuse_objects":  pyroscope.ProfileInuseObjects,
	"inuse_space":    pyroscope.ProfileInuseSpace,
	"goroutines":     pyroscope.ProfileGoroutines,
	"mutex_count":    pyroscope.ProfileMutexCount,
	"mutex_duration": pyroscope.ProfileMutexDuration,
	"block_count":    pyroscope.ProfileBlockCount,
	"block_duration": pyroscope.ProfileBlockDuration,
}

var (
	profilingMu      sync.Mutex
	profilingEnabled bool
)

// ProfileTypeNames returns the accepted profile type names, sorted.
func ProfileTypeNames() []string {
	names := make([]string, 0, len(profileTypes))
	for name := range profileTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseProfileTypes maps names to Pyroscope profile types. The first unknown
// name is reported as an error.
func ParseProfileTypes(names []string) ([]pyroscope.ProfileType, error) {
	out := make([]pyroscope.ProfileType, 0, len(names))
	for _, name := range names {
		pt, ok := profileTypes[name]
		if !ok {
			return nil, fmt.Errorf("unknown profile type %q (valid: %v)", name, ProfileTypeNames())
		}
		out = append(out, pt)
	}
	return out, nil
}

// InitProfiling starts the Pyroscope profiler when cfg.Enabled is set. The
// returned stop function is never nil.
func InitProfiling(cfg ProfilingConfig) (func() error, error) {
	if !cfg.Enabled {
		setProfilingEnabled(false)
		return func() error { return nil }, nil
	}

	types, err := ParseProfileTypes(cfg.ProfileTypes)
	if err != nil {
		return nil, err
	}
	enableRuntimeProfiles(cfg.ProfileTypes)

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ServiceName,
		ServerAddress:   cfg.Endpoint,
		Tags:            map[string]string{"version": cfg.ServiceVersion},
		ProfileTypes:    types,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}
	setProfilingEnabled(true)

	return func() error {
		setProfilingEnabled(false)
		return profiler.Stop()
	}, nil
}

// Mutex and block profiles are empty unless the runtime samples them.
func enableRuntimeProfiles(names []string) {
	for _, name := range names {
		switch name {
		case "mutex_count", "mutex_duration":
			runtime.SetMutexProfileFraction(5)
		case "block_count", "block_duration":
			runtime.SetBlockProfileRate(5)
		}
	}
}

func setProfilingEnabled(v bool) {
	profilingMu.Lock()
	profilingEnabled = v
	profilingMu.Unlock()
}

// IsProfilingEnabled reports whether the profiler is running.
func IsProfilingEnabled() bool {
	profilingMu.Lock()
	defer profilingMu.Unlock()
	return profilingEnabled
}
