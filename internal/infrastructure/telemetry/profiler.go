package telemetry

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/grafana/pyroscope-go"
	"github.com/onixgym/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var errNoPyroscopeEndpoint = errors.New("pyroscope endpoint is required when profiling is enabled")

// Profiler pushes continuous profiles to Pyroscope. The zero value is a
// disabled profiler.
type Profiler struct {
	p        *pyroscope.Profiler
	log      *zap.Logger
	stopOnce sync.Once
	stopErr  error
}

// NewProfiler starts pushing CPU, allocation, heap and goroutine profiles
// when both telemetry and profiling are on.
func NewProfiler(cfg config.TelemetryConfig, version string, log *zap.Logger) (*Profiler, error) {
	if !cfg.Enabled || !cfg.ProfilingEnabled {
		log.Info("Continuous profiling disabled")
		return &Profiler{log: log}, nil
	}
	if cfg.PyroscopeEndpoint == "" {
		return nil, errNoPyroscopeEndpoint
	}

	tags := map[string]string{"version": version}
	if host, _ := os.Hostname(); host != "" {
		tags["hostname"] = host
	}
	p, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ServiceName,
		ServerAddress:   cfg.PyroscopeEndpoint,
		Logger:          zapPyroscope{log.Named("pyroscope").Sugar()},
		Tags:            tags,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}

	log.Info("Pyroscope profiler started",
		zap.String("server_address", cfg.PyroscopeEndpoint),
		zap.String("application_name", cfg.ServiceName),
	)
	return &Profiler{p: p, log: log}, nil
}

// IsEnabled reports whether profiles are being pushed
func (p *Profiler) IsEnabled() bool {
	return p != nil && p.p != nil
}

// Stop flushes the last profiles. Later calls return the first result.
func (p *Profiler) Stop() error {
	if !p.IsEnabled() {
		return nil
	}
	p.stopOnce.Do(func() {
		if err := p.p.Stop(); err != nil {
			p.stopErr = fmt.Errorf("stop pyroscope: %w", err)
			return
		}
		p.log.Info("Pyroscope profiler stopped")
	})
	return p.stopErr
}

// zapPyroscope satisfies pyroscope.Logger
type zapPyroscope struct {
	*zap.SugaredLogger
}
