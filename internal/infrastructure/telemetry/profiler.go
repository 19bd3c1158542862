package telemetry

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"runtime"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ProfilerConfig configures continuous profiling to a Pyroscope server
type ProfilerConfig struct {
	Enabled         bool
	ServerAddress   string // e.g. http://pyroscope:4040
	ApplicationName string
	Version         string
	// Tags are added to every profile next to version and hostname
	Tags map[string]string
	// Contention adds mutex and block profiles, which raise overhead
	Contention bool
}

var (
	baseProfiles = []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileAllocObjects,
		pyroscope.ProfileAllocSpace,
		pyroscope.ProfileInuseObjects,
		pyroscope.ProfileInuseSpace,
		pyroscope.ProfileGoroutines,
	}
	contentionProfiles = []pyroscope.ProfileType{
		pyroscope.ProfileMutexCount,
		pyroscope.ProfileMutexDuration,
		pyroscope.ProfileBlockCount,
		pyroscope.ProfileBlockDuration,
	}
)

// contentionRate samples one in five mutex and block events
const contentionRate = 5

// Profiler owns a running Pyroscope session. The zero session (disabled)
// is valid and Stop on it does nothing.
type Profiler struct {
	session *pyroscope.Profiler
	logger  *zap.Logger

	stopOnce sync.Once
	stopErr  error
}

// NewProfiler validates cfg and starts profiling when enabled
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.Enabled {
		logger.Debug("Continuous profiling disabled")
		return p, nil
	}
	if cfg.ServerAddress == "" {
		return nil, errors.New("profiling: server address is required")
	}
	if cfg.ApplicationName == "" {
		return nil, errors.New("profiling: application name is required")
	}

	types := baseProfiles
	if cfg.Contention {
		runtime.SetMutexProfileFraction(contentionRate)
		runtime.SetBlockProfileRate(contentionRate)
		types = append(append([]pyroscope.ProfileType{}, baseProfiles...), contentionProfiles...)
	}

	session, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		Logger:          pyroscopeLogger{logger.Named("pyroscope").Sugar()},
		Tags:            profileTags(cfg),
		ProfileTypes:    types,
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}
	p.session = session

	logger.Info("Continuous profiling started",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("application_name", cfg.ApplicationName),
		zap.Bool("contention", cfg.Contention),
	)
	return p, nil
}

func profileTags(cfg ProfilerConfig) map[string]string {
	tags := make(map[string]string, len(cfg.Tags)+2)
	maps.Copy(tags, cfg.Tags)
	if cfg.Version != "" {
		tags["version"] = cfg.Version
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		tags["hostname"] = host
	}
	return tags
}

// Stop flushes the last profiles. Later calls return the first result.
func (p *Profiler) Stop() error {
	p.stopOnce.Do(func() {
		if p.session == nil {
			return
		}
		if err := p.session.Stop(); err != nil {
			p.stopErr = fmt.Errorf("stop pyroscope: %w", err)
			return
		}
		p.logger.Info("Continuous profiling stopped")
	})
	return p.stopErr
}

// IsEnabled reports whether a session is running
func (p *Profiler) IsEnabled() bool {
	return p.session != nil
}

type pyroscopeLogger struct {
	*zap.SugaredLogger
}

func (l pyroscopeLogger) Infof(format string, args ...any)  { l.SugaredLogger.Debugf(format, args...) }
func (l pyroscopeLogger) Debugf(format string, args ...any) { l.SugaredLogger.Debugf(format, args...) }
func (l pyroscopeLogger) Errorf(format string, args ...any) { l.SugaredLogger.Errorf(format, args...) }
