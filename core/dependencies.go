package core

import glog "github.com/goliatone/go-logger/glog"

// Dependencies are the host capabilities and ambient collaborators injected
// into a provider at construction time.
type Dependencies struct {
	Transport       Transport
	Secrets         SecretStore
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
}

// ResolveDependencies fills ambient defaults. Logger precedence is
// provider > logger > nop, named after the component.
func ResolveDependencies(name string, deps Dependencies) Dependencies {
	provider, logger := glog.Resolve(name, deps.LoggerProvider, deps.Logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger(name); named != nil {
			logger = glog.Ensure(named)
		}
	}
	deps.LoggerProvider = provider
	deps.Logger = logger
	if deps.MetricsRecorder == nil {
		deps.MetricsRecorder = NopMetricsRecorder{}
	}
	return deps
}
