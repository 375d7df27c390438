package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ Registry           = (*ProviderRegistry)(nil)
	_ PayloadOutboxStore = (*MemoryPayloadOutbox)(nil)
	_ MetricsRecorder    = NopMetricsRecorder{}
	_ Transport          = TransportFunc(nil)
	_ SecretStore        = SecretStoreFunc(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
