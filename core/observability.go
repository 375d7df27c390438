package core

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Observer emits a log line plus counter and histogram samples for every
// provider operation.
type Observer struct {
	logger  Logger
	metrics MetricsRecorder
}

func NewObserver(logger Logger, metrics MetricsRecorder) Observer {
	if metrics == nil {
		metrics = NopMetricsRecorder{}
	}
	return Observer{logger: logger, metrics: metrics}
}

// ObserveInvoke records the outcome of an invoke call from its JSON result.
func (o Observer) ObserveInvoke(
	ctx context.Context,
	startedAt time.Time,
	providerType string,
	op string,
	result []byte,
) {
	ok := ResultOK(result)
	fields := map[string]any{
		"provider_type": providerType,
		"op":            op,
		"ok":            ok,
	}
	if !ok {
		if message := ResultMessage(result); message != "" {
			fields["error"] = message
		}
	}
	o.Observe(ctx, startedAt, op, ok, fields)
}

func (o Observer) Observe(ctx context.Context, startedAt time.Time, operation string, ok bool, fields map[string]any) {
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if !ok {
		status = "failure"
	}
	elapsed := time.Since(startedAt).Milliseconds()

	contextFields := RedactSensitiveMap(fields)
	contextFields["operation"] = operation
	contextFields["status"] = status
	contextFields["duration_ms"] = elapsed

	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	if providerType, _ := fields["provider_type"].(string); strings.TrimSpace(providerType) != "" {
		tags["provider_type"] = providerType
	}

	if o.metrics != nil {
		o.metrics.IncCounter(ctx, "messaging."+operation+".total", 1, cloneTags(tags))
		o.metrics.ObserveHistogram(ctx, "messaging."+operation+".duration_ms", float64(elapsed), cloneTags(tags))
	}

	if ok {
		o.log(ctx, "info", operation+" succeeded", contextFields)
		return
	}
	o.log(ctx, "warn", operation+" failed", contextFields)
}

func (o Observer) Debug(ctx context.Context, message string, fields map[string]any) {
	o.log(ctx, "debug", message, RedactSensitiveMap(fields))
}

func (o Observer) log(ctx context.Context, level string, message string, fields map[string]any) {
	if o.logger == nil {
		return
	}
	logger := o.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	args := flattenFields(fields)
	switch level {
	case "debug":
		logger.Debug(message, args...)
	case "warn":
		logger.Warn(message, args...)
	case "error":
		logger.Error(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	operation = strings.ReplaceAll(operation, " ", "_")
	operation = strings.ReplaceAll(operation, "-", "_")
	return operation
}
