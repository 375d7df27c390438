package providerconfig

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	opts "github.com/goliatone/go-options"

	"github.com/goliatone/go-messaging-providers/core"
)

// ConfigKey is the request key holding an explicit config object.
const ConfigKey = "config"

// Resolver builds a typed provider config T. T fields are decoded through
// koanf/mapstructure tags matching the schema field names.
type Resolver[T any] struct {
	Schema   Schema
	Defaults T
	Validate func(*T) error
}

// Parse decodes raw config bytes against the closed schema. It backs
// validate_config.
func (r Resolver[T]) Parse(raw []byte) (T, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		var zero T
		return zero, configError(err.Error())
	}
	return r.ParseValue(value)
}

// ParseValue validates an already decoded explicit config value.
func (r Resolver[T]) ParseValue(value any) (T, error) {
	var zero T
	object, ok := value.(map[string]any)
	if !ok {
		return zero, configError(fmt.Sprintf("expected object, got %s", jsonKind(value)))
	}
	fields, err := r.Schema.Validate(object)
	if err != nil {
		return zero, err
	}
	return r.build(fields)
}

// Resolve applies the precedence explicit config > top-level fields >
// string metadata > defaults. An explicit config is used exclusively;
// unknown keys are only rejected there.
func (r Resolver[T]) Resolve(input map[string]any, metadata map[string]string) (T, error) {
	if explicit, ok := input[ConfigKey]; ok {
		return r.ParseValue(explicit)
	}

	requestLayer := map[string]any{}
	for _, field := range r.Schema.fields {
		if value, ok := input[field]; ok {
			requestLayer[field] = value
		}
	}
	requestLayer, err := r.Schema.validateTypes(requestLayer)
	if err != nil {
		var zero T
		return zero, err
	}

	// A present top-level key, null included, shadows metadata.
	metadataLayer := map[string]any{}
	for _, field := range r.Schema.fields {
		if _, present := input[field]; present {
			continue
		}
		if value, ok := metadata[field]; ok {
			metadataLayer[field] = value
		}
	}

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			map[string]any{},
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("metadata", 10),
			metadataLayer,
			opts.WithSnapshotID[map[string]any]("metadata"),
		),
		opts.NewLayer(
			opts.NewScope("request", 20),
			requestLayer,
			opts.WithSnapshotID[map[string]any]("request"),
		),
	)
	if err != nil {
		var zero T
		return zero, goerrors.Wrap(err, goerrors.CategoryInternal, "providerconfig: options stack build failed").
			WithTextCode(core.ErrorInternal)
	}
	merged, err := stack.Merge()
	if err != nil {
		var zero T
		return zero, goerrors.Wrap(err, goerrors.CategoryInternal, "providerconfig: options merge failed").
			WithTextCode(core.ErrorInternal)
	}
	return r.build(merged.Value)
}

func (r Resolver[T]) build(raw map[string]any) (T, error) {
	var (
		cfg T
		err error
	)
	if r.Validate != nil {
		cfg, err = cfgx.Build[T](raw,
			cfgx.WithDefaults(r.Defaults),
			cfgx.WithValidator[T](r.Validate),
		)
	} else {
		cfg, err = cfgx.Build[T](raw, cfgx.WithDefaults(r.Defaults))
	}
	if err != nil {
		var zero T
		return zero, configError(core.ErrorMessage(err))
	}
	return cfg, nil
}

func jsonKind(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", value)
	}
}
