package device

import (
	"github.com/nm47/ih8homeassistant/internal/infrastructure/config"
	"github.com/nm47/ih8homeassistant/internal/matter"
)

// EndpointConfig is what a descriptor derives from a validated device
// config: the initial attribute state for the device's node and the exact
// topic subscription list the sync instance consumes.
//
// Topics contains only the topics this type actually listens on. Command
// topics (setOn, setBrightness, ...) are publish-only and never appear here.
type EndpointConfig struct {
	State  matter.State
	Topics []string
}

// Descriptor is the immutable per-type record driving everything the
// bridge knows about a device type: identity, capability metadata, config
// schema, node shape, and the factory for its sync instance.
//
// One Descriptor exists per registered type. Descriptors are created at
// process start, registered once, and never mutated, so concurrent reads
// from every sync instance are safe without locking.
type Descriptor struct {
	// Type is the unique registered type name.
	Type TypeName

	// Capabilities is descriptive metadata for introspection.
	Capabilities []Capability

	// Topics declares required and optional topic roles.
	Topics TopicSchema

	// Options declares the recognised configuration options and defaults.
	Options OptionSchema

	// Shape returns the node composition for this type.
	Shape func() matter.Shape

	// Endpoint derives the initial node state and subscription list from a
	// validated config.
	Endpoint func(cfg *config.DeviceConfig) EndpointConfig

	// NewSync constructs the sync instance bound to a config, node,
	// publisher, and logger.
	NewSync func(b Binding) Syncer
}

// ValidateConfig checks a device config against this descriptor and applies
// option defaults in place.
//
// Checks performed, all accumulated into one result:
//   - name present and non-empty
//   - type matches this descriptor
//   - every required topic role present with a non-empty topic string
//   - no topic roles outside the schema's required and optional sets
//   - supplied option values match the schema's declared types
//   - no unrecognised option names
//
// On return, cfg.Options holds a value for every schema option (supplied or
// default), so sync instances never resolve defaults themselves. Defaults
// are applied even when validation fails; callers must still honour Valid.
func (d *Descriptor) ValidateConfig(cfg *config.DeviceConfig) ValidationResult {
	result := ValidationResult{Valid: true}

	if cfg.Name == "" {
		result.addError("device name is required")
	}
	if TypeName(cfg.Type) != d.Type {
		result.addError("type %q does not match descriptor %q", cfg.Type, d.Type)
	}

	for _, role := range d.Topics.Required {
		if cfg.Topics[role] == "" {
			result.addError("device %q: required topic %q missing", cfg.Name, role)
		}
	}
	for role := range cfg.Topics {
		if !d.Topics.knownRole(role) {
			result.addError("device %q: unrecognised topic role %q", cfg.Name, role)
		}
	}

	for name, value := range cfg.Options {
		spec, known := d.Options[name]
		if !known {
			result.addError("device %q: unrecognised option %q", cfg.Name, name)
			continue
		}
		if !optionValueMatches(spec.Type, value) {
			result.addError("device %q: option %q must be a %s", cfg.Name, name, spec.Type)
		}
	}

	// Apply defaults in place for anything the config omitted.
	if cfg.Options == nil {
		cfg.Options = make(map[string]any, len(d.Options))
	}
	for name, spec := range d.Options {
		if _, ok := cfg.Options[name]; !ok {
			cfg.Options[name] = spec.Default
		}
	}

	return result
}
