package device

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nm47/ih8homeassistant/internal/infrastructure/config"
)

// Registry maps device type names to their descriptors.
//
// The registry is populated once at startup (RegisterBuiltins) before any
// configuration is parsed, and is read-only afterwards. The mutex guards
// against misuse rather than an expected concurrent registration pattern.
type Registry struct {
	mu    sync.RWMutex
	types map[TypeName]*Descriptor
	order []TypeName
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[TypeName]*Descriptor),
	}
}

// Register installs a descriptor under its type name.
//
// Returns:
//   - error: ErrDuplicateType if the name is already registered; the first
//     registration stays authoritative
func (r *Registry) Register(d *Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[d.Type]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateType, d.Type)
	}

	r.types[d.Type] = d
	r.order = append(r.order, d.Type)
	return nil
}

// Lookup returns the descriptor for a type name.
func (r *Registry) Lookup(name TypeName) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.types[name]
	return d, ok
}

// Types returns the registered type names in registration order.
func (r *Registry) Types() []TypeName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TypeName, len(r.order))
	copy(out, r.order)
	return out
}

// ValidateConfig resolves the config's type and delegates validation to its
// descriptor.
//
// An unknown type yields a single error naming the bad type and listing
// every registered one, so a typo in config is a one-glance fix.
func (r *Registry) ValidateConfig(cfg *config.DeviceConfig) ValidationResult {
	d, ok := r.Lookup(TypeName(cfg.Type))
	if !ok {
		return ValidationResult{
			Valid: false,
			Errors: []string{
				fmt.Sprintf("device %q: unknown type %q (valid types: %s)",
					cfg.Name, cfg.Type, r.typeList()),
			},
		}
	}
	return d.ValidateConfig(cfg)
}

// CreateDevice resolves the config's descriptor and constructs its sync
// instance bound to the given node, publisher, and logger.
//
// The config must already have passed ValidateConfig; options are assumed
// fully resolved.
//
// Returns:
//   - Syncer: The constructed sync instance
//   - error: ErrUnknownType if the type is not registered
func (r *Registry) CreateDevice(b Binding) (Syncer, error) {
	d, ok := r.Lookup(TypeName(b.Config.Type))
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid types: %s)", ErrUnknownType, b.Config.Type, r.typeList())
	}
	return d.NewSync(b), nil
}

// typeList renders the registered type names for error messages.
func (r *Registry) typeList() string {
	names := r.Types()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}

// RegisterBuiltins installs every built-in device type descriptor.
//
// Called exactly once at startup. A duplicate here is a programming error
// and propagates as a fatal startup failure.
func RegisterBuiltins(r *Registry) error {
	descriptors := []*Descriptor{
		newOnOffDescriptor(TypeOnOffPlugInUnit),
		newOnOffDescriptor(TypeOnOffLight),
		newDimmableDescriptor(),
		newColorLightDescriptor(),
		newGenericSwitchDescriptor(),
		newTelevisionDescriptor(),
	}

	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}
