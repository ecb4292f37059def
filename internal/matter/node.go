package matter

import (
	"fmt"
	"sync"
)

// State holds attribute values keyed by cluster name, then attribute name.
//
// Values are plain Go types: bool for onOff and reachable, int for levels,
// hue and saturation. Keeping the representation loose lets device types
// extend the graph without touching this package.
type State map[string]map[string]any

// Clone returns a deep copy of the state.
//
// Attribute values themselves are copied by assignment; they are expected
// to be value types (bool, int, string).
func (s State) Clone() State {
	out := make(State, len(s))
	for cluster, attrs := range s {
		ca := make(map[string]any, len(attrs))
		for attr, v := range attrs {
			ca[attr] = v
		}
		out[cluster] = ca
	}
	return out
}

// attrKey identifies one attribute (or event) on a node.
type attrKey struct {
	cluster string
	attr    string
}

// Node is one bridged device endpoint: a named attribute graph whose
// composition is fixed by its Shape at construction time.
//
// State flows through the node in both directions. The MQTT side calls Set
// when the device reports; the controller side calls Set when a user acts.
// Subscribers see every applied change regardless of which side wrote it.
type Node struct {
	id    string
	name  string
	shape Shape

	mu    sync.RWMutex
	state State

	// subs holds attribute subscribers per attribute, in subscription order.
	subs map[attrKey][]func(value any)

	// eventSubs holds event subscribers per event, in subscription order.
	eventSubs map[attrKey][]func()
}

// NewNode creates a node with the given identity, shape, and initial state.
//
// Clusters in initial that the shape does not carry are dropped silently;
// initial state comes from descriptors and is trusted to match.
//
// Parameters:
//   - id: Stable endpoint identifier (UUID string)
//   - name: Configured device name
//   - shape: Endpoint composition for the device type
//   - initial: Starting attribute values, cloned into the node
func NewNode(id, name string, shape Shape, initial State) *Node {
	state := make(State, len(shape.Clusters))
	for _, c := range shape.Clusters {
		attrs, ok := initial[c.Name]
		if !ok {
			state[c.Name] = make(map[string]any)
			continue
		}
		ca := make(map[string]any, len(attrs))
		for attr, v := range attrs {
			ca[attr] = v
		}
		state[c.Name] = ca
	}

	return &Node{
		id:        id,
		name:      name,
		shape:     shape,
		state:     state,
		subs:      make(map[attrKey][]func(value any)),
		eventSubs: make(map[attrKey][]func()),
	}
}

// ID returns the stable endpoint identifier.
func (n *Node) ID() string { return n.id }

// Name returns the configured device name.
func (n *Node) Name() string { return n.name }

// Type returns the Matter device type name from the node's shape.
func (n *Node) Type() string { return n.shape.DeviceType }

// Shape returns the node's endpoint composition.
func (n *Node) Shape() Shape { return n.shape }

// Set applies a batch of attribute changes atomically.
//
// All changes are validated against the node's shape before any are applied;
// a write touching an unknown cluster rejects the whole batch. Subscribers
// for each changed attribute are invoked after the node lock is released,
// in subscription order, on the calling goroutine.
//
// Writing an attribute to the value it already holds still notifies
// subscribers: device echoes are how sync loops confirm command round-trips.
//
// Parameters:
//   - changes: Cluster/attribute values to apply
//
// Returns:
//   - error: ErrUnknownCluster if any cluster is not in the node's shape
func (n *Node) Set(changes State) error {
	type notification struct {
		key   attrKey
		value any
	}

	n.mu.Lock()

	// Validate the whole batch first so a partial apply never happens.
	for cluster := range changes {
		if _, ok := n.state[cluster]; !ok {
			n.mu.Unlock()
			return fmt.Errorf("%w: %q on %s node %q", ErrUnknownCluster, cluster, n.shape.DeviceType, n.name)
		}
	}

	var pending []notification
	for cluster, attrs := range changes {
		for attr, value := range attrs {
			n.state[cluster][attr] = value
			pending = append(pending, notification{
				key:   attrKey{cluster: cluster, attr: attr},
				value: value,
			})
		}
	}

	// Snapshot subscriber lists under the lock so concurrent Subscribe
	// calls cannot mutate the slices while we iterate.
	type callout struct {
		fns   []func(value any)
		value any
	}
	callouts := make([]callout, 0, len(pending))
	for _, p := range pending {
		if fns := n.subs[p.key]; len(fns) > 0 {
			callouts = append(callouts, callout{fns: fns, value: p.value})
		}
	}

	n.mu.Unlock()

	for _, c := range callouts {
		for _, fn := range c.fns {
			fn(c.value)
		}
	}

	return nil
}

// Get returns the current value of one attribute.
//
// Returns:
//   - any: The attribute value (nil if unset)
//   - bool: Whether the cluster exists and the attribute has been written
func (n *Node) Get(cluster, attr string) (any, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	attrs, ok := n.state[cluster]
	if !ok {
		return nil, false
	}
	v, ok := attrs[attr]
	return v, ok
}

// Snapshot returns a deep copy of the node's current state.
func (n *Node) Snapshot() State {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state.Clone()
}

// Subscribe registers a callback for changes to one attribute.
//
// The callback runs on the goroutine that applied the change, after the
// node lock is released. Subscriptions cannot be removed; nodes live for
// the bridge's lifetime.
//
// Returns:
//   - error: ErrUnknownCluster if the shape lacks the cluster,
//     ErrNilCallback if fn is nil
func (n *Node) Subscribe(cluster, attr string, fn func(value any)) error {
	if fn == nil {
		return ErrNilCallback
	}
	if !n.shape.HasCluster(cluster) {
		return fmt.Errorf("%w: %q on %s node %q", ErrUnknownCluster, cluster, n.shape.DeviceType, n.name)
	}

	key := attrKey{cluster: cluster, attr: attr}
	n.mu.Lock()
	n.subs[key] = append(n.subs[key], fn)
	n.mu.Unlock()
	return nil
}

// SubscribeEvent registers a callback for a momentary event on a cluster.
//
// Events carry no value and are not stored in node state; they model
// things like switch presses that have no persistent attribute.
func (n *Node) SubscribeEvent(cluster, event string, fn func()) error {
	if fn == nil {
		return ErrNilCallback
	}
	if !n.shape.HasCluster(cluster) {
		return fmt.Errorf("%w: %q on %s node %q", ErrUnknownCluster, cluster, n.shape.DeviceType, n.name)
	}

	key := attrKey{cluster: cluster, attr: event}
	n.mu.Lock()
	n.eventSubs[key] = append(n.eventSubs[key], fn)
	n.mu.Unlock()
	return nil
}

// EmitEvent fires a momentary event to all subscribers.
//
// Subscribers run in subscription order on the calling goroutine.
// Emitting on a cluster the shape lacks rejects the event.
func (n *Node) EmitEvent(cluster, event string) error {
	if !n.shape.HasCluster(cluster) {
		return fmt.Errorf("%w: %q on %s node %q", ErrUnknownCluster, cluster, n.shape.DeviceType, n.name)
	}

	key := attrKey{cluster: cluster, attr: event}
	n.mu.RLock()
	fns := n.eventSubs[key]
	n.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}
