package bridge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nm47/ih8homeassistant/internal/device"
	"github.com/nm47/ih8homeassistant/internal/infrastructure/config"
	"github.com/nm47/ih8homeassistant/internal/matter"
)

// MQTTClient is the slice of the MQTT transport the bridge consumes.
// The concrete client in infrastructure/mqtt is adapted to this
// interface at wiring time.
type MQTTClient interface {
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
	Unsubscribe(topic string) error
	PublishString(topic string, payload string) error
}

// Telemetry receives attribute and reachability changes for metrics
// storage. Optional; a nil Telemetry disables recording.
type Telemetry interface {
	WriteAttributeChange(deviceName, deviceType, cluster, attribute string, value float64)
	WriteReachability(deviceName string, reachable bool)
}

// Change describes one attribute change on a device node, delivered to
// observers registered with OnChange.
type Change struct {
	Device    string `json:"device"`
	Type      string `json:"type"`
	Cluster   string `json:"cluster"`
	Attribute string `json:"attribute"`
	Value     any    `json:"value"`
}

// DeviceStatus is a read-only view of one bridged device, served by the
// HTTP API.
type DeviceStatus struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Type         string              `json:"type"`
	Capabilities []device.Capability `json:"capabilities"`
	Topics       []string            `json:"topics"`
	Reachable    bool                `json:"reachable"`
	State        matter.State        `json:"state"`
}

// Options carries the dependencies for New. Config, MQTT, and Logger
// are required; Store and Telemetry are optional.
type Options struct {
	Config    *config.Config
	MQTT      MQTTClient
	Store     *StateStore
	Telemetry Telemetry
	Logger    device.Logger
}

// bridgeEntry pairs a device's node with its sync instance.
type bridgeEntry struct {
	node   *matter.Node
	syncer device.Syncer
}

// Bridge owns the device graph: it validates the configured devices,
// builds one node and one sync instance per device, subscribes the
// union of their topics, and fans every inbound message out to all
// sync instances. Attribute changes flow to the optional state store,
// telemetry sink, and any registered observers.
type Bridge struct {
	cfg      *config.Config
	mqtt     MQTTClient
	store    *StateStore
	metrics  Telemetry
	log      device.Logger
	registry *device.Registry
	qos      byte

	mu        sync.RWMutex
	entries   []bridgeEntry
	byName    map[string]*bridgeEntry
	topics    []string
	observers []func(Change)
	started   bool
}

// New validates the configuration and builds the device graph. Every
// violation across every configured device is collected first, so a
// broken config fails once with the complete list instead of stopping
// at the first bad field.
//
// Persisted state, when a store is supplied, is restored into each
// node before Start. Reachability is deliberately not restored: after
// a restart every device is offline until it announces itself.
func New(opts Options) (*Bridge, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bridge: config is required")
	}
	if opts.MQTT == nil {
		return nil, fmt.Errorf("bridge: mqtt client is required")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("bridge: logger is required")
	}

	registry := device.NewRegistry()
	if err := device.RegisterBuiltins(registry); err != nil {
		return nil, fmt.Errorf("registering device types: %w", err)
	}

	b := &Bridge{
		cfg:      opts.Config,
		mqtt:     opts.MQTT,
		store:    opts.Store,
		metrics:  opts.Telemetry,
		log:      opts.Logger,
		registry: registry,
		qos:      byte(opts.Config.MQTT.QoS),
		byName:   make(map[string]*bridgeEntry),
	}

	if err := b.buildDevices(); err != nil {
		return nil, err
	}
	return b, nil
}

// buildDevices validates every configured device, then constructs the
// node and sync instance for each. Validation failures across all
// devices are aggregated into a single ErrInvalidDeviceConfig.
func (b *Bridge) buildDevices() error {
	var violations []string
	for i := range b.cfg.Devices {
		cfg := &b.cfg.Devices[i]
		result := b.registry.ValidateConfig(cfg)
		if !result.Valid {
			violations = append(violations, result.Errors...)
		}
	}
	if len(violations) > 0 {
		return fmt.Errorf("%w:\n  %s", ErrInvalidDeviceConfig, strings.Join(violations, "\n  "))
	}

	namespace := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(b.cfg.Bridge.ID))

	// Preallocated so byName's element pointers stay valid.
	b.entries = make([]bridgeEntry, 0, len(b.cfg.Devices))

	for i := range b.cfg.Devices {
		cfg := &b.cfg.Devices[i]

		desc, ok := b.registry.Lookup(device.TypeName(cfg.Type))
		if !ok {
			// ValidateConfig already vetted the type; this is a
			// programming error, not a config error.
			return fmt.Errorf("%w: %q", device.ErrUnknownType, cfg.Type)
		}

		endpoint := desc.Endpoint(cfg)
		id := uuid.NewSHA1(namespace, []byte(cfg.Name)).String()
		node := matter.NewNode(id, cfg.Name, desc.Shape(), endpoint.State)

		b.restoreState(node, cfg.Name)

		syncer, err := b.registry.CreateDevice(device.Binding{
			Config:    cfg,
			Node:      node,
			Publisher: b.mqtt,
			Logger:    b.log,
			Topics:    endpoint.Topics,
		})
		if err != nil {
			return fmt.Errorf("creating device %q: %w", cfg.Name, err)
		}

		b.entries = append(b.entries, bridgeEntry{node: node, syncer: syncer})
		b.byName[cfg.Name] = &b.entries[len(b.entries)-1]
	}

	b.topics = b.uniqueTopics()
	return nil
}

// restoreState loads the persisted snapshot for a device, if any, and
// applies every cluster except basicInformation to the fresh node.
func (b *Bridge) restoreState(node *matter.Node, deviceName string) {
	if b.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	saved, err := b.store.Load(ctx, deviceName)
	if errors.Is(err, ErrStateNotFound) {
		return
	}
	if err != nil {
		b.log.Warn("failed to load persisted state",
			"device", deviceName,
			"error", err)
		return
	}

	restore := make(matter.State, len(saved))
	for cluster, attrs := range saved {
		if cluster == matter.ClusterBasicInformation {
			continue
		}
		restore[cluster] = attrs
	}
	if len(restore) == 0 {
		return
	}

	if err := node.Set(normaliseNumbers(restore)); err != nil {
		b.log.Warn("failed to restore persisted state",
			"device", deviceName,
			"error", err)
		return
	}
	b.log.Debug("restored persisted state",
		"device", deviceName,
		"clusters", len(restore))
}

// normaliseNumbers converts float64 values that came back from JSON
// decoding into ints when they are whole numbers, so restored level
// and hue attributes match the types the sync instances write.
func normaliseNumbers(state matter.State) matter.State {
	out := make(matter.State, len(state))
	for cluster, attrs := range state {
		converted := make(map[string]any, len(attrs))
		for attr, value := range attrs {
			if f, ok := value.(float64); ok && f == float64(int(f)) {
				converted[attr] = int(f)
				continue
			}
			converted[attr] = value
		}
		out[cluster] = converted
	}
	return out
}

// uniqueTopics returns the sorted union of every syncer's subscription
// list. Two devices sharing a topic subscribe once; the dispatcher
// fans the message to both.
func (b *Bridge) uniqueTopics() []string {
	seen := make(map[string]bool)
	for _, entry := range b.entries {
		for _, topic := range entry.syncer.Topics() {
			seen[topic] = true
		}
	}
	topics := make([]string, 0, len(seen))
	for topic := range seen {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// OnChange registers an observer called for every attribute change on
// any device node. Must be called before Start; observers run on the
// node's notification goroutine and should not block.
func (b *Bridge) OnChange(fn func(Change)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, fn)
}

// Start wires attribute observers, starts every sync instance, and
// subscribes the union of their topics.
func (b *Bridge) Start() error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return ErrAlreadyStarted
	}
	b.started = true
	b.mu.Unlock()

	for i := range b.entries {
		entry := &b.entries[i]
		if err := entry.syncer.Start(); err != nil {
			return fmt.Errorf("starting device %q: %w", entry.syncer.Name(), err)
		}
		b.watchNode(entry)
	}

	for _, topic := range b.topics {
		if err := b.mqtt.Subscribe(topic, b.qos, b.dispatch); err != nil {
			return fmt.Errorf("subscribing to %q: %w", topic, err)
		}
	}

	if b.store != nil {
		b.pruneStaleState()
	}

	b.log.Info("bridge started",
		"devices", len(b.entries),
		"topics", len(b.topics))
	return nil
}

// watchNode subscribes an observer to every attribute the node's
// initial state declares, fanning changes to persistence, telemetry,
// and registered observers.
func (b *Bridge) watchNode(entry *bridgeEntry) {
	node := entry.node
	name := entry.syncer.Name()
	devType := string(entry.syncer.Type())

	for cluster, attrs := range node.Snapshot() {
		for attr := range attrs {
			err := node.Subscribe(cluster, attr, func(value any) {
				b.onAttributeChange(entry, name, devType, cluster, attr, value)
			})
			if err != nil {
				b.log.Error("failed to watch attribute",
					"device", name,
					"cluster", cluster,
					"attribute", attr,
					"error", err)
			}
		}
	}
}

// onAttributeChange fans one attribute change out to the state store,
// the telemetry sink, and every registered observer. Persistence and
// telemetry failures are logged and never propagate into the node's
// notification path.
func (b *Bridge) onAttributeChange(entry *bridgeEntry, name, devType, cluster, attr string, value any) {
	if b.store != nil {
		snapshot := entry.node.Snapshot()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := b.store.Save(ctx, name, snapshot); err != nil {
				b.log.Warn("failed to persist state",
					"device", name,
					"error", err)
			}
		}()
	}

	if b.metrics != nil {
		if cluster == matter.ClusterBasicInformation && attr == matter.AttrReachable {
			if reachable, ok := value.(bool); ok {
				b.metrics.WriteReachability(name, reachable)
			}
		} else if f, ok := numericValue(value); ok {
			b.metrics.WriteAttributeChange(name, devType, cluster, attr, f)
		}
	}

	b.mu.RLock()
	observers := b.observers
	b.mu.RUnlock()

	change := Change{
		Device:    name,
		Type:      devType,
		Cluster:   cluster,
		Attribute: attr,
		Value:     value,
	}
	for _, fn := range observers {
		fn(change)
	}
}

// numericValue coerces attribute values into float64 for telemetry.
// Booleans map to 0/1 so on/off history is graphable.
func numericValue(v any) (float64, bool) {
	switch value := v.(type) {
	case bool:
		if value {
			return 1, true
		}
		return 0, true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	case float64:
		return value, true
	default:
		return 0, false
	}
}

// pruneStaleState drops persisted rows for devices that are no longer
// configured.
func (b *Bridge) pruneStaleState() {
	names := make([]string, 0, len(b.entries))
	for _, entry := range b.entries {
		names = append(names, entry.syncer.Name())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.store.Prune(ctx, names); err != nil {
		b.log.Warn("failed to prune stale device state", "error", err)
	}
}

// dispatch fans one inbound message out to every sync instance. A
// message no device claims is logged at debug level; on a broker with
// shared topic trees that is routine, not an anomaly.
func (b *Bridge) dispatch(topic string, payload []byte) error {
	claimed := false
	for i := range b.entries {
		if b.entries[i].syncer.HandleMessage(topic, payload) {
			claimed = true
		}
	}
	if !claimed {
		b.log.Debug("message not claimed by any device", "topic", topic)
	}
	return nil
}

// Stop unsubscribes the bridge's topics and stops every sync instance,
// cancelling any pending debounce timers. Safe to call more than once.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return
	}
	b.started = false
	b.mu.Unlock()

	for _, topic := range b.topics {
		if err := b.mqtt.Unsubscribe(topic); err != nil {
			b.log.Warn("failed to unsubscribe", "topic", topic, "error", err)
		}
	}
	for _, entry := range b.entries {
		entry.syncer.Stop()
	}
	b.log.Info("bridge stopped")
}

// Devices returns a status view of every bridged device, in
// configuration order.
func (b *Bridge) Devices() []DeviceStatus {
	statuses := make([]DeviceStatus, 0, len(b.entries))
	for _, entry := range b.entries {
		statuses = append(statuses, b.status(&entry))
	}
	return statuses
}

// Device returns the status view for one device by name.
func (b *Bridge) Device(name string) (DeviceStatus, bool) {
	entry, ok := b.byName[name]
	if !ok {
		return DeviceStatus{}, false
	}
	return b.status(entry), true
}

// DeviceTypes returns the registered type names in registration order.
func (b *Bridge) DeviceTypes() []device.TypeName {
	return b.registry.Types()
}

// TypeDescription is a read-only view of one registered device type,
// served by the HTTP API so operators can discover what a config may
// contain without reading source.
type TypeDescription struct {
	Type         device.TypeName     `json:"type"`
	Capabilities []device.Capability `json:"capabilities"`
	Clusters     []string            `json:"clusters"`
	Topics       device.TopicSchema  `json:"topics"`
	Options      device.OptionSchema `json:"options"`
}

// DescribeTypes returns descriptions of every registered device type,
// in registration order.
func (b *Bridge) DescribeTypes() []TypeDescription {
	names := b.registry.Types()
	out := make([]TypeDescription, 0, len(names))
	for _, name := range names {
		desc, ok := b.registry.Lookup(name)
		if !ok {
			continue
		}
		out = append(out, TypeDescription{
			Type:         desc.Type,
			Capabilities: desc.Capabilities,
			Clusters:     desc.Shape().ClusterNames(),
			Topics:       desc.Topics,
			Options:      desc.Options,
		})
	}
	return out
}

func (b *Bridge) status(entry *bridgeEntry) DeviceStatus {
	node := entry.node
	desc, _ := b.registry.Lookup(entry.syncer.Type())

	var capabilities []device.Capability
	if desc != nil {
		capabilities = desc.Capabilities
	}

	reachable := false
	if v, ok := node.Get(matter.ClusterBasicInformation, matter.AttrReachable); ok {
		reachable, _ = v.(bool)
	}

	return DeviceStatus{
		ID:           node.ID(),
		Name:         node.Name(),
		Type:         node.Type(),
		Capabilities: capabilities,
		Topics:       entry.syncer.Topics(),
		Reachable:    reachable,
		State:        node.Snapshot(),
	}
}
