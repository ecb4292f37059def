package device

import (
	"sync"
	"time"

	"github.com/nm47/ih8homeassistant/internal/infrastructure/config"
	"github.com/nm47/ih8homeassistant/internal/matter"
)

// Publisher is the outbound slice of the MQTT client that sync instances
// need. Defined here so the package depends on behaviour, not on the
// transport implementation.
type Publisher interface {
	PublishString(topic string, payload string) error
}

// Logger is the logging interface sync instances use.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Binding carries everything a sync instance is bound to: its validated
// config, its node, the shared publisher, and a logger scoped to the device.
//
// Topics is the subscription list from the descriptor's EndpointConfig;
// the instance serves it back through Syncer.Topics so the descriptor
// stays the single authority on what a type listens to.
type Binding struct {
	Config    *config.DeviceConfig
	Node      *matter.Node
	Publisher Publisher
	Logger    Logger
	Topics    []string
}

// Syncer is one per-device synchronisation instance. It translates inbound
// MQTT messages into node mutations and node changes into MQTT publishes.
//
// HandleMessage returns whether the topic belonged to this device; the
// dispatcher fans every message to every syncer and uses the return to
// avoid logging a miss as an anomaly.
type Syncer interface {
	// Name returns the configured device name.
	Name() string

	// Type returns the device type name.
	Type() TypeName

	// Topics returns the topics this instance consumes, in a stable order.
	Topics() []string

	// Start wires node change subscriptions. Called once, after the node
	// exists and before messages flow.
	Start() error

	// HandleMessage processes one inbound message. Decode failures are
	// logged and swallowed; the return value only reports topic ownership.
	HandleMessage(topic string, payload []byte) bool

	// Stop cancels any pending timers. Safe to call more than once.
	Stop()
}

// syncBase carries the state and helpers shared by every sync instance.
type syncBase struct {
	cfg    *config.DeviceConfig
	node   *matter.Node
	pub    Publisher
	log    Logger
	topics []string
}

func newSyncBase(b Binding) syncBase {
	return syncBase{
		cfg:    b.Config,
		node:   b.Node,
		pub:    b.Publisher,
		log:    b.Logger,
		topics: b.Topics,
	}
}

func (s *syncBase) Name() string {
	return s.cfg.Name
}

func (s *syncBase) Type() TypeName {
	return TypeName(s.cfg.Type)
}

// Topics returns the subscription list bound in from the descriptor's
// endpoint derivation.
func (s *syncBase) Topics() []string {
	return s.topics
}

// topic returns the configured topic string for a role ("" if absent).
func (s *syncBase) topic(role string) string {
	return s.cfg.Topics[role]
}

// optionString returns a string option. Options are fully resolved with
// defaults before any instance is constructed, so a missing or mistyped
// value here indicates a programming error and falls back to "".
func (s *syncBase) optionString(name string) string {
	v, _ := s.cfg.Options[name].(string)
	return v
}

// optionBool returns a boolean option with the same resolution contract.
func (s *syncBase) optionBool(name string) bool {
	v, _ := s.cfg.Options[name].(bool)
	return v
}

// setState applies a node mutation, logging and swallowing failures so a
// rejected write never stalls message processing.
func (s *syncBase) setState(changes matter.State) {
	if err := s.node.Set(changes); err != nil {
		s.log.Error("node state update rejected",
			"device", s.cfg.Name,
			"error", err,
		)
	}
}

// publish sends a payload fire-and-forget. The publish runs on its own
// goroutine so a slow or disconnected broker never blocks the handler that
// triggered it; failures are logged with device context and dropped.
func (s *syncBase) publish(topic, payload string) {
	if topic == "" {
		return
	}
	go func() {
		if err := s.pub.PublishString(topic, payload); err != nil {
			s.log.Warn("publish failed",
				"device", s.cfg.Name,
				"topic", topic,
				"error", err,
			)
		}
	}()
}

// handleAvailability maps an availability payload onto the reachable
// attribute: the configured online value means reachable, anything else
// (including the configured offline value) means not.
func (s *syncBase) handleAvailability(payload []byte) {
	online := string(payload) == s.optionString(OptionOnlineValue)
	s.setState(matter.State{
		matter.ClusterBasicInformation: {matter.AttrReachable: online},
	})
}

// handleOnOffPayload maps an on/off state payload onto the onOff attribute.
// Payloads matching neither configured value are logged and dropped.
func (s *syncBase) handleOnOffPayload(payload []byte) {
	switch string(payload) {
	case s.optionString(OptionOnValue):
		s.setState(matter.State{matter.ClusterOnOff: {matter.AttrOnOff: true}})
	case s.optionString(OptionOffValue):
		s.setState(matter.State{matter.ClusterOnOff: {matter.AttrOnOff: false}})
	default:
		s.log.Warn("unrecognised on/off payload",
			"device", s.cfg.Name,
			"payload", string(payload),
		)
	}
}

// onOffPayload renders a boolean as the configured on/off wire value.
func (s *syncBase) onOffPayload(on bool) string {
	if on {
		return s.optionString(OptionOnValue)
	}
	return s.optionString(OptionOffValue)
}

// debouncer coalesces rapid triggers into one delayed call.
//
// schedule cancels any pending timer before arming a new one, so a burst
// of triggers inside the delay window fires exactly once, with the
// callback reading whatever state is current at fire time.
//
// Stop on a timer that has already started firing cannot recall the
// callback, so each schedule bumps a generation and the callback checks
// it under the lock before running. A superseded or stopped generation
// is a no-op.
type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
	delay time.Duration
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay}
}

func (d *debouncer) schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		stale := d.gen != gen
		d.mu.Unlock()
		if stale {
			return
		}
		fn()
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
