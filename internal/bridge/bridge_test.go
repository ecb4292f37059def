package bridge

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nm47/ih8homeassistant/internal/infrastructure/config"
	"github.com/nm47/ih8homeassistant/internal/matter"
)

// fakeMQTT records subscriptions and publishes, and lets tests inject
// inbound messages through the registered handlers.
type fakeMQTT struct {
	mu        sync.Mutex
	handlers  map[string]func(topic string, payload []byte) error
	published []string
}

func newFakeMQTT() *fakeMQTT {
	return &fakeMQTT{handlers: make(map[string]func(string, []byte) error)}
}

func (f *fakeMQTT) Subscribe(topic string, qos byte, handler func(string, []byte) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.handlers[topic]; exists {
		return fmt.Errorf("duplicate subscription to %q", topic)
	}
	f.handlers[topic] = handler
	return nil
}

func (f *fakeMQTT) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, topic)
	return nil
}

func (f *fakeMQTT) PublishString(topic string, payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, topic+"="+payload)
	return nil
}

// inject delivers an inbound message as the broker would.
func (f *fakeMQTT) inject(t *testing.T, topic string, payload string) {
	t.Helper()
	f.mu.Lock()
	handler, ok := f.handlers[topic]
	f.mu.Unlock()
	if !ok {
		t.Fatalf("no subscription for topic %q", topic)
	}
	if err := handler(topic, []byte(payload)); err != nil {
		t.Fatalf("handler for %q returned error: %v", topic, err)
	}
}

func (f *fakeMQTT) subscriptionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func testConfig(devices ...config.DeviceConfig) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Devices = devices
	return cfg
}

func plugDevice(name string) config.DeviceConfig {
	return config.DeviceConfig{
		Type: "OnOffPlugInUnitDevice",
		Name: name,
		Topics: map[string]string{
			"getOnline": "stat/" + name + "/online",
			"getOn":     "stat/" + name + "/power",
			"setOn":     "cmnd/" + name + "/power",
		},
	}
}

func newTestBridge(t *testing.T, cfg *config.Config) (*Bridge, *fakeMQTT) {
	t.Helper()
	client := newFakeMQTT()
	b, err := New(Options{
		Config: cfg,
		MQTT:   client,
		Logger: nopLogger{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b, client
}

func TestNewAggregatesValidationErrors(t *testing.T) {
	cfg := testConfig(
		config.DeviceConfig{Type: "OnOffPlugInUnitDevice", Name: "broken-plug"},
		config.DeviceConfig{Type: "NoSuchDevice", Name: "mystery"},
	)

	_, err := New(Options{Config: cfg, MQTT: newFakeMQTT(), Logger: nopLogger{}})
	if !errors.Is(err, ErrInvalidDeviceConfig) {
		t.Fatalf("expected ErrInvalidDeviceConfig, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"broken-plug", "mystery", "getOnline"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error should mention %q:\n%s", want, msg)
		}
	}
}

func TestDeviceIDsAreStable(t *testing.T) {
	first, _ := newTestBridge(t, testConfig(plugDevice("lamp")))
	second, _ := newTestBridge(t, testConfig(plugDevice("other"), plugDevice("lamp")))

	lampA, ok := first.Device("lamp")
	if !ok {
		t.Fatal("lamp missing from first bridge")
	}
	lampB, ok := second.Device("lamp")
	if !ok {
		t.Fatal("lamp missing from second bridge")
	}
	if lampA.ID != lampB.ID {
		t.Errorf("same device name produced different IDs: %q vs %q", lampA.ID, lampB.ID)
	}

	other, _ := second.Device("other")
	if other.ID == lampB.ID {
		t.Error("different device names produced the same ID")
	}
}

func TestStartSubscribesSharedTopicOnce(t *testing.T) {
	left := plugDevice("left")
	right := plugDevice("right")
	// Both sockets hang off one availability topic.
	shared := "stat/strip/online"
	left.Topics["getOnline"] = shared
	right.Topics["getOnline"] = shared

	b, client := newTestBridge(t, testConfig(left, right))
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer b.Stop()

	// 1 shared availability + 2 distinct state topics. The fake errors
	// on duplicate subscriptions, so reaching here already proves the
	// union was deduplicated.
	if got := client.subscriptionCount(); got != 3 {
		t.Errorf("subscriptionCount = %d, want 3", got)
	}
}

func TestDispatchFansOutToAllClaimants(t *testing.T) {
	left := plugDevice("left")
	right := plugDevice("right")
	shared := "stat/strip/online"
	left.Topics["getOnline"] = shared
	right.Topics["getOnline"] = shared

	b, client := newTestBridge(t, testConfig(left, right))
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer b.Stop()

	client.inject(t, shared, "Online")

	for _, name := range []string{"left", "right"} {
		status, ok := b.Device(name)
		if !ok {
			t.Fatalf("device %q missing", name)
		}
		if !status.Reachable {
			t.Errorf("device %q should be reachable after shared availability message", name)
		}
	}
}

func TestInboundStateReachesNodeAndObservers(t *testing.T) {
	b, client := newTestBridge(t, testConfig(plugDevice("lamp")))

	changes := make(chan Change, 8)
	b.OnChange(func(c Change) { changes <- c })

	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer b.Stop()

	client.inject(t, "stat/lamp/power", "ON")

	select {
	case c := <-changes:
		if c.Device != "lamp" || c.Cluster != matter.ClusterOnOff || c.Attribute != matter.AttrOnOff {
			t.Errorf("unexpected change: %+v", c)
		}
		if c.Value != true {
			t.Errorf("change value = %v, want true", c.Value)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change observed after inbound state message")
	}

	status, _ := b.Device("lamp")
	if on, _ := status.State[matter.ClusterOnOff][matter.AttrOnOff].(bool); !on {
		t.Error("node onOff should be true after inbound ON")
	}
}

func TestStartTwiceFails(t *testing.T) {
	b, _ := newTestBridge(t, testConfig(plugDevice("lamp")))
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer b.Stop()

	if err := b.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	b, client := newTestBridge(t, testConfig(plugDevice("lamp")))
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	b.Stop()
	b.Stop()

	if got := client.subscriptionCount(); got != 0 {
		t.Errorf("subscriptions remaining after Stop = %d, want 0", got)
	}
}

func TestDevicesListsConfigurationOrder(t *testing.T) {
	b, _ := newTestBridge(t, testConfig(plugDevice("zeta"), plugDevice("alpha")))

	devices := b.Devices()
	if len(devices) != 2 {
		t.Fatalf("Devices() returned %d entries, want 2", len(devices))
	}
	if devices[0].Name != "zeta" || devices[1].Name != "alpha" {
		t.Errorf("devices out of configuration order: %q, %q", devices[0].Name, devices[1].Name)
	}
	if devices[0].Type != "OnOffPlugInUnitDevice" {
		t.Errorf("device type = %q", devices[0].Type)
	}
	if devices[0].Reachable {
		t.Error("devices should start unreachable")
	}
}

func TestDeviceTypesListsBuiltins(t *testing.T) {
	b, _ := newTestBridge(t, testConfig())
	types := b.DeviceTypes()
	if len(types) != 6 {
		t.Errorf("DeviceTypes() returned %d entries, want 6", len(types))
	}
}

func TestDescribeTypesIncludesClusters(t *testing.T) {
	b, _ := newTestBridge(t, testConfig())

	descriptions := b.DescribeTypes()
	if len(descriptions) != 6 {
		t.Fatalf("DescribeTypes() returned %d entries, want 6", len(descriptions))
	}
	for _, d := range descriptions {
		if len(d.Clusters) == 0 {
			t.Errorf("type %q lists no clusters", d.Type)
			continue
		}
		if d.Clusters[0] != "basicInformation" {
			t.Errorf("type %q clusters = %v, want basicInformation first", d.Type, d.Clusters)
		}
	}
}

func TestUnclaimedMessageIsHarmless(t *testing.T) {
	b, client := newTestBridge(t, testConfig(plugDevice("lamp")))
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer b.Stop()

	// Dispatch directly with a topic nothing owns; must not error.
	if err := b.dispatch("tele/unrelated/SENSOR", []byte("{}")); err != nil {
		t.Errorf("dispatch of unclaimed message returned %v", err)
	}

	// Known topic with garbage payload is logged and swallowed.
	client.inject(t, "stat/lamp/power", "GARBAGE")
	status, _ := b.Device("lamp")
	if on, _ := status.State[matter.ClusterOnOff][matter.AttrOnOff].(bool); on {
		t.Error("garbage payload must not change onOff")
	}
}
