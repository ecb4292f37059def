package device

import (
	"testing"
	"time"

	"github.com/nm47/ih8homeassistant/internal/infrastructure/config"
	"github.com/nm47/ih8homeassistant/internal/matter"
)

// publishCall records one outbound publish.
type publishCall struct {
	topic   string
	payload string
}

// fakePublisher delivers publishes to a channel so tests can wait for the
// fire-and-forget goroutines.
type fakePublisher struct {
	ch chan publishCall
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{ch: make(chan publishCall, 32)}
}

func (f *fakePublisher) PublishString(topic string, payload string) error {
	f.ch <- publishCall{topic: topic, payload: payload}
	return nil
}

// expectPublish waits for the next publish and fails the test on timeout.
func expectPublish(t *testing.T, f *fakePublisher) publishCall {
	t.Helper()
	select {
	case p := <-f.ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for publish")
		return publishCall{}
	}
}

// expectNoPublish asserts nothing is published within a settling window.
func expectNoPublish(t *testing.T, f *fakePublisher) {
	t.Helper()
	select {
	case p := <-f.ch:
		t.Fatalf("unexpected publish to %s: %s", p.topic, p.payload)
	case <-time.After(150 * time.Millisecond):
	}
}

// nopLogger satisfies Logger without output.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// startDevice validates a config through a built-in registry, constructs
// the node and sync instance, and starts it.
func startDevice(t *testing.T, cfg *config.DeviceConfig) (Syncer, *matter.Node, *fakePublisher) {
	t.Helper()

	reg := NewRegistry()
	if err := RegisterBuiltins(reg); err != nil {
		t.Fatalf("RegisterBuiltins() error = %v", err)
	}

	result := reg.ValidateConfig(cfg)
	if !result.Valid {
		t.Fatalf("ValidateConfig() errors = %v", result.Errors)
	}

	desc, ok := reg.Lookup(TypeName(cfg.Type))
	if !ok {
		t.Fatalf("Lookup(%q) failed", cfg.Type)
	}

	endpoint := desc.Endpoint(cfg)
	node := matter.NewNode("test-"+cfg.Name, cfg.Name, desc.Shape(), endpoint.State)

	pub := newFakePublisher()
	syncer, err := reg.CreateDevice(Binding{
		Config:    cfg,
		Node:      node,
		Publisher: pub,
		Logger:    nopLogger{},
		Topics:    endpoint.Topics,
	})
	if err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	if err := syncer.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(syncer.Stop)

	return syncer, node, pub
}

// Every type's subscription list is the one its descriptor derives; no
// instance keeps a second copy that could drift.
func TestSyncerTopicsComeFromEndpoint(t *testing.T) {
	reg := NewRegistry()
	if err := RegisterBuiltins(reg); err != nil {
		t.Fatalf("RegisterBuiltins() error = %v", err)
	}

	configs := []*config.DeviceConfig{
		plugConfig(), dimmableConfig(), colorConfig(), switchConfig(), tvConfig(),
	}
	for _, cfg := range configs {
		t.Run(cfg.Type, func(t *testing.T) {
			syncer, _, _ := startDevice(t, cfg)

			desc, ok := reg.Lookup(TypeName(cfg.Type))
			if !ok {
				t.Fatalf("Lookup(%q) failed", cfg.Type)
			}
			want := desc.Endpoint(cfg).Topics
			got := syncer.Topics()
			if len(got) != len(want) {
				t.Fatalf("Topics() = %v, want endpoint list %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("Topics()[%d] = %q, want %q", i, got[i], want[i])
				}
			}
		})
	}
}

// newTestNodeFor builds a node from a descriptor's shape and endpoint state.
func newTestNodeFor(cfg *config.DeviceConfig, desc *Descriptor, endpoint EndpointConfig) *matter.Node {
	return matter.NewNode("test-"+cfg.Name, cfg.Name, desc.Shape(), endpoint.State)
}

func TestDebouncerBurstFiresOnce(t *testing.T) {
	d := newDebouncer(10 * time.Millisecond)
	fired := make(chan struct{}, 8)
	for i := 0; i < 5; i++ {
		d.schedule(func() { fired <- struct{}{} })
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for debounced call")
	}
	select {
	case <-fired:
		t.Fatal("burst fired more than once")
	case <-time.After(100 * time.Millisecond):
	}
}

// A timer that has already begun firing is beyond Stop's reach. Forcing
// the superseded timer to run models that boundary: its callback must
// notice it lost the window and do nothing.
func TestDebouncerSupersededFireIsDropped(t *testing.T) {
	d := newDebouncer(time.Hour)

	stale := make(chan struct{}, 1)
	d.schedule(func() { stale <- struct{}{} })
	first := d.timer

	d.schedule(func() {})
	first.Reset(0)

	select {
	case <-stale:
		t.Fatal("superseded callback ran after reschedule")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerStopDropsLateFire(t *testing.T) {
	d := newDebouncer(time.Hour)

	fired := make(chan struct{}, 1)
	d.schedule(func() { fired <- struct{}{} })
	tm := d.timer

	d.stop()
	tm.Reset(0)

	select {
	case <-fired:
		t.Fatal("callback ran after stop")
	case <-time.After(100 * time.Millisecond):
	}
}

// mustGet reads an attribute that must exist.
func mustGet(t *testing.T, n *matter.Node, cluster, attr string) any {
	t.Helper()
	v, ok := n.Get(cluster, attr)
	if !ok {
		t.Fatalf("attribute %s/%s not found", cluster, attr)
	}
	return v
}
