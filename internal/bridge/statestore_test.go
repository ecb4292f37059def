package bridge

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/nm47/ih8homeassistant/internal/infrastructure/database"
	"github.com/nm47/ih8homeassistant/internal/matter"
)

func newTestStore(t *testing.T) *StateStore {
	t.Helper()
	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "state.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewStateStore(db)
	if err != nil {
		t.Fatalf("NewStateStore: %v", err)
	}
	return store
}

func TestStateStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	state := matter.State{
		matter.ClusterOnOff: {matter.AttrOnOff: true},
		matter.ClusterLevelControl: {matter.AttrCurrentLevel: float64(128)},
	}
	if err := store.Save(ctx, "lamp", state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx, "lamp")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if on, _ := loaded[matter.ClusterOnOff][matter.AttrOnOff].(bool); !on {
		t.Error("onOff not preserved")
	}
	// JSON decoding yields float64 for numbers.
	if level, _ := loaded[matter.ClusterLevelControl][matter.AttrCurrentLevel].(float64); level != 128 {
		t.Errorf("currentLevel = %v, want 128", loaded[matter.ClusterLevelControl][matter.AttrCurrentLevel])
	}
}

func TestStateStoreUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, on := range []bool{false, true} {
		state := matter.State{matter.ClusterOnOff: {matter.AttrOnOff: on}}
		if err := store.Save(ctx, "lamp", state); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	loaded, err := store.Load(ctx, "lamp")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if on, _ := loaded[matter.ClusterOnOff][matter.AttrOnOff].(bool); !on {
		t.Error("second Save should have replaced the first snapshot")
	}
}

func TestStateStoreLoadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(context.Background(), "never-saved")
	if !errors.Is(err, ErrStateNotFound) {
		t.Errorf("Load of unknown device = %v, want ErrStateNotFound", err)
	}
}

func TestStateStorePrune(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"keep", "drop"} {
		state := matter.State{matter.ClusterOnOff: {matter.AttrOnOff: false}}
		if err := store.Save(ctx, name, state); err != nil {
			t.Fatalf("Save %q: %v", name, err)
		}
	}

	if err := store.Prune(ctx, []string{"keep"}); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	if _, err := store.Load(ctx, "keep"); err != nil {
		t.Errorf("kept device lost: %v", err)
	}
	if _, err := store.Load(ctx, "drop"); !errors.Is(err, ErrStateNotFound) {
		t.Errorf("pruned device still present: %v", err)
	}
}

func TestNormaliseNumbers(t *testing.T) {
	state := matter.State{
		matter.ClusterLevelControl: {matter.AttrCurrentLevel: float64(200)},
		matter.ClusterOnOff:        {matter.AttrOnOff: true},
	}

	out := normaliseNumbers(state)
	if v, ok := out[matter.ClusterLevelControl][matter.AttrCurrentLevel].(int); !ok || v != 200 {
		t.Errorf("whole float should become int, got %T %v",
			out[matter.ClusterLevelControl][matter.AttrCurrentLevel],
			out[matter.ClusterLevelControl][matter.AttrCurrentLevel])
	}
	if v, ok := out[matter.ClusterOnOff][matter.AttrOnOff].(bool); !ok || !v {
		t.Error("bools must pass through unchanged")
	}
}

func TestBridgeRestoresPersistedState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved := matter.State{
		matter.ClusterOnOff: {matter.AttrOnOff: true},
		matter.ClusterBasicInformation: {matter.AttrReachable: true},
	}
	if err := store.Save(ctx, "lamp", saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	client := newFakeMQTT()
	b, err := New(Options{
		Config: testConfig(plugDevice("lamp")),
		MQTT:   client,
		Store:  store,
		Logger: nopLogger{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	status, _ := b.Device("lamp")
	if on, _ := status.State[matter.ClusterOnOff][matter.AttrOnOff].(bool); !on {
		t.Error("onOff should be restored from persistence")
	}
	if status.Reachable {
		t.Error("reachability must never be restored; devices re-announce")
	}
}
