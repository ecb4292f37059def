package device

import (
	"testing"

	"github.com/nm47/ih8homeassistant/internal/infrastructure/config"
	"github.com/nm47/ih8homeassistant/internal/matter"
)

func tvConfig() *config.DeviceConfig {
	return &config.DeviceConfig{
		Type: string(TypeTelevision),
		Name: "tv-lounge",
		Topics: map[string]string{
			TopicGetOnline: "tele/tv-lounge/LWT",
			TopicGetState:  "tele/tv-lounge/STATE",
			TopicSetPower:  "cmnd/tv-lounge/POWER",
		},
	}
}

func TestTVStateExtraction(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    bool
	}{
		{"power on", `{"POWER":"ON"}`, true},
		{"power off with extra fields", `{"POWER":"OFF","INPUT":"HDMI3"}`, false},
		{"extra fields before power", `{"Time":"2026-08-30T10:00:00","POWER":"ON","Wifi":{"RSSI":70}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer, node, _ := startDevice(t, tvConfig())

			if !syncer.HandleMessage("tele/tv-lounge/STATE", []byte(tt.payload)) {
				t.Fatal("HandleMessage() did not claim the state topic")
			}
			if v := mustGet(t, node, matter.ClusterOnOff, matter.AttrOnOff); v != tt.want {
				t.Errorf("onOff = %v after %s, want %v", v, tt.payload, tt.want)
			}
		})
	}
}

func TestTVMalformedStateLeavesOnOffUnchanged(t *testing.T) {
	syncer, node, _ := startDevice(t, tvConfig())

	// Establish a known state first
	syncer.HandleMessage("tele/tv-lounge/STATE", []byte(`{"POWER":"ON"}`))
	if v := mustGet(t, node, matter.ClusterOnOff, matter.AttrOnOff); v != true {
		t.Fatal("precondition: onOff should be true")
	}

	for _, payload := range []string{"not-json", `{"POWER":`, `{"POWER":"STANDBY"}`, `{}`} {
		syncer.HandleMessage("tele/tv-lounge/STATE", []byte(payload))
		if v := mustGet(t, node, matter.ClusterOnOff, matter.AttrOnOff); v != true {
			t.Errorf("onOff changed to %v after %q, want unchanged true", v, payload)
		}
	}
}

func TestTVGraphChangePublishesPower(t *testing.T) {
	_, node, pub := startDevice(t, tvConfig())

	if err := node.Set(matter.State{matter.ClusterOnOff: {matter.AttrOnOff: true}}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	p := expectPublish(t, pub)
	if p.topic != "cmnd/tv-lounge/POWER" || p.payload != "ON" {
		t.Errorf("publish = %+v, want ON to cmnd/tv-lounge/POWER", p)
	}
}

func TestTVAvailability(t *testing.T) {
	syncer, node, _ := startDevice(t, tvConfig())

	syncer.HandleMessage("tele/tv-lounge/LWT", []byte("Online"))
	if v := mustGet(t, node, matter.ClusterBasicInformation, matter.AttrReachable); v != true {
		t.Error("availability payload not applied")
	}
}
