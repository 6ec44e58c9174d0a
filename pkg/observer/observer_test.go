package observer

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/devicelab-dev/uipilot/pkg/core"
	"github.com/devicelab-dev/uipilot/pkg/driver/mock"
)

const snapshotDump = `<hierarchy>
  <android.widget.Button text="Login" bounds="[45,700][345,760]" clickable="true" displayed="true"/>
  <android.widget.TextView text="Welcome" bounds="[45,100][345,140]" clickable="false" displayed="true"/>
  <android.widget.Button text="Help" bounds="[10,10][60,60]" clickable="true" displayed="true"/>
</hierarchy>`

func TestObserver_SnapshotNone(t *testing.T) {
	device := mock.New()
	device.Sources = []string{snapshotDump}

	state, err := New(device).Snapshot(core.CaptureNone, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(state.Elements) != 3 {
		t.Errorf("got %d elements, want 3", len(state.Elements))
	}
	if state.ScreenshotBase64 != "" {
		t.Error("capture none should not carry a screenshot")
	}
	if state.Activity != "com.example/.MainActivity" {
		t.Errorf("got activity %q", state.Activity)
	}
	if state.XMLSource != snapshotDump {
		t.Error("raw source should be retained")
	}
	if state.Mode != core.CaptureNone {
		t.Errorf("got mode %q", state.Mode)
	}
	if state.Device.Platform != "android" {
		t.Errorf("got platform %q", state.Device.Platform)
	}
}

func TestObserver_SnapshotScreenshot(t *testing.T) {
	device := mock.New()
	device.Sources = []string{snapshotDump}

	state, err := New(device).Snapshot(core.CaptureScreenshot, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if state.ScreenshotBase64 == "" {
		t.Fatal("screenshot missing")
	}
	if _, err := base64.StdEncoding.DecodeString(state.ScreenshotBase64); err != nil {
		t.Errorf("screenshot is not valid base64: %v", err)
	}
	if state.TagMapping != nil || state.GridMap != nil {
		t.Error("plain screenshot should carry no overlay maps")
	}
}

func TestObserver_SnapshotTagged(t *testing.T) {
	device := mock.New()
	device.Sources = []string{snapshotDump}

	state, err := New(device).Snapshot(core.CaptureTagged, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(state.TagMapping) != 2 {
		t.Fatalf("got %d tags, want 2 (targetable elements only)", len(state.TagMapping))
	}
	if state.TagMapping[1].Text != "Login" {
		t.Errorf("tag 1: got %q, want Login (traversal order)", state.TagMapping[1].Text)
	}
	if state.TagMapping[2].Text != "Help" {
		t.Errorf("tag 2: got %q, want Help", state.TagMapping[2].Text)
	}
	if state.ScreenshotBase64 == "" {
		t.Error("tagged snapshot should carry the overlaid screenshot")
	}
}

func TestObserver_SnapshotGrid(t *testing.T) {
	device := mock.New()
	device.Sources = []string{snapshotDump}

	state, err := New(device).Snapshot(core.CaptureGrid, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(state.GridMap) != 100 {
		t.Fatalf("got %d cells, want 100", len(state.GridMap))
	}
	if _, ok := state.GridMap["A1"]; !ok {
		t.Error("grid map missing cell A1")
	}
	if _, ok := state.GridMap["J10"]; !ok {
		t.Error("grid map missing cell J10")
	}
}

func TestObserver_SourceErrorPropagates(t *testing.T) {
	device := mock.New()
	device.SourceErr = fmt.Errorf("socket closed")

	if _, err := New(device).Snapshot(core.CaptureNone, 0); err == nil {
		t.Fatal("want error when page source fails")
	}
}

func TestObserver_ActivityFallback(t *testing.T) {
	device := mock.New()
	device.Activity = ""

	state, err := New(device).Snapshot(core.CaptureNone, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Activity != "Unknown" {
		t.Errorf("got activity %q, want Unknown", state.Activity)
	}
}
