package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/devicelab-dev/uipilot/pkg/config"
	"github.com/devicelab-dev/uipilot/pkg/core"
	"github.com/devicelab-dev/uipilot/pkg/driver/mock"
)

const controllerDump = `<hierarchy>
  <android.widget.Button text="Login" bounds="[45,700][345,760]" clickable="true" displayed="true"/>
</hierarchy>`

// scriptedProvider replays canned responses for text and vision queries.
type scriptedProvider struct {
	text      []string
	vision    []string
	textCalls int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Query(ctx context.Context, prompt, system string) (string, error) {
	i := p.textCalls
	p.textCalls++
	if i >= len(p.text) {
		i = len(p.text) - 1
	}
	return p.text[i], nil
}

func (p *scriptedProvider) QueryWithVision(ctx context.Context, prompt, image, system string) (string, error) {
	if len(p.vision) == 0 {
		return "", errors.New("no vision responses scripted")
	}
	return p.vision[0], nil
}

func newTestController(t *testing.T, provider *scriptedProvider, cfg *config.Config) (*Controller, *mock.Device) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	device := mock.New()
	device.Sources = []string{controllerDump}

	controller, err := NewController(device, provider, cfg)
	if err != nil {
		t.Fatalf("failed to build controller: %v", err)
	}
	return controller, device
}

func TestController_StartSession(t *testing.T) {
	controller, _ := newTestController(t, &scriptedProvider{text: []string{"{}"}}, nil)

	sess, err := controller.StartSession()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.ID == "" || sess.Status != StatusActive {
		t.Errorf("got %+v, want active session with id", sess)
	}
	if sess.Device.Platform != "android" {
		t.Errorf("got platform %q", sess.Device.Platform)
	}

	if _, err := controller.StartSession(); !errors.Is(err, core.ErrSessionActive) {
		t.Fatalf("got %v, want ErrSessionActive on double start", err)
	}
}

func TestController_GuardsWithoutSession(t *testing.T) {
	controller, _ := newTestController(t, &scriptedProvider{text: []string{"{}"}}, nil)
	ctx := context.Background()

	if _, err := controller.Execute(ctx, "tap it"); !errors.Is(err, core.ErrNoSession) {
		t.Errorf("Execute: got %v, want ErrNoSession", err)
	}
	if _, err := controller.StopSession(StatusSuccess); !errors.Is(err, core.ErrNoSession) {
		t.Errorf("StopSession: got %v, want ErrNoSession", err)
	}
	if controller.Assert(ctx, "anything") {
		t.Error("Assert outside a session should report false")
	}
	if _, err := controller.CurrentState(false); !errors.Is(err, core.ErrNoSession) {
		t.Errorf("CurrentState: got %v, want ErrNoSession", err)
	}
}

func TestController_ExecuteAppendsStep(t *testing.T) {
	provider := &scriptedProvider{
		text: []string{`{"action":"click","element_id":"0","reasoning":"login button","confidence":0.9}`},
	}
	controller, device := newTestController(t, provider, nil)

	if _, err := controller.StartSession(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	step, err := controller.Execute(context.Background(), "tap the login button")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !step.Success || step.Index != 0 {
		t.Errorf("got %+v, want successful step 0", step)
	}
	if step.ActionType != core.ActionClick || step.Method != core.MethodHierarchy {
		t.Errorf("got action %q via %q", step.ActionType, step.Method)
	}
	if len(controller.Session().Steps) != 1 {
		t.Fatalf("got %d steps, want exactly 1", len(controller.Session().Steps))
	}

	if len(device.Gestures) == 0 || device.Gestures[0].Kind != "tap" {
		t.Errorf("got gestures %v, want a tap", device.GestureKinds())
	}
	if device.Gestures[0].X != 195 || device.Gestures[0].Y != 730 {
		t.Errorf("tap at (%d,%d), want element center (195,730)", device.Gestures[0].X, device.Gestures[0].Y)
	}
}

func TestController_ExecuteRecordsDecideFailure(t *testing.T) {
	off := false
	cfg := config.Default()
	cfg.VisionConfig.Enabled = &off

	provider := &scriptedProvider{text: []string{"no json at all"}}
	controller, _ := newTestController(t, provider, cfg)

	if _, err := controller.StartSession(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	step, err := controller.Execute(context.Background(), "tap the missing button")
	if err == nil {
		t.Fatal("want error from failed decide")
	}
	if step == nil || step.Success {
		t.Fatalf("got %+v, want recorded failure step", step)
	}
	if step.ActionType != core.ActionClick {
		t.Errorf("got action %q, want click placeholder when no decision exists", step.ActionType)
	}
	if step.Error == "" {
		t.Error("failure step should carry the error text")
	}
	if len(controller.Session().Steps) != 1 {
		t.Errorf("got %d steps, want exactly one per execute call", len(controller.Session().Steps))
	}
}

func TestController_ExecuteRecordsGestureFailure(t *testing.T) {
	provider := &scriptedProvider{
		text: []string{`{"action":"click","element_id":"0","confidence":0.9}`},
	}
	controller, device := newTestController(t, provider, nil)
	device.GestureErr = errors.New("socket closed")

	if _, err := controller.StartSession(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	step, err := controller.Execute(context.Background(), "tap the login button")
	if !errors.Is(err, core.ErrGesture) {
		t.Fatalf("got %v, want ErrGesture", err)
	}
	if step.Success {
		t.Error("step should record the failure")
	}
	if step.ActionType != core.ActionClick || step.Method != core.MethodHierarchy {
		t.Errorf("failure step should keep the decision fields, got %+v", step)
	}
}

func TestController_Assert(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		wantPassed bool
		wantStatus core.VerificationStatus
	}{
		{
			name:       "passes",
			response:   `{"passed":true,"assertions":["login shown"],"issues":[]}`,
			wantPassed: true,
			wantStatus: core.VerificationPassed,
		},
		{
			name:       "fails",
			response:   `{"passed":false,"assertions":["looked for banner"],"issues":["not found"]}`,
			wantPassed: false,
			wantStatus: core.VerificationFailed,
		},
		{
			name:       "unparseable records error",
			response:   "cannot say",
			wantPassed: false,
			wantStatus: core.VerificationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &scriptedProvider{text: []string{tt.response}}
			controller, _ := newTestController(t, provider, nil)
			if _, err := controller.StartSession(); err != nil {
				t.Fatalf("start failed: %v", err)
			}

			passed := controller.Assert(context.Background(), "the login screen is shown")
			if passed != tt.wantPassed {
				t.Errorf("got passed=%v, want %v", passed, tt.wantPassed)
			}

			points := controller.Session().Verifications
			if len(points) != 1 {
				t.Fatalf("got %d verifications, want 1", len(points))
			}
			if points[0].Status != tt.wantStatus {
				t.Errorf("got status %q, want %q", points[0].Status, tt.wantStatus)
			}
		})
	}
}

func TestController_WaitForCondition(t *testing.T) {
	t.Run("passes without recording", func(t *testing.T) {
		provider := &scriptedProvider{text: []string{`{"passed":true,"assertions":[],"issues":[]}`}}
		controller, _ := newTestController(t, provider, nil)
		if _, err := controller.StartSession(); err != nil {
			t.Fatalf("start failed: %v", err)
		}

		if !controller.WaitForCondition(context.Background(), "screen loaded", 500, 50) {
			t.Error("want true for a passing condition")
		}
		if n := len(controller.Session().Verifications); n != 0 {
			t.Errorf("got %d verifications, want none from polled waits", n)
		}
	})

	t.Run("times out", func(t *testing.T) {
		provider := &scriptedProvider{text: []string{`{"passed":false,"assertions":[],"issues":["still loading"]}`}}
		controller, _ := newTestController(t, provider, nil)
		if _, err := controller.StartSession(); err != nil {
			t.Fatalf("start failed: %v", err)
		}

		if controller.WaitForCondition(context.Background(), "screen loaded", 100, 30) {
			t.Error("want false when the condition never passes")
		}
	})
}

func TestController_StopSession(t *testing.T) {
	provider := &scriptedProvider{
		text: []string{`{"action":"click","element_id":"0","confidence":0.9}`},
	}
	cfg := config.Default()
	cfg.ArtifactsDir = t.TempDir()
	controller, _ := newTestController(t, provider, cfg)

	if _, err := controller.StartSession(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := controller.Execute(context.Background(), "tap the login button"); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	sess, err := controller.StopSession(StatusSuccess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sess.Success || sess.Status != StatusSuccess {
		t.Errorf("got %+v, want sealed success", sess)
	}
	if sess.DurationMs < 0 {
		t.Errorf("got duration %d", sess.DurationMs)
	}

	if _, err := os.Stat(filepath.Join(cfg.ArtifactsDir, "session.json")); err != nil {
		t.Errorf("session record not persisted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.ArtifactsDir, "step_0_before.png")); err != nil {
		t.Errorf("before screenshot not persisted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.ArtifactsDir, "step_0_after.png")); err != nil {
		t.Errorf("after screenshot not persisted: %v", err)
	}

	if _, err := controller.Execute(context.Background(), "tap again"); !errors.Is(err, core.ErrSessionClosed) {
		t.Errorf("got %v, want ErrSessionClosed after stop", err)
	}

	// A sealed session can be replaced by a fresh one.
	if _, err := controller.StartSession(); err != nil {
		t.Errorf("restart after stop failed: %v", err)
	}
}

func TestController_StopSessionDefaultStatus(t *testing.T) {
	controller, _ := newTestController(t, &scriptedProvider{text: []string{"{}"}}, nil)
	if _, err := controller.StartSession(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	sess, err := controller.StopSession("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Status != StatusSuccess || !sess.Success {
		t.Errorf("got %q, want empty status to default to success", sess.Status)
	}
}
