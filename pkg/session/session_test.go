package session

import (
	"testing"

	"github.com/devicelab-dev/uipilot/pkg/core"
)

func TestNewSession(t *testing.T) {
	s := newSession(core.DeviceInfo{Platform: "android"})

	if s.ID == "" {
		t.Error("session id missing")
	}
	if s.Status != StatusActive {
		t.Errorf("got status %q, want active", s.Status)
	}
	if s.Steps == nil || s.Verifications == nil {
		t.Error("step and verification slices should be initialized")
	}
	if s.StartTime.IsZero() {
		t.Error("start time missing")
	}
}

func TestSession_Seal(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		wantSuccess bool
	}{
		{"success", StatusSuccess, true},
		{"failure", StatusFailure, false},
		{"aborted", StatusAborted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(core.DeviceInfo{})
			s.seal(tt.status)

			if s.Status != tt.status {
				t.Errorf("got status %q, want %q", s.Status, tt.status)
			}
			if s.Success != tt.wantSuccess {
				t.Errorf("got success=%v, want %v", s.Success, tt.wantSuccess)
			}
			if s.EndTime.IsZero() {
				t.Error("end time missing")
			}
			if s.DurationMs < 0 {
				t.Errorf("got duration %d, want non-negative", s.DurationMs)
			}
		})
	}
}

func TestSession_History(t *testing.T) {
	s := newSession(core.DeviceInfo{})
	s.Steps = append(s.Steps,
		ActionStep{ActionType: core.ActionClick, Reasoning: "tapped the Accept button"},
		ActionStep{ActionType: core.ActionTypeText},
	)

	got := s.history()
	want := []string{"click-tapped the Accept button", "type_text"}
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSession_HistoryEmpty(t *testing.T) {
	s := newSession(core.DeviceInfo{})
	if got := s.history(); len(got) != 0 {
		t.Errorf("got %v, want empty history", got)
	}
}
