// Package session owns the lifecycle of one automation session: the
// append-only step and verification history, and its persistence.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/uipilot/pkg/core"
)

// Session statuses.
const (
	StatusActive  = "active"
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusAborted = "aborted"
)

// Session is the record of one device automation run.
type Session struct {
	ID         string    `json:"id"`
	Device     core.DeviceInfo `json:"device"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime,omitempty"`
	DurationMs int64     `json:"durationMs,omitempty"`
	Status     string    `json:"status"`
	Success    bool      `json:"success"`

	Steps         []ActionStep        `json:"steps"`
	Verifications []VerificationPoint `json:"verifications"`
}

// ActionStep records one execute call, successful or not.
type ActionStep struct {
	Index       int                 `json:"index"`
	Instruction string              `json:"instruction"`
	ActionType  core.ActionType     `json:"actionType"`
	ElementID   string              `json:"elementId,omitempty"`
	Coordinates *core.LogicalPoint  `json:"coordinates,omitempty"`
	Method      core.DecisionMethod `json:"method,omitempty"`
	Reasoning   string              `json:"reasoning,omitempty"`
	Confidence  *float64            `json:"confidence,omitempty"`
	Success     bool                `json:"success"`
	Error       string              `json:"error,omitempty"`
	Timestamp   time.Time           `json:"timestamp"`
}

// VerificationPoint records one assert call.
type VerificationPoint struct {
	Condition string                   `json:"condition"`
	Status    core.VerificationStatus  `json:"status"`
	Result    *core.VerificationResult `json:"result,omitempty"`
	Error     string                   `json:"error,omitempty"`
	Timestamp time.Time                `json:"timestamp"`
}

func newSession(device core.DeviceInfo) *Session {
	return &Session{
		ID:            uuid.NewString(),
		Device:        device,
		StartTime:     time.Now(),
		Status:        StatusActive,
		Steps:         []ActionStep{},
		Verifications: []VerificationPoint{},
	}
}

// seal closes the session with the caller-supplied status.
func (s *Session) seal(status string) {
	s.EndTime = time.Now()
	s.DurationMs = s.EndTime.Sub(s.StartTime).Milliseconds()
	s.Status = status
	s.Success = status == StatusSuccess
}

// history renders prior steps as short "action-reasoning" lines for
// prompt context.
func (s *Session) history() []string {
	var out []string
	for _, step := range s.Steps {
		line := string(step.ActionType)
		if step.Reasoning != "" {
			line += "-" + step.Reasoning
		}
		out = append(out, line)
	}
	return out
}
