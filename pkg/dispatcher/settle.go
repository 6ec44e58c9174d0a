package dispatcher

import (
	"regexp"
	"time"

	"github.com/devicelab-dev/uipilot/pkg/core"
	"github.com/devicelab-dev/uipilot/pkg/logger"
)

// Settle wait defaults.
const (
	DefaultSettleTimeoutMs = 1200
	DefaultSettlePollMs    = 150
)

// Attributes that churn between otherwise identical dumps. UIAutomator2
// renumbers instance ids on every dump and some widgets embed clocks.
var volatileAttrs = regexp.MustCompile(`\s+(?:instance|timestamp)="[^"]*"`)

func normalizeSource(source string) string {
	return volatileAttrs.ReplaceAllString(source, "")
}

// WaitForSettle polls the page source until two consecutive normalized
// samples are identical or the timebox elapses. Read errors skip the
// sample. Returns true when the UI settled within the budget.
func WaitForSettle(device core.DeviceSession, timeoutMs, pollMs int) bool {
	if timeoutMs <= 0 {
		timeoutMs = DefaultSettleTimeoutMs
	}
	if pollMs <= 0 {
		pollMs = DefaultSettlePollMs
	}

	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	interval := time.Duration(pollMs) * time.Millisecond

	var previous string
	havePrevious := false
	for {
		source, err := device.PageSource()
		if err != nil {
			logger.Debug("settle sample skipped: %v", err)
		} else {
			sample := normalizeSource(source)
			if havePrevious && sample == previous {
				return true
			}
			previous = sample
			havePrevious = true
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		if remaining < interval {
			time.Sleep(remaining)
		} else {
			time.Sleep(interval)
		}
	}
}
