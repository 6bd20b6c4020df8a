package smart

import (
	"time"

	"github.com/loremcross/cashcontrol/pkg/catalog"
)

// Calibrate applies the calibration formula from spec.md §4.6 to the
// previous and current command's stored metrics, given the deltas observed
// while running the current command. It returns the updated metrics for
// both names (prev may be empty if there was no previous command yet).
// waitingCommand reports whether the current command is excluded from
// positive-delta calibration (catalog.WaitingCommands membership).
func Calibrate(prev, current string, prevMetric, currentMetric CommandMetric, deltaForLastCommand, delta time.Duration, waitingCommand bool) (updatedPrev CommandMetric, updatedCurrent CommandMetric) {
	updatedPrev = prevMetric
	updatedCurrent = currentMetric

	if prev != "" && deltaForLastCommand > 0 {
		abs := deltaForLastCommand
		if abs < 0 {
			abs = -abs
		}
		updatedPrev.Timeout += abs
		updatedPrev.NeedsCalibration = false
	}

	if delta < 0 {
		abs := -delta
		updatedCurrent.Timeout -= abs
		if updatedCurrent.Timeout < 0 {
			updatedCurrent.Timeout = catalog.TimeDeltaStep
		}
		updatedCurrent.NeedsCalibration = false
	} else if delta > 0 && !waitingCommand {
		updatedCurrent.Timeout += delta
		updatedCurrent.NeedsCalibration = false
	}

	return updatedPrev, updatedCurrent
}
