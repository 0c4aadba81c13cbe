package models

import "time"

// Plan durations as sold on the intake page. Unknown plan codes fall back to
// the quick-chat duration rather than failing the sweep.
var planDurations = map[string]time.Duration{
	"free":       15 * time.Minute,
	"trial":      15 * time.Minute,
	"chat10":     30 * time.Minute,
	"video15":    45 * time.Minute,
	"diagnostic": 60 * time.Minute,
}

const defaultPlanDuration = 30 * time.Minute

// PlanDuration returns the nominal running time for a plan code.
func PlanDuration(plan string) time.Duration {
	if d, ok := planDurations[plan]; ok {
		return d
	}
	return defaultPlanDuration
}
