package revenue

import "github.com/gymmatch/manager-api/internal/utils"

type TargetStatus string

const (
	TargetExceeded TargetStatus = "exceeded"
	TargetAchieved TargetStatus = "achieved"
	TargetBelow    TargetStatus = "below"
	// TargetUnmeasurable marks a target of zero, where no rate exists.
	TargetUnmeasurable TargetStatus = "unmeasurable"
)

// TargetAchievement compares actual revenue to a target.
type TargetAchievement struct {
	AchievementRate float64      `json:"achievementRate"`
	Difference      float64      `json:"difference"`
	Status          TargetStatus `json:"status"`
}

// Measurable reports whether the target allowed a rate to be computed.
func (a TargetAchievement) Measurable() bool {
	return a.Status != TargetUnmeasurable
}

// CalculateTargetAchievement rates actual against target. Reaching 100% is
// exceeded, 80% achieved, anything less below. A zero target is reported
// as unmeasurable with a rate of 0.
func CalculateTargetAchievement(actual, target float64) TargetAchievement {
	result := TargetAchievement{Difference: actual - target}
	if target == 0 {
		result.Status = TargetUnmeasurable
		return result
	}

	rate := actual / target * 100
	switch {
	case rate >= 100:
		result.Status = TargetExceeded
	case rate >= 80:
		result.Status = TargetAchieved
	default:
		result.Status = TargetBelow
	}
	result.AchievementRate = utils.RoundHalfUp(rate, 1)
	return result
}
