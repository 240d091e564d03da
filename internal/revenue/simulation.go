package revenue

import (
	"iter"

	"github.com/gymmatch/manager-api/internal/utils"
)

// RevenueRange is an inclusive revenue sweep.
type RevenueRange struct {
	Min  float64 `json:"min" validate:"gte=0"`
	Max  float64 `json:"max" validate:"gtefield=Min"`
	Step float64 `json:"step" validate:"gt=0"`
}

// SimulationPoint is one sample of a simulated plan.
type SimulationPoint struct {
	Revenue      float64 `json:"revenue"`
	Compensation float64 `json:"compensation"`
	Percentage   float64 `json:"percentage"`
}

// previewSessions is the session count assumed by previews and plan
// comparisons. Fixed plans therefore show the pay of a single session.
var previewSessions = Sessions{Total: 1, Completed: 1, Canceled: 0}

// SimulateCompensation yields the policy's compensation at every step from
// Min to Max inclusive. The sequence can be ranged over any number of
// times. A non-positive step yields nothing.
func SimulateCompensation(r RevenueRange, policy Policy) iter.Seq[SimulationPoint] {
	return func(yield func(SimulationPoint) bool) {
		if r.Step <= 0 {
			return
		}
		for i := 0; ; i++ {
			revenue := r.Min + float64(i)*r.Step
			if revenue > r.Max {
				return
			}
			comp := CalculateTrainerCompensation(revenue, policy, previewSessions)
			point := SimulationPoint{
				Revenue:      revenue,
				Compensation: comp,
				Percentage:   utils.PercentOf(comp, revenue),
			}
			if !yield(point) {
				return
			}
		}
	}
}

// Plan is a named policy under comparison.
type Plan struct {
	Name   string `json:"name"`
	Policy Policy `json:"-"`
}

// PlanComparison is the outcome of one plan. Difference is measured against
// the first plan of the comparison.
type PlanComparison struct {
	Name         string  `json:"name"`
	Compensation float64 `json:"compensation"`
	Percentage   float64 `json:"percentage"`
	Difference   float64 `json:"difference"`
}

// CompareCompensationPlans evaluates every plan at grossRevenue and returns
// the results in input order.
func CompareCompensationPlans(grossRevenue float64, plans []Plan) []PlanComparison {
	results := make([]PlanComparison, len(plans))
	for i, plan := range plans {
		comp := CalculateTrainerCompensation(grossRevenue, plan.Policy, previewSessions)
		results[i] = PlanComparison{
			Name:         plan.Name,
			Compensation: comp,
			Percentage:   utils.PercentOf(comp, grossRevenue),
		}
	}
	if len(results) > 0 {
		base := results[0].Compensation
		for i := range results {
			results[i].Difference = results[i].Compensation - base
		}
	}
	return results
}
