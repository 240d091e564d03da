package revenue

import (
	"slices"

	"github.com/gymmatch/manager-api/internal/utils"
)

// CalculateTrainerCompensation evaluates the policy's formula. A policy
// without a recognised scheme pays 0. The minimum guarantee is not applied
// here; see ApplyMinimumGuarantee.
func CalculateTrainerCompensation(grossRevenue float64, policy Policy, sessions Sessions) float64 {
	if policy.Scheme == nil {
		return 0
	}
	return policy.Scheme.compute(grossRevenue, sessions)
}

// ApplyMinimumGuarantee raises amount to the guarantee when one is set.
func ApplyMinimumGuarantee(amount float64, minimumGuarantee *float64) float64 {
	if minimumGuarantee == nil || *minimumGuarantee == 0 {
		return amount
	}
	return max(amount, *minimumGuarantee)
}

// ApplicableTier returns the tier with the highest threshold not above
// revenue. The input slice is left untouched.
func ApplicableTier(revenue float64, tiers []Tier) (Tier, bool) {
	sorted := slices.Clone(tiers)
	slices.SortStableFunc(sorted, func(a, b Tier) int {
		switch {
		case a.RevenueThreshold > b.RevenueThreshold:
			return -1
		case a.RevenueThreshold < b.RevenueThreshold:
			return 1
		default:
			return 0
		}
	})
	for _, tier := range sorted {
		if revenue >= tier.RevenueThreshold {
			return tier, true
		}
	}
	return Tier{}, false
}

func percentage(amount, rate float64) float64 {
	return utils.Round(amount * (rate / 100))
}

// CalculateTrainerDistribution builds the full breakdown for one trainer.
// The distribution starts out pending payment.
func CalculateTrainerDistribution(
	trainerID string,
	trainerName string,
	grossRevenue float64,
	sessions Sessions,
	policy Policy,
) TrainerDistribution {
	amount := CalculateTrainerCompensation(grossRevenue, policy, sessions)

	return TrainerDistribution{
		TrainerID:              trainerID,
		TrainerName:            trainerName,
		TotalSessions:          sessions.Total,
		CompletedSessions:      sessions.Completed,
		CanceledSessions:       sessions.Canceled,
		GrossRevenue:           grossRevenue,
		Compensation:           amount,
		CompensationPercentage: utils.PercentOf(amount, grossRevenue),
		CalculationDetails:     detailsFor(grossRevenue, policy),
		PaymentStatus:          PaymentPending,
	}
}

func detailsFor(grossRevenue float64, policy Policy) CalculationDetails {
	details := CalculationDetails{
		Type:    policy.Type(),
		Bonuses: []Bonus{},
	}
	switch s := policy.Scheme.(type) {
	case Percentage:
		rate := s.Rate
		details.AppliedRate = &rate
	case Tiered:
		if tier, ok := ApplicableTier(grossRevenue, s.EffectiveTiers()); ok {
			rate := tier.Percentage
			details.AppliedRate = &rate
			details.AppliedTier = &tier
		}
	}
	return details
}

// WithMinimumGuarantee returns d with the guarantee applied to its
// compensation and the percentage recomputed.
func WithMinimumGuarantee(d TrainerDistribution, minimumGuarantee *float64) TrainerDistribution {
	guaranteed := ApplyMinimumGuarantee(d.Compensation, minimumGuarantee)
	if guaranteed == d.Compensation {
		return d
	}
	d.Compensation = guaranteed
	d.CompensationPercentage = utils.PercentOf(guaranteed, d.GrossRevenue)
	return d
}
