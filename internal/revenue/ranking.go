package revenue

import (
	"cmp"
	"slices"
)

// RankBy selects the metric of a trainer ranking.
type RankBy string

const (
	RankByRevenue      RankBy = "revenue"
	RankBySessions     RankBy = "sessions"
	RankByCompensation RankBy = "compensation"
)

// GenerateTrainerRanking returns a copy of distributions ordered by the
// metric, highest first. Equal entries keep their input order. An empty
// sortBy ranks by revenue; an unknown one leaves the order unchanged.
func GenerateTrainerRanking(distributions []TrainerDistribution, sortBy RankBy) []TrainerDistribution {
	if sortBy == "" {
		sortBy = RankByRevenue
	}
	ranked := slices.Clone(distributions)
	metric := func(d TrainerDistribution) float64 {
		switch sortBy {
		case RankByRevenue:
			return d.GrossRevenue
		case RankBySessions:
			return float64(d.CompletedSessions)
		case RankByCompensation:
			return d.Compensation
		default:
			return 0
		}
	}
	slices.SortStableFunc(ranked, func(a, b TrainerDistribution) int {
		return cmp.Compare(metric(b), metric(a))
	})
	return ranked
}
