package revenue

import "github.com/gymmatch/manager-api/internal/utils"

// CalculateRevenueDistribution sums already computed trainer distributions
// into the gym's view of the period. Nothing is filtered out, so a gym
// revenue below zero is reported as is. Expenses, when given, are totalled
// and subtracted to produce the net profit.
func CalculateRevenueDistribution(period Period, distributions []TrainerDistribution, expenses *Expenses) RevenueDistribution {
	var totalRevenue, totalCompensation float64
	for _, d := range distributions {
		totalRevenue += d.GrossRevenue
		totalCompensation += d.Compensation
	}
	gymRevenue := totalRevenue - totalCompensation

	result := RevenueDistribution{
		Period:               period,
		TotalRevenue:         totalRevenue,
		TrainerDistributions: distributions,
		GymRevenue:           gymRevenue,
		GymPercentage:        utils.PercentOf(gymRevenue, totalRevenue),
	}

	if expenses != nil {
		itemized := *expenses
		itemized.Total = itemized.Rent + itemized.Utilities + itemized.Maintenance + itemized.Other
		netProfit := gymRevenue - itemized.Total
		result.Expenses = &itemized
		result.NetProfit = &netProfit
	}
	return result
}

// TotalCompensation sums the payouts of a distribution.
func (r RevenueDistribution) TotalCompensation() float64 {
	return r.TotalRevenue - r.GymRevenue
}
