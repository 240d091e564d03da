package report

import "github.com/gymmatch/manager-api/internal/revenue"

// TrainerInput is one trainer's activity for the reporting period.
type TrainerInput struct {
	TrainerID    string           `json:"trainerId" validate:"required"`
	TrainerName  string           `json:"trainerName"`
	GrossRevenue float64          `json:"grossRevenue" validate:"gte=0"`
	Sessions     revenue.Sessions `json:"sessions"`
	Bonuses      []revenue.Bonus  `json:"bonuses,omitempty" validate:"omitempty,dive"`
}

type DistributionRequest struct {
	Period   revenue.Period    `json:"period"`
	Trainers []TrainerInput    `json:"trainers" validate:"dive"`
	Expenses *revenue.Expenses `json:"expenses,omitempty"`
	SortBy   revenue.RankBy    `json:"sortBy,omitempty" validate:"omitempty,oneof=revenue sessions compensation"`
}

type SimulateRequest struct {
	Policy revenue.PolicyRecord `json:"policy" validate:"-"`
	Range  revenue.RevenueRange `json:"range"`
}

type SimulateResponse struct {
	Type   revenue.CompensationType  `json:"type"`
	Points []revenue.SimulationPoint `json:"points"`
}

type PlanInput struct {
	Name   string               `json:"name" validate:"required"`
	Policy revenue.PolicyRecord `json:"policy" validate:"-"`
}

type CompareRequest struct {
	GrossRevenue float64     `json:"grossRevenue" validate:"gte=0"`
	Plans        []PlanInput `json:"plans" validate:"required,min=1,dive"`
}

type TargetRequest struct {
	Actual float64 `json:"actual"`
	Target float64 `json:"target" validate:"gte=0"`
}

// CompensationTypeInfo describes a compensation type for the dashboard.
type CompensationTypeInfo struct {
	Type        revenue.CompensationType `json:"type"`
	Label       string                   `json:"label"`
	Description string                   `json:"description"`
}

type CompensationTypesResponse struct {
	Types        []CompensationTypeInfo `json:"types"`
	DefaultTiers []revenue.Tier         `json:"defaultTiers"`
}
