// Package revenue computes trainer payouts and the gym's share of revenue.
// Everything here is a pure function of its arguments.
package revenue

import "time"

// CompensationType names the formula a trainer is paid under.
type CompensationType string

const (
	CompensationFixed      CompensationType = "fixed"
	CompensationPercentage CompensationType = "percentage"
	CompensationTiered     CompensationType = "tiered"
)

// Tier is one step of a tiered plan: Percentage applies once gross revenue
// reaches RevenueThreshold.
type Tier struct {
	RevenueThreshold float64 `json:"revenueThreshold" yaml:"revenueThreshold" validate:"gte=0"`
	Percentage       float64 `json:"percentage" yaml:"percentage" validate:"gte=0,lte=100"`
}

// DefaultTiers is used by tiered plans that do not define their own steps.
var DefaultTiers = []Tier{
	{RevenueThreshold: 0, Percentage: 40},
	{RevenueThreshold: 500000, Percentage: 45},
	{RevenueThreshold: 1000000, Percentage: 50},
	{RevenueThreshold: 2000000, Percentage: 55},
}

// Sessions counts a trainer's sessions in a period.
type Sessions struct {
	Total     int `json:"total" validate:"gte=0"`
	Completed int `json:"completed" validate:"gte=0"`
	Canceled  int `json:"canceled" validate:"gte=0"`
}

// Period bounds a reporting window.
type Period struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentProcessed PaymentStatus = "processed"
	PaymentPaid      PaymentStatus = "paid"
)

type BonusType string

const (
	BonusPerformance BonusType = "performance"
	BonusReferral    BonusType = "referral"
	BonusRetention   BonusType = "retention"
	BonusOther       BonusType = "other"
)

// Bonus is an extra amount recorded next to a calculated payout.
type Bonus struct {
	Type   BonusType `json:"type" validate:"required,oneof=performance referral retention other"`
	Amount float64   `json:"amount" validate:"gte=0"`
	Reason string    `json:"reason"`
}

// CalculationDetails explains how a compensation amount was reached.
type CalculationDetails struct {
	Type        CompensationType `json:"type"`
	AppliedRate *float64         `json:"appliedRate,omitempty"`
	AppliedTier *Tier            `json:"appliedTier,omitempty"`
	Bonuses     []Bonus          `json:"bonuses"`
}

// TrainerDistribution is one trainer's share for a period.
type TrainerDistribution struct {
	TrainerID   string `json:"trainerId"`
	TrainerName string `json:"trainerName"`

	TotalSessions     int `json:"totalSessions"`
	CompletedSessions int `json:"completedSessions"`
	CanceledSessions  int `json:"canceledSessions"`

	GrossRevenue           float64 `json:"grossRevenue"`
	Compensation           float64 `json:"compensation"`
	CompensationPercentage float64 `json:"compensationPercentage"`

	CalculationDetails CalculationDetails `json:"calculationDetails"`

	PaymentStatus PaymentStatus `json:"paymentStatus"`
	PaymentDate   *time.Time    `json:"paymentDate,omitempty"`
}

// Expenses are the gym's own costs for a period. Total is derived.
type Expenses struct {
	Rent        float64 `json:"rent,omitempty" validate:"gte=0"`
	Utilities   float64 `json:"utilities,omitempty" validate:"gte=0"`
	Maintenance float64 `json:"maintenance,omitempty" validate:"gte=0"`
	Other       float64 `json:"other,omitempty" validate:"gte=0"`
	Total       float64 `json:"total"`
}

// RevenueDistribution aggregates every trainer's share for a period.
type RevenueDistribution struct {
	Period               Period                `json:"period"`
	TotalRevenue         float64               `json:"totalRevenue"`
	TrainerDistributions []TrainerDistribution `json:"trainerDistributions"`
	GymRevenue           float64               `json:"gymRevenue"`
	GymPercentage        float64               `json:"gymPercentage"`
	Expenses             *Expenses             `json:"expenses,omitempty"`
	NetProfit            *float64              `json:"netProfit,omitempty"`
}

var typeLabels = map[CompensationType]string{
	CompensationFixed:      "固定報酬",
	CompensationPercentage: "パーセンテージ報酬",
	CompensationTiered:     "段階的報酬",
}

var typeDescriptions = map[CompensationType]string{
	CompensationFixed:      "セッション数に関わらず固定額を支払う",
	CompensationPercentage: "売上の一定パーセンテージを支払う",
	CompensationTiered:     "売上に応じて報酬率が変動する（インセンティブ制）",
}

// Label is the dashboard caption for the type.
func (t CompensationType) Label() string { return typeLabels[t] }

// Description is the dashboard help text for the type.
func (t CompensationType) Description() string { return typeDescriptions[t] }
