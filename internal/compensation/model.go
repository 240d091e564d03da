package compensation

import (
	"cmp"
	"slices"
	"time"

	"gorm.io/gorm"

	"github.com/gymmatch/manager-api/internal/revenue"
)

// CompensationPolicy is the stored form of a trainer's compensation
// agreement. Only the amount fields matching Type are meaningful.
type CompensationPolicy struct {
	ID               uint                     `gorm:"primaryKey" json:"id"`
	TrainerID        string                   `gorm:"size:64;not null;index" json:"trainerId"`
	TrainerName      string                   `gorm:"size:120" json:"trainerName"`
	Type             revenue.CompensationType `gorm:"size:20;not null" json:"type"`
	FixedAmount      *float64                 `json:"fixedAmount,omitempty"`
	Percentage       *float64                 `json:"percentage,omitempty"`
	MinimumGuarantee *float64                 `json:"minimumGuarantee,omitempty"`
	EffectiveFrom    time.Time                `gorm:"not null;index" json:"effectiveFrom"`
	EffectiveTo      *time.Time               `gorm:"index" json:"effectiveTo,omitempty"`

	Tiers []CompensationTier `gorm:"foreignKey:PolicyID;constraint:OnDelete:CASCADE" json:"tiers,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CompensationTier is one row of a tiered policy's table.
type CompensationTier struct {
	ID               uint    `gorm:"primaryKey" json:"-"`
	PolicyID         uint    `gorm:"not null;index" json:"-"`
	Position         int     `gorm:"not null" json:"-"`
	RevenueThreshold float64 `gorm:"not null" json:"revenueThreshold"`
	Percentage       float64 `gorm:"not null" json:"percentage"`
}

// Migrate creates the policy and tier tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&CompensationPolicy{}, &CompensationTier{})
}

// FromRecord builds a storable policy from its wire form.
func FromRecord(rec revenue.PolicyRecord) CompensationPolicy {
	p := CompensationPolicy{
		TrainerID:        rec.TrainerID,
		TrainerName:      rec.TrainerName,
		Type:             rec.Type,
		MinimumGuarantee: rec.MinimumGuarantee,
		EffectiveFrom:    rec.EffectiveFrom,
		EffectiveTo:      rec.EffectiveTo,
	}
	switch rec.Type {
	case revenue.CompensationFixed:
		p.FixedAmount = rec.FixedAmount
	case revenue.CompensationPercentage:
		p.Percentage = rec.Percentage
	case revenue.CompensationTiered:
		for i, t := range rec.Tiers {
			p.Tiers = append(p.Tiers, CompensationTier{
				Position:         i,
				RevenueThreshold: t.RevenueThreshold,
				Percentage:       t.Percentage,
			})
		}
	}
	return p
}

// Record returns the wire form of the stored policy.
func (p CompensationPolicy) Record() revenue.PolicyRecord {
	rec := revenue.PolicyRecord{
		TrainerID:        p.TrainerID,
		TrainerName:      p.TrainerName,
		Type:             p.Type,
		FixedAmount:      p.FixedAmount,
		Percentage:       p.Percentage,
		MinimumGuarantee: p.MinimumGuarantee,
		EffectiveFrom:    p.EffectiveFrom,
		EffectiveTo:      p.EffectiveTo,
	}
	for _, t := range p.orderedTiers() {
		rec.Tiers = append(rec.Tiers, revenue.Tier{RevenueThreshold: t.RevenueThreshold, Percentage: t.Percentage})
	}
	return rec
}

// ToPolicy converts the row into an engine policy. A tiered policy without
// tier rows uses defaultTiers when given, else the engine's own default
// table.
func (p CompensationPolicy) ToPolicy(defaultTiers []revenue.Tier) revenue.Policy {
	rec := p.Record()
	if rec.Type == revenue.CompensationTiered && len(rec.Tiers) == 0 && len(defaultTiers) > 0 {
		rec.Tiers = defaultTiers
	}
	return rec.ToPolicy()
}

func (p CompensationPolicy) orderedTiers() []CompensationTier {
	tiers := slices.Clone(p.Tiers)
	slices.SortStableFunc(tiers, func(a, b CompensationTier) int { return cmp.Compare(a.Position, b.Position) })
	return tiers
}
