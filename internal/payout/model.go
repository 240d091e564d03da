package payout

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gymmatch/manager-api/internal/revenue"
)

var ErrInvalidTransition = errors.New("invalid payout status transition")

// Payout is a trainer's compensation for one period, tracked until paid.
type Payout struct {
	ID                     uint                     `gorm:"primaryKey" json:"id"`
	TrainerID              string                   `gorm:"size:64;not null;uniqueIndex:idx_payout_period" json:"trainerId"`
	TrainerName            string                   `gorm:"size:120" json:"trainerName"`
	PeriodStart            time.Time                `gorm:"not null;uniqueIndex:idx_payout_period" json:"periodStart"`
	PeriodEnd              time.Time                `gorm:"not null;uniqueIndex:idx_payout_period" json:"periodEnd"`
	CompensationType       revenue.CompensationType `gorm:"size:20" json:"compensationType"`
	GrossRevenue           float64                  `gorm:"not null;default:0" json:"grossRevenue"`
	Amount                 float64                  `gorm:"not null;default:0" json:"amount"`
	CompensationPercentage float64                  `gorm:"not null;default:0" json:"compensationPercentage"`
	Status                 revenue.PaymentStatus    `gorm:"size:20;not null;default:'pending';index" json:"status"`
	PaymentDate            *time.Time               `json:"paymentDate,omitempty"`
	CreatedAt              time.Time                `json:"createdAt"`
	UpdatedAt              time.Time                `json:"updatedAt"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Payout{})
}

// FromDistribution builds a pending payout from a calculated distribution.
func FromDistribution(period revenue.Period, d revenue.TrainerDistribution) Payout {
	return Payout{
		TrainerID:              d.TrainerID,
		TrainerName:            d.TrainerName,
		PeriodStart:            period.StartDate,
		PeriodEnd:              period.EndDate,
		CompensationType:       d.CalculationDetails.Type,
		GrossRevenue:           d.GrossRevenue,
		Amount:                 d.Compensation,
		CompensationPercentage: d.CompensationPercentage,
		Status:                 revenue.PaymentPending,
	}
}

var statusOrder = map[revenue.PaymentStatus]int{
	revenue.PaymentPending:   0,
	revenue.PaymentProcessed: 1,
	revenue.PaymentPaid:      2,
}

// Advance moves p to next. Status only moves forward and paid is terminal.
// The payment date is stamped when p becomes paid.
func (p *Payout) Advance(next revenue.PaymentStatus, now time.Time) error {
	from, ok := statusOrder[p.Status]
	if !ok {
		return fmt.Errorf("%w: unknown current status %q", ErrInvalidTransition, p.Status)
	}
	to, ok := statusOrder[next]
	if !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	if to <= from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, next)
	}
	p.Status = next
	if next == revenue.PaymentPaid {
		paid := now
		p.PaymentDate = &paid
	}
	return nil
}
