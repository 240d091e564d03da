package payout

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gymmatch/manager-api/internal/revenue"
)

var ErrPayoutNotFound = errors.New("payout not found")

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// CreateBatch stores payouts in one statement and returns the rows that
// were inserted. A payout already recorded for the same trainer and period
// is left untouched and missing from the result.
func (r *Repository) CreateBatch(ctx context.Context, payouts []Payout) ([]Payout, error) {
	if len(payouts) == 0 {
		return nil, nil
	}
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&payouts).Error
	if err != nil {
		return nil, err
	}
	inserted := make([]Payout, 0, len(payouts))
	for _, p := range payouts {
		if p.ID != 0 {
			inserted = append(inserted, p)
		}
	}
	return inserted, nil
}

// List returns payouts filtered by status and trainer when set.
func (r *Repository) List(ctx context.Context, status revenue.PaymentStatus, trainerID string) ([]Payout, error) {
	q := r.DB.WithContext(ctx).Order("period_start DESC, trainer_id")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if trainerID != "" {
		q = q.Where("trainer_id = ?", trainerID)
	}
	var list []Payout
	err := q.Find(&list).Error
	return list, err
}

// UpdateStatus applies fn to the payout under a row lock and saves it.
func (r *Repository) UpdateStatus(ctx context.Context, id uint, fn func(*Payout) error) (*Payout, error) {
	var p Payout
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPayoutNotFound
			}
			return err
		}
		if err := fn(&p); err != nil {
			return err
		}
		return tx.Model(&p).Select("status", "payment_date").Updates(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
