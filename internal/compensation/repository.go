package compensation

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrPolicyNotFound = errors.New("compensation policy not found")

// Repository wraps database access for compensation policies.
type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPolicyNotFound
	}
	return err
}

func (r *Repository) Create(ctx context.Context, p *CompensationPolicy) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*CompensationPolicy, error) {
	var p CompensationPolicy
	if err := r.DB.WithContext(ctx).Preload("Tiers").First(&p, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &p, nil
}

// List returns every policy, or only those of trainerID when it is set.
func (r *Repository) List(ctx context.Context, trainerID string) ([]CompensationPolicy, error) {
	q := r.DB.WithContext(ctx).Preload("Tiers").Order("trainer_id, effective_from DESC")
	if trainerID != "" {
		q = q.Where("trainer_id = ?", trainerID)
	}
	var list []CompensationPolicy
	err := q.Find(&list).Error
	return list, err
}

// Replace overwrites the policy with id, including its tier rows.
func (r *Repository) Replace(ctx context.Context, id uint, p *CompensationPolicy) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing CompensationPolicy
		if err := tx.First(&existing, id).Error; err != nil {
			return wrapNotFound(err)
		}
		if err := tx.Where("policy_id = ?", id).Delete(&CompensationTier{}).Error; err != nil {
			return err
		}
		p.ID = id
		p.CreatedAt = existing.CreatedAt
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(p).Error
	})
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&CompensationPolicy{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPolicyNotFound
	}
	return nil
}

// FindEffective returns the trainer's policy in force at the given time.
// When ranges overlap the one that started last wins.
func (r *Repository) FindEffective(ctx context.Context, trainerID string, at time.Time) (*CompensationPolicy, error) {
	var p CompensationPolicy
	err := r.DB.WithContext(ctx).
		Preload("Tiers").
		Where("trainer_id = ? AND effective_from <= ?", trainerID, at).
		Where("effective_to IS NULL OR effective_to >= ?", at).
		Order("effective_from DESC").
		First(&p).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &p, nil
}
