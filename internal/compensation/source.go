package compensation

import (
	"context"
	"fmt"
	"time"

	"github.com/gymmatch/manager-api/internal/revenue"
)

// Source resolves engine policies from stored rows.
type Source struct {
	Store        Store
	DefaultTiers []revenue.Tier
}

// EffectivePolicy returns the policy in force for trainerID at t, or
// ErrPolicyNotFound. A row whose range does not cover t is treated as
// missing.
func (s Source) EffectivePolicy(ctx context.Context, trainerID string, at time.Time) (revenue.Policy, error) {
	row, err := s.Store.FindEffective(ctx, trainerID, at)
	if err != nil {
		return revenue.Policy{}, err
	}
	policy := row.ToPolicy(s.DefaultTiers)
	if !policy.ActiveAt(at) {
		return revenue.Policy{}, fmt.Errorf("policy %d not in force at %s: %w", row.ID, at.Format(time.RFC3339), ErrPolicyNotFound)
	}
	return policy, nil
}
