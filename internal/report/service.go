// Package report exposes the revenue engine over HTTP: period
// distributions, plan simulations and comparisons, and target checks.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gymmatch/manager-api/internal/compensation"
	"github.com/gymmatch/manager-api/internal/notification"
	"github.com/gymmatch/manager-api/internal/revenue"
	"github.com/gymmatch/manager-api/internal/utils"
)

// ErrMissingPolicy is returned when a trainer has no policy in force at the
// start of the period.
var ErrMissingPolicy = errors.New("no compensation policy in force")

// PolicySource resolves a trainer's policy at a point in time.
type PolicySource interface {
	EffectivePolicy(ctx context.Context, trainerID string, at time.Time) (revenue.Policy, error)
}

type Service struct {
	Policies PolicySource
	Notifier notification.Notifier
	Logger   *slog.Logger
}

func NewService(policies PolicySource, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{Policies: policies, Notifier: notifier, Logger: logger.With("module", "report")}
}

// Distribution computes every trainer's share for the period using the
// policy in force on the period's start date, with minimum guarantees
// applied. The result is ranked when SortBy is set.
func (s *Service) Distribution(ctx context.Context, req DistributionRequest) (revenue.RevenueDistribution, error) {
	dists := make([]revenue.TrainerDistribution, 0, len(req.Trainers))
	for _, t := range req.Trainers {
		policy, err := s.Policies.EffectivePolicy(ctx, t.TrainerID, req.Period.StartDate)
		if errors.Is(err, compensation.ErrPolicyNotFound) {
			return revenue.RevenueDistribution{}, fmt.Errorf("trainer %s: %w", t.TrainerID, ErrMissingPolicy)
		}
		if err != nil {
			return revenue.RevenueDistribution{}, fmt.Errorf("load policy for trainer %s: %w", t.TrainerID, err)
		}

		name := t.TrainerName
		if name == "" {
			name = policy.TrainerName
		}
		d := revenue.CalculateTrainerDistribution(t.TrainerID, name, t.GrossRevenue, t.Sessions, policy)
		d = revenue.WithMinimumGuarantee(d, policy.MinimumGuarantee)
		if len(t.Bonuses) > 0 {
			d.CalculationDetails.Bonuses = append(d.CalculationDetails.Bonuses, t.Bonuses...)
		}
		dists = append(dists, d)
	}

	result := revenue.CalculateRevenueDistribution(req.Period, dists, req.Expenses)
	if req.SortBy != "" {
		result.TrainerDistributions = revenue.GenerateTrainerRanking(result.TrainerDistributions, req.SortBy)
	}

	if result.GymRevenue < 0 {
		s.Logger.WarnContext(ctx, "gym revenue is negative",
			"request_id", utils.RequestIDFrom(ctx),
			"total_revenue", result.TotalRevenue,
			"total_compensation", result.TotalCompensation(),
			"gym_revenue", result.GymRevenue,
		)
		notification.NotifyAsync(ctx, s.Notifier, s.Logger, notification.Alert{
			Kind:      notification.KindNegativeGymRevenue,
			Message:   "trainer compensation exceeds total revenue for the period",
			RequestID: utils.RequestIDFrom(ctx),
			Details: map[string]any{
				"periodStart":  req.Period.StartDate,
				"periodEnd":    req.Period.EndDate,
				"totalRevenue": result.TotalRevenue,
				"gymRevenue":   result.GymRevenue,
			},
		})
	}
	return result, nil
}

// Target rates actual revenue against a target. Unmeasurable targets are
// reported to the alert channel.
func (s *Service) Target(ctx context.Context, req TargetRequest) revenue.TargetAchievement {
	result := revenue.CalculateTargetAchievement(req.Actual, req.Target)
	if !result.Measurable() {
		s.Logger.InfoContext(ctx, "target is zero, achievement unmeasurable",
			"request_id", utils.RequestIDFrom(ctx), "actual", req.Actual)
		notification.NotifyAsync(ctx, s.Notifier, s.Logger, notification.Alert{
			Kind:      notification.KindUnmeasurableTarget,
			Message:   "revenue target is zero",
			RequestID: utils.RequestIDFrom(ctx),
			Details:   map[string]any{"actual": req.Actual},
		})
	}
	return result
}
