package usecase

import (
	"context"
	"time"

	"atlas-ads/internal/core/domain"
	"atlas-ads/internal/core/port"
)

// eligibleCampaigns composes the targeting matcher with budget admission.
// The repository already restricts to active in-window campaigns ordered
// by recency; this keeps the ones where any target matches the request
// and the budget ledger admits the estimated cost.
func (s *AdService) eligibleCampaigns(ctx context.Context, req *domain.AdRequest, now time.Time) ([]port.CampaignCandidate, error) {
	candidates, err := s.repo.ListServableCampaigns(ctx, now)
	if err != nil {
		return nil, err
	}

	eligible := candidates[:0]
	for i := range candidates {
		candidate := &candidates[i]
		if !matchesAnyTarget(candidate.Targets, req) {
			continue
		}
		admit, err := s.canAdmit(ctx, &candidate.Campaign, now)
		if err != nil {
			return nil, err
		}
		if !admit {
			continue
		}
		eligible = append(eligible, *candidate)
	}
	return eligible, nil
}

// matchesAnyTarget treats a campaign without targets as untargeted (it
// matches everyone); otherwise any single matching target suffices.
func matchesAnyTarget(targets []domain.Target, req *domain.AdRequest) bool {
	if len(targets) == 0 {
		return true
	}
	for i := range targets {
		if targets[i].Matches(req) {
			return true
		}
	}
	return false
}

// canAdmit is the budget-aware admission check. Before the daily budget
// is exceeded it admits while spent+cost still fits; after the crossing
// the campaign's configured action decides:
//
//	pause_day, pause_campaign, stop_immediately  deny for the day
//	continue_limited                             admit at the flat configured rate
//	email_notify                                 always admit
//
// A non-positive daily budget means there is nothing to admit against.
func (s *AdService) canAdmit(ctx context.Context, campaign *domain.Campaign, now time.Time) (bool, error) {
	if !campaign.DailyBudget.IsPositive() {
		return false, nil
	}

	day := domain.Day(now)
	exceeded, err := s.ledger.IsExceeded(ctx, campaign.ID, day)
	if err != nil {
		return false, err
	}
	if !exceeded {
		spent, err := s.ledger.DailySpent(ctx, campaign.ID, day)
		if err != nil {
			return false, err
		}
		return spent.Add(s.cost).LessThanOrEqual(campaign.DailyBudget), nil
	}

	switch campaign.BudgetExceededAction {
	case domain.ActionContinueLimited:
		return s.randFloat() < s.limitedRate, nil
	case domain.ActionEmailNotify:
		return true, nil
	default:
		// pause_day, pause_campaign, stop_immediately
		return false, nil
	}
}
