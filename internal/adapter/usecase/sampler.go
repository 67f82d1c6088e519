package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"atlas-ads/internal/core/domain"
	"atlas-ads/internal/core/port"
)

// trackOpportunities records sampled opportunity rows for the campaigns
// judged eligible in this request. It is best-effort: errors are counted
// and swallowed, and a cancelled request skips sampling entirely (billing
// does not, see logImpression). WasShown is driven by the selector's
// actual pick, never re-derived.
func (s *AdService) trackOpportunities(ctx context.Context, requestID string, eligible []port.CampaignCandidate, selectedCampaign *uuid.UUID, req *domain.AdRequest) {
	if len(eligible) == 0 || ctx.Err() != nil {
		return
	}

	placement, err := s.attributePlacement(ctx, req)
	if err != nil {
		s.metrics.SamplingFailuresTotal.Inc()
		s.logger.Error("opportunity placement lookup failed", slog.Any("error", err))
		return
	}
	if placement == nil {
		// No placement to attribute to: skip sampling for this request.
		return
	}

	now := s.now().UTC()
	var opps []domain.Opportunity
	for i := range eligible {
		campaign := &eligible[i].Campaign
		if !domain.SampleOpportunity(requestID, campaign.ID, campaign.SamplingRate) {
			continue
		}
		opps = append(opps, domain.Opportunity{
			ID:          uuid.New(),
			CampaignID:  campaign.ID,
			PlacementID: placement.ID,
			WasShown:    selectedCampaign != nil && *selectedCampaign == campaign.ID,
			RequestID:   requestID,
			DeviceType:  req.DeviceType,
			OS:          req.OS,
			Country:     req.Country,
			Timestamp:   now,
		})
	}
	if len(opps) == 0 {
		return
	}

	if err := s.repo.CreateOpportunities(ctx, opps); err != nil {
		s.metrics.SamplingFailuresTotal.Inc()
		s.logger.Error("opportunity write failed", slog.Any("error", err))
		return
	}
	s.metrics.OpportunitiesTotal.Add(float64(len(opps)))
}

// attributePlacement picks the placement an opportunity is recorded
// against: the first active placement fitting the requested slot size,
// else the first active placement, else nil.
func (s *AdService) attributePlacement(ctx context.Context, req *domain.AdRequest) (*domain.Placement, error) {
	placements, err := s.repo.ListActivePlacements(ctx)
	if err != nil {
		return nil, err
	}
	if len(placements) == 0 {
		return nil, nil
	}
	if req.Width > 0 && req.Height > 0 {
		for i := range placements {
			if placements[i].FitsSlot(req.Width, req.Height) {
				return &placements[i], nil
			}
		}
	}
	return &placements[0], nil
}
