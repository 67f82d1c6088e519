package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"atlas-ads/internal/core/domain"
)

// CampaignCandidate bundles a servable campaign with its targeting
// predicate sets and active creatives, as loaded for one eligibility
// evaluation.
type CampaignCandidate struct {
	Campaign  domain.Campaign
	Targets   []domain.Target
	Creatives []domain.Creative
}

// AdRepository defines the persistence layer consumed by the decision
// engine. It is an outbound port; implementations must be safe for
// concurrent use. Event writes are append-only and require no cross-row
// coordination.
type AdRepository interface {
	// ListServableCampaigns returns campaigns with status=active whose
	// active window contains now, together with their targets and active
	// creatives, ordered by campaign creation time descending.
	ListServableCampaigns(ctx context.Context, now time.Time) ([]CampaignCandidate, error)

	// ListActivePlacements returns active placements ordered by name.
	ListActivePlacements(ctx context.Context) ([]domain.Placement, error)

	// GetCreative returns a creative by id, or nil when it does not exist.
	GetCreative(ctx context.Context, id uuid.UUID) (*domain.Creative, error)

	// GetCampaign returns a campaign by id, or nil when it does not exist.
	GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)

	// PauseCampaign flips a campaign's status to paused.
	PauseCampaign(ctx context.Context, id uuid.UUID) error

	// CreateImpression appends an impression record.
	CreateImpression(ctx context.Context, imp *domain.Impression) error

	// CreateClick appends a click record.
	CreateClick(ctx context.Context, click *domain.Click) error

	// CreateOpportunities appends sampled opportunity records.
	CreateOpportunities(ctx context.Context, opps []domain.Opportunity) error

	// Stats returns aggregated delivery statistics, restricted to one
	// campaign when campaignID is non-nil. Display-rate figures cover the
	// calendar day containing now.
	Stats(ctx context.Context, campaignID *uuid.UUID, now time.Time) ([]CampaignStats, error)
}

// CampaignStats aggregates delivery counters for one campaign.
type CampaignStats struct {
	CampaignID   uuid.UUID             `json:"campaign_id"`
	CampaignName string                `json:"campaign_name"`
	CompanyName  string                `json:"company_name"`
	Status       domain.CampaignStatus `json:"status"`

	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CTR         float64 `json:"ctr"`

	// DisplayRate estimates shown/opportunities for today from sampled
	// opportunity records, as a percentage.
	DisplayRate          float64 `json:"display_rate"`
	SampledOpportunities int64   `json:"sampled_opportunities"`

	Creatives []CreativeStats `json:"creatives"`
}

// CreativeStats aggregates delivery counters for one creative.
type CreativeStats struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Type        domain.CreativeType `json:"type"`
	Impressions int64               `json:"impressions"`
	Clicks      int64               `json:"clicks"`
	CTR         float64             `json:"ctr"`
}
