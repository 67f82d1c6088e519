package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"atlas-ads/internal/core/domain"
)

// AdUseCase defines the business operations exposed by the decision
// engine. This is the primary inbound port.
type AdUseCase interface {
	// ServeAds selects up to req.Limit creatives for the request, logs an
	// impression for the first one, debits the campaign's daily budget
	// and records sampled opportunities as a side channel. It returns
	// ErrNoInventory when no creative survives eligibility filtering and
	// ErrValidation when required request fields are missing.
	ServeAds(ctx context.Context, req *domain.AdRequest) ([]AdPayload, error)

	// RegisterClick appends a click record for the creative. Clicks are
	// not billed. Unknown ids return ErrAdNotFound.
	RegisterClick(ctx context.Context, adID uuid.UUID) error

	// Stats returns delivery statistics for one campaign, or for all
	// campaigns when campaignID is nil.
	Stats(ctx context.Context, campaignID *uuid.UUID) ([]CampaignStats, error)

	// ResetDailyBudgets clears sticky exceeded flags and returns the
	// number of campaigns reset. A zero day means today; a non-nil
	// campaignID restricts the reset to one campaign. Intended for the
	// midnight cron entry point.
	ResetDailyBudgets(ctx context.Context, day time.Time, campaignID *uuid.UUID) (int64, error)
}

// AdPayload is the wire representation of one served creative. It is a
// DTO for the HTTP layer and carries no domain behaviour.
type AdPayload struct {
	ID            uuid.UUID           `json:"id"`
	CampaignID    uuid.UUID           `json:"campaign_id"`
	AdType        domain.CreativeType `json:"ad_type"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	ImageURL      string              `json:"image_url,omitempty"`
	VideoURL      string              `json:"video_url,omitempty"`
	CTA           string              `json:"cta"`
	ActionURL     string              `json:"action_url"`
	Width         *int                `json:"width"`
	Height        *int                `json:"height"`
	PlacementCode string              `json:"placement_code,omitempty"`
}

// PayloadFor builds the wire payload for a creative.
func PayloadFor(cr *domain.Creative) AdPayload {
	return AdPayload{
		ID:            cr.ID,
		CampaignID:    cr.CampaignID,
		AdType:        cr.Type,
		Title:         cr.Title,
		Description:   cr.Description,
		ImageURL:      cr.ImageURL,
		VideoURL:      cr.VideoURL,
		CTA:           cr.CallToAction,
		ActionURL:     cr.DestinationURL,
		Width:         cr.Width,
		Height:        cr.Height,
		PlacementCode: cr.PlacementCode,
	}
}
