package domain

import (
	"time"

	"github.com/google/uuid"
)

// CreativeType enumerates the renderable ad unit kinds.
type CreativeType string

const (
	TypeBanner       CreativeType = "banner"
	TypeInterstitial CreativeType = "interstitial"
	TypeNative       CreativeType = "native"
	TypeVideo        CreativeType = "video"
)

// Creative represents a renderable ad unit belonging to a campaign.
type Creative struct {
	ID          uuid.UUID
	CampaignID  uuid.UUID
	PlacementID *uuid.UUID
	// PlacementCode is resolved from the placement on read; empty when
	// the creative has no placement.
	PlacementCode  string
	Name           string
	Type           CreativeType
	Title          string
	Description    string
	ImageURL       string
	VideoURL       string
	CallToAction   string
	DestinationURL string
	// Width/Height are nil for creatives that adapt to any slot size.
	Width    *int
	Height   *int
	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fits reports whether the creative fits a slot of the given dimensions.
// Creatives without fixed dimensions fit anywhere; a request without a
// stated slot size accepts any creative.
func (c *Creative) Fits(slotWidth, slotHeight int) bool {
	if slotWidth <= 0 || slotHeight <= 0 {
		return true
	}
	if c.Width == nil || c.Height == nil {
		return true
	}
	return *c.Width <= slotWidth && *c.Height <= slotHeight
}
